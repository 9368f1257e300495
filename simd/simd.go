/*
 * Copyright 2025 The dspflow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package simd provides the elementwise numeric kernels used by stateless
// stages and by the statistical policies' batch mode: rectification,
// summation, windowing, dot product, and complex-number helpers for the
// FFT collaborator's interface completeness.
//
// Every kernel has a portable scalar implementation that is always
// correct and always available. detectFeatures() records which wider
// instruction set the running CPU advertises via golang.org/x/sys/cpu;
// that flag is the hook point for a future assembly-backed kernelSet; no
// such backend ships in this tree (see DESIGN.md), so DetectedLevel()
// only reports what's available, not an active alternate code path.
package simd

import "math"

// Level names the widest instruction set detectFeatures found.
type Level string

const (
	LevelScalar Level = "scalar"
	LevelSSE2   Level = "sse2"
	LevelAVX2   Level = "avx2"
	LevelNEON   Level = "neon"
)

var detectedLevel = detectFeatures()

// DetectedLevel returns the widest instruction set detected on the
// current CPU. The scalar kernels below run unconditionally regardless of
// this value; it is exposed for observability only.
func DetectedLevel() Level {
	return detectedLevel
}

// AbsInplace rectifies buf in place: buf[i] = |buf[i]|.
func AbsInplace(buf []float64) {
	for i, x := range buf {
		buf[i] = math.Abs(x)
	}
}

// MaxZeroInplace half-rectifies buf in place: buf[i] = max(0, buf[i]).
func MaxZeroInplace(buf []float64) {
	for i, x := range buf {
		if x < 0 {
			buf[i] = 0
		}
	}
}

// Sum returns the double-precision, Kahan-compensated sum of buf.
func Sum(buf []float64) float64 {
	var sum, c float64
	for _, x := range buf {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// SumOfSquares returns the double-precision, Kahan-compensated sum of
// squares of buf.
func SumOfSquares(buf []float64) float64 {
	var sum, c float64
	for _, x := range buf {
		sq := x * x
		y := sq - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// ApplyWindow writes out[i] = in[i] * win[i] for i in range. in, win, and
// out must have equal length.
func ApplyWindow(in, win, out []float64) {
	for i := range in {
		out[i] = in[i] * win[i]
	}
}

// DotProduct returns the inner product of a and b, which must have equal
// length. Used by the FIR-convolution collaborator.
func DotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// ComplexMagnitude returns sqrt(re^2 + im^2). Included for interface
// completeness with the FFT collaborator; not used by any stage in this
// package.
func ComplexMagnitude(re, im float64) float64 {
	return math.Hypot(re, im)
}

// ComplexPower returns re^2 + im^2.
func ComplexPower(re, im float64) float64 {
	return re*re + im*im
}

// ComplexMultiply returns (re1+im1 i) * (re2+im2 i).
func ComplexMultiply(re1, im1, re2, im2 float64) (re, im float64) {
	return re1*re2 - im1*im2, re1*im2 + im1*re2
}
