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

// Package policy implements the incremental single-statistic accumulators
// used by the sliding-window filter engine: running mean, RMS, mean
// absolute value, variance, and z-score. Each policy is a value-like
// accumulator with an on_add/on_remove/result contract so that a sliding
// window can evict an expired sample in O(1) without rescanning its
// buffer.
package policy

import "math"

// Kind is the stable name of a policy, used by the state codec and the
// stage factory.
type Kind string

const (
	KindMean     Kind = "mean"
	KindRMS      Kind = "rms"
	KindMAV      Kind = "mav"
	KindVariance Kind = "variance"
	KindZScore   Kind = "zscore"
)

// State is the exact, exportable accumulator state of a policy. Only the
// fields relevant to a given policy kind are populated; the rest are left
// at zero. It round-trips through the state codec verbatim.
type State struct {
	Sum    float64
	SumSq  float64
	SumAbs float64
}

// Policy is the contract every sliding-window statistic implements. New
// must never be called per-sample; it is selected once at stage
// construction, not dispatched per sample (the per-sample calls are
// OnAdd/OnRemove/Result).
type Policy interface {
	// OnAdd updates internal accumulators to reflect inclusion of x.
	OnAdd(x float64)
	// OnRemove reverses the effect of a prior OnAdd(x). Calling it without
	// a matching prior OnAdd is a programming error.
	OnRemove(x float64)
	// Clear resets the policy to its initial (empty) state.
	Clear()
	// Result returns the statistic assuming n samples are in the window.
	Result(n int) float64
	// State exports the internal accumulators exactly.
	State() State
	// SetState imports accumulators exactly, without recomputation.
	SetState(State)
	// Kind returns the policy's stable wire tag.
	Kind() Kind
}

// New constructs a fresh policy instance for the given kind. epsilon is
// only meaningful for KindZScore; it is ignored otherwise.
func New(kind Kind, epsilon float64) (Policy, error) {
	switch kind {
	case KindMean:
		return &MeanPolicy{}, nil
	case KindRMS:
		return &RMSPolicy{}, nil
	case KindMAV:
		return &MAVPolicy{}, nil
	case KindVariance:
		return &VariancePolicy{}, nil
	case KindZScore:
		if epsilon <= 0 {
			epsilon = DefaultEpsilon
		}
		return &ZScorePolicy{epsilon: epsilon}, nil
	default:
		return nil, &UnknownKindError{Kind: kind}
	}
}

// DefaultEpsilon is the default floor used by ZScorePolicy when the
// caller does not supply one.
const DefaultEpsilon = 1e-6

// UnknownKindError is returned by New for an unrecognized policy kind.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return "policy: unknown kind " + string(e.Kind)
}

// MeanPolicy computes a running arithmetic mean.
type MeanPolicy struct {
	sum float64
}

func (p *MeanPolicy) OnAdd(x float64)    { p.sum += x }
func (p *MeanPolicy) OnRemove(x float64) { p.sum -= x }
func (p *MeanPolicy) Clear()             { p.sum = 0 }
func (p *MeanPolicy) Kind() Kind         { return KindMean }

func (p *MeanPolicy) Result(n int) float64 {
	if n <= 0 {
		return 0
	}
	return p.sum / float64(n)
}

func (p *MeanPolicy) State() State     { return State{Sum: p.sum} }
func (p *MeanPolicy) SetState(s State) { p.sum = s.Sum }

// RMSPolicy computes a running root-mean-square.
type RMSPolicy struct {
	sumSq float64
}

func (p *RMSPolicy) OnAdd(x float64)    { p.sumSq += x * x }
func (p *RMSPolicy) OnRemove(x float64) { p.sumSq -= x * x }
func (p *RMSPolicy) Clear()             { p.sumSq = 0 }
func (p *RMSPolicy) Kind() Kind         { return KindRMS }

func (p *RMSPolicy) Result(n int) float64 {
	if n <= 0 {
		return 0
	}
	v := p.sumSq / float64(n)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

func (p *RMSPolicy) State() State     { return State{SumSq: p.sumSq} }
func (p *RMSPolicy) SetState(s State) { p.sumSq = s.SumSq }

// MAVPolicy computes a running mean absolute value.
type MAVPolicy struct {
	sumAbs float64
}

func (p *MAVPolicy) OnAdd(x float64)    { p.sumAbs += math.Abs(x) }
func (p *MAVPolicy) OnRemove(x float64) { p.sumAbs -= math.Abs(x) }
func (p *MAVPolicy) Clear()             { p.sumAbs = 0 }
func (p *MAVPolicy) Kind() Kind         { return KindMAV }

func (p *MAVPolicy) Result(n int) float64 {
	if n <= 0 {
		return 0
	}
	return p.sumAbs / float64(n)
}

func (p *MAVPolicy) State() State     { return State{SumAbs: p.sumAbs} }
func (p *MAVPolicy) SetState(s State) { p.sumAbs = s.SumAbs }

// VariancePolicy computes a running (biased, population) variance from
// sum and sum-of-squares accumulators. Removals cancel adds exactly
// because on_remove(x) is passed the same x that was added — no Kahan
// compensation survives a removal, by design of the accumulator shape.
type VariancePolicy struct {
	sum   float64
	sumSq float64
}

func (p *VariancePolicy) OnAdd(x float64) {
	p.sum += x
	p.sumSq += x * x
}

func (p *VariancePolicy) OnRemove(x float64) {
	p.sum -= x
	p.sumSq -= x * x
}

func (p *VariancePolicy) Clear() {
	p.sum, p.sumSq = 0, 0
}

func (p *VariancePolicy) Kind() Kind { return KindVariance }

func (p *VariancePolicy) Result(n int) float64 {
	return variance(p.sum, p.sumSq, n)
}

func (p *VariancePolicy) State() State {
	return State{Sum: p.sum, SumSq: p.sumSq}
}

func (p *VariancePolicy) SetState(s State) {
	p.sum, p.sumSq = s.Sum, s.SumSq
}

// variance computes sum_sq/n - (sum/n)^2, clamped to zero before any
// caller takes its square root so floating-point drift never produces a
// negative argument to sqrt.
func variance(sum, sumSq float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	nf := float64(n)
	mean := sum / nf
	v := sumSq/nf - mean*mean
	if v < 0 {
		v = 0
	}
	return v
}

// ZScorePolicy computes (x - mean) / max(std, epsilon) for the current
// sample x, using a running sum/sum-of-squares pair to derive mean and
// std. Unlike the other policies its Result needs the current sample
// value, not just the window count, so callers must use ResultAt.
type ZScorePolicy struct {
	sum     float64
	sumSq   float64
	epsilon float64
}

func (p *ZScorePolicy) OnAdd(x float64) {
	p.sum += x
	p.sumSq += x * x
}

func (p *ZScorePolicy) OnRemove(x float64) {
	p.sum -= x
	p.sumSq -= x * x
}

func (p *ZScorePolicy) Clear() {
	p.sum, p.sumSq = 0, 0
}

func (p *ZScorePolicy) Kind() Kind { return KindZScore }

// Result implements Policy for callers that don't have the current
// sample; it always returns 0, since a meaningful z-score requires the
// sample under test. Use ResultAt for the real computation.
func (p *ZScorePolicy) Result(n int) float64 {
	return 0
}

// ResultAt returns the z-score of x given n samples currently in the
// window (including x itself, per the sliding-window filter's add-before-
// result ordering). Returns 0 if n < 2 or the standard deviation is below
// epsilon.
func (p *ZScorePolicy) ResultAt(x float64, n int) float64 {
	if n < 2 {
		return 0
	}
	v := variance(p.sum, p.sumSq, n)
	std := math.Sqrt(v)
	if std < p.epsilon {
		return 0
	}
	mean := p.sum / float64(n)
	return (x - mean) / std
}

func (p *ZScorePolicy) State() State {
	return State{Sum: p.sum, SumSq: p.sumSq}
}

func (p *ZScorePolicy) SetState(s State) {
	p.sum, p.sumSq = s.Sum, s.SumSq
}

// Epsilon returns the policy's configured epsilon floor.
func (p *ZScorePolicy) Epsilon() float64 { return p.epsilon }
