package simd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsInplace(t *testing.T) {
	buf := []float64{-1, 2, -3.5, 0}
	AbsInplace(buf)
	assert.Equal(t, []float64{1, 2, 3.5, 0}, buf)
}

func TestMaxZeroInplace(t *testing.T) {
	buf := []float64{-1, 2, -3.5, 0}
	MaxZeroInplace(buf)
	assert.Equal(t, []float64{0, 2, 0, 0}, buf)
}

func TestSum(t *testing.T) {
	buf := []float64{1, 2, 3, 4}
	assert.InDelta(t, 10.0, Sum(buf), 1e-12)
}

func TestSumOfSquares(t *testing.T) {
	buf := []float64{1, -2, 3, -4, 5}
	assert.InDelta(t, 55.0, SumOfSquares(buf), 1e-12)
}

func TestApplyWindow(t *testing.T) {
	in := []float64{1, 2, 3}
	win := []float64{0.5, 1, 0.5}
	out := make([]float64, 3)
	ApplyWindow(in, win, out)
	assert.Equal(t, []float64{0.5, 2, 1.5}, out)
}

func TestDotProduct(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	assert.InDelta(t, 32.0, DotProduct(a, b), 1e-12)
}

func TestComplexHelpers(t *testing.T) {
	assert.InDelta(t, 5.0, ComplexMagnitude(3, 4), 1e-12)
	assert.InDelta(t, 25.0, ComplexPower(3, 4), 1e-12)
	re, im := ComplexMultiply(1, 2, 3, 4)
	assert.InDelta(t, -5.0, re, 1e-12)
	assert.InDelta(t, 10.0, im, 1e-12)
}

func TestDetectedLevelIsKnown(t *testing.T) {
	lvl := DetectedLevel()
	switch lvl {
	case LevelScalar, LevelSSE2, LevelAVX2, LevelNEON:
	default:
		t.Fatalf("unexpected detected level: %v", lvl)
	}
}

func TestSumParityWithNaiveAccumulation(t *testing.T) {
	buf := make([]float64, 1000)
	for i := range buf {
		buf[i] = float64(i%7) - 3
	}
	var naive float64
	for _, x := range buf {
		naive += x
	}
	got := Sum(buf)
	assert.True(t, math.Abs(got-naive) < 1e-6, "got=%v naive=%v", got, naive)
}
