package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanPolicy(t *testing.T) {
	p := &MeanPolicy{}
	vals := []float64{1, 2, 3}
	for _, v := range vals {
		p.OnAdd(v)
	}
	assert.InDelta(t, 2.0, p.Result(3), 1e-12)

	p.OnRemove(1)
	assert.InDelta(t, 2.5, p.Result(2), 1e-12)
}

func TestRMSPolicyMatchesS2(t *testing.T) {
	// S2: RMS, window 3, input [1, -2, 3, -4, 5].
	window := []float64{1, -2, 3, -4, 5}
	expected := []float64{1, math.Sqrt(5.0 / 2), math.Sqrt(14.0 / 3), math.Sqrt(29.0 / 3), math.Sqrt(50.0 / 3)}

	p := &RMSPolicy{}
	var buf []float64
	for i, x := range window {
		if len(buf) == 3 {
			p.OnRemove(buf[0])
			buf = buf[1:]
		}
		buf = append(buf, x)
		p.OnAdd(x)
		assert.InDelta(t, expected[i], p.Result(len(buf)), 1e-9)
	}
}

func TestMAVPolicy(t *testing.T) {
	p := &MAVPolicy{}
	p.OnAdd(-3)
	p.OnAdd(4)
	assert.InDelta(t, 3.5, p.Result(2), 1e-12)
}

func TestVariancePolicyNeverNegative(t *testing.T) {
	p := &VariancePolicy{}
	p.OnAdd(1.0000001)
	p.OnAdd(1.0000002)
	p.OnAdd(1.0000000)
	v := p.Result(3)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.False(t, math.IsNaN(v))
}

func TestVariancePolicyZeroCount(t *testing.T) {
	p := &VariancePolicy{}
	assert.Equal(t, 0.0, p.Result(0))
}

func TestZScorePolicyFewSamples(t *testing.T) {
	p := &ZScorePolicy{epsilon: DefaultEpsilon}
	p.OnAdd(5)
	assert.Equal(t, 0.0, p.ResultAt(5, 1))
}

func TestZScorePolicyFlatSeries(t *testing.T) {
	p := &ZScorePolicy{epsilon: DefaultEpsilon}
	p.OnAdd(5)
	p.OnAdd(5)
	// std is 0, below epsilon, so the result must be 0, not NaN/Inf.
	assert.Equal(t, 0.0, p.ResultAt(5, 2))
}

func TestZScorePolicyBasic(t *testing.T) {
	p := &ZScorePolicy{epsilon: DefaultEpsilon}
	vals := []float64{1, 2, 3, 4, 5}
	for _, v := range vals {
		p.OnAdd(v)
	}
	mean := 3.0
	variance := 2.0 // population variance of 1..5
	std := math.Sqrt(variance)
	got := p.ResultAt(5, 5)
	assert.InDelta(t, (5-mean)/std, got, 1e-9)
}

func TestPolicyOnRemoveReversesOnAdd(t *testing.T) {
	for _, kind := range []Kind{KindMean, KindRMS, KindMAV, KindVariance} {
		p, err := New(kind, 0)
		require.NoError(t, err)
		p.OnAdd(7)
		p.OnRemove(7)
		assert.Equal(t, 0.0, p.Result(0))
		assert.Equal(t, State{}, p.State())
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Kind("bogus"), 0)
	assert.Error(t, err)
}

func TestZScoreDefaultEpsilon(t *testing.T) {
	p, err := New(KindZScore, 0)
	require.NoError(t, err)
	zp := p.(*ZScorePolicy)
	assert.Equal(t, DefaultEpsilon, zp.Epsilon())
}

func TestStateRoundTrip(t *testing.T) {
	p := &VariancePolicy{}
	p.OnAdd(1)
	p.OnAdd(2)
	p.OnAdd(3)
	s := p.State()

	fresh := &VariancePolicy{}
	fresh.SetState(s)
	assert.Equal(t, p.Result(3), fresh.Result(3))
}
