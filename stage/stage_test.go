package stage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticMovingAverageS1(t *testing.T) {
	st, err := New(Config{Kind: KindMovingAverage, Mode: ModeMoving, WindowSize: 3}, 1)
	require.NoError(t, err)

	input := []float64{1, 2, 3, 4, 5}
	expected := []float64{1, 1.5, 2, 3, 4}
	for i, x := range input {
		got, err := st.ProcessSample(0, x, float64(i))
		require.NoError(t, err)
		assert.InDelta(t, expected[i], got, 1e-9)
	}
}

func TestStatisticRectifyThenRMSS3(t *testing.T) {
	rect, err := New(Config{Kind: KindRectify, RectifyMode: "full"}, 1)
	require.NoError(t, err)
	rms, err := New(Config{Kind: KindRMS, Mode: ModeMoving, WindowSize: 2}, 1)
	require.NoError(t, err)

	input := []float64{1, -2, 3, -4}
	expected := []float64{1, math.Sqrt(5.0 / 2), math.Sqrt(13.0 / 2), math.Sqrt(25.0 / 2)}

	for i, x := range input {
		r, err := rect.ProcessSample(0, x, float64(i))
		require.NoError(t, err)
		out, err := rms.ProcessSample(0, r, float64(i))
		require.NoError(t, err)
		assert.InDelta(t, expected[i], out, 1e-9)
	}
}

func TestStatisticTwoChannelMovingAverageS4(t *testing.T) {
	st, err := New(Config{Kind: KindMovingAverage, Mode: ModeMoving, WindowSize: 2}, 2)
	require.NoError(t, err)

	chan0 := []float64{10, 20, 30, 40}
	chan1 := []float64{100, 200, 300, 400}
	expected0 := []float64{10, 15, 25, 35}
	expected1 := []float64{100, 150, 250, 350}

	for i := range chan0 {
		got0, err := st.ProcessSample(0, chan0[i], float64(i))
		require.NoError(t, err)
		got1, err := st.ProcessSample(1, chan1[i], float64(i))
		require.NoError(t, err)
		assert.InDelta(t, expected0[i], got0, 1e-9)
		assert.InDelta(t, expected1[i], got1, 1e-9)
	}
}

func TestStatisticBatchModeIdempotence(t *testing.T) {
	st, err := New(Config{Kind: KindVariance, Mode: ModeBatch}, 1)
	require.NoError(t, err)

	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	n := float64(len(values))
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	wantVar := sumSq/n - mean*mean

	got, err := st.ProcessBatch(0, values)
	require.NoError(t, err)
	assert.InDelta(t, wantVar, got, 1e-9)
}

func TestStatisticSaveLoadAcrossChunks(t *testing.T) {
	s1, err := New(Config{Kind: KindMovingAverage, Mode: ModeMoving, WindowSize: 3}, 1)
	require.NoError(t, err)
	for i, x := range []float64{1, 2, 3, 4, 5} {
		_, err := s1.ProcessSample(0, x, float64(i))
		require.NoError(t, err)
	}
	state := s1.ExportState()

	s2, err := New(Config{Kind: KindMovingAverage, Mode: ModeMoving, WindowSize: 3}, 1)
	require.NoError(t, err)
	require.NoError(t, s2.ImportState(state))

	var out []float64
	for i, x := range []float64{6, 7, 8} {
		got, err := s2.ProcessSample(0, x, float64(5+i))
		require.NoError(t, err)
		out = append(out, got)
	}
	assert.InDeltaSlice(t, []float64{5, 6, 7}, out, 1e-9)
}

func TestRectifyHalfMode(t *testing.T) {
	st, err := New(Config{Kind: KindRectify, RectifyMode: "half"}, 1)
	require.NoError(t, err)
	got, err := st.ProcessSample(0, -3, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
	got, err = st.ProcessSample(0, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}

func TestExpressionStage(t *testing.T) {
	st, err := New(Config{Kind: KindExpression, Expression: "x * 2 + prev"}, 1)
	require.NoError(t, err)

	got, err := st.ProcessSample(0, 5, 0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9) // prev starts at 0

	got, err = st.ProcessSample(0, 3, 1)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, got, 1e-9) // 3*2 + prev(5)
}

func TestExpressionStateRoundTrip(t *testing.T) {
	s1, err := New(Config{Kind: KindExpression, Expression: "x + prev"}, 1)
	require.NoError(t, err)
	_, err = s1.ProcessSample(0, 7, 0)
	require.NoError(t, err)
	state := s1.ExportState()

	s2, err := New(Config{Kind: KindExpression, Expression: "x + prev"}, 1)
	require.NoError(t, err)
	require.NoError(t, s2.ImportState(state))

	got, err := s2.ProcessSample(0, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, got, 1e-9)
}

func TestNewUnknownStageKind(t *testing.T) {
	_, err := New(Config{Kind: "bogus"}, 1)
	assert.Error(t, err)
}

func TestNewStatisticConflictingModeParams(t *testing.T) {
	_, err := New(Config{Kind: KindMovingAverage, Mode: ModeBatch, WindowSize: 3}, 1)
	assert.Error(t, err)
}
