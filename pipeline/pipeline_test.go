package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-KGeorge/dspflow/drift"
	"github.com/A-KGeorge/dspflow/stage"
)

func TestProcessMovingAverageS1(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeMoving, WindowSize: 3}))

	out, err := p.Process([]float64{1, 2, 3, 4, 5}, ProcessOptions{Channels: 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 3, 4}, out, 1e-9)
}

func TestProcessRectifyThenRMSS3(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindRectify, RectifyMode: "full"}))
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindRMS, Mode: stage.ModeMoving, WindowSize: 2}))

	out, err := p.Process([]float64{1, -2, 3, -4}, ProcessOptions{Channels: 1})
	require.NoError(t, err)
	expected := []float64{1, math.Sqrt(5.0 / 2), math.Sqrt(13.0 / 2), math.Sqrt(25.0 / 2)}
	assert.InDeltaSlice(t, expected, out, 1e-9)
}

func TestProcessTwoChannelMovingAverageS4(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeMoving, WindowSize: 2}))

	input := []float64{10, 100, 20, 200, 30, 300, 40, 400}
	out, err := p.Process(input, ProcessOptions{Channels: 2})
	require.NoError(t, err)
	expected := []float64{10, 100, 15, 150, 25, 250, 35, 350}
	assert.InDeltaSlice(t, expected, out, 1e-9)
}

func TestSaveLoadAcrossChunksS5(t *testing.T) {
	p1 := New(nil)
	require.NoError(t, p1.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeMoving, WindowSize: 3}))
	_, err := p1.Process([]float64{1, 2, 3, 4, 5}, ProcessOptions{Channels: 1})
	require.NoError(t, err)

	blob, err := p1.SaveState()
	require.NoError(t, err)

	p2 := New(nil)
	require.NoError(t, p2.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeMoving, WindowSize: 3}))
	require.NoError(t, p2.LoadState(blob))

	out, err := p2.Process([]float64{6, 7, 8}, ProcessOptions{Channels: 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 6, 7}, out, 1e-9)
}

func TestChannelIndependenceP3(t *testing.T) {
	interleaved := []float64{10, 100, 20, 200, 30, 300, 40, 400}

	pTwo := New(nil)
	require.NoError(t, pTwo.AddStage(stage.Config{Kind: stage.KindRMS, Mode: stage.ModeMoving, WindowSize: 2}))
	outTwo, err := pTwo.Process(append([]float64{}, interleaved...), ProcessOptions{Channels: 2})
	require.NoError(t, err)

	var ch0, ch1 []float64
	for i := 0; i < len(interleaved); i += 2 {
		ch0 = append(ch0, interleaved[i])
		ch1 = append(ch1, interleaved[i+1])
	}

	p0 := New(nil)
	require.NoError(t, p0.AddStage(stage.Config{Kind: stage.KindRMS, Mode: stage.ModeMoving, WindowSize: 2}))
	out0, err := p0.Process(ch0, ProcessOptions{Channels: 1})
	require.NoError(t, err)

	p1 := New(nil)
	require.NoError(t, p1.AddStage(stage.Config{Kind: stage.KindRMS, Mode: stage.ModeMoving, WindowSize: 2}))
	out1, err := p1.Process(ch1, ProcessOptions{Channels: 1})
	require.NoError(t, err)

	for i := range out0 {
		assert.InDelta(t, out0[i], outTwo[i*2], 1e-9)
		assert.InDelta(t, out1[i], outTwo[i*2+1], 1e-9)
	}
}

func TestBatchModeIdempotenceP4(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeBatch}))

	input := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	out, err := p.Process(append([]float64{}, input...), ProcessOptions{Channels: 1})
	require.NoError(t, err)

	var sum float64
	for _, v := range input {
		sum += v
	}
	want := sum / float64(len(input))
	for _, v := range out {
		assert.InDelta(t, want, v, 1e-9)
	}
}

func TestCrossChunkContinuityP1(t *testing.T) {
	sizes := []int{1, 2, 8, 100}
	stream := make([]float64, 500)
	for i := range stream {
		stream[i] = math.Sin(float64(i)) * 10
	}

	for _, size := range sizes {
		whole := New(nil)
		require.NoError(t, whole.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeMoving, WindowSize: size}))
		wholeOut, err := whole.Process(append([]float64{}, stream...), ProcessOptions{Channels: 1})
		require.NoError(t, err)

		chunked := New(nil)
		require.NoError(t, chunked.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeMoving, WindowSize: size}))
		chunkSizes := []int{7, 13, 50, 1, 429}
		var chunkedOut []float64
		pos := 0
		for _, cs := range chunkSizes {
			end := pos + cs
			if end > len(stream) {
				end = len(stream)
			}
			out, err := chunked.Process(append([]float64{}, stream[pos:end]...), ProcessOptions{Channels: 1})
			require.NoError(t, err)
			chunkedOut = append(chunkedOut, out...)
			pos = end
		}
		assert.Equal(t, wholeOut, chunkedOut, "size=%d", size)
	}
}

func TestShapeErrorOnBadSampleCount(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindRectify}))
	_, err := p.Process([]float64{1, 2, 3}, ProcessOptions{Channels: 2})
	var shapeErr *ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func TestDriftDetectorObservesEveryProcessCall(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindRectify}))

	d := &drift.Detector{ExpectedIntervalMs: 10}
	p.SetDriftDetector(d)
	assert.Same(t, d, p.DriftDetector())

	_, err := p.Process([]float64{1, 2, 3}, ProcessOptions{Channels: 1, Timestamps: []float64{0, 10, 200}})
	require.NoError(t, err)

	rep := d.Observe(nil) // folding nothing should leave running state untouched
	assert.Len(t, rep.Gaps, 0)
	assert.Equal(t, 200.0, rep.MaxTimestampMs)

	p.SetDriftDetector(nil)
	assert.Nil(t, p.DriftDetector())
}

func TestListStateAndClearState(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.AddStage(stage.Config{Kind: stage.KindMovingAverage, Mode: stage.ModeMoving, WindowSize: 3}))
	_, err := p.Process([]float64{1, 2, 3}, ProcessOptions{Channels: 1})
	require.NoError(t, err)

	summary := p.ListState()
	require.Len(t, summary, 1)
	assert.Equal(t, stage.KindMovingAverage, summary[0].Kind)

	p.ClearState()
	out, err := p.Process([]float64{9}, ProcessOptions{Channels: 1})
	require.NoError(t, err)
	assert.InDelta(t, 9.0, out[0], 1e-9) // fresh window, no carryover
}
