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

// Package pipeline implements the executor: an ordered list of
// per-channel stages that de-interleaves a chunk of interleaved samples,
// drives each stage across every channel in order, and re-interleaves the
// result in place. It owns all per-channel state across process calls and
// enforces the engine's ordering and atomicity invariants.
package pipeline

import (
	"fmt"
	"time"

	"github.com/A-KGeorge/dspflow/drift"
	"github.com/A-KGeorge/dspflow/logger"
	"github.com/A-KGeorge/dspflow/stage"
)

// ShapeError reports an input whose shape does not match the pipeline's
// channel contract, or a channel count conflicting with the one already
// fixed by SetChannels, an earlier Process call, or LoadState. Process
// leaves the pipeline unchanged.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string { return fmt.Sprintf("pipeline: shape error: %s", e.Reason) }

// StateCompatibilityError reports that a state blob describes a stage
// list incompatible with the pipeline it is being loaded into.
type StateCompatibilityError struct {
	Reason string
}

func (e *StateCompatibilityError) Error() string {
	return fmt.Sprintf("pipeline: state incompatible: %s", e.Reason)
}

// RuntimeError wraps a stage's per-sample failure. Never returned from
// Process; surfaced only through the OnError callback.
type RuntimeError struct {
	StageIndex int
	StageKind  stage.Kind
	Channel    int
	Err        error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("pipeline: runtime error in stage %d (%s) channel %d: %v", e.StageIndex, e.StageKind, e.Channel, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// BatchEvent is passed to Callbacks.OnBatch after a stage finishes
// processing the whole chunk. SamplesView is a borrowed view of the
// chunk's current (interleaved) contents, valid only until the callback
// returns.
type BatchEvent struct {
	StageIndex  int
	StageKind   stage.Kind
	SamplesView []float64
	StartIndex  int
	Count       int
}

// Callbacks are optional hooks invoked at well-defined points in Process.
// A panicking callback is recovered and logged, never propagated into the
// processing loop.
type Callbacks struct {
	OnBatch         func(BatchEvent)
	OnStageComplete func(stageName string, durationMs float64)
	OnError         func(stageName string, err error)
	OnLog           func(level logger.Level, topic, message string)
}

// TapFunc observes the chunk's contents after the stage it was
// registered against has run. Like OnBatch, the slice is a borrowed view.
type TapFunc func(samples []float64, numChannels int)

type tapEntry struct {
	afterStage int // index into stages; tap fires after this stage runs
	fn         TapFunc
}

// Pipeline is an ordered, stateful composition of stages.
type Pipeline struct {
	stages      []stage.Stage
	configs     []stage.Config
	taps        []tapEntry
	callbacks   Callbacks
	numChannels int
	channelsSet bool
	log         logger.Logger
	driftDet    *drift.Detector
}

// New constructs an empty pipeline. log may be nil, in which case a
// discarding logger is used.
func New(log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &Pipeline{log: log}
}

// AddStage appends a new stage built from cfg. numChannels, if the
// pipeline's channel count is not yet fixed, defaults to 1 until the
// first Process call or an explicit SetChannels.
func (p *Pipeline) AddStage(cfg stage.Config) error {
	n := p.numChannels
	if n == 0 {
		n = 1
	}
	st, err := stage.New(cfg, n)
	if err != nil {
		return err
	}
	p.stages = append(p.stages, st)
	p.configs = append(p.configs, cfg)
	return nil
}

// SetChannels fixes the pipeline's channel count and reconfigures every
// existing stage to it. Returns a *ShapeError if any stage has loaded
// state and rejects the new count.
func (p *Pipeline) SetChannels(n int) error {
	if n <= 0 {
		return &ShapeError{Reason: "channel count must be positive"}
	}
	for i, st := range p.stages {
		if err := st.Reconfigure(n); err != nil {
			return &ShapeError{Reason: fmt.Sprintf("stage %d: %v", i, err)}
		}
	}
	p.numChannels = n
	p.channelsSet = true
	return nil
}

// Tap registers callback to run after the most recently added stage.
func (p *Pipeline) Tap(fn TapFunc) error {
	if len(p.stages) == 0 {
		return &ShapeError{Reason: "tap requires at least one stage to be added first"}
	}
	p.taps = append(p.taps, tapEntry{afterStage: len(p.stages) - 1, fn: fn})
	return nil
}

// SetCallbacks installs the pipeline's batch/log/error callbacks.
func (p *Pipeline) SetCallbacks(cb Callbacks) {
	p.callbacks = cb
}

// SetDriftDetector installs an optional collaborator that observes each
// chunk's derived timestamps before any stage runs. Passing nil disables
// drift detection.
func (p *Pipeline) SetDriftDetector(d *drift.Detector) {
	p.driftDet = d
}

// DriftDetector returns the pipeline's current drift detector, or nil if
// none is installed.
func (p *Pipeline) DriftDetector() *drift.Detector {
	return p.driftDet
}

// deriveTimestamps normalizes the three supported timestamp input shapes
// per the engine's timestamp contract: explicit timestamps win; else a
// sample rate derives t_i = i/sampleRate*1000; else sample indices stand
// in for timestamps.
func deriveTimestamps(explicit []float64, sampleRate float64, samplesPerChannel int) []float64 {
	if explicit != nil {
		return explicit
	}
	ts := make([]float64, samplesPerChannel)
	if sampleRate > 0 {
		for i := range ts {
			ts[i] = float64(i) / sampleRate * 1000
		}
	} else {
		for i := range ts {
			ts[i] = float64(i)
		}
	}
	return ts
}

// ProcessOptions configures one Process call.
type ProcessOptions struct {
	Timestamps []float64 // one per sample index, shared across channels
	SampleRate float64   // Hz; used only if Timestamps is nil
	Channels   int       // default 1
}

// Process runs every stage over samples in place and returns it.
// samples is interleaved: [c0s0, c1s0, ..., c(C-1)s0, c0s1, ...].
func (p *Pipeline) Process(samples []float64, opts ProcessOptions) ([]float64, error) {
	channels := opts.Channels
	if channels <= 0 {
		channels = 1
	}
	if len(samples)%channels != 0 {
		return nil, &ShapeError{Reason: fmt.Sprintf("len(samples)=%d not divisible by channels=%d", len(samples), channels)}
	}
	if p.channelsSet && channels != p.numChannels {
		return nil, &ShapeError{Reason: fmt.Sprintf("channel count %d conflicts with pipeline's fixed channel count (%d)", channels, p.numChannels)}
	}
	if channels != p.numChannels {
		if err := p.reconfigureAll(channels); err != nil {
			return nil, err
		}
	}

	samplesPerChannel := len(samples) / channels
	timestamps := deriveTimestamps(opts.Timestamps, opts.SampleRate, samplesPerChannel)
	if len(timestamps) != samplesPerChannel {
		return nil, &ShapeError{Reason: fmt.Sprintf("len(timestamps)=%d does not match samplesPerChannel=%d", len(timestamps), samplesPerChannel)}
	}

	if p.driftDet != nil {
		p.driftDet.Observe(timestamps)
	}

	for si, st := range p.stages {
		start := time.Now()
		if st.Batch() {
			p.runBatchStage(si, st, samples, channels, samplesPerChannel)
		} else {
			p.runMovingStage(si, st, samples, channels, samplesPerChannel, timestamps)
		}
		durMs := float64(time.Since(start)) / float64(time.Millisecond)

		if p.callbacks.OnStageComplete != nil {
			p.safeCall(func() { p.callbacks.OnStageComplete(string(st.Kind()), durMs) })
		}
		if p.callbacks.OnBatch != nil {
			p.safeCall(func() {
				p.callbacks.OnBatch(BatchEvent{StageIndex: si, StageKind: st.Kind(), SamplesView: samples, StartIndex: 0, Count: len(samples)})
			})
		}
		for _, t := range p.taps {
			if t.afterStage == si {
				fn := t.fn
				p.safeCall(func() { fn(samples, channels) })
			}
		}
	}
	return samples, nil
}

func (p *Pipeline) runMovingStage(si int, st stage.Stage, samples []float64, channels, samplesPerChannel int, timestamps []float64) {
	failedChannel := make([]bool, channels)
	for i := 0; i < samplesPerChannel; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			if failedChannel[c] {
				continue // pass-through unmodified for the rest of this chunk
			}
			out, err := st.ProcessSample(c, samples[idx], timestamps[i])
			if err != nil {
				failedChannel[c] = true
				p.reportRuntimeError(si, st, c, err)
				continue
			}
			samples[idx] = out
		}
	}
}

func (p *Pipeline) runBatchStage(si int, st stage.Stage, samples []float64, channels, samplesPerChannel int) {
	values := make([]float64, samplesPerChannel)
	for c := 0; c < channels; c++ {
		for i := 0; i < samplesPerChannel; i++ {
			values[i] = samples[i*channels+c]
		}
		result, err := st.ProcessBatch(c, values)
		if err != nil {
			p.reportRuntimeError(si, st, c, err)
			continue // leave this channel's samples unmodified
		}
		for i := 0; i < samplesPerChannel; i++ {
			samples[i*channels+c] = result
		}
	}
}

func (p *Pipeline) reportRuntimeError(si int, st stage.Stage, channel int, err error) {
	rerr := &RuntimeError{StageIndex: si, StageKind: st.Kind(), Channel: channel, Err: err}
	p.log.Error("stage %d (%s) channel %d: %v", si, st.Kind(), channel, err)
	if p.callbacks.OnError != nil {
		p.safeCall(func() { p.callbacks.OnError(string(st.Kind()), rerr) })
	}
}

func (p *Pipeline) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("callback panicked: %v", r)
		}
	}()
	fn()
}

func (p *Pipeline) reconfigureAll(n int) error {
	for i, st := range p.stages {
		if err := st.Reconfigure(n); err != nil {
			return &ShapeError{Reason: fmt.Sprintf("stage %d: %v", i, err)}
		}
	}
	p.numChannels = n
	p.channelsSet = true
	return nil
}

// ProcessCopy allocates a copy of samples and processes it, leaving the
// caller's slice untouched.
func (p *Pipeline) ProcessCopy(samples []float64, opts ProcessOptions) ([]float64, error) {
	cp := make([]float64, len(samples))
	copy(cp, samples)
	return p.Process(cp, opts)
}

// StageSummary describes one stage for ListState.
type StageSummary struct {
	Index       int
	Kind        stage.Kind
	NumChannels int
}

// ListState summarizes the pipeline's current stage list without
// exposing full buffer contents.
func (p *Pipeline) ListState() []StageSummary {
	out := make([]StageSummary, len(p.stages))
	for i, st := range p.stages {
		out[i] = StageSummary{Index: i, Kind: st.Kind(), NumChannels: st.NumChannels()}
	}
	return out
}

// ClearState resets every stage's buffered samples and accumulators
// while keeping configuration intact.
func (p *Pipeline) ClearState() {
	n := p.numChannels
	if n == 0 {
		n = 1
	}
	for i, cfg := range p.configs {
		st, err := stage.New(cfg, n)
		if err == nil {
			p.stages[i] = st
		}
	}
}

// Stages exposes the pipeline's stage list for the codec package.
func (p *Pipeline) Stages() []stage.Stage { return p.stages }

// NumChannels reports the pipeline's current channel count.
func (p *Pipeline) NumChannels() int { return p.numChannels }
