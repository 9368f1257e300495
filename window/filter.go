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

package window

import (
	"fmt"

	"github.com/A-KGeorge/dspflow/policy"
	"github.com/A-KGeorge/dspflow/ring"
)

// Mode selects how a Filter bounds its window.
type Mode int

const (
	// ModeCount bounds the window to the most recent WindowSize samples.
	ModeCount Mode = iota
	// ModeDuration bounds the window to samples within WindowDuration
	// (milliseconds) of the newest sample.
	ModeDuration
)

// Params configures a Filter. Exactly one of WindowSize (count mode) or
// WindowDuration (duration mode) is active; if both are set, duration
// wins, per the wire contract's "duration wins when both supplied" rule.
type Params struct {
	WindowSize     int     // samples; count mode
	WindowDuration float64 // milliseconds; duration mode
}

// Mode reports which mode these params select.
func (p Params) Mode() Mode {
	if p.WindowDuration > 0 {
		return ModeDuration
	}
	return ModeCount
}

// Validate checks that at least one bound is positive.
func (p Params) Validate() error {
	if p.WindowDuration > 0 {
		return nil
	}
	if p.WindowSize > 0 {
		return nil
	}
	return fmt.Errorf("window: at least one of WindowSize or WindowDuration must be positive")
}

// State is the exact, exportable state of a Filter: its buffer contents
// (oldest to newest) plus its policy's accumulators. State import adopts
// the policy accumulators verbatim rather than recomputing them from the
// buffer, so repeated save/load cycles never drift.
type State struct {
	Mode        Mode
	Buffer      []float64         // count mode
	TimedBuffer []ring.TimeSample // duration mode
	PolicyState policy.State
}

// Filter is the generic sliding-window engine combining a ring buffer (or
// time-series buffer) with a policy.Policy to compute one statistic per
// incoming sample. It is not safe for concurrent use.
type Filter struct {
	mode   Mode
	params Params
	pol    policy.Policy

	buf   *ring.Buffer
	tsBuf *ring.TimeSeriesBuffer
}

// NewFilter constructs a sliding-window filter. pol is moved into the
// filter; the caller should not retain a reference to it.
func NewFilter(params Params, pol policy.Policy) (*Filter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	f := &Filter{mode: params.Mode(), params: params, pol: pol}
	switch f.mode {
	case ModeCount:
		f.buf = ring.NewBuffer(params.WindowSize)
	case ModeDuration:
		// Eviction is disabled here (0, 0): the buffer must hold every
		// sample until addDuration's own loop below pops it and feeds it
		// to pol.OnRemove. A self-evicting buffer would drop expired
		// entries silently, leaving their contribution stuck in the
		// policy's running accumulators forever.
		f.tsBuf = ring.NewTimeSeriesBuffer(0, 0)
	}
	return f, nil
}

// AddSample feeds one sample through the window and returns the policy's
// result for the post-update window. For a z-score policy, x is also
// passed to the policy's per-sample result path.
func (f *Filter) AddSample(x, t float64) float64 {
	switch f.mode {
	case ModeCount:
		return f.addCount(x)
	default:
		return f.addDuration(x, t)
	}
}

func (f *Filter) addCount(x float64) float64 {
	if f.buf.Full() {
		old, _ := f.buf.Peek()
		f.pol.OnRemove(old)
	}
	f.buf.PushOverwrite(x)
	f.pol.OnAdd(x)
	return f.result(x, f.buf.Count())
}

func (f *Filter) addDuration(x, t float64) float64 {
	f.tsBuf.Push(t, x)
	for {
		back, _ := f.tsBuf.Back()
		front, ok := f.tsBuf.Front()
		if !ok || back.Timestamp-front.Timestamp <= f.params.WindowDuration {
			break
		}
		evicted, _ := f.tsBuf.PopFront()
		f.pol.OnRemove(evicted.Value)
	}
	f.pol.OnAdd(x)
	return f.result(x, f.tsBuf.Size())
}

func (f *Filter) result(x float64, n int) float64 {
	if zs, ok := f.pol.(*policy.ZScorePolicy); ok {
		return zs.ResultAt(x, n)
	}
	return f.pol.Result(n)
}

// Count returns the number of samples currently held in the window.
func (f *Filter) Count() int {
	if f.mode == ModeCount {
		return f.buf.Count()
	}
	return f.tsBuf.Size()
}

// Clear resets the filter to empty, discarding buffered samples and
// policy accumulators, but keeping its configured parameters.
func (f *Filter) Clear() {
	f.pol.Clear()
	switch f.mode {
	case ModeCount:
		f.buf.Clear()
	case ModeDuration:
		f.tsBuf = ring.NewTimeSeriesBuffer(0, 0)
	}
}

// ExportState captures the filter's buffer contents (oldest to newest)
// and policy accumulators exactly.
func (f *Filter) ExportState() State {
	s := State{Mode: f.mode, PolicyState: f.pol.State()}
	switch f.mode {
	case ModeCount:
		s.Buffer = f.buf.ToSlice()
	case ModeDuration:
		s.TimedBuffer = f.tsBuf.ToSlice()
	}
	return s
}

// ImportState restores buffer contents, then adopts the policy
// accumulators verbatim (it never recomputes them from the buffer).
func (f *Filter) ImportState(s State) error {
	if s.Mode != f.mode {
		return fmt.Errorf("window: state mode %v does not match filter mode %v", s.Mode, f.mode)
	}
	switch f.mode {
	case ModeCount:
		f.buf.FromSlice(s.Buffer)
	case ModeDuration:
		f.tsBuf.FromSlice(s.TimedBuffer)
	}
	f.pol.SetState(s.PolicyState)
	return nil
}
