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

package stage

import (
	"fmt"
	"math"

	"github.com/A-KGeorge/dspflow/policy"
	"github.com/A-KGeorge/dspflow/ring"
	"github.com/A-KGeorge/dspflow/simd"
	"github.com/A-KGeorge/dspflow/window"
)

func kindToPolicy(k Kind) policy.Kind {
	switch k {
	case KindMovingAverage:
		return policy.KindMean
	case KindRMS:
		return policy.KindRMS
	case KindMeanAbsoluteValue:
		return policy.KindMAV
	case KindVariance:
		return policy.KindVariance
	case KindZScoreNormalize:
		return policy.KindZScore
	default:
		return ""
	}
}

// statisticStage implements movingAverage / rms / meanAbsoluteValue /
// variance / zScoreNormalize, in either moving mode (a window.Filter per
// channel) or batch mode (no persistent state; each Process call
// recomputes the chunk statistic with the simd kernels).
type statisticStage struct {
	cfg         Config
	polKind     policy.Kind
	filters     []*window.Filter // moving mode, one per channel
	numChannels int
	stateLoaded bool
}

func newStatisticStage(cfg Config, numChannels int) (Stage, error) {
	polKind := kindToPolicy(cfg.Kind)
	if polKind == "" {
		return nil, &ConfigError{Kind: cfg.Kind, Reason: "unknown statistic kind"}
	}

	switch cfg.Mode {
	case ModeMoving:
		if cfg.WindowSize <= 0 && cfg.WindowDuration <= 0 {
			return nil, &ConfigError{Kind: cfg.Kind, Reason: "moving mode requires windowSize or windowDuration"}
		}
	case ModeBatch:
		if cfg.WindowSize > 0 || cfg.WindowDuration > 0 {
			return nil, &ConfigError{Kind: cfg.Kind, Reason: "batch mode permits neither windowSize nor windowDuration"}
		}
	default:
		return nil, &ConfigError{Kind: cfg.Kind, Reason: fmt.Sprintf("unknown mode %q", cfg.Mode)}
	}

	if cfg.Kind == KindZScoreNormalize && cfg.Epsilon <= 0 {
		cfg.Epsilon = policy.DefaultEpsilon
	}

	s := &statisticStage{cfg: cfg, polKind: polKind}
	if err := s.Reconfigure(numChannels); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *statisticStage) Kind() Kind       { return s.cfg.Kind }
func (s *statisticStage) Config() Config   { return s.cfg }
func (s *statisticStage) NumChannels() int { return s.numChannels }
func (s *statisticStage) Batch() bool      { return s.cfg.Mode == ModeBatch }

func (s *statisticStage) Reconfigure(n int) error {
	if s.stateLoaded && n != s.numChannels {
		return &ConfigError{Kind: s.cfg.Kind, Reason: "channel count changed after state was loaded"}
	}
	s.numChannels = n
	if s.cfg.Mode != ModeMoving {
		s.filters = nil
		return nil
	}
	filters := make([]*window.Filter, n)
	for c := 0; c < n; c++ {
		pol, err := policy.New(s.polKind, s.cfg.Epsilon)
		if err != nil {
			return err
		}
		f, err := window.NewFilter(window.Params{WindowSize: s.cfg.WindowSize, WindowDuration: s.cfg.WindowDuration}, pol)
		if err != nil {
			return err
		}
		filters[c] = f
	}
	s.filters = filters
	return nil
}

func (s *statisticStage) ProcessSample(c int, x, t float64) (float64, error) {
	return s.filters[c].AddSample(x, t), nil
}

func (s *statisticStage) ProcessBatch(c int, values []float64) (float64, error) {
	n := len(values)
	switch s.polKind {
	case policy.KindMean:
		if n == 0 {
			return 0, nil
		}
		return simd.Sum(values) / float64(n), nil
	case policy.KindRMS:
		if n == 0 {
			return 0, nil
		}
		v := simd.SumOfSquares(values) / float64(n)
		if v < 0 {
			v = 0
		}
		return math.Sqrt(v), nil
	case policy.KindMAV:
		if n == 0 {
			return 0, nil
		}
		abs := make([]float64, n)
		copy(abs, values)
		simd.AbsInplace(abs)
		return simd.Sum(abs) / float64(n), nil
	case policy.KindVariance:
		if n == 0 {
			return 0, nil
		}
		sum := simd.Sum(values)
		sumSq := simd.SumOfSquares(values)
		mean := sum / float64(n)
		v := sumSq/float64(n) - mean*mean
		if v < 0 {
			v = 0
		}
		return v, nil
	case policy.KindZScore:
		if n < 2 {
			return 0, nil
		}
		sum := simd.Sum(values)
		sumSq := simd.SumOfSquares(values)
		mean := sum / float64(n)
		v := sumSq/float64(n) - mean*mean
		if v < 0 {
			v = 0
		}
		std := math.Sqrt(v)
		if std < s.cfg.Epsilon {
			return 0, nil
		}
		// Batch mode has no single "current sample"; the chunk's last
		// value stands in for it, matching the per-sample numerator.
		return (values[n-1] - mean) / std, nil
	default:
		return 0, nil
	}
}

func (s *statisticStage) ExportState() State {
	st := State{Config: s.cfg, NumChannels: s.numChannels}
	if s.cfg.Mode != ModeMoving {
		return st
	}
	st.Channels = make([]ChannelState, s.numChannels)
	for c, f := range s.filters {
		fs := f.ExportState()
		cs := ChannelState{}
		switch fs.Mode {
		case window.ModeCount:
			cs.Buffer = fs.Buffer
		default:
			buf := make([]float64, len(fs.TimedBuffer))
			for i, ts := range fs.TimedBuffer {
				buf[i] = ts.Value
			}
			cs.Buffer = buf
		}
		switch s.polKind {
		case policy.KindMean:
			cs.RunningSum, cs.HasRunningSum = fs.PolicyState.Sum, true
		case policy.KindRMS:
			cs.RunningSumOfSquares, cs.HasRunningSumSq = fs.PolicyState.SumSq, true
		case policy.KindMAV:
			cs.RunningSumOfAbs, cs.HasRunningSumAbs = fs.PolicyState.SumAbs, true
		case policy.KindVariance, policy.KindZScore:
			cs.RunningSum, cs.HasRunningSum = fs.PolicyState.Sum, true
			cs.RunningSumOfSquares, cs.HasRunningSumSq = fs.PolicyState.SumSq, true
		}
		st.Channels[c] = cs
	}
	return st
}

// windowStateFromChannel reconstructs a window.State from one channel's
// wire representation. Timestamps are not preserved across a save/load
// boundary for duration-mode filters: the restored buffer is treated as a
// count-mode buffer internally compatible with the filter's own mode,
// since the filter validates s.Mode against its own mode on import.
func windowStateFromChannel(mode window.Mode, cs ChannelState, polKind policy.Kind) window.State {
	ws := window.State{Mode: mode}
	switch mode {
	case window.ModeCount:
		ws.Buffer = cs.Buffer
	case window.ModeDuration:
		ts := make([]ring.TimeSample, len(cs.Buffer))
		for i, v := range cs.Buffer {
			ts[i] = ring.TimeSample{Timestamp: float64(i), Value: v}
		}
		ws.TimedBuffer = ts
	}
	switch polKind {
	case policy.KindMean:
		ws.PolicyState = policy.State{Sum: cs.RunningSum}
	case policy.KindRMS:
		ws.PolicyState = policy.State{SumSq: cs.RunningSumOfSquares}
	case policy.KindMAV:
		ws.PolicyState = policy.State{SumAbs: cs.RunningSumOfAbs}
	case policy.KindVariance, policy.KindZScore:
		ws.PolicyState = policy.State{Sum: cs.RunningSum, SumSq: cs.RunningSumOfSquares}
	}
	return ws
}

func (s *statisticStage) ImportState(in State) error {
	if in.Config.Kind != s.cfg.Kind || in.Config.Mode != s.cfg.Mode ||
		in.Config.WindowSize != s.cfg.WindowSize || in.Config.WindowDuration != s.cfg.WindowDuration {
		return &ConfigError{Kind: s.cfg.Kind, Reason: "incompatible stage configuration in state blob"}
	}
	if !s.stateLoaded || in.NumChannels != s.numChannels {
		s.stateLoaded = false
		if err := s.Reconfigure(in.NumChannels); err != nil {
			return err
		}
	}
	if s.cfg.Mode == ModeMoving {
		mode := window.Params{WindowSize: s.cfg.WindowSize, WindowDuration: s.cfg.WindowDuration}.Mode()
		for c, cs := range in.Channels {
			if c >= len(s.filters) {
				break
			}
			ws := windowStateFromChannel(mode, cs, s.polKind)
			if err := s.filters[c].ImportState(ws); err != nil {
				return err
			}
		}
	}
	s.stateLoaded = true
	return nil
}
