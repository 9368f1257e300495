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

import "github.com/A-KGeorge/dspflow/simd"

// rectifyStage is stateless: full-wave rectification takes the absolute
// value of every sample; half-wave rectification clamps negative samples
// to zero. Neither carries any state across samples or chunks.
type rectifyStage struct {
	cfg         Config
	half        bool
	numChannels int
}

func newRectifyStage(cfg Config, numChannels int) (Stage, error) {
	half := false
	switch cfg.RectifyMode {
	case "", "full":
		half = false
	case "half":
		half = true
	default:
		return nil, &ConfigError{Kind: cfg.Kind, Reason: "rectifyMode must be \"full\" or \"half\""}
	}
	if cfg.WindowSize != 0 || cfg.WindowDuration != 0 {
		return nil, &ConfigError{Kind: cfg.Kind, Reason: "rectify accepts no window parameters"}
	}
	return &rectifyStage{cfg: cfg, half: half, numChannels: numChannels}, nil
}

func (s *rectifyStage) Kind() Kind       { return s.cfg.Kind }
func (s *rectifyStage) Config() Config   { return s.cfg }
func (s *rectifyStage) NumChannels() int { return s.numChannels }
func (s *rectifyStage) Batch() bool      { return false }

func (s *rectifyStage) Reconfigure(n int) error {
	s.numChannels = n
	return nil
}

func (s *rectifyStage) ProcessSample(c int, x, t float64) (float64, error) {
	buf := [1]float64{x}
	if s.half {
		simd.MaxZeroInplace(buf[:])
	} else {
		simd.AbsInplace(buf[:])
	}
	return buf[0], nil
}

func (s *rectifyStage) ProcessBatch(c int, values []float64) (float64, error) {
	// Rectify is never run in batch mode: the executor dispatches on
	// Batch(), which always reports false for rectify. Present only to
	// satisfy the Stage interface.
	return 0, nil
}

func (s *rectifyStage) ExportState() State {
	return State{Config: s.cfg, NumChannels: s.numChannels}
}

func (s *rectifyStage) ImportState(in State) error {
	if in.Config.Kind != s.cfg.Kind || in.Config.RectifyMode != s.cfg.RectifyMode {
		return &ConfigError{Kind: s.cfg.Kind, Reason: "incompatible stage configuration in state blob"}
	}
	s.numChannels = in.NumChannels
	return nil
}
