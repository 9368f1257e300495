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

package pipeline

import (
	"fmt"
	"time"

	"github.com/A-KGeorge/dspflow/codec"
	"github.com/A-KGeorge/dspflow/stage"
)

func stageStateToBlob(index int, s stage.State) codec.StageBlob {
	blob := codec.StageBlob{
		Index: index,
		Type:  string(s.Config.Kind),
		State: codec.StageState{
			NumChannels: s.NumChannels,
		},
	}
	if s.Config.WindowSize > 0 {
		v := s.Config.WindowSize
		blob.State.WindowSize = &v
	}
	if s.Config.WindowDuration > 0 {
		v := s.Config.WindowDuration
		blob.State.WindowDuration = &v
	}
	if s.Config.Mode != "" {
		v := string(s.Config.Mode)
		blob.State.Mode = &v
	}
	if s.Config.Kind == stage.KindZScoreNormalize {
		v := s.Config.Epsilon
		blob.State.Epsilon = &v
	}
	blob.State.Channels = make([]codec.ChannelBlob, len(s.Channels))
	for i, ch := range s.Channels {
		cb := codec.ChannelBlob{Buffer: ch.Buffer}
		if ch.HasRunningSum {
			v := ch.RunningSum
			cb.RunningSum = &v
		}
		if ch.HasRunningSumSq {
			v := ch.RunningSumOfSquares
			cb.RunningSumOfSquares = &v
		}
		if ch.HasRunningSumAbs {
			v := ch.RunningSumOfAbs
			cb.RunningSumOfAbs = &v
		}
		blob.State.Channels[i] = cb
	}
	return blob
}

func blobToStageState(cfg stage.Config, b codec.StageState) stage.State {
	s := stage.State{Config: cfg, NumChannels: b.NumChannels}
	s.Channels = make([]stage.ChannelState, len(b.Channels))
	for i, cb := range b.Channels {
		cs := stage.ChannelState{Buffer: cb.Buffer}
		if cb.RunningSum != nil {
			cs.RunningSum, cs.HasRunningSum = *cb.RunningSum, true
		}
		if cb.RunningSumOfSquares != nil {
			cs.RunningSumOfSquares, cs.HasRunningSumSq = *cb.RunningSumOfSquares, true
		}
		if cb.RunningSumOfAbs != nil {
			cs.RunningSumOfAbs, cs.HasRunningSumAbs = *cb.RunningSumOfAbs, true
		}
		s.Channels[i] = cs
	}
	return s
}

// SaveState captures the pipeline's complete state (every stage's
// buffers and accumulators) into a textual blob.
func (p *Pipeline) SaveState() (string, error) {
	b := codec.Blob{Version: codec.Version, Timestamp: time.Now().Unix(), Stages: make([]codec.StageBlob, len(p.stages))}
	for i, st := range p.stages {
		b.Stages[i] = stageStateToBlob(i, st.ExportState())
	}
	return codec.Encode(b)
}

// LoadState restores state from blob into the pipeline's current stage
// list. The blob's stage count and each stage's kind/params must match
// the pipeline currently configured, or a *StateCompatibilityError is
// returned and the pipeline is left unchanged.
func (p *Pipeline) LoadState(blob string) error {
	b, err := codec.Decode(blob)
	if err != nil {
		return err
	}
	if len(b.Stages) != len(p.stages) {
		return &StateCompatibilityError{Reason: fmt.Sprintf("blob has %d stages, pipeline has %d", len(b.Stages), len(p.stages))}
	}
	for i, sb := range b.Stages {
		if sb.Type != string(p.configs[i].Kind) {
			return &StateCompatibilityError{Reason: fmt.Sprintf("stage %d: blob kind %q does not match pipeline kind %q", i, sb.Type, p.configs[i].Kind)}
		}
		cfg := p.configs[i]
		var ws int
		if sb.State.WindowSize != nil {
			ws = *sb.State.WindowSize
		}
		var wd float64
		if sb.State.WindowDuration != nil {
			wd = *sb.State.WindowDuration
		}
		var mode string
		if sb.State.Mode != nil {
			mode = *sb.State.Mode
		}
		if ws != cfg.WindowSize || wd != cfg.WindowDuration || mode != string(cfg.Mode) {
			return &StateCompatibilityError{Reason: fmt.Sprintf("stage %d: blob parameters do not match pipeline stage parameters", i)}
		}
	}
	for i, sb := range b.Stages {
		ws := blobToStageState(p.configs[i], sb.State)
		if err := p.stages[i].ImportState(ws); err != nil {
			return &StateCompatibilityError{Reason: fmt.Sprintf("stage %d: %v", i, err)}
		}
	}
	if len(b.Stages) > 0 {
		p.numChannels = b.Stages[0].State.NumChannels
		p.channelsSet = true
	}
	return nil
}
