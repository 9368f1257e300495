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

// Package stage implements the pipeline's unit of work: stateless
// elementwise stages (rectify, expression) and per-channel statistical
// stages (moving-window or whole-chunk batch statistics), each wrapped so
// the executor can drive it across N independently-stateful channels
// without allocating a de-interleaved copy.
package stage

import "fmt"

// Kind is a stage's stable, wire-stable tag.
type Kind string

const (
	KindMovingAverage     Kind = "movingAverage"
	KindRMS               Kind = "rms"
	KindMeanAbsoluteValue Kind = "meanAbsoluteValue"
	KindVariance          Kind = "variance"
	KindZScoreNormalize   Kind = "zScoreNormalize"
	KindRectify           Kind = "rectify"
	KindExpression        Kind = "expression"
)

// Mode distinguishes a statistic computed per-sample over a persistent
// sliding window from one computed once per chunk with no cross-chunk
// state.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeMoving Mode = "moving"
)

// Config is the parameter set for one stage, as carried on the wire and
// in the pipeline's add-stage call.
type Config struct {
	Kind           Kind
	Mode           Mode    // statistic stages only
	WindowSize     int     // moving mode, count windows
	WindowDuration float64 // moving mode, duration windows (ms); wins if both set
	Epsilon        float64 // zScoreNormalize only; default 1e-6
	RectifyMode    string  // "full" | "half"; default "full"
	Expression     string  // expression stage only
}

// ConfigError reports an invalid stage configuration: unknown kind,
// conflicting mode/params, or a non-positive window. Surfaced to the
// caller; the pipeline is left unchanged.
type ConfigError struct {
	Kind   Kind
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("stage: invalid configuration for %q: %s", e.Kind, e.Reason)
}

// ChannelState is the exact, exportable per-channel state of a stage: the
// sliding-window filter's buffer (oldest to newest) plus whichever
// accumulators its policy uses. Stateless stages (Rectify) export no
// per-channel state.
type ChannelState struct {
	Buffer              []float64
	RunningSum          float64
	HasRunningSum       bool
	RunningSumOfSquares float64
	HasRunningSumSq     bool
	RunningSumOfAbs     float64
	HasRunningSumAbs    bool
}

// State is a stage's full exportable state: its configuration (so the
// codec can validate compatibility on decode) plus one ChannelState per
// channel.
type State struct {
	Config      Config
	NumChannels int
	Channels    []ChannelState
}

// Stage is one node in the pipeline. Implementations are per-channel:
// NumChannels channels' worth of state (if any) live inside the
// implementation, indexed 0..NumChannels-1.
type Stage interface {
	// Kind returns the stage's stable wire tag.
	Kind() Kind
	// Config returns the stage's construction parameters.
	Config() Config
	// NumChannels returns the number of channel instances currently held.
	NumChannels() int
	// Reconfigure resizes the stage to n channels. If state has been
	// loaded (via ImportState) and n differs from NumChannels(), it
	// returns a *ConfigError instead of silently discarding state.
	Reconfigure(n int) error
	// Batch reports whether this stage computes one statistic per chunk
	// (true) or one result per sample via a persistent sliding window
	// (false).
	Batch() bool
	// ProcessSample applies the stage's per-sample transform to x at
	// timestamp t on channel c and returns the result. Only called when
	// Batch() is false. t is ignored by stages with no duration-mode
	// window. A non-nil error signals a runtime error (§7): the executor
	// surfaces it via on_error and, for the rest of the current chunk on
	// this channel, passes samples through unmodified instead of calling
	// ProcessSample again.
	ProcessSample(c int, x, t float64) (float64, error)
	// ProcessBatch computes one statistic over values (channel c's full
	// chunk) and returns it; the caller fills every output position with
	// it. Only called when Batch() is true.
	ProcessBatch(c int, values []float64) (float64, error)
	// ExportState captures the stage's full state exactly.
	ExportState() State
	// ImportState restores state exactly (no recomputation), validating
	// that the stage's configuration matches s.Config. Marks the stage as
	// state-loaded, which changes Reconfigure's failure mode.
	ImportState(s State) error
}

// New constructs a stage from its configuration. It validates params per
// the wire contract: at least one of WindowSize/WindowDuration is
// required for mode=="moving"; neither is permitted for mode=="batch".
func New(cfg Config, numChannels int) (Stage, error) {
	switch cfg.Kind {
	case KindMovingAverage, KindRMS, KindMeanAbsoluteValue, KindVariance, KindZScoreNormalize:
		return newStatisticStage(cfg, numChannels)
	case KindRectify:
		return newRectifyStage(cfg, numChannels)
	case KindExpression:
		return newExpressionStage(cfg, numChannels)
	default:
		return nil, &ConfigError{Kind: cfg.Kind, Reason: "unknown stage kind"}
	}
}
