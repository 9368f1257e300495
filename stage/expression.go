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

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// exprEnv is the variable environment an expression stage's script runs
// against: the current sample, its timestamp, and the previous sample on
// this channel (0 before the first sample).
type exprEnv struct {
	X    float64 `expr:"x"`
	T    float64 `expr:"t"`
	Prev float64 `expr:"prev"`
}

// expressionStage is a supplemented stage kind with no counterpart in the
// core statistic/rectify set: it evaluates a user-supplied expr-lang
// script per sample, giving the pipeline a scripted escape hatch without
// adding a new built-in transform for every one-off formula. Its only
// per-channel state is the previous sample.
type expressionStage struct {
	cfg         Config
	program     *vm.Program
	prev        []float64
	numChannels int
	stateLoaded bool
}

func newExpressionStage(cfg Config, numChannels int) (Stage, error) {
	if cfg.Expression == "" {
		return nil, &ConfigError{Kind: cfg.Kind, Reason: "expression must not be empty"}
	}
	program, err := expr.Compile(cfg.Expression, expr.Env(exprEnv{}), expr.AsFloat64())
	if err != nil {
		return nil, &ConfigError{Kind: cfg.Kind, Reason: fmt.Sprintf("invalid expression: %v", err)}
	}
	s := &expressionStage{cfg: cfg, program: program}
	s.Reconfigure(numChannels)
	return s, nil
}

func (s *expressionStage) Kind() Kind       { return s.cfg.Kind }
func (s *expressionStage) Config() Config   { return s.cfg }
func (s *expressionStage) NumChannels() int { return s.numChannels }
func (s *expressionStage) Batch() bool      { return false }

func (s *expressionStage) Reconfigure(n int) error {
	if s.stateLoaded && n != s.numChannels {
		return &ConfigError{Kind: s.cfg.Kind, Reason: "channel count changed after state was loaded"}
	}
	prev := make([]float64, n)
	copy(prev, s.prev)
	s.prev = prev
	s.numChannels = n
	return nil
}

func (s *expressionStage) ProcessSample(c int, x, t float64) (float64, error) {
	out, err := expr.Run(s.program, exprEnv{X: x, T: t, Prev: s.prev[c]})
	s.prev[c] = x
	if err != nil {
		// A scripted formula that fails at runtime (division by zero,
		// type mismatch) is a runtime error per the executor's error
		// taxonomy: this sample passes through unmodified and the error
		// is surfaced to the caller's on_error callback.
		return x, fmt.Errorf("expression stage: %w", err)
	}
	if v, ok := out.(float64); ok {
		return v, nil
	}
	return x, fmt.Errorf("expression stage: result type %T is not float64", out)
}

func (s *expressionStage) ProcessBatch(c int, values []float64) (float64, error) {
	return 0, nil
}

func (s *expressionStage) ExportState() State {
	st := State{Config: s.cfg, NumChannels: s.numChannels, Channels: make([]ChannelState, s.numChannels)}
	for c, p := range s.prev {
		st.Channels[c] = ChannelState{RunningSum: p, HasRunningSum: true}
	}
	return st
}

func (s *expressionStage) ImportState(in State) error {
	if in.Config.Kind != s.cfg.Kind || in.Config.Expression != s.cfg.Expression {
		return &ConfigError{Kind: s.cfg.Kind, Reason: "incompatible stage configuration in state blob"}
	}
	s.stateLoaded = false
	s.Reconfigure(in.NumChannels)
	for c, cs := range in.Channels {
		if c >= len(s.prev) {
			break
		}
		if cs.HasRunningSum {
			s.prev[c] = cs.RunningSum
		}
	}
	s.stateLoaded = true
	return nil
}
