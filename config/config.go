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

// Package config describes a pipeline declaratively, as a JSON- and
// YAML-tagged struct tree, so a caller can build a Pipeline from a
// checked-in file instead of a sequence of AddStage calls.
package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/A-KGeorge/dspflow/stage"
)

// StageConfig is one stage's declarative description. It mirrors
// stage.Config field-for-field so a decoded Config can be handed
// straight to AddStage.
type StageConfig struct {
	Kind           string  `json:"kind" yaml:"kind"`
	Mode           string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	WindowSize     int     `json:"windowSize,omitempty" yaml:"windowSize,omitempty"`
	WindowDuration float64 `json:"windowDuration,omitempty" yaml:"windowDuration,omitempty"`
	Epsilon        float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	RectifyMode    string  `json:"rectifyMode,omitempty" yaml:"rectifyMode,omitempty"`
	Expression     string  `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// ToStageConfig converts the declarative form into stage.Config.
func (sc StageConfig) ToStageConfig() stage.Config {
	return stage.Config{
		Kind:           stage.Kind(sc.Kind),
		Mode:           stage.Mode(sc.Mode),
		WindowSize:     sc.WindowSize,
		WindowDuration: sc.WindowDuration,
		Epsilon:        sc.Epsilon,
		RectifyMode:    sc.RectifyMode,
		Expression:     sc.Expression,
	}
}

// Config is a whole pipeline's declarative description.
type Config struct {
	Channels int           `json:"channels,omitempty" yaml:"channels,omitempty"`
	Stages   []StageConfig `json:"stages" yaml:"stages"`
}

// NewConfig returns an empty, single-channel configuration.
func NewConfig() Config {
	return Config{Channels: 1}
}

// DefaultBiosignalConfig is a preset tuned for a 250Hz single-channel
// biosignal stream: a half-second moving-average baseline followed by a
// full-wave rectifier, mirroring a common EMG/ECG envelope chain.
func DefaultBiosignalConfig() Config {
	return Config{
		Channels: 1,
		Stages: []StageConfig{
			{Kind: string(stage.KindMovingAverage), Mode: string(stage.ModeMoving), WindowDuration: 500},
			{Kind: string(stage.KindRectify), RectifyMode: "full"},
		},
	}
}

// StageConfigs converts every StageConfig in c to its stage.Config form,
// in order.
func (c Config) StageConfigs() []stage.Config {
	out := make([]stage.Config, len(c.Stages))
	for i, sc := range c.Stages {
		out[i] = sc.ToStageConfig()
	}
	return out
}

// LoadConfigJSON decodes a pipeline configuration from JSON.
func LoadConfigJSON(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: invalid JSON: %w", err)
	}
	return c, nil
}

// LoadConfigYAML decodes a pipeline configuration from YAML.
func LoadConfigYAML(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: invalid YAML: %w", err)
	}
	return c, nil
}
