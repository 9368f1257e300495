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

package config

import (
	"github.com/A-KGeorge/dspflow/logger"
	"github.com/A-KGeorge/dspflow/pipeline"
)

// Build constructs a pipeline from c's stage list, fixing the channel
// count up front if c.Channels is set. log may be nil.
func Build(c Config, log logger.Logger) (*pipeline.Pipeline, error) {
	p := pipeline.New(log)
	if c.Channels > 0 {
		if err := p.SetChannels(c.Channels); err != nil {
			return nil, err
		}
	}
	for _, sc := range c.StageConfigs() {
		if err := p.AddStage(sc); err != nil {
			return nil, err
		}
	}
	return p, nil
}
