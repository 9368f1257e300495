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

package dspflow

import (
	"io"

	"github.com/A-KGeorge/dspflow/logger"
)

// Option modifies a Pipeline's default construction behavior.
type Option func(*Pipeline)

// WithLogger installs a custom logger.Logger implementation.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithLogLevel sets the log level on the pipeline's default logger.
func WithLogLevel(level logger.Level) Option {
	return func(p *Pipeline) {
		p.log.SetLevel(level)
	}
}

// WithLogOutput directs the default logger's output to w at the given level.
func WithLogOutput(w io.Writer, level logger.Level) Option {
	return func(p *Pipeline) {
		p.log = logger.NewLogger(level, w)
	}
}

// WithDiscardLog disables all log output.
func WithDiscardLog() Option {
	return func(p *Pipeline) {
		p.log = logger.NewDiscardLogger()
	}
}

// WithChannels fixes the pipeline's channel count up front instead of
// inferring it from the first Process call.
func WithChannels(n int) Option {
	return func(p *Pipeline) {
		p.numChannels = n
	}
}
