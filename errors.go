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

import "github.com/A-KGeorge/dspflow/pipeline"

// ShapeError reports an input whose shape does not match the pipeline's
// channel contract: samples.len % channels != 0, or a channel count that
// differs from the one already fixed by SetChannels, an earlier Process
// call, or LoadState. Process leaves the pipeline unchanged.
type ShapeError = pipeline.ShapeError

// StateCompatibilityError reports that a state blob passed to LoadState
// describes a stage list incompatible with the current pipeline (stage
// count, kind, or parameters differ). The target pipeline is left
// unchanged.
type StateCompatibilityError = pipeline.StateCompatibilityError

// RuntimeError wraps a stage's internal failure while processing one
// sample. It is never returned from Process: it is surfaced only through
// the on_error callback, and only for the remainder of the current chunk
// on the failing channel. Its presence anywhere else indicates a bug.
type RuntimeError = pipeline.RuntimeError
