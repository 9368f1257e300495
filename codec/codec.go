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

// Package codec encodes and decodes a pipeline's entire state to and from
// the versioned textual blob described by the wire contract: one JSON
// object per stage, carrying its kind, its window/mode/epsilon
// parameters, and one entry per channel with its buffer and whichever
// running accumulators its policy uses.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// Version is the current wire format version this codec writes. Decode
// accepts this version and any older version it still understands.
const Version = 1

// CodecError reports a malformed blob or an unsupported format version.
// Raised only by Decode; the caller's pipeline is left unchanged.
type CodecError struct {
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %s", e.Reason)
}

// ChannelBlob is one channel's wire-format state.
type ChannelBlob struct {
	Buffer              []float64 `json:"buffer"`
	RunningSum          *float64  `json:"runningSum,omitempty"`
	RunningSumOfSquares *float64  `json:"runningSumOfSquares,omitempty"`
	RunningSumOfAbs     *float64  `json:"runningSumOfAbs,omitempty"`
}

// StageState is one stage's wire-format state.
type StageState struct {
	WindowSize     *int          `json:"windowSize,omitempty"`
	WindowDuration *float64      `json:"windowDuration,omitempty"`
	Mode           *string       `json:"mode,omitempty"`
	Epsilon        *float64      `json:"epsilon,omitempty"`
	NumChannels    int           `json:"numChannels"`
	Channels       []ChannelBlob `json:"channels"`
}

// StageBlob is one stage entry in the blob's "stages" array.
type StageBlob struct {
	Index int        `json:"index"`
	Type  string     `json:"type"`
	State StageState `json:"state"`
}

// Blob is the full decoded state document.
type Blob struct {
	Version    int         `json:"version"`
	Timestamp  int64       `json:"timestamp"`
	StageCount int         `json:"stageCount"`
	Stages     []StageBlob `json:"stages"`
}

// Encode serializes b to its textual wire representation. Float values
// are written in the shortest decimal form that parses back to the exact
// same float64.
func Encode(b Blob) (string, error) {
	b.StageCount = len(b.Stages)
	out, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("codec: encode: %w", err)
	}
	return string(out), nil
}

// Decode parses blob into a Blob. Unknown top-level or state fields are
// ignored (forward compatibility per the wire contract). A blob without a
// version field is read as version 1; a version newer than Version, a
// version field that is not an integer, or invalid JSON is a *CodecError.
func Decode(blob string) (Blob, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return Blob{}, &CodecError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}

	version := 1
	if v, ok := raw["version"]; ok {
		iv, err := cast.ToIntE(v)
		if err != nil {
			return Blob{}, &CodecError{Reason: fmt.Sprintf("invalid version field: %v", err)}
		}
		version = iv
	}
	if version > Version {
		return Blob{}, &CodecError{Reason: fmt.Sprintf("unsupported format version %d (this codec supports up to %d)", version, Version)}
	}

	var b Blob
	if err := json.Unmarshal([]byte(blob), &b); err != nil {
		return Blob{}, &CodecError{Reason: fmt.Sprintf("malformed blob: %v", err)}
	}
	b.Version = version
	return b, nil
}
