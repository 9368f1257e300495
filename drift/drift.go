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

// Package drift tracks how far a channel's observed sample timestamps
// stray from the interval its declared sample rate implies: out-of-order
// arrivals, gaps where the source stalled, and the running clock skew
// between expected and actual arrival time. Unlike a watermark that
// advances continuously off a goroutine/ticker, a Detector is driven
// synchronously by the same timestamp slice Process already normalized
// for a chunk — there is no background update loop to own or shut down.
package drift

import "math"

// Detector accumulates drift statistics for one channel's timestamp
// stream across chunks. The zero value is ready to use once
// ExpectedIntervalMs is set.
type Detector struct {
	// ExpectedIntervalMs is the nominal spacing between samples, in
	// milliseconds, derived from the caller's sample rate
	// (1000/sampleRate). Zero disables drift-magnitude reporting;
	// monotonicity and gap detection still run.
	ExpectedIntervalMs float64
	// MaxOutOfOrdernessMs bounds how far a timestamp may fall behind the
	// maximum seen so far before it counts as an out-of-order violation.
	MaxOutOfOrdernessMs float64
	// GapThresholdMs is the delta above which a consecutive pair of
	// timestamps counts as a gap rather than ordinary jitter. Defaults
	// to 2x ExpectedIntervalMs when zero and ExpectedIntervalMs > 0.

	GapThresholdMs float64

	maxSeen     float64
	haveMaxSeen bool
	totalDrift  float64
	sampleCount int64
}

// Gap records one observed stall: the timestamps on either side of it
// and the interval between them.
type Gap struct {
	FromMs  float64
	ToMs    float64
	DeltaMs float64
}

// Report summarizes one Observe call plus the detector's running state.
type Report struct {
	// SampleCount is the number of timestamps observed in this call.
	SampleCount int
	// OutOfOrderCount is how many timestamps in this call arrived more
	// than MaxOutOfOrdernessMs behind the maximum seen so far.
	OutOfOrderCount int
	// Gaps lists every consecutive pair in this call whose delta exceeded
	// GapThresholdMs.
	Gaps []Gap
	// MeanDeltaMs is the average consecutive-sample interval observed in
	// this call (NaN if fewer than two samples were supplied).
	MeanDeltaMs float64
	// MeanDriftMs is the running average signed deviation between
	// observed and expected interval, across every sample this detector
	// has ever seen (0 if ExpectedIntervalMs is 0).
	MeanDriftMs float64
	// MaxTimestampMs is the highest timestamp observed so far, across
	// all calls.
	MaxTimestampMs float64
}

// Observe folds one chunk's per-sample timestamps (already normalized by
// Process's timestamp contract) into the detector's running state and
// returns a report describing this chunk alone, plus the running
// averages carried from prior calls.
func (d *Detector) Observe(timestamps []float64) Report {
	rep := Report{SampleCount: len(timestamps), MeanDeltaMs: math.NaN()}

	gapThreshold := d.GapThresholdMs
	if gapThreshold == 0 && d.ExpectedIntervalMs > 0 {
		gapThreshold = 2 * d.ExpectedIntervalMs
	}

	var deltaSum float64
	var deltaCount int
	for i, ts := range timestamps {
		if !d.haveMaxSeen || ts > d.maxSeen {
			d.maxSeen = ts
			d.haveMaxSeen = true
		} else if d.maxSeen-ts > d.MaxOutOfOrdernessMs {
			rep.OutOfOrderCount++
		}

		if i > 0 {
			delta := ts - timestamps[i-1]
			deltaSum += delta
			deltaCount++
			if gapThreshold > 0 && delta > gapThreshold {
				rep.Gaps = append(rep.Gaps, Gap{FromMs: timestamps[i-1], ToMs: ts, DeltaMs: delta})
			}
			if d.ExpectedIntervalMs > 0 {
				d.totalDrift += delta - d.ExpectedIntervalMs
				d.sampleCount++
			}
		}
	}

	if deltaCount > 0 {
		rep.MeanDeltaMs = deltaSum / float64(deltaCount)
	}
	if d.sampleCount > 0 {
		rep.MeanDriftMs = d.totalDrift / float64(d.sampleCount)
	}
	rep.MaxTimestampMs = d.maxSeen
	return rep
}

// Reset clears the detector's running state, keeping its configuration.
func (d *Detector) Reset() {
	d.maxSeen = 0
	d.haveMaxSeen = false
	d.totalDrift = 0
	d.sampleCount = 0
}
