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

package ring

// TimeSample is one (timestamp, value) entry in a TimeSeriesBuffer.
type TimeSample struct {
	Timestamp float64
	Value     float64
}

// TimeSeriesBuffer is an insertion-ordered FIFO of (timestamp, value) pairs
// bounded by an optional maximum sample count and/or an optional maximum
// age. Monotonicity of timestamps is not enforced on push; that is the
// drift detector's job, not this buffer's.
type TimeSeriesBuffer struct {
	entries          []TimeSample
	maxSamples       int     // 0 = unlimited
	windowDurationMs float64 // 0 = disabled
}

// NewTimeSeriesBuffer creates a time-series buffer with the given
// constraints. Either constraint may be 0 to disable it, but at least one
// should normally be set by the caller.
func NewTimeSeriesBuffer(maxSamples int, windowDurationMs float64) *TimeSeriesBuffer {
	return &TimeSeriesBuffer{
		maxSamples:       maxSamples,
		windowDurationMs: windowDurationMs,
	}
}

// Push appends (t, x) unconditionally, then evicts from the front to
// re-enforce the duration constraint followed by the sample-count
// constraint. A sample at exactly windowDurationMs age is kept (eviction
// uses strict greater-than).
func (b *TimeSeriesBuffer) Push(t, x float64) {
	b.entries = append(b.entries, TimeSample{Timestamp: t, Value: x})
	b.evict()
}

func (b *TimeSeriesBuffer) evict() {
	if b.windowDurationMs > 0 && len(b.entries) > 0 {
		newest := b.entries[len(b.entries)-1].Timestamp
		i := 0
		for i < len(b.entries) && newest-b.entries[i].Timestamp > b.windowDurationMs {
			i++
		}
		if i > 0 {
			b.entries = b.entries[i:]
		}
	}
	if b.maxSamples > 0 && len(b.entries) > b.maxSamples {
		b.entries = b.entries[len(b.entries)-b.maxSamples:]
	}
}

// RemoveOlderThan drops every front entry with Timestamp < cutoff.
func (b *TimeSeriesBuffer) RemoveOlderThan(cutoff float64) {
	i := 0
	for i < len(b.entries) && b.entries[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		b.entries = b.entries[i:]
	}
}

// PopFront removes and returns the oldest entry.
func (b *TimeSeriesBuffer) PopFront() (TimeSample, bool) {
	if len(b.entries) == 0 {
		return TimeSample{}, false
	}
	e := b.entries[0]
	b.entries = b.entries[1:]
	return e, true
}

// Front returns the oldest entry without removing it.
func (b *TimeSeriesBuffer) Front() (TimeSample, bool) {
	if len(b.entries) == 0 {
		return TimeSample{}, false
	}
	return b.entries[0], true
}

// Back returns the newest entry without removing it.
func (b *TimeSeriesBuffer) Back() (TimeSample, bool) {
	if len(b.entries) == 0 {
		return TimeSample{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// Size returns the number of entries currently buffered.
func (b *TimeSeriesBuffer) Size() int {
	return len(b.entries)
}

// TimeSpan returns Back().Timestamp - Front().Timestamp, or 0 if the buffer
// holds fewer than two entries.
func (b *TimeSeriesBuffer) TimeSpan() float64 {
	if len(b.entries) < 2 {
		return 0
	}
	return b.entries[len(b.entries)-1].Timestamp - b.entries[0].Timestamp
}

// ToSlice returns the buffered entries in oldest-to-newest order. The
// returned slice is a copy.
func (b *TimeSeriesBuffer) ToSlice() []TimeSample {
	out := make([]TimeSample, len(b.entries))
	copy(out, b.entries)
	return out
}

// FromSlice replaces the buffer contents with entries, oldest first, then
// re-applies the configured constraints.
func (b *TimeSeriesBuffer) FromSlice(entries []TimeSample) {
	b.entries = append(b.entries[:0], entries...)
	b.evict()
}
