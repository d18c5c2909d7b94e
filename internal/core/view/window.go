package view

import (
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// Tail returns the last w samples in their original order.
// A non-positive w, or one at least as large as the input, returns everything.
func Tail(samples []model.Sample, w int) []model.Sample {
	if w <= 0 || w >= len(samples) {
		return samples
	}
	return samples[len(samples)-w:]
}

// Page returns samples[offset:offset+w], clamped to the input.
// A non-positive w means "to the end".
func Page(samples []model.Sample, offset, w int) []model.Sample {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(samples) {
		return samples[:0]
	}
	end := len(samples)
	if w > 0 && offset+w < end {
		end = offset + w
	}
	return samples[offset:end]
}

// TimeBox keeps the samples whose timestamp lies within h of the latest sample.
func TimeBox(samples []model.Sample, h time.Duration) []model.Sample {
	if h <= 0 || len(samples) == 0 {
		return samples
	}

	latest := samples[0].Timestamp
	for _, s := range samples[1:] {
		if s.Timestamp.After(latest) {
			latest = s.Timestamp
		}
	}
	cutoff := latest.Add(-h)

	// Rows are in timestamp order in practice, but clock skew is not ruled out.
	out := make([]model.Sample, 0, len(samples))
	for _, s := range samples {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
