package view

import (
	"math"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// Histogram buckets one column of v into bins equal-width bins spanning its
// observed range. Missing cells are skipped.
func Histogram(v model.View, column string, bins int) model.Histogram {
	h := model.Histogram{Column: column}
	if bins <= 0 {
		return h
	}

	values := make([]float64, 0, v.Len())
	for _, x := range v.Series(column) {
		if !model.IsMissing(x) && !math.IsInf(x, 0) {
			values = append(values, x)
		}
	}
	if len(values) == 0 {
		return h
	}

	lo, hi := values[0], values[0]
	for _, x := range values[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo == hi {
		// One bucket centred on the single observed value.
		h.Bins = []model.Bin{{Low: lo - 0.5, High: hi + 0.5, Count: len(values)}}
		return h
	}

	width := (hi - lo) / float64(bins)
	h.Bins = make([]model.Bin, bins)
	for i := range h.Bins {
		h.Bins[i].Low = lo + float64(i)*width
		h.Bins[i].High = lo + float64(i+1)*width
	}
	for _, x := range values {
		idx := int((x - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Bins[idx].Count++
	}
	return h
}
