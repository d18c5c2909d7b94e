package view

import (
	"math"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// Magnitude returns the Euclidean norm of the sample across columns.
// A missing value in any column makes the result missing.
func Magnitude(s model.Sample, columns []string) float64 {
	var sum float64
	for _, col := range columns {
		v := s.Value(col)
		if model.IsMissing(v) {
			return model.Missing
		}
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Select keeps the names from wanted that appear in declared, in declared order.
// An empty wanted list selects every declared column.
func Select(declared, wanted []string) []string {
	if len(wanted) == 0 {
		return append([]string(nil), declared...)
	}
	keep := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		keep[w] = struct{}{}
	}
	out := make([]string, 0, len(wanted))
	for _, col := range declared {
		if _, ok := keep[col]; ok {
			out = append(out, col)
		}
	}
	return out
}
