package view

import "math"

// Stats summarises the finite values of one series.
type Stats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// Summarize skips missing and infinite values. Min, Max and Mean are NaN when
// nothing finite remains.
func Summarize(series []float64) Stats {
	st := Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	sum := 0.0
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if st.Count == 0 || v < st.Min {
			st.Min = v
		}
		if st.Count == 0 || v > st.Max {
			st.Max = v
		}
		sum += v
		st.Count++
	}
	if st.Count > 0 {
		st.Mean = sum / float64(st.Count)
	}
	return st
}
