package view

import (
	"math"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// CubicEaseOut evaluates the cubic ease-out curve at time t of duration d,
// moving from start by delta.
func CubicEaseOut(t, start, delta, d float64) float64 {
	p := t/d - 1
	return delta*(p*p*p+1) + start
}

// Interpolate returns steps values easing from start towards end. The value
// for step i is taken at progress i/steps, so the first value has already left
// start and the last is exactly end.
func Interpolate(start, end float64, steps int) []float64 {
	if steps <= 0 {
		return []float64{end}
	}
	out := make([]float64, steps)
	delta := end - start
	for i := 1; i <= steps; i++ {
		out[i-1] = CubicEaseOut(float64(i)/float64(steps), start, delta, 1)
	}
	out[steps-1] = end
	return out
}

// Transition produces the frames that animate prev into next. Rows are paired
// from the most recent end and the longer view is trimmed. Cells missing on either side jump
// straight to next. The last frame is always next itself.
func Transition(prev, next model.View, steps int) []model.View {
	if steps <= 1 || !prev.SameColumns(next) || prev.IsEmpty() || next.IsEmpty() {
		return []model.View{next}
	}

	n := len(next.Rows)
	if len(prev.Rows) < n {
		n = len(prev.Rows)
	}
	// Align the most recent rows of both views.
	prevRows := prev.Rows[len(prev.Rows)-n:]
	nextRows := next.Rows[len(next.Rows)-n:]

	frames := make([]model.View, steps)
	for f := range frames {
		frames[f] = model.View{
			Columns: next.Columns,
			Rows:    make([]model.Row, n),
		}
		for r := 0; r < n; r++ {
			frames[f].Rows[r] = model.Row{
				Timestamp: nextRows[r].Timestamp,
				Values:    make([]float64, len(next.Columns)),
			}
		}
	}

	for r := 0; r < n; r++ {
		for c := range next.Columns {
			from, to := prevRows[r].Values[c], nextRows[r].Values[c]
			if math.IsNaN(from) || math.IsNaN(to) {
				for f := range frames {
					frames[f].Rows[r].Values[c] = to
				}
				continue
			}
			for f, v := range Interpolate(from, to, steps) {
				frames[f].Rows[r].Values[c] = v
			}
		}
	}

	frames[steps-1] = next
	return frames
}
