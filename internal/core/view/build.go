// Package view computes the disposable projections handed to render sinks.
package view

import (
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// Options selects the projection applied by Build.
type Options struct {
	// Window keeps the most recent Window rows; 0 keeps all.
	Window int
	// Paged selects the Window rows starting at Offset instead of the tail.
	Paged  bool
	Offset int
	// TimeBox keeps rows within this duration of the latest row; 0 keeps all.
	TimeBox time.Duration
	// Magnitude appends a Magnitude column computed over every declared column.
	Magnitude bool
	// Columns restricts the displayed value columns; empty shows all.
	Columns []string
}

// Build projects samples into a View. Filters run in order: time-box, then
// page or tail, then column selection and magnitude.
func Build(samples []model.Sample, declared []string, opts Options) model.View {
	rows := TimeBox(samples, opts.TimeBox)
	if opts.Paged {
		rows = Page(rows, opts.Offset, opts.Window)
	} else {
		rows = Tail(rows, opts.Window)
	}

	columns := Select(declared, opts.Columns)
	if opts.Magnitude {
		columns = append(columns, model.MagnitudeColumn)
	}

	v := model.View{
		Columns: columns,
		Rows:    make([]model.Row, 0, len(rows)),
	}
	for _, s := range rows {
		values := make([]float64, len(columns))
		for i, col := range columns {
			if opts.Magnitude && i == len(columns)-1 {
				values[i] = Magnitude(s, declared)
				continue
			}
			values[i] = s.Value(col)
		}
		v.Rows = append(v.Rows, model.Row{Timestamp: s.Timestamp, Values: values})
	}
	return v
}
