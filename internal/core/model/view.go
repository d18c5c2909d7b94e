package model

import "time"

// Row is one line of a View. Values[i] belongs to View.Columns[i].
type Row struct {
	Timestamp time.Time
	Values    []float64
}

// View is a disposable projection of the sample buffer handed to a RenderSink.
type View struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (v View) Len() int {
	return len(v.Rows)
}

// IsEmpty reports whether the view has no rows.
func (v View) IsEmpty() bool {
	return len(v.Rows) == 0
}

// ColumnIndex returns the position of name in Columns, or -1.
func (v View) ColumnIndex(name string) int {
	for i, col := range v.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Series returns the values of one column in row order.
func (v View) Series(name string) []float64 {
	idx := v.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(v.Rows))
	for i, row := range v.Rows {
		out[i] = row.Values[idx]
	}
	return out
}

// SameColumns reports whether two views carry the same columns in the same order.
func (v View) SameColumns(other View) bool {
	if len(v.Columns) != len(other.Columns) {
		return false
	}
	for i := range v.Columns {
		if v.Columns[i] != other.Columns[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the view.
func (v View) Clone() View {
	out := View{
		Columns: append([]string(nil), v.Columns...),
		Rows:    make([]Row, len(v.Rows)),
	}
	for i, row := range v.Rows {
		out.Rows[i] = Row{
			Timestamp: row.Timestamp,
			Values:    append([]float64(nil), row.Values...),
		}
	}
	return out
}

// Bin is one histogram bucket over [Low, High).
type Bin struct {
	Low   float64
	High  float64
	Count int
}

// Histogram is the value distribution of one view column.
type Histogram struct {
	Column string
	Bins   []Bin
}
