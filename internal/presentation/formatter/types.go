package formatter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// Formatter writes a View in one output format.
type Formatter interface {
	Format(w io.Writer, v model.View) error
}

// RowDocument is one row of a ViewDocument. Missing cells are nil.
type RowDocument struct {
	Timestamp string     `json:"timestamp"`
	Values    []*float64 `json:"values"`
}

// ViewDocument is the JSON shape of a View shared by export and the web API.
type ViewDocument struct {
	Columns []string      `json:"columns"`
	Rows    []RowDocument `json:"rows"`
}

// NewViewDocument converts v, mapping NaN and infinite cells to null.
func NewViewDocument(v model.View) ViewDocument {
	doc := ViewDocument{
		Columns: append([]string{}, v.Columns...),
		Rows:    make([]RowDocument, len(v.Rows)),
	}
	for i, row := range v.Rows {
		values := make([]*float64, len(row.Values))
		for j, x := range row.Values {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				continue
			}
			x := x
			values[j] = &x
		}
		doc.Rows[i] = RowDocument{Timestamp: util.FormatTimestamp(row.Timestamp), Values: values}
	}
	return doc
}

// GetFormatter returns the formatter registered under name.
func GetFormatter(name string, precision int) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "table":
		return NewTableFormatter(precision), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "summary":
		return NewSummaryFormatter(precision), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, csv, json or summary)", name)
	}
}
