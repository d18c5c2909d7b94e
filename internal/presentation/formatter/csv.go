package formatter

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// CSVFormatter writes a View in the append log's own layout, so an export
// can be loaded back as a log. Missing cells are left empty.
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(out io.Writer, v model.View) error {
	w := csv.NewWriter(out)

	headers := append([]string{model.TimestampColumn}, v.Columns...)
	if err := w.Write(headers); err != nil {
		return err
	}

	record := make([]string, len(headers))
	for _, row := range v.Rows {
		record[0] = util.FormatTimestamp(row.Timestamp)
		for i, x := range row.Values {
			if math.IsNaN(x) {
				record[i+1] = ""
				continue
			}
			record[i+1] = strconv.FormatFloat(x, 'f', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
