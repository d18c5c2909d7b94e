package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/core/view"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// SummaryFormatter prints per-column statistics instead of rows.
type SummaryFormatter struct {
	precision int
}

func NewSummaryFormatter(precision int) *SummaryFormatter {
	return &SummaryFormatter{precision: precision}
}

func (f *SummaryFormatter) Format(w io.Writer, v model.View) error {
	if v.IsEmpty() {
		_, err := fmt.Fprintln(w, "No samples.")
		return err
	}

	first, last := v.Rows[0].Timestamp, v.Rows[len(v.Rows)-1].Timestamp
	fmt.Fprintf(w, "%s rows from %s to %s (%s)\n",
		util.FormatCount(v.Len()),
		util.FormatTimestamp(first),
		util.FormatTimestamp(last),
		util.FormatDuration(last.Sub(first)))

	headers := []string{"Column", "Count", "Missing", "Min", "Mean", "Max"}
	rows := make([][]string, 0, len(v.Columns))
	for _, col := range v.Columns {
		st := view.Summarize(v.Series(col))
		rows = append(rows, []string{
			col,
			fmt.Sprintf("%d", st.Count),
			fmt.Sprintf("%d", v.Len()-st.Count),
			util.FormatValue(st.Min, f.precision),
			util.FormatValue(st.Mean, f.precision),
			util.FormatValue(st.Max, f.precision),
		})
	}

	widths := calculateColumnWidths(headers, rows)
	printBorder(w, widths, "┌", "┬", "┐")
	printRow(w, headers, widths)
	printBorder(w, widths, "├", "┼", "┤")
	for _, cells := range rows {
		printRow(w, cells, widths)
	}
	printBorder(w, widths, "└", "┴", "┘")
	return nil
}
