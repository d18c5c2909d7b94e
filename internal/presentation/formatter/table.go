package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

type TableFormatter struct {
	precision int
}

func NewTableFormatter(precision int) *TableFormatter {
	return &TableFormatter{precision: precision}
}

func (f *TableFormatter) Format(w io.Writer, v model.View) error {
	headers := append([]string{model.TimestampColumn}, v.Columns...)
	rows := make([][]string, len(v.Rows))
	for i, row := range v.Rows {
		cells := make([]string, 0, len(headers))
		cells = append(cells, util.FormatTimestamp(row.Timestamp))
		for _, x := range row.Values {
			cells = append(cells, util.FormatValue(x, f.precision))
		}
		rows[i] = cells
	}

	widths := calculateColumnWidths(headers, rows)

	printBorder(w, widths, "┌", "┬", "┐")
	printRow(w, headers, widths)
	printBorder(w, widths, "├", "┼", "┤")
	for _, cells := range rows {
		printRow(w, cells, widths)
	}
	printBorder(w, widths, "└", "┴", "┘")

	_, err := fmt.Fprintf(w, "%s rows\n", util.FormatCount(len(rows)))
	return err
}

func calculateColumnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.GetDisplayWidth(h)
	}
	for _, cells := range rows {
		for i, c := range cells {
			if cw := util.GetDisplayWidth(c); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	return widths
}

func printBorder(w io.Writer, widths []int, left, mid, right string) {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("─", width+2)
	}
	fmt.Fprintln(w, left+strings.Join(parts, mid)+right)
}

// printRow left-aligns the timestamp and right-aligns the values.
func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if i == 0 {
			parts[i] = " " + util.PadRight(c, widths[i]) + " "
		} else {
			parts[i] = " " + util.PadLeft(c, widths[i]) + " "
		}
	}
	fmt.Fprintln(w, "│"+strings.Join(parts, "│")+"│")
}
