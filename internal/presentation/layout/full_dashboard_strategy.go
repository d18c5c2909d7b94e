package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/core/view"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

const (
	timestampWidth = len(constants.TimestampLayout)
	minCellWidth   = 9
	maxCellWidth   = 16
	trendLabelMax  = 18
)

// FullLayoutStrategy draws a boxed table of the most recent rows followed by
// one trend line per column.
type FullLayoutStrategy struct{}

func (s *FullLayoutStrategy) GetName() string {
	return "Full Dashboard"
}

func (s *FullLayoutStrategy) Render(w io.Writer, v model.View, param LayoutParam) {
	width := ClampWidth(param.Width)

	topBorder(w, width)
	s.header(w, v, param, width)
	separator(w, width)

	if v.IsEmpty() {
		boxLine(w, mutedStyle.Render("Waiting for samples..."), width)
		bottomBorder(w, width)
		return
	}

	columns := visibleColumns(v, width)
	s.table(w, v, columns, param, width)
	separator(w, width)
	s.trends(w, v, param, width)
	bottomBorder(w, width)
}

func (s *FullLayoutStrategy) header(w io.Writer, v model.View, param LayoutParam, width int) {
	title := param.Title
	if title == "" {
		title = "SENSOR MONITOR"
	}
	right := param.Now.Format("15:04:05")
	if param.Paused {
		right = pausedStyle.Render("PAUSED") + "  " + right
	}
	splitLine(w, titleStyle.Render(title), right, width)

	info := fmt.Sprintf("rows %s", util.FormatCount(v.Len()))
	if param.Source != "" {
		info = fmt.Sprintf("source %s  %s", param.Source, info)
	}
	if !param.Updated.IsZero() {
		info += "  updated " + util.FormatAge(param.Updated, param.Now)
	}
	splitLine(w, info, mutedStyle.Render(param.LogPath), width)
}

// visibleColumns returns how many value columns fit beside the timestamp.
func visibleColumns(v model.View, width int) int {
	used := timestampWidth
	n := 0
	for _, col := range v.Columns {
		cw := cellWidth(col)
		if used+1+cw > width-4 {
			break
		}
		used += 1 + cw
		n++
	}
	return n
}

func cellWidth(column string) int {
	w := util.GetDisplayWidth(column)
	if w < minCellWidth {
		return minCellWidth
	}
	if w > maxCellWidth {
		return maxCellWidth
	}
	return w
}

func (s *FullLayoutStrategy) table(w io.Writer, v model.View, columns int, param LayoutParam, width int) {
	var head strings.Builder
	head.WriteString(util.PadRight(model.TimestampColumn, timestampWidth))
	for _, col := range v.Columns[:columns] {
		cw := cellWidth(col)
		head.WriteString(" " + util.PadLeft(util.Truncate(col, cw), cw))
	}
	boxLine(w, titleStyle.Render(head.String()), width)

	rows := v.Rows
	if param.MaxRows > 0 && len(rows) > param.MaxRows {
		rows = rows[len(rows)-param.MaxRows:]
	}
	for _, row := range rows {
		var line strings.Builder
		line.WriteString(util.FormatTimestamp(row.Timestamp))
		for i, col := range v.Columns[:columns] {
			cw := cellWidth(col)
			line.WriteString(" " + util.PadLeft(util.FormatValue(row.Values[i], param.Precision), cw))
		}
		boxLine(w, line.String(), width)
	}
	if hidden := len(v.Columns) - columns; hidden > 0 {
		boxLine(w, mutedStyle.Render(fmt.Sprintf("+%d more columns", hidden)), width)
	}
}

func (s *FullLayoutStrategy) trends(w io.Writer, v model.View, param LayoutParam, width int) {
	labelWidth := 0
	for _, col := range v.Columns {
		if lw := util.GetDisplayWidth(col); lw > labelWidth {
			labelWidth = lw
		}
	}
	if labelWidth > trendLabelMax {
		labelWidth = trendLabelMax
	}

	for _, col := range v.Columns {
		series := v.Series(col)
		summary := seriesSummary(series, param.Precision)
		sparkWidth := width - 4 - labelWidth - 2 - util.GetDisplayWidth(summary) - 1
		label := util.PadRight(util.Truncate(col, labelWidth), labelWidth)
		boxLine(w, label+"  "+RenderSparkline(series, sparkWidth)+" "+summary, width)
	}
}

func seriesSummary(series []float64, precision int) string {
	st := view.Summarize(series)
	if st.Count == 0 {
		return "no data"
	}
	return fmt.Sprintf("min %s avg %s max %s",
		util.FormatValue(st.Min, precision),
		util.FormatValue(st.Mean, precision),
		util.FormatValue(st.Max, precision))
}
