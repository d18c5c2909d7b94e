package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// MinimalLayoutStrategy prints the latest row on a single line
type MinimalLayoutStrategy struct{}

func (s *MinimalLayoutStrategy) GetName() string {
	return "Minimal Dashboard"
}

func (s *MinimalLayoutStrategy) Render(w io.Writer, v model.View, param LayoutParam) {
	if v.IsEmpty() {
		fmt.Fprintln(w, "Sensors: waiting for samples")
		return
	}

	latest := v.Rows[len(v.Rows)-1]
	parts := make([]string, 0, len(v.Columns)+2)
	parts = append(parts, util.FormatTimestamp(latest.Timestamp))
	for i, col := range v.Columns {
		parts = append(parts, fmt.Sprintf("%s=%s", col, util.FormatValue(latest.Values[i], param.Precision)))
	}
	if param.Paused {
		parts = append(parts, "PAUSED")
	}
	fmt.Fprintln(w, "Sensors: "+strings.Join(parts, " | "))
}
