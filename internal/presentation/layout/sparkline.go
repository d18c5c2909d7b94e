package layout

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width values as block characters.
// Missing values leave a gap. The colour follows where the last value sits
// within the drawn range.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal, ok := finiteRange(data)
	if !ok {
		return strings.Repeat(" ", len(data))
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal
	last := math.NaN()

	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			sb.WriteRune(' ')
			continue
		}
		last = v
		sb.WriteRune(sparklineBlockRunes[level(v, minVal, valueRange, numLevels)])
	}

	percent := 50.0
	if valueRange > 0 {
		percent = (last - minVal) / valueRange * 100
	}
	style := lipgloss.NewStyle().Foreground(thresholdColor(percent))
	return style.Render(sb.String())
}

func level(v, minVal, valueRange float64, numLevels int) int {
	if valueRange == 0 {
		return numLevels / 2
	}
	l := int((v - minVal) / valueRange * float64(numLevels-1))
	if l < 0 {
		return 0
	}
	if l >= numLevels {
		return numLevels - 1
	}
	return l
}

// finiteRange returns the min and max of the finite values in data.
func finiteRange(data []float64) (float64, float64, bool) {
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal, !math.IsInf(minVal, 1)
}

func thresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
