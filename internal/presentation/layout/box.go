package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

func topBorder(w io.Writer, width int) {
	fmt.Fprintln(w, "╭"+strings.Repeat("─", width-2)+"╮")
}

func bottomBorder(w io.Writer, width int) {
	fmt.Fprintln(w, "╰"+strings.Repeat("─", width-2)+"╯")
}

func separator(w io.Writer, width int) {
	fmt.Fprintln(w, "├"+strings.Repeat("─", width-2)+"┤")
}

// boxLine writes content inside the side borders, padded or cut to fit.
// Width is measured without ANSI styling.
func boxLine(w io.Writer, content string, width int) {
	inner := width - 4
	if lipgloss.Width(content) > inner {
		content = util.Truncate(content, inner)
	}
	pad := inner - lipgloss.Width(content)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(w, "│ "+content+strings.Repeat(" ", pad)+" │")
}

// splitLine places left and right content at opposite edges of one box line.
func splitLine(w io.Writer, left, right string, width int) {
	inner := width - 4
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		boxLine(w, left, width)
		return
	}
	boxLine(w, left+strings.Repeat(" ", gap)+right, width)
}
