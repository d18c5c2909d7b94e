package layout

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-sensor-monitor/internal/util"
	"golang.org/x/term"
)

const (
	DefaultWidth = 74
	MinWidth     = 40
	MaxWidth     = 160
)

// Package-level singleton Sizer instance
var sharedSizer = &Sizer{}

type Sizer struct {
}

// PadString pads a string to a specific display width
func (i Sizer) PadString(s string, width int, leftAlign bool) string {
	actualWidth := runewidth.StringWidth(s)
	if actualWidth >= width {
		return s
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// GetMaxWidth returns the usable width of the attached terminal
func (i Sizer) GetMaxWidth() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return DefaultWidth
	}
	return ClampWidth(termWidth - 4)
}

// ClampWidth bounds a requested width to what the layouts can draw
func ClampWidth(width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	if width < MinWidth {
		width = MinWidth
	}
	if width > MaxWidth {
		width = MaxWidth
	}
	util.LogDebugf("layout width %d", width)
	return width
}
