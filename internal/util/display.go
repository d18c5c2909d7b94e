package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	ColorReset   = "\033[0m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"

	EnterAltScreen  = "\033[?1049h"
	ExitAltScreen   = "\033[?1049l"
	ClearScreen     = "\033[2J"
	ClearLine       = "\033[2K"
	ClearToEnd      = "\033[J"
	ClearScrollback = "\033[3J"
	MoveCursorHome  = "\033[H"
	HideCursor      = "\033[?25l"
	ShowCursor      = "\033[?25h"
)

// GetDisplayWidth calculates the actual display width of a string
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadLeft right-aligns s within width display cells
func PadLeft(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return strings.Repeat(" ", width-w) + s
}

// PadRight left-aligns s within width display cells
func PadRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Truncate cuts s to width display cells, marking the cut with an ellipsis
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}

// CenterText centers text within the given width
func CenterText(text string, width int) string {
	w := runewidth.StringWidth(text)
	if w >= width {
		return Truncate(text, width)
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-padding-w)
}
