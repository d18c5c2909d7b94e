package e2e

import (
	"regexp"
	"strings"
)

// ansiEscape matches CSI sequences, including private modes such as ?1049h
var ansiEscape = regexp.MustCompile(`\x1b\[[?0-9;]*[a-zA-Z]`)

// frameStart is written by the terminal display before every frame
const frameStart = "\x1b[H"

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Frames splits raw terminal output into the frames drawn by the display,
// with escape codes removed. Output before the first frame is dropped.
func Frames(output string) []string {
	parts := strings.Split(output, frameStart)
	if len(parts) < 2 {
		return nil
	}
	frames := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		clean := strings.TrimRight(StripANSI(strings.ReplaceAll(part, "\r", "")), "\n ")
		if clean != "" {
			frames = append(frames, clean)
		}
	}
	return frames
}

// LastFrame returns the most recent non-empty frame
func LastFrame(output string) string {
	frames := Frames(output)
	if len(frames) == 0 {
		return ""
	}
	return frames[len(frames)-1]
}
