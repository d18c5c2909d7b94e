package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "hello", StripANSI("\x1b[?1049h\x1b[2J\x1b[1;35mhello\x1b[0m"))
	assert.Equal(t, "plain", StripANSI("plain"))
}

func TestFrames(t *testing.T) {
	output := "\x1b[?1049h\x1b[2J" +
		"\x1b[Hfirst\r\nframe\x1b[J" +
		"\x1b[H\x1b[J" +
		"\x1b[Hsecond\r\n\x1b[J"

	frames := Frames(output)
	assert.Equal(t, []string{"first\nframe", "second"}, frames)
	assert.Equal(t, "second", LastFrame(output))
	assert.Empty(t, LastFrame("no frames"))
}
