package display

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/layout"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// DisplayConfig configures a TerminalDisplay.
type DisplayConfig struct {
	Out         io.Writer
	Title       string
	Source      string
	LogPath     string
	LayoutStyle int
	Precision   int
	MaxRows     int
	// Width of the dashboard; zero follows the terminal.
	Width int
	Now   func() time.Time
}

// State is the interaction state that changes how a view is drawn.
type State struct {
	Paused        bool
	ShowHelp      bool
	LayoutStyle   int
	StatusMessage string
}

// TerminalDisplay is a RenderSink that redraws a dashboard in place.
type TerminalDisplay struct {
	config            DisplayConfig
	mu                sync.Mutex
	state             State
	lastView          model.View
	hasView           bool
	lastDraw          time.Time
	inAlternateScreen bool
	isFirstRender     bool
	lastLayoutStyle   int
}

func NewTerminalDisplay(config DisplayConfig) *TerminalDisplay {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Precision <= 0 {
		config.Precision = 3
	}
	return &TerminalDisplay{
		config:          config,
		state:           State{LayoutStyle: config.LayoutStyle},
		isFirstRender:   true,
		lastLayoutStyle: config.LayoutStyle,
	}
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.config.Out, util.EnterAltScreen+util.ClearScreen+util.ClearScrollback+util.MoveCursorHome+util.HideCursor)
	td.inAlternateScreen = true
	td.isFirstRender = true
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.config.Out, util.ClearScreen+util.MoveCursorHome+util.ShowCursor+util.ExitAltScreen)
	td.inAlternateScreen = false
}

// SetState replaces the interaction state. It takes effect on the next draw.
func (td *TerminalDisplay) SetState(state State) {
	td.mu.Lock()
	defer td.mu.Unlock()
	td.state = state
}

// State returns the current interaction state.
func (td *TerminalDisplay) State() State {
	td.mu.Lock()
	defer td.mu.Unlock()
	return td.state
}

// Render draws v. An empty view draws the waiting dashboard.
func (td *TerminalDisplay) Render(v model.View) {
	td.mu.Lock()
	defer td.mu.Unlock()
	td.lastView = v
	td.hasView = true
	td.draw()
}

// Redraw repeats the last draw with the current state, e.g. after a key press.
func (td *TerminalDisplay) Redraw() {
	td.mu.Lock()
	defer td.mu.Unlock()
	if !td.hasView {
		td.renderLoadingScreen("Waiting for the first refresh...")
		return
	}
	td.draw()
}

// RenderLoading shows a centred loading box until the first view arrives.
func (td *TerminalDisplay) RenderLoading(message string) {
	td.mu.Lock()
	defer td.mu.Unlock()
	td.renderLoadingScreen(message)
}

// LastDraw returns when the dashboard was last drawn.
func (td *TerminalDisplay) LastDraw() time.Time {
	td.mu.Lock()
	defer td.mu.Unlock()
	return td.lastDraw
}

// draw composes the whole frame in memory so the terminal sees one write.
func (td *TerminalDisplay) draw() {
	var frame bytes.Buffer
	now := td.config.Now()

	if td.inAlternateScreen {
		if td.isFirstRender || td.lastLayoutStyle != td.state.LayoutStyle {
			frame.WriteString(util.ClearScreen + util.ClearScrollback)
			td.isFirstRender = false
			td.lastLayoutStyle = td.state.LayoutStyle
		}
		frame.WriteString(util.MoveCursorHome)
	}

	if td.state.ShowHelp {
		renderHelp(&frame)
	} else {
		param := layout.LayoutParam{
			Title:     td.config.Title,
			Width:     td.width(),
			MaxRows:   td.config.MaxRows,
			Precision: td.config.Precision,
			Paused:    td.state.Paused,
			Source:    td.config.Source,
			LogPath:   td.config.LogPath,
			Updated:   latestTimestamp(td.lastView),
			Now:       now,
		}
		layout.GetLayoutStrategy(td.state.LayoutStyle).Render(&frame, td.lastView, param)
		if td.state.StatusMessage != "" {
			frame.WriteString(util.ClearLine + "  Status: " + td.state.StatusMessage + "\n")
		}
	}

	if td.inAlternateScreen {
		frame.WriteString(util.ClearToEnd)
	}
	if _, err := td.config.Out.Write(frame.Bytes()); err != nil {
		util.LogDebug("terminal write failed", util.F("error", err))
	}
	td.lastDraw = now
}

func (td *TerminalDisplay) width() int {
	if td.config.Width > 0 {
		return layout.ClampWidth(td.config.Width)
	}
	return layout.Sizer{}.GetMaxWidth()
}

func latestTimestamp(v model.View) time.Time {
	if v.IsEmpty() {
		return time.Time{}
	}
	return v.Rows[len(v.Rows)-1].Timestamp
}

func renderHelp(w io.Writer) {
	fmt.Fprintln(w, util.FormatHeaderTitle("Sensor Monitor - Help"))
	fmt.Fprintln(w, strings.Repeat("═", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keyboard Shortcuts:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  q/Ctrl+C  - Quit the program")
	fmt.Fprintln(w, "  r         - Refresh now")
	fmt.Fprintln(w, "  p         - Pause/unpause auto-refresh")
	fmt.Fprintln(w, "  m         - Toggle the magnitude column")
	fmt.Fprintln(w, "  t         - Change layout style (Full → Minimal)")
	fmt.Fprintln(w, "  + / -     - Grow or shrink the window")
	fmt.Fprintln(w, "  ← / →     - Page back or forward through history")
	fmt.Fprintln(w, "  ↑ / ↓     - Jump to the oldest rows or back to the live tail")
	fmt.Fprintln(w, "  h/ESC     - Show or close this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trend Colors:")
	fmt.Fprintln(w, "  Green  - Latest value in the lower 60% of the window range")
	fmt.Fprintln(w, "  Yellow - Latest value between 60% and 80%")
	fmt.Fprintln(w, "  Red    - Latest value above 80%")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", 72))
	fmt.Fprintln(w, "Press 'h' to return...")
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if text == "" {
		return []string{}
	}
	if util.GetDisplayWidth(text) <= width {
		return []string{text}
	}

	var lines []string
	currentLine := ""
	for _, word := range strings.Fields(text) {
		if currentLine == "" {
			currentLine = word
		} else if util.GetDisplayWidth(currentLine)+1+util.GetDisplayWidth(word) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}
	return lines
}

var loadingChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (td *TerminalDisplay) renderLoadingScreen(message string) {
	var frame bytes.Buffer
	if td.inAlternateScreen {
		frame.WriteString(util.ClearScreen + util.MoveCursorHome)
	}

	const boxWidth = 50
	if message == "" {
		message = "Loading samples..."
	}
	now := td.config.Now()
	spinner := loadingChars[int(now.Unix())%len(loadingChars)]

	title := td.config.Title
	if title == "" {
		title = "Sensor Monitor"
	}

	fmt.Fprintf(&frame, "╔%s╗\n", strings.Repeat("═", boxWidth-2))
	fmt.Fprintf(&frame, "║%s║\n", util.CenterText(title, boxWidth-2))
	fmt.Fprintf(&frame, "╠%s╣\n", strings.Repeat("═", boxWidth-2))
	for _, line := range wrapText(spinner+" "+message, boxWidth-4) {
		fmt.Fprintf(&frame, "║%s║\n", util.CenterText(line, boxWidth-2))
	}
	fmt.Fprintf(&frame, "║%s║\n", util.CenterText("Press 'q' to quit", boxWidth-2))
	fmt.Fprintf(&frame, "╚%s╝\n", strings.Repeat("═", boxWidth-2))

	if _, err := td.config.Out.Write(frame.Bytes()); err != nil {
		util.LogDebug("terminal write failed", util.F("error", err))
	}
	td.lastDraw = now
}
