package layout

import "github.com/charmbracelet/lipgloss"

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
	ColorMuted   lipgloss.Color = "8" // Gray
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
)
