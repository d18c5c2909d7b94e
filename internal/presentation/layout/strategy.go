package layout

import (
	"io"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// LayoutParam carries everything a layout needs besides the view itself.
type LayoutParam struct {
	Title     string
	Width     int
	MaxRows   int
	Precision int
	Paused    bool
	Source    string
	LogPath   string
	Updated   time.Time
	Now       time.Time
}

// LayoutStrategy defines the interface for different layout rendering strategies
type LayoutStrategy interface {
	Render(w io.Writer, v model.View, param LayoutParam)
	GetName() string
}

const (
	StyleFull = iota
	StyleMinimal
)

// GetLayoutStrategy returns the appropriate layout strategy based on the style
func GetLayoutStrategy(layoutStyle int) LayoutStrategy {
	strategies := map[int]LayoutStrategy{
		StyleFull:    &FullLayoutStrategy{},
		StyleMinimal: &MinimalLayoutStrategy{},
	}

	if strategy, exists := strategies[layoutStyle]; exists {
		return strategy
	}

	// Default to full dashboard if invalid style
	return &FullLayoutStrategy{}
}

// ParseStyle maps a style name from flags or config to a layout style
func ParseStyle(name string) int {
	switch name {
	case "minimal", "min", "1":
		return StyleMinimal
	default:
		return StyleFull
	}
}
