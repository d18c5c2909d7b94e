package live

import (
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/interaction"
)

// SampleLog is the durable store the monitor loop writes and reloads from
type SampleLog interface {
	// Append persists one sample before returning
	Append(s model.Sample) error
	// LoadAll returns every stored sample in append order
	LoadAll() ([]model.Sample, error)
}

// InputHandler processes keyboard and other input events
type InputHandler interface {
	// Events returns a channel of keyboard events
	Events() <-chan interaction.KeyEvent
	// Close cleans up input handler resources
	Close() error
}
