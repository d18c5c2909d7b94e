// Package source provides the sample sources the monitor loop pulls from.
package source

import (
	"context"
	"errors"
)

// Source yields one labelled set of readings per Fetch.
// Fetch may block until a reading is available; it returns early only when ctx is done.
type Source interface {
	Fetch(ctx context.Context) (map[string]float64, error)
	Close() error
}

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("source closed")

// Func adapts a synchronous pull function to Source.
type Func func(ctx context.Context) (map[string]float64, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context) (map[string]float64, error) {
	return f(ctx)
}

// Close is a no-op.
func (f Func) Close() error {
	return nil
}
