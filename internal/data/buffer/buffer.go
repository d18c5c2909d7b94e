// Package buffer holds the in-memory materialisation of an append log.
package buffer

import (
	"sync"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// Loader is anything that can return the full contents of a log.
type Loader interface {
	LoadAll() ([]model.Sample, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func() ([]model.Sample, error)

// LoadAll calls f.
func (f LoaderFunc) LoadAll() ([]model.Sample, error) {
	return f()
}

// SampleBuffer is rebuilt wholesale from a Loader on every Reload.
// Readers only ever receive copies.
type SampleBuffer struct {
	mu         sync.RWMutex
	samples    []model.Sample
	lastReload time.Time
	now        func() time.Time
}

// New returns an empty buffer.
func New() *SampleBuffer {
	return &SampleBuffer{now: time.Now}
}

// NewWithClock returns an empty buffer that stamps reloads with now.
func NewWithClock(now func() time.Time) *SampleBuffer {
	return &SampleBuffer{now: now}
}

// Reload replaces the contents with a fresh full load. On error the previous
// contents are kept.
func (b *SampleBuffer) Reload(l Loader) error {
	samples, err := l.LoadAll()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = samples
	b.lastReload = b.now()
	return nil
}

// Snapshot returns a deep copy of the buffered samples in order.
func (b *SampleBuffer) Snapshot() []model.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.Sample, len(b.samples))
	for i, s := range b.samples {
		out[i] = s.Clone()
	}
	return out
}

// Len returns the number of buffered samples.
func (b *SampleBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Latest returns a copy of the most recent sample.
func (b *SampleBuffer) Latest() (model.Sample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.samples) == 0 {
		return model.Sample{}, false
	}
	return b.samples[len(b.samples)-1].Clone(), true
}

// LastReload returns when the buffer was last rebuilt, or the zero time.
func (b *SampleBuffer) LastReload() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastReload
}
