package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// Mailbox bridges push-style producers to the pull-style monitor loop.
// Producers store the latest value per column; Fetch blocks until every
// declared column has received at least one value, then returns the latest set.
type Mailbox struct {
	columns []string

	mu      sync.Mutex
	latest  map[string]float64
	arrived map[string]bool
	pending int

	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMailbox returns an empty mailbox for the given columns.
func NewMailbox(columns []string) *Mailbox {
	m := &Mailbox{
		columns: append([]string(nil), columns...),
		latest:  make(map[string]float64, len(columns)),
		arrived: make(map[string]bool, len(columns)),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, col := range columns {
		if !m.arrived[col] {
			m.arrived[col] = false
			m.pending++
		}
	}
	if m.pending == 0 {
		close(m.ready)
	}
	return m
}

// Columns returns the declared columns.
func (m *Mailbox) Columns() []string {
	return append([]string(nil), m.columns...)
}

// Publish stores value as the latest reading for name.
func (m *Mailbox) Publish(name string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, ok := m.arrived[name]
	if !ok {
		return fmt.Errorf("%w: unknown column %q", model.ErrSchemaMismatch, name)
	}
	m.latest[name] = value
	if !seen {
		m.arrived[name] = true
		m.pending--
		if m.pending == 0 {
			close(m.ready)
		}
	}
	return nil
}

// PublishAll stores every value in values. Unknown names are rejected
// before anything is stored.
func (m *Mailbox) PublishAll(values map[string]float64) error {
	m.mu.Lock()
	for name := range values {
		if _, ok := m.arrived[name]; !ok {
			m.mu.Unlock()
			return fmt.Errorf("%w: unknown column %q", model.ErrSchemaMismatch, name)
		}
	}
	m.mu.Unlock()

	for name, v := range values {
		if err := m.Publish(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Callback returns an on-change handler for one column, in the shape cloud
// IoT clients register per variable.
func (m *Mailbox) Callback(name string) func(float64) {
	return func(v float64) {
		_ = m.Publish(name, v)
	}
}

// Ready reports whether every column has arrived at least once.
func (m *Mailbox) Ready() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// Fetch waits until all columns have arrived, then returns a copy of the
// latest values. It never fabricates a reading.
func (m *Mailbox) Fetch(ctx context.Context) (map[string]float64, error) {
	select {
	case <-m.ready:
	case <-m.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.latest))
	for k, v := range m.latest {
		out[k] = v
	}
	return out, nil
}

// Close wakes any blocked Fetch.
func (m *Mailbox) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
