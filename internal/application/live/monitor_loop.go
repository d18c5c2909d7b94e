package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"

	"github.com/penwyp/go-sensor-monitor/internal/capture"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/data/buffer"
	"github.com/penwyp/go-sensor-monitor/internal/data/source"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// State is the phase the monitor loop is currently in
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateStamping
	StatePersisting
	StateCapturing
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateStamping:
		return "stamping"
	case StatePersisting:
		return "persisting"
	case StateCapturing:
		return "capturing"
	case StateReloading:
		return "reloading"
	default:
		return "unknown"
	}
}

// MonitorConfig contains the producer settings
type MonitorConfig struct {
	// Interval is the idle gap between the end of one cycle and the next fetch
	Interval time.Duration
}

// MonitorLoop is the producer. Each cycle fetches one reading, stamps it,
// appends it to the log, captures the optional side artifact and rebuilds
// the sample buffer from the log.
type MonitorLoop struct {
	cfg      MonitorConfig
	src      source.Source
	log      SampleLog
	buf      *buffer.SampleBuffer
	capturer capture.Capturer
	clk      clock.Clock
	logger   util.LoggerInterface

	state           atomic.Int32
	seq             atomic.Int64
	captureFailures atomic.Int64

	mu      sync.RWMutex
	last    model.Sample
	hasLast bool
}

// NewMonitorLoop creates a producer. capturer may be nil.
func NewMonitorLoop(cfg MonitorConfig, src source.Source, log SampleLog, buf *buffer.SampleBuffer, capturer capture.Capturer, clk clock.Clock) (*MonitorLoop, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no sample source", model.ErrSourceUnavailable)
	}
	if log == nil {
		return nil, fmt.Errorf("%w: no append log", model.ErrStorageUnavailable)
	}
	if buf == nil {
		buf = buffer.New()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &MonitorLoop{
		cfg:      cfg,
		src:      src,
		log:      log,
		buf:      buf,
		capturer: capturer,
		clk:      clk,
		logger:   util.Component("monitor"),
	}, nil
}

// Run cycles until ctx is cancelled. The first cycle starts immediately and
// every later one waits Interval after the previous cycle returned to Idle,
// so a fresh log gets its first row without a full interval's delay.
// Cancellation takes effect between cycles
// or while waiting on the source. A schema mismatch stops the loop with an
// error; every other failure is logged and the next cycle proceeds.
func (m *MonitorLoop) Run(ctx context.Context) error {
	m.logger.Info("Monitor loop started", util.F("interval", m.cfg.Interval.String()))
	defer m.setState(StateIdle)

	for {
		if ctx.Err() != nil {
			m.logger.Info("Monitor loop stopped", util.F("samples", m.seq.Load()))
			return nil
		}

		sample, err := m.safeTick(ctx)
		switch {
		case err == nil:
			m.logger.Debug("Sample persisted",
				util.F("seq", m.seq.Load()),
				util.F("timestamp", util.FormatTimestamp(sample.Timestamp)),
				util.F("buffered", m.buf.Len()))
		case errors.Is(err, model.ErrSchemaMismatch):
			m.logger.Error("Sample does not match the log schema", util.F("error", err))
			return err
		case ctx.Err() != nil:
			continue
		default:
			m.logger.Warn("Monitor cycle failed", util.F("error", err))
		}

		m.setState(StateIdle)
		select {
		case <-ctx.Done():
		case <-m.clk.After(m.cfg.Interval):
		}
	}
}

// safeTick runs one cycle and turns a panic into an error
func (m *MonitorLoop) safeTick(ctx context.Context) (sample model.Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("monitor cycle panicked: %v", r)
		}
	}()
	return m.Tick(ctx)
}

// Tick runs exactly one cycle. Only the fetch observes ctx; once a reading is
// in hand the cycle runs to completion.
func (m *MonitorLoop) Tick(ctx context.Context) (model.Sample, error) {
	m.setState(StateFetching)
	values, err := m.src.Fetch(ctx)
	if err != nil {
		return model.Sample{}, fmt.Errorf("fetch: %w", err)
	}

	m.setState(StateStamping)
	sample := model.NewSample(m.clk.Now().Truncate(time.Second), values)

	m.setState(StatePersisting)
	if err := m.log.Append(sample); err != nil {
		return sample, fmt.Errorf("append: %w", err)
	}
	seq := m.seq.Inc()

	m.mu.Lock()
	m.last = sample
	m.hasLast = true
	m.mu.Unlock()

	if m.capturer != nil {
		m.setState(StateCapturing)
		m.capture(context.WithoutCancel(ctx), seq, sample.Timestamp)
	}

	m.setState(StateReloading)
	if err := m.buf.Reload(m.log); err != nil {
		return sample, fmt.Errorf("reload: %w", err)
	}
	return sample, nil
}

func (m *MonitorLoop) capture(ctx context.Context, seq int64, ts time.Time) {
	path, err := m.capturer.Capture(ctx, seq, ts)
	if err != nil {
		m.captureFailures.Inc()
		m.logger.Warn("Side artifact capture failed", util.F("seq", seq), util.F("error", err))
		return
	}
	m.logger.Debug("Side artifact saved", util.F("seq", seq), util.F("path", path))
}

func (m *MonitorLoop) setState(s State) {
	m.state.Store(int32(s))
}

// State returns the current phase
func (m *MonitorLoop) State() State {
	return State(m.state.Load())
}

// Sequence returns the number of samples persisted so far
func (m *MonitorLoop) Sequence() int64 {
	return m.seq.Load()
}

// CaptureFailures returns how many side artifact captures failed
func (m *MonitorLoop) CaptureFailures() int64 {
	return m.captureFailures.Load()
}

// LastSample returns the most recently persisted sample
func (m *MonitorLoop) LastSample() (model.Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasLast {
		return model.Sample{}, false
	}
	return m.last.Clone(), true
}

// Buffer returns the producer's sample buffer
func (m *MonitorLoop) Buffer() *buffer.SampleBuffer {
	return m.buf
}
