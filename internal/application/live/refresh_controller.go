package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/core/view"
	"github.com/penwyp/go-sensor-monitor/internal/data/buffer"
	"github.com/penwyp/go-sensor-monitor/internal/data/watch"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// RefreshConfig contains the consumer settings
type RefreshConfig struct {
	Interval time.Duration
	// Columns are the value columns declared for the log
	Columns    []string
	Projection view.Options
	// EaseSteps > 1 animates between consecutive views
	EaseSteps     int
	EaseStepDelay time.Duration
	// WatchPath triggers an early refresh when the file is written
	WatchPath string
}

// RefreshController is the consumer. Each tick reloads its own buffer from
// the log, projects a View and hands it to the sink.
type RefreshController struct {
	cfg    RefreshConfig
	reader buffer.Loader
	buf    *buffer.SampleBuffer
	sink   model.RenderSink
	clk    clock.Clock
	logger util.LoggerInterface

	mu          sync.RWMutex
	projection  view.Options
	last        model.View
	hasLast     bool
	lastRefresh time.Time

	refreshMutex sync.Mutex // Prevent concurrent refreshes
	paused       atomic.Bool
	refreshes    atomic.Int64
	trigger      chan struct{}
}

// NewRefreshController creates a new RefreshController instance
func NewRefreshController(cfg RefreshConfig, reader buffer.Loader, sink model.RenderSink, clk clock.Clock) *RefreshController {
	if clk == nil {
		clk = clock.New()
	}
	if sink == nil {
		sink = model.MultiSink{}
	}
	return &RefreshController{
		cfg:        cfg,
		reader:     reader,
		buf:        buffer.NewWithClock(clk.Now),
		sink:       sink,
		clk:        clk,
		logger:     util.Component("refresh"),
		projection: cfg.Projection,
		trigger:    make(chan struct{}, 1),
	}
}

// Refresh reloads, projects and renders once. The sink is called even when
// the log is empty or the reload failed, so the display never stalls on a
// stale frame without being redrawn.
func (rc *RefreshController) Refresh(ctx context.Context) (model.View, error) {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()

	reloadErr := rc.buf.Reload(rc.reader)
	if reloadErr != nil {
		reloadErr = fmt.Errorf("reload: %w", reloadErr)
	}

	next := view.Build(rc.buf.Snapshot(), rc.cfg.Columns, rc.Projection())

	rc.mu.RLock()
	prev, hasPrev := rc.last, rc.hasLast
	rc.mu.RUnlock()

	frames := []model.View{next}
	if hasPrev && rc.cfg.EaseSteps > 1 {
		frames = view.Transition(prev, next, rc.cfg.EaseSteps)
	}
	rc.render(ctx, frames)

	rc.mu.Lock()
	rc.last = next
	rc.hasLast = true
	rc.lastRefresh = rc.clk.Now()
	rc.mu.Unlock()
	rc.refreshes.Inc()

	return next, reloadErr
}

// render plays frames EaseStepDelay apart. On cancellation it jumps straight
// to the final frame.
func (rc *RefreshController) render(ctx context.Context, frames []model.View) {
	for i, frame := range frames {
		if i > 0 && rc.cfg.EaseStepDelay > 0 {
			select {
			case <-ctx.Done():
				rc.sink.Render(frames[len(frames)-1])
				return
			case <-rc.clk.After(rc.cfg.EaseStepDelay):
			}
		}
		rc.sink.Render(frame)
	}
}

// safeRefresh runs one refresh and keeps a failing tick from stopping the loop
func (rc *RefreshController) safeRefresh(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			rc.logger.Error("Refresh panicked", util.F("panic", fmt.Sprint(r)))
		}
	}()

	v, err := rc.Refresh(ctx)
	if err != nil {
		rc.logger.Warn("Refresh failed", util.F("error", err))
		return
	}
	rc.logger.Debug("View rendered", util.F("rows", v.Len()), util.F("columns", len(v.Columns)))
}

// Run refreshes immediately, then on every tick and on every write to
// WatchPath, until ctx is cancelled.
func (rc *RefreshController) Run(ctx context.Context) error {
	rc.logger.Info("Refresh controller started", util.F("interval", rc.cfg.Interval.String()))

	ticker := rc.clk.Ticker(rc.cfg.Interval)
	defer ticker.Stop()

	var changes <-chan struct{}
	if rc.cfg.WatchPath != "" {
		watcher, err := watch.NewFileWatcher(rc.cfg.WatchPath)
		if err != nil {
			rc.logger.Warn("File watching disabled", util.F("path", rc.cfg.WatchPath), util.F("error", err))
		} else {
			defer watcher.Close()
			changes = watcher.Changes()
		}
	}

	rc.safeRefresh(ctx)
	for {
		select {
		case <-ctx.Done():
			rc.logger.Info("Refresh controller stopped", util.F("refreshes", rc.refreshes.Load()))
			return nil
		case <-ticker.C:
			if !rc.paused.Load() {
				rc.safeRefresh(ctx)
			}
		case <-changes:
			if !rc.paused.Load() {
				rc.safeRefresh(ctx)
			}
		case <-rc.trigger:
			rc.safeRefresh(ctx)
		}
	}
}

// RequestRefresh schedules an out-of-band refresh, even while paused
func (rc *RefreshController) RequestRefresh() {
	select {
	case rc.trigger <- struct{}{}:
	default:
	}
}

// SetPaused stops or resumes scheduled refreshes
func (rc *RefreshController) SetPaused(paused bool) {
	rc.paused.Store(paused)
}

// Paused reports whether scheduled refreshes are suspended
func (rc *RefreshController) Paused() bool {
	return rc.paused.Load()
}

// Projection returns the projection used for the next refresh
func (rc *RefreshController) Projection() view.Options {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.projection
}

// SetProjection replaces the projection used from the next refresh on
func (rc *RefreshController) SetProjection(opts view.Options) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.projection = opts
}

// LastView returns the last View rendered
func (rc *RefreshController) LastView() (model.View, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.last, rc.hasLast
}

// LastRefresh returns when the last refresh finished
func (rc *RefreshController) LastRefresh() time.Time {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.lastRefresh
}

// Refreshes returns how many refreshes have completed
func (rc *RefreshController) Refreshes() int64 {
	return rc.refreshes.Load()
}

// Buffer returns the consumer's own sample buffer
func (rc *RefreshController) Buffer() *buffer.SampleBuffer {
	return rc.buf
}
