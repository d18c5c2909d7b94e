package live

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/penwyp/go-sensor-monitor/internal/capture"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/data/appendlog"
	"github.com/penwyp/go-sensor-monitor/internal/data/source"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/chart"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/display"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/layout"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/web"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// Mode selects which loops and sinks an Orchestrator runs
type Mode int

const (
	// ModeRecord runs the monitor loop only
	ModeRecord Mode = iota
	// ModeServe adds the refresh controller and the web dashboard
	ModeServe
	// ModeTop adds the refresh controller and the terminal dashboard
	ModeTop
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeServe:
		return "serve"
	case ModeTop:
		return "top"
	default:
		return "unknown"
	}
}

// Option customises an Orchestrator, mostly for tests
type Option func(*Orchestrator)

// WithSource uses src instead of opening the configured source
func WithSource(src source.Source) Option {
	return func(o *Orchestrator) { o.src = src }
}

// WithClock drives both loops from clk
func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) { o.clk = clk }
}

// WithSink adds a sink next to the mode's own sinks
func WithSink(sink model.RenderSink) Option {
	return func(o *Orchestrator) { o.extraSinks = append(o.extraSinks, sink) }
}

// WithCapturer uses c instead of the configured camera
func WithCapturer(c capture.Capturer) Option {
	return func(o *Orchestrator) { o.capturer = c }
}

// WithInput uses h instead of reading the terminal keyboard
func WithInput(h InputHandler) Option {
	return func(o *Orchestrator) { o.keyboard = h }
}

// WithOutput sends the terminal dashboard to w
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.out = w }
}

// Orchestrator coordinates all components of one monitor run
type Orchestrator struct {
	config *Config
	mode   Mode
	clk    clock.Clock
	out    io.Writer

	// Data components
	src     source.Source
	mailbox *source.Mailbox
	log     *appendlog.Log
	reader  *appendlog.Reader

	// Loops
	monitor      *MonitorLoop
	refreshCtrl  *RefreshController
	stateManager *StateManager

	// Sinks
	capturer   capture.Capturer
	display    *display.TerminalDisplay
	keyboard   InputHandler
	server     *web.Server
	chartSink  *chart.PNGSink
	extraSinks []model.RenderSink

	logger    util.LoggerInterface
	closeOnce sync.Once
	closeErr  error
}

// NewOrchestrator opens the source and the log and wires the loops for mode
func NewOrchestrator(ctx context.Context, config *Config, mode Mode, opts ...Option) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := util.InitializeTimeProvider(config.Timezone); err != nil {
		return nil, fmt.Errorf("failed to initialize timezone: %w", err)
	}

	o := &Orchestrator{
		config: config,
		mode:   mode,
		logger: util.Component("orchestrator").With(util.F("mode", mode.String())),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.clk == nil {
		o.clk = clock.New()
	}
	if o.out == nil {
		o.out = os.Stdout
	}

	if err := o.openData(ctx); err != nil {
		o.Close()
		return nil, err
	}
	if err := o.wireLoops(); err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) openData(ctx context.Context) error {
	if o.src == nil {
		src, err := source.Open(ctx, o.config.Source, o.config.SourceOptions())
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		o.src = src
	}
	if mb, ok := source.MailboxOf(o.src); ok {
		o.mailbox = mb
	}

	log, err := appendlog.Open(o.config.LogPath, o.config.Columns)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	o.log = log
	o.reader = appendlog.NewReader(o.config.LogPath, o.config.Columns)

	if o.capturer == nil && o.config.CameraURL != "" {
		camera, err := capture.NewSnapshotCamera(capture.SnapshotConfig{
			URL:    o.config.CameraURL,
			Dir:    o.config.ImageDir,
			Rotate: o.config.RotateImage,
		})
		if err != nil {
			return fmt.Errorf("failed to configure camera: %w", err)
		}
		o.capturer = camera
	}
	return nil
}

func (o *Orchestrator) wireLoops() error {
	monitor, err := NewMonitorLoop(o.config.MonitorConfig(), o.src, o.log, nil, o.capturer, o.clk)
	if err != nil {
		return err
	}
	o.monitor = monitor
	o.stateManager = NewStateManager(o.config.Projection(), layout.ParseStyle(o.config.Layout))

	if o.mode == ModeRecord {
		return nil
	}

	sinks := model.MultiSink{}
	switch o.mode {
	case ModeTop:
		o.display = display.NewTerminalDisplay(display.DisplayConfig{
			Out:         o.out,
			Title:       o.config.Title,
			Source:      o.config.Source,
			LogPath:     o.config.LogPath,
			LayoutStyle: layout.ParseStyle(o.config.Layout),
			Precision:   o.config.Precision,
			MaxRows:     o.config.MaxRows,
			Now:         o.clk.Now,
		})
		sinks = append(sinks, model.RenderFunc(func(v model.View) {
			o.display.Render(v)
			o.stateManager.SetLoadingState(false, "")
			o.stateManager.MarkViewUpdated(o.clk.Now())
		}))
	case ModeServe:
		hub := web.NewHub()
		kind, err := chart.ParseKind(o.config.ChartKind)
		if err != nil {
			return err
		}
		o.server = web.NewServer(web.Config{
			Listen:      o.config.Listen,
			Title:       o.config.Title,
			Hub:         hub,
			Mailbox:     o.mailbox,
			Status:      func() interface{} { return o.Status() },
			LatestImage: o.latestImage,
			Controller:  o,
			Chart:       chart.Options{Kind: kind, Title: o.config.Title},
		})
		sinks = append(sinks, hub)
	}

	if o.config.ChartPath != "" {
		kind, err := chart.ParseKind(o.config.ChartKind)
		if err != nil {
			return err
		}
		pngSink, err := chart.NewPNGSink(o.config.ChartPath, chart.Options{Kind: kind, Title: o.config.Title})
		if err != nil {
			return err
		}
		o.chartSink = pngSink
		sinks = append(sinks, pngSink)
	}
	sinks = append(sinks, o.extraSinks...)

	o.refreshCtrl = NewRefreshController(o.config.RefreshConfig(), o.reader, sinks, o.clk)
	return nil
}

// Run starts every loop of the mode and blocks until ctx is cancelled, the
// user quits, or a loop fails. A fatal error from one loop stops the others.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("Starting sensor monitor",
		util.F("log", o.config.LogPath),
		util.F("source", o.config.Source),
		util.F("columns", len(o.config.Columns)))
	defer o.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if o.mode == ModeTop {
		if o.keyboard == nil {
			keyboard, err := interaction.NewKeyboardReader()
			if err != nil {
				return fmt.Errorf("failed to initialize keyboard: %w", err)
			}
			o.keyboard = keyboard
		}
		o.display.EnterAlternateScreen()
		defer o.display.ExitAlternateScreen()
		o.stateManager.SetLoadingState(true, "Waiting for the first refresh...")
		if loading, message := o.stateManager.GetLoadingState(); loading {
			o.display.RenderLoading(message)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.monitor.Run(gctx) })
	if o.refreshCtrl != nil {
		g.Go(func() error { return o.refreshCtrl.Run(gctx) })
	}
	if o.server != nil {
		g.Go(func() error { return o.server.Run(gctx) })
	}
	if o.keyboard != nil && o.display != nil {
		g.Go(func() error {
			o.handleInput(gctx, cancel)
			return nil
		})
	}

	err := g.Wait()
	o.logger.Info("Sensor monitor stopped", util.F("samples", o.monitor.Sequence()))
	return err
}

// handleInput applies key presses until ctx ends or the user quits
func (o *Orchestrator) handleInput(ctx context.Context, quit context.CancelFunc) {
	events := o.keyboard.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if o.handleKeyboard(event) {
				quit()
				return
			}
		}
	}
}

// handleKeyboard applies one key press and reports whether to exit
func (o *Orchestrator) handleKeyboard(event interaction.KeyEvent) bool {
	window := o.refreshCtrl.Projection().Window
	if window <= 0 {
		window = o.config.Window
	}

	if event.IsInterrupt() {
		return true
	}

	switch event.Type {
	case interaction.KeyChar:
		switch event.Key {
		case 'q', 'Q':
			return true
		case 'r', 'R':
			o.refreshCtrl.RequestRefresh()
			return false
		case 'p', 'P':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.IsPaused = !s.IsPaused
			})
		case 'h', 'H':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.ShowHelp = !s.ShowHelp
			})
		case 'm', 'M':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.Magnitude = !s.Magnitude
			})
		case 't', 'T':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.LayoutStyle = (s.LayoutStyle + 1) % 2
			})
		case '+', '=':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.Window = window * 2
			})
		case '-', '_':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				if window > 1 {
					s.Window = window / 2
				}
			})
		default:
			return false
		}
	case interaction.KeyEscape:
		state := o.stateManager.GetInteractionState()
		if !state.ShowHelp {
			return true
		}
		o.stateManager.UpdateInteractionState(func(s *InteractionState) {
			s.ShowHelp = false
		})
	case interaction.KeyLeft:
		o.page(-window)
	case interaction.KeyRight:
		o.page(window)
	case interaction.KeyUp:
		o.stateManager.UpdateInteractionState(func(s *InteractionState) {
			s.Paged = true
			s.Offset = 0
		})
	case interaction.KeyDown:
		o.stateManager.UpdateInteractionState(func(s *InteractionState) {
			s.Paged = false
			s.Offset = 0
		})
	default:
		return false
	}

	o.applyState()
	return false
}

// page moves the paged window by delta rows. Paging forward past the newest
// rows returns to the live tail.
func (o *Orchestrator) page(delta int) {
	total := o.refreshCtrl.Buffer().Len()
	o.stateManager.UpdateInteractionState(func(s *InteractionState) {
		window := s.Window
		if window <= 0 {
			window = o.config.Window
		}
		if !s.Paged {
			s.Paged = true
			s.Offset = total - window
		}
		s.Offset += delta
		if s.Offset < 0 {
			s.Offset = 0
		}
		if s.Offset+window >= total {
			s.Paged = false
			s.Offset = 0
		}
	})
}

// applyState pushes the interaction state into the controller and the display
func (o *Orchestrator) applyState() {
	state := o.stateManager.GetInteractionState()
	o.refreshCtrl.SetPaused(state.IsPaused)
	o.refreshCtrl.SetProjection(state.Apply(o.config.Projection()))

	if o.display != nil {
		o.display.SetState(display.State{
			Paused:      state.IsPaused,
			ShowHelp:    state.ShowHelp,
			LayoutStyle: state.LayoutStyle,
		})
		o.display.Redraw()
	}
	o.refreshCtrl.RequestRefresh()
}

func (o *Orchestrator) latestImage() string {
	if o.capturer == nil {
		return ""
	}
	return o.capturer.Latest()
}

// Status summarises both loops
func (o *Orchestrator) Status() Status {
	st := Status{
		Producer:        o.monitor.State().String(),
		Sequence:        o.monitor.Sequence(),
		CaptureFailures: o.monitor.CaptureFailures(),
		ProducerRows:    o.monitor.Buffer().Len(),
		LogPath:         o.config.LogPath,
	}
	if last, ok := o.monitor.LastSample(); ok {
		st.LastSample = last.Timestamp
	}
	if o.refreshCtrl != nil {
		st.ConsumerRows = o.refreshCtrl.Buffer().Len()
		st.LastRefresh = o.refreshCtrl.LastRefresh()
		st.Refreshes = o.refreshCtrl.Refreshes()
		st.Paused = o.refreshCtrl.Paused()
	}
	return st
}

// Monitor returns the producer loop
func (o *Orchestrator) Monitor() *MonitorLoop {
	return o.monitor
}

// RefreshController returns the consumer loop, nil in record mode
func (o *Orchestrator) RefreshController() *RefreshController {
	return o.refreshCtrl
}

// Server returns the web server, nil outside serve mode
func (o *Orchestrator) Server() *web.Server {
	return o.server
}

// Close releases the keyboard, the source and the log. It is safe to call
// more than once.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		var result *multierror.Error
		if o.keyboard != nil {
			if err := o.keyboard.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("keyboard: %w", err))
			}
		}
		if o.src != nil {
			if err := o.src.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("source: %w", err))
			}
		}
		if o.log != nil {
			if err := o.log.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("log: %w", err))
			}
		}
		o.closeErr = result.ErrorOrNil()
	})
	return o.closeErr
}
