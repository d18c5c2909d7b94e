package live

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/interaction"
)

var (
	testColumns = []string{"Accelerometer_X", "Accelerometer_Y", "Accelerometer_Z"}
	testStart   = time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)
)

func reading(x float64) map[string]float64 {
	return map[string]float64{"Accelerometer_X": x, "Accelerometer_Y": -x, "Accelerometer_Z": 9.81}
}

// memLog is an in-memory SampleLog that validates like the real one
type memLog struct {
	mu      sync.Mutex
	samples []model.Sample
	loadErr error
}

func (l *memLog) Append(s model.Sample) error {
	if err := s.CheckSchema(testColumns); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, s.Clone())
	return nil
}

func (l *memLog) LoadAll() ([]model.Sample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	out := make([]model.Sample, len(l.samples))
	for i, s := range l.samples {
		out[i] = s.Clone()
	}
	return out, nil
}

func (l *memLog) add(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < n; i++ {
		ts := testStart.Add(time.Duration(len(l.samples)) * time.Second)
		l.samples = append(l.samples, model.NewSample(ts, reading(float64(len(l.samples)))))
	}
}

func (l *memLog) setLoadErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadErr = err
}

// recordingSink keeps every View it is handed
type recordingSink struct {
	mu    sync.Mutex
	views []model.View
	panic bool
}

func (s *recordingSink) Render(v model.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panic {
		panic("sink exploded")
	}
	s.views = append(s.views, v.Clone())
}

func (s *recordingSink) setPanic(p bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panic = p
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func (s *recordingSink) last() model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) == 0 {
		return model.View{}
	}
	return s.views[len(s.views)-1]
}

func (s *recordingSink) all() []model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.View(nil), s.views...)
}

// fakeCapturer records the sequence numbers it was asked for
type fakeCapturer struct {
	mu   sync.Mutex
	seqs []int64
	err  error
}

func (c *fakeCapturer) Capture(ctx context.Context, seq int64, ts time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seqs = append(c.seqs, seq)
	if c.err != nil {
		return "", c.err
	}
	return "capture.jpg", nil
}

func (c *fakeCapturer) Latest() string {
	return ""
}

// fakeInput feeds scripted key presses
type fakeInput struct {
	events chan interaction.KeyEvent
	mu     sync.Mutex
	closed bool
}

func newFakeInput() *fakeInput {
	return &fakeInput{events: make(chan interaction.KeyEvent, 16)}
}

func (f *fakeInput) Events() <-chan interaction.KeyEvent {
	return f.events
}

func (f *fakeInput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeInput) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func key(r rune) interaction.KeyEvent {
	return interaction.KeyEvent{Key: r, Type: interaction.KeyChar}
}

// syncBuffer is a bytes.Buffer safe for the display goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// closeErrSource fails to close, for the Close aggregation test
type closeErrSource struct {
	closed bool
}

func (s *closeErrSource) Fetch(ctx context.Context) (map[string]float64, error) {
	return reading(1), nil
}

func (s *closeErrSource) Close() error {
	s.closed = true
	return errors.New("port stuck")
}
