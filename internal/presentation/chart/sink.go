package chart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// PNGSink is a RenderSink that rewrites one PNG file per View.
type PNGSink struct {
	path   string
	opts   Options
	mu     sync.Mutex
	writes int
	logger util.LoggerInterface
}

// NewPNGSink returns a sink writing to path, creating its directory if needed.
func NewPNGSink(path string, opts Options) (*PNGSink, error) {
	if path == "" {
		return nil, fmt.Errorf("chart path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}
	return &PNGSink{
		path:   path,
		opts:   opts.withDefaults(),
		logger: util.Component("chart"),
	}, nil
}

// Path returns the PNG file path.
func (s *PNGSink) Path() string {
	return s.path
}

// Writes returns how many images were written.
func (s *PNGSink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Render draws v and replaces the PNG file. Failures are logged.
func (s *PNGSink) Render(v model.View) {
	if err := s.Write(v); err != nil {
		s.logger.Warn("chart render failed", util.F("path", s.path), util.F("error", err))
	}
}

// Write draws v and atomically replaces the PNG file.
func (s *PNGSink) Write(v model.View) error {
	var buf bytes.Buffer
	if err := Encode(&buf, v, s.opts); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".chart-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp chart: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write chart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close chart: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace chart: %w", err)
	}
	s.writes++
	return nil
}
