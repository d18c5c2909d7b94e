package live

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/core/view"
	"github.com/penwyp/go-sensor-monitor/internal/data/source"
)

// Config contains configuration for the live monitor commands
type Config struct {
	// Storage
	LogPath string
	Columns []string

	// Source settings
	Source      string // sim, serial, ws, push
	SerialPort  string
	BaudRate    int
	RelayURL    string
	DialTimeout time.Duration
	Seed        int64

	// Cadences
	MonitorInterval time.Duration
	RefreshInterval time.Duration

	// Projection
	Window    int
	Paged     bool
	Offset    int
	TimeBox   time.Duration
	Magnitude bool
	Select    []string

	// Eased transitions; 1 disables easing
	EaseSteps     int
	EaseStepDelay time.Duration

	// Side artifact
	CameraURL   string
	ImageDir    string
	RotateImage bool

	// Sinks
	Listen    string
	ChartPath string
	ChartKind string

	// Display settings
	Title     string
	Layout    string // full, minimal
	Precision int
	MaxRows   int
	Timezone  string
	Watch     bool
}

// DefaultLogPath returns ~/.go-sensor-monitor/data.csv
func DefaultLogPath() string {
	return filepath.Join("~", ".go-sensor-monitor", "data.csv")
}

// Validate fills defaults and rejects settings the loops cannot run with
func (c *Config) Validate() error {
	if c.LogPath == "" {
		c.LogPath = DefaultLogPath()
	}
	c.LogPath = expandHome(c.LogPath)
	if c.ImageDir != "" {
		c.ImageDir = expandHome(c.ImageDir)
	}
	if c.ChartPath != "" {
		c.ChartPath = expandHome(c.ChartPath)
	}
	if len(c.Columns) == 0 {
		c.Columns = constants.DefaultColumns()
	}
	if c.Source == "" {
		c.Source = source.KindSimulated
	}
	if c.BaudRate == 0 {
		c.BaudRate = source.DefaultBaudRate
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.MonitorInterval == 0 {
		c.MonitorInterval = constants.DefaultMonitorInterval
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = constants.DefaultRefreshInterval
	}
	if c.Window == 0 {
		c.Window = constants.DefaultWindow
	}
	if c.EaseSteps == 0 {
		c.EaseSteps = constants.DefaultEaseSteps
	}
	if c.EaseStepDelay == 0 {
		c.EaseStepDelay = constants.DefaultEaseStepDelay
	}
	if c.Listen == "" {
		c.Listen = ":8050"
	}
	if c.Title == "" {
		c.Title = "Sensor Monitor"
	}
	if c.Precision == 0 {
		c.Precision = 3
	}
	if c.MaxRows == 0 {
		c.MaxRows = 15
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}

	if c.MonitorInterval < constants.MinInterval || c.RefreshInterval < constants.MinInterval {
		return fmt.Errorf("intervals must be at least %s", constants.MinInterval)
	}
	if c.Window < 0 || c.Offset < 0 || c.TimeBox < 0 || c.EaseSteps < 0 || c.Precision < 0 || c.MaxRows < 0 {
		return fmt.Errorf("numeric display settings must not be negative")
	}
	if c.Source == source.KindSerial && c.SerialPort == "" {
		return fmt.Errorf("the serial source needs a port")
	}
	if c.Source == source.KindWebSocket && c.RelayURL == "" {
		return fmt.Errorf("the ws source needs a relay url")
	}
	return nil
}

// MonitorConfig returns the producer settings
func (c *Config) MonitorConfig() MonitorConfig {
	return MonitorConfig{Interval: c.MonitorInterval}
}

// RefreshConfig returns the consumer settings
func (c *Config) RefreshConfig() RefreshConfig {
	cfg := RefreshConfig{
		Interval:      c.RefreshInterval,
		Columns:       append([]string(nil), c.Columns...),
		Projection:    c.Projection(),
		EaseSteps:     c.EaseSteps,
		EaseStepDelay: c.EaseStepDelay,
	}
	if c.Watch {
		cfg.WatchPath = c.LogPath
	}
	return cfg
}

// Projection returns the view options selected by the config
func (c *Config) Projection() view.Options {
	return view.Options{
		Window:    c.Window,
		Paged:     c.Paged,
		Offset:    c.Offset,
		TimeBox:   c.TimeBox,
		Magnitude: c.Magnitude,
		Columns:   append([]string(nil), c.Select...),
	}
}

func (c *Config) hasColumn(name string) bool {
	for _, col := range c.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// SourceOptions returns the settings handed to source.Open
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		Columns:     append([]string(nil), c.Columns...),
		Port:        c.SerialPort,
		BaudRate:    c.BaudRate,
		RelayURL:    c.RelayURL,
		DialTimeout: c.DialTimeout,
		Seed:        c.Seed,
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
