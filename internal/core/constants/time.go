package constants

import "time"

const (
	// Canonical timestamp layout written to the append log
	TimestampLayout = "2006-01-02 15:04:05"
	// Compact layout produced by the serial capture scripts; accepted on read only
	CompactTimestampLayout = "20060102150405"
	// Layout used in captured image file names (no colons)
	ImageTimestampLayout = "2006-01-02 150405"

	// Producer and consumer cadences
	DefaultMonitorInterval = 5000 * time.Millisecond
	DefaultRefreshInterval = 5000 * time.Millisecond
	MinInterval            = 10 * time.Millisecond

	// Eased transitions between refreshes
	DefaultEaseSteps     = 10
	DefaultEaseStepDelay = 100 * time.Millisecond

	// Views
	DefaultWindow        = 100
	DefaultHistogramBins = 30
	MaxHistogramBins     = 1000
)
