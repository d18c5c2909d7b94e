package util

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
)

// TimeProvider is a global time utility that handles timezone-aware time operations
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	timeMu             sync.Mutex
)

// InitializeTimeProvider initializes the global time provider with the specified timezone
func InitializeTimeProvider(timezone string) error {
	provider := &TimeProvider{}
	if err := provider.SetTimezone(timezone); err != nil {
		return err
	}

	timeMu.Lock()
	defer timeMu.Unlock()
	globalTimeProvider = provider
	return nil
}

// GetTimeProvider returns the global time provider instance.
// If not initialized, it defaults to Local timezone
func GetTimeProvider() *TimeProvider {
	timeMu.Lock()
	defer timeMu.Unlock()
	if globalTimeProvider == nil {
		globalTimeProvider = &TimeProvider{location: time.Local}
	}
	return globalTimeProvider
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, Australia/Melbourne, Europe/London", timezone, err)
		}
		loc = l
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.location = loc
	return nil
}

// Location returns the configured location
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Stamp formats t as a log timestamp in the configured timezone
func (tp *TimeProvider) Stamp(t time.Time) string {
	return tp.Format(t, constants.TimestampLayout)
}

// Format renders t with layout in the configured timezone
func (tp *TimeProvider) Format(t time.Time, layout string) string {
	return t.In(tp.Location()).Format(layout)
}

// Parse reads a timestamp written by Stamp. The compact serial-capture layout is also accepted.
func (tp *TimeProvider) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	loc := tp.Location()

	if t, err := time.ParseInLocation(constants.TimestampLayout, value, loc); err == nil {
		return t, nil
	}
	if len(value) == len(constants.CompactTimestampLayout) {
		if t, err := time.ParseInLocation(constants.CompactTimestampLayout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// FormatTimestamp formats t with the global provider
func FormatTimestamp(t time.Time) string {
	return GetTimeProvider().Stamp(t)
}

// ParseTimestamp parses value with the global provider
func ParseTimestamp(value string) (time.Time, error) {
	return GetTimeProvider().Parse(value)
}

// LooksLikeTimestamp reports whether value parses as a log timestamp
func LooksLikeTimestamp(value string) bool {
	_, err := ParseTimestamp(value)
	return err == nil
}
