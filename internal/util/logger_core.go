package util

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// LogFormat represents the output format
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Output represents a log output destination
type Output interface {
	Write(entry LogEntry) error
	Close() error
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LoggerInterface defines the public interface for logging
type LoggerInterface interface {
	Debug(msg string, fields ...Field)
	Debugf(format string, args ...interface{})
	Info(msg string, fields ...Field)
	Infof(format string, args ...interface{})
	Warn(msg string, fields ...Field)
	Warnf(format string, args ...interface{})
	Error(msg string, fields ...Field)
	Errorf(format string, args ...interface{})
	With(fields ...Field) LoggerInterface
	WithComponent(name string) LoggerInterface
	SetLevel(level LogLevel)
	AddOutput(output Output)
	Close() error
}

// Logger provides structured logging functionality
type Logger struct {
	level   LogLevel
	outputs *outputSet
	fields  map[string]interface{}
	mu      sync.RWMutex
}

// outputSet is shared by a logger and the children created with With.
type outputSet struct {
	mu      sync.RWMutex
	outputs []Output
}

// LoggerOptions configures NewLogger
type LoggerOptions struct {
	Level   string
	File    string
	Console bool
	Format  LogFormat
}

// NewLogger creates a logger writing to a file, the console, or both.
// With neither configured it falls back to stderr.
func NewLogger(opts LoggerOptions) (*Logger, error) {
	format := opts.Format
	if format == "" {
		format = FormatText
	}

	logger := &Logger{
		level:   ParseLogLevel(opts.Level),
		outputs: &outputSet{},
		fields:  make(map[string]interface{}),
	}

	if opts.File != "" {
		fileOutput, err := NewFileOutput(opts.File, format)
		if err != nil {
			return nil, fmt.Errorf("failed to create file output for %s: %w", opts.File, err)
		}
		logger.AddOutput(fileOutput)
	}
	if opts.Console || opts.File == "" {
		logger.AddOutput(NewConsoleOutput(os.Stderr, format))
	}

	return logger, nil
}

// ParseLogLevel parses a log level string
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (level LogLevel) String() string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// log writes a log entry to all outputs
func (l *Logger) log(level LogLevel, msg string, fields ...Field) {
	l.mu.RLock()
	minLevel := l.level
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		Fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	l.mu.RUnlock()

	if minLevel > level {
		return
	}
	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	l.outputs.mu.RLock()
	defer l.outputs.mu.RUnlock()
	for _, output := range l.outputs.outputs {
		if err := output.Write(entry); err != nil {
			// Log to stderr if we can't write to an output
			log.Printf("Failed to write log entry: %v", err)
		}
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

// With returns a child logger carrying additional fields.
// The child shares outputs with its parent.
func (l *Logger) With(fields ...Field) LoggerInterface {
	l.mu.RLock()
	defer l.mu.RUnlock()

	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for _, field := range fields {
		newFields[field.Key] = field.Value
	}

	return &Logger{
		level:   l.level,
		outputs: l.outputs,
		fields:  newFields,
	}
}

// WithComponent tags every entry with component=name
func (l *Logger) WithComponent(name string) LoggerInterface {
	return l.With(F("component", name))
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// AddOutput adds a new output destination
func (l *Logger) AddOutput(output Output) {
	l.outputs.mu.Lock()
	defer l.outputs.mu.Unlock()
	l.outputs.outputs = append(l.outputs.outputs, output)
}

// Close closes every output and reports every failure
func (l *Logger) Close() error {
	l.outputs.mu.Lock()
	defer l.outputs.mu.Unlock()

	var result *multierror.Error
	for _, output := range l.outputs.outputs {
		if err := output.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	l.outputs.outputs = nil
	return result.ErrorOrNil()
}
