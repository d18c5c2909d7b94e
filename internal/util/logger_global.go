package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerMu     sync.RWMutex
)

// InitLogger installs the global logger. Logging before InitLogger is a no-op.
func InitLogger(opts LoggerOptions) error {
	logger, err := NewLogger(opts)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger replaces the global logger and closes the previous one; nil
// disables logging.
func SetLogger(logger LoggerInterface) {
	loggerMu.Lock()
	previous := globalLogger
	globalLogger = logger
	loggerMu.Unlock()

	if previous != nil && previous != logger {
		previous.Close()
	}
}

// GetLogger returns the global logger, or a discarding logger when none is set.
func GetLogger() LoggerInterface {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if globalLogger == nil {
		return nopLogger{}
	}
	return globalLogger
}

// Component returns a child of the global logger tagged with the component name.
func Component(name string) LoggerInterface {
	return GetLogger().WithComponent(name)
}

// LogInfo convenience functions for logging
func LogInfo(msg string, fields ...Field) {
	GetLogger().Info(msg, fields...)
}

func LogInfof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func LogDebug(msg string, fields ...Field) {
	GetLogger().Debug(msg, fields...)
}

func LogDebugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func LogWarn(msg string, fields ...Field) {
	GetLogger().Warn(msg, fields...)
}

func LogWarnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

func LogError(msg string, fields ...Field) {
	GetLogger().Error(msg, fields...)
}

func LogErrorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Info(string, ...Field) {}
func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warn(string, ...Field) {}
func (nopLogger) Warnf(string, ...interface{}) {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (n nopLogger) With(...Field) LoggerInterface { return n }
func (n nopLogger) WithComponent(string) LoggerInterface { return n }
func (nopLogger) SetLevel(LogLevel) {}
func (nopLogger) AddOutput(Output) {}
func (nopLogger) Close() error { return nil }
