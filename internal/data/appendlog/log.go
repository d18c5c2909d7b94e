// Package appendlog implements the durable, header-tagged CSV log that the
// monitor loop writes and every consumer re-reads.
package appendlog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// Log is the single-writer handle on an append log file.
// The file stays open for the lifetime of the handle.
type Log struct {
	path    string
	columns []string
	file    *os.File
	reader  *Reader
	mu      sync.Mutex
}

// Open opens or creates the log at path for appending rows with the given columns.
// The parent directory is created when missing.
func Open(path string, columns []string) (*Log, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create directory for %s: %v", model.ErrStorageUnavailable, path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrStorageUnavailable, path, err)
	}

	cols := append([]string(nil), columns...)
	return &Log{
		path:    path,
		columns: cols,
		file:    file,
		reader:  NewReader(path, cols),
	}, nil
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.path
}

// Columns returns a copy of the declared value columns.
func (l *Log) Columns() []string {
	return append([]string(nil), l.columns...)
}

// Append writes one sample as a single line and syncs it to disk before
// returning. A header is written first when the file is empty. A sample that
// does not carry exactly the declared columns is rejected and nothing is written.
func (l *Log) Append(s model.Sample) error {
	if err := s.CheckSchema(l.columns); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("%w: %s is closed", model.ErrStorageUnavailable, l.path)
	}

	if err := lockExclusive(l.file); err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	defer func() {
		if err := unlock(l.file); err != nil {
			util.LogWarn("Failed to unlock append log", util.F("path", l.path), util.F("error", err))
		}
	}()

	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(append([]string{model.TimestampColumn}, l.columns...)); err != nil {
			return err
		}
	}
	if err := w.Write(l.encode(s)); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := l.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", l.path, err)
	}
	return nil
}

func (l *Log) encode(s model.Sample) []string {
	record := make([]string, 0, len(l.columns)+1)
	record = append(record, util.FormatTimestamp(s.Timestamp))
	for _, col := range l.columns {
		record = append(record, strconv.FormatFloat(s.Values[col], 'f', -1, 64))
	}
	return record
}

// LoadAll reads every row currently in the log.
func (l *Log) LoadAll() ([]model.Sample, error) {
	return l.reader.LoadAll()
}

// Load reads every row and reports what had to be repaired.
func (l *Log) Load() (*LoadResult, error) {
	return l.reader.Load()
}

// Close releases the file handle. Appends after Close fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func validateColumns(columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns declared", model.ErrSchemaMismatch)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if col == "" || col == model.TimestampColumn {
			return fmt.Errorf("%w: invalid column name %q", model.ErrSchemaMismatch, col)
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("%w: duplicate column %q", model.ErrSchemaMismatch, col)
		}
		seen[col] = struct{}{}
	}
	return nil
}
