package appendlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// LoadResult is the outcome of a full read of the log.
type LoadResult struct {
	Samples []model.Sample
	// DroppedRows counts rows discarded because their timestamp did not parse.
	DroppedRows int
	// MissingCells counts cells replaced by model.Missing.
	MissingCells int
}

// Reader is a read-only view of a log file. It never creates or writes the file.
type Reader struct {
	path    string
	columns []string
}

// NewReader returns a reader for the log at path with the given value columns.
func NewReader(path string, columns []string) *Reader {
	return &Reader{path: path, columns: append([]string(nil), columns...)}
}

// Path returns the file read by r.
func (r *Reader) Path() string {
	return r.path
}

// Columns returns a copy of the declared value columns.
func (r *Reader) Columns() []string {
	return append([]string(nil), r.columns...)
}

// LoadAll returns every row in append order. A missing or empty file yields
// an empty slice.
func (r *Reader) LoadAll() ([]model.Sample, error) {
	result, err := r.Load()
	if err != nil {
		return nil, err
	}
	return result.Samples, nil
}

// Load reads the whole file under a shared lock.
func (r *Reader) Load() (*LoadResult, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &LoadResult{Samples: []model.Sample{}}, nil
		}
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrStorageUnavailable, r.path, err)
	}
	defer file.Close()

	if err := lockShared(file); err != nil {
		return nil, fmt.Errorf("lock %s: %w", r.path, err)
	}
	defer unlock(file)

	result, err := r.parse(file)
	if err != nil {
		return nil, err
	}
	if result.DroppedRows > 0 || result.MissingCells > 0 {
		util.LogWarn("Repaired rows while loading append log",
			util.F("path", r.path),
			util.F("dropped_rows", result.DroppedRows),
			util.F("missing_cells", result.MissingCells))
	}
	return result, nil
}

// layout maps record positions to declared columns.
type layout struct {
	timestamp int
	// positions[i] is the record index of columns[i], or -1 when absent.
	positions []int
}

func (r *Reader) headerLayout(header []string) layout {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	lay := layout{timestamp: 0, positions: make([]int, len(r.columns))}
	if i, ok := index[model.TimestampColumn]; ok {
		lay.timestamp = i
	}
	for i, col := range r.columns {
		if pos, ok := index[col]; ok {
			lay.positions[i] = pos
		} else {
			lay.positions[i] = -1
		}
	}
	return lay
}

// isHeader reports whether record names the timestamp or a declared column.
func (r *Reader) isHeader(record []string) bool {
	if len(record) == 0 || util.LooksLikeTimestamp(record[0]) {
		return false
	}
	for _, cell := range record {
		name := strings.TrimSpace(cell)
		if name == model.TimestampColumn {
			return true
		}
		for _, col := range r.columns {
			if name == col {
				return true
			}
		}
	}
	return false
}

// positionalLayout maps a header-less file by position: timestamp first,
// then the declared columns.
func (r *Reader) positionalLayout() layout {
	lay := layout{timestamp: 0, positions: make([]int, len(r.columns))}
	for i := range r.columns {
		lay.positions[i] = i + 1
	}
	return lay
}

func (r *Reader) parse(src io.Reader) (*LoadResult, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	result := &LoadResult{Samples: []model.Sample{}}
	var lay *layout
	line := 0

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// A torn or quoted-garbage line is dropped, the rest of the file still loads.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.DroppedRows++
				util.LogDebug("Dropped malformed row", util.F("line", line), util.F("error", fmt.Errorf("%w: %v", model.ErrLoadParse, err)))
				continue
			}
			return nil, fmt.Errorf("read %s: %w", r.path, err)
		}

		if lay == nil {
			if r.isHeader(record) {
				l := r.headerLayout(record)
				lay = &l
				continue
			}
			// Header-less file; a corrupt first row is dropped like any other.
			l := r.positionalLayout()
			lay = &l
		}

		sample, missing, ok := r.decode(record, *lay)
		if !ok {
			result.DroppedRows++
			util.LogDebug("Dropped row with unparsable timestamp", util.F("line", line), util.F("error", model.ErrLoadParse))
			continue
		}
		result.MissingCells += missing
		result.Samples = append(result.Samples, sample)
	}
	return result, nil
}

func (r *Reader) decode(record []string, lay layout) (model.Sample, int, bool) {
	if lay.timestamp >= len(record) {
		return model.Sample{}, 0, false
	}
	ts, err := util.ParseTimestamp(record[lay.timestamp])
	if err != nil {
		return model.Sample{}, 0, false
	}

	missing := 0
	values := make(map[string]float64, len(r.columns))
	for i, col := range r.columns {
		pos := lay.positions[i]
		if pos < 0 || pos >= len(record) {
			values[col] = model.Missing
			missing++
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[pos]), 64)
		if err != nil {
			values[col] = model.Missing
			missing++
			continue
		}
		values[col] = v
	}
	return model.Sample{Timestamp: ts, Values: values}, missing, true
}
