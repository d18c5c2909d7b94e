// Package fixtures writes sensor logs for tests.
package fixtures

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/data/appendlog"
)

// ValueFunc returns the reading of column c in row i
type ValueFunc func(i, c int) float64

// Wave is a smooth per-column signal, one period every 60 rows
func Wave(i, c int) float64 {
	return math.Round(math.Sin(float64(i)*2*math.Pi/60+float64(c))*1000) / 1000
}

// Counter makes every cell equal to its row index
func Counter(i, c int) float64 {
	return float64(i)
}

// LogGenerator writes log files into one directory
type LogGenerator struct {
	baseDir string
	Columns []string
	Start   time.Time
	Step    time.Duration
	Values  ValueFunc
}

// NewLogGenerator creates a generator for the default columns, one row per second
func NewLogGenerator(baseDir string) *LogGenerator {
	return &LogGenerator{
		baseDir: baseDir,
		Columns: constants.DefaultColumns(),
		Start:   time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local),
		Step:    time.Second,
		Values:  Wave,
	}
}

// GetBaseDir returns the directory files are written to
func (g *LogGenerator) GetBaseDir() string {
	return g.baseDir
}

// Path returns the path of name inside the base directory
func (g *LogGenerator) Path(name string) string {
	return filepath.Join(g.baseDir, name)
}

// Sample returns row i as the recorder would have stamped it
func (g *LogGenerator) Sample(i int) model.Sample {
	values := make(map[string]float64, len(g.Columns))
	for c, col := range g.Columns {
		values[col] = g.Values(i, c)
	}
	return model.NewSample(g.Start.Add(time.Duration(i)*g.Step), values)
}

// WriteLog appends rows through the append log, in the canonical format
func (g *LogGenerator) WriteLog(name string, rows int) (string, error) {
	path := g.Path(name)
	log, err := appendlog.Open(path, g.Columns)
	if err != nil {
		return "", err
	}
	defer log.Close()

	for i := 0; i < rows; i++ {
		if err := log.Append(g.Sample(i)); err != nil {
			return "", err
		}
	}
	return path, nil
}

// WriteCompact writes a headed log with compact timestamps, as the serial
// capture scripts do
func (g *LogGenerator) WriteCompact(name string, rows int) (string, error) {
	records := [][]string{append([]string{model.TimestampColumn}, g.Columns...)}
	for i := 0; i < rows; i++ {
		records = append(records, g.record(i, constants.CompactTimestampLayout))
	}
	return g.writeCSV(name, records)
}

// WriteLegacy writes a log without a header row
func (g *LogGenerator) WriteLegacy(name string, rows int) (string, error) {
	records := make([][]string, 0, rows)
	for i := 0; i < rows; i++ {
		records = append(records, g.record(i, constants.TimestampLayout))
	}
	return g.writeCSV(name, records)
}

// WriteCorrupt writes a canonical log whose odd rows carry an unreadable
// timestamp and whose rows divisible by three lose their last cell
func (g *LogGenerator) WriteCorrupt(name string, rows int) (string, error) {
	records := [][]string{append([]string{model.TimestampColumn}, g.Columns...)}
	for i := 0; i < rows; i++ {
		rec := g.record(i, constants.TimestampLayout)
		if i%2 == 1 {
			rec[0] = "not-a-time"
		}
		if i%3 == 0 {
			rec[len(rec)-1] = "n/a"
		}
		records = append(records, rec)
	}
	return g.writeCSV(name, records)
}

// CreateEmptyLog writes a header-only log
func (g *LogGenerator) CreateEmptyLog(name string) (string, error) {
	return g.writeCSV(name, [][]string{append([]string{model.TimestampColumn}, g.Columns...)})
}

// CleanupTestData removes the base directory
func (g *LogGenerator) CleanupTestData() error {
	return os.RemoveAll(g.baseDir)
}

func (g *LogGenerator) record(i int, layout string) []string {
	s := g.Sample(i)
	rec := make([]string, 0, len(g.Columns)+1)
	rec = append(rec, s.Timestamp.Format(layout))
	for _, col := range g.Columns {
		rec = append(rec, strconv.FormatFloat(s.Values[col], 'f', -1, 64))
	}
	return rec
}

func (g *LogGenerator) writeCSV(name string, records [][]string) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0755); err != nil {
		return "", err
	}
	path := g.Path(name)
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return path, nil
}
