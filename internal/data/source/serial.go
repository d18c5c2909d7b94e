package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/atomic"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// DefaultBaudRate matches the usual Arduino sketch setting.
const DefaultBaudRate = 9600

// PortOpener opens a serial device. Tests substitute an in-memory pipe.
type PortOpener func(name string, mode *serial.Mode) (io.ReadWriteCloser, error)

// OpenPort opens a real serial device.
func OpenPort(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// SerialConfig configures a Serial source.
type SerialConfig struct {
	Port     string
	BaudRate int
	Columns  []string
	Opener   PortOpener
}

// Serial reads newline-terminated readings from a serial device. Each line
// replaces the latest reading of the columns it carries.
type Serial struct {
	*Mailbox
	port    io.ReadWriteCloser
	columns []string
	logger  util.LoggerInterface

	lines     atomic.Int64
	malformed atomic.Int64
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSerial opens the port and starts reading from it.
func NewSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: no serial port given", model.ErrSourceUnavailable)
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Opener == nil {
		cfg.Opener = OpenPort
	}

	port, err := cfg.Opener(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		DataBits: 8,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrSourceUnavailable, cfg.Port, err)
	}

	s := &Serial{
		Mailbox: NewMailbox(cfg.Columns),
		port:    port,
		columns: append([]string(nil), cfg.Columns...),
		logger:  util.Component("serial").With(util.F("port", cfg.Port)),
	}
	s.wg.Add(1)
	go s.readLoop()
	return s, nil
}

func (s *Serial) readLoop() {
	defer s.wg.Done()

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.handle(line)
		s.lines.Inc()
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Serial read stopped", util.F("error", err))
	}
}

func (s *Serial) handle(line string) {
	values, err := ParseLine(line, s.columns)
	if err == nil {
		err = s.PublishAll(values)
	}
	if err != nil {
		s.malformed.Inc()
		s.logger.Debug("Skipping serial line", util.F("line", line), util.F("error", err))
	}
}

// Stats returns the number of lines read and how many were skipped.
func (s *Serial) Stats() (lines, malformed int64) {
	return s.lines.Load(), s.malformed.Load()
}

// Close closes the port and waits for the reader to stop.
func (s *Serial) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.Mailbox.Close()
		err = s.port.Close()
		s.wg.Wait()
	})
	return err
}

// ParseLine decodes one serial line into readings. Two shapes are accepted:
// positional numbers in declared column order, optionally led by a timestamp,
// and labelled "name:value" or "name=value" pairs. Fields are separated by
// commas or whitespace.
func ParseLine(line string, columns []string) (map[string]float64, error) {
	line = stripTimestamp(strings.TrimSpace(line))
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty line")
	}

	if strings.ContainsAny(fields[0], ":=") {
		return parseLabelled(fields)
	}
	if len(fields) != len(columns) {
		return nil, fmt.Errorf("expected %d values, got %d", len(columns), len(fields))
	}

	values := make(map[string]float64, len(columns))
	for i, col := range columns {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		values[col] = v
	}
	return values, nil
}

func stripTimestamp(line string) string {
	for _, layout := range []string{constants.TimestampLayout, constants.CompactTimestampLayout} {
		if len(line) >= len(layout) && util.LooksLikeTimestamp(line[:len(layout)]) {
			return strings.TrimLeft(line[len(layout):], ",; \t")
		}
	}
	return line
}

func parseLabelled(fields []string) (map[string]float64, error) {
	values := make(map[string]float64, len(fields))
	for _, f := range fields {
		idx := strings.IndexAny(f, ":=")
		if idx <= 0 {
			return nil, fmt.Errorf("field %q is not name:value", f)
		}
		v, err := strconv.ParseFloat(f[idx+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f, err)
		}
		values[f[:idx]] = v
	}
	return values, nil
}
