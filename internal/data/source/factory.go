package source

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

// Kinds accepted by Open.
const (
	KindSimulated = "sim"
	KindSerial    = "serial"
	KindWebSocket = "ws"
	KindPush      = "push"
)

// Options carries every setting a source kind may need.
type Options struct {
	Columns []string
	// Serial
	Port     string
	BaudRate int
	// WebSocket relay
	RelayURL    string
	DialTimeout time.Duration
	// Simulation
	Seed int64
	Step float64
}

// Open builds the source named by kind. A push source is a bare Mailbox fed
// through the HTTP ingest endpoint.
func Open(ctx context.Context, kind string, opts Options) (Source, error) {
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns declared", model.ErrSourceUnavailable)
	}

	switch kind {
	case KindSimulated, "":
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return NewSimulated(opts.Columns, seed, opts.Step), nil
	case KindSerial:
		s, err := NewSerial(SerialConfig{
			Port:     opts.Port,
			BaudRate: opts.BaudRate,
			Columns:  opts.Columns,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindWebSocket:
		w, err := NewWebSocket(ctx, WebSocketConfig{
			URL:         opts.RelayURL,
			Columns:     opts.Columns,
			DialTimeout: opts.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	case KindPush:
		return NewMailbox(opts.Columns), nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", model.ErrSourceUnavailable, kind)
	}
}

// MailboxOf returns the mailbox behind src when it has one.
func MailboxOf(src Source) (*Mailbox, bool) {
	switch s := src.(type) {
	case *Mailbox:
		return s, true
	case *Serial:
		return s.Mailbox, true
	case *WebSocket:
		return s.Mailbox, true
	default:
		return nil, false
	}
}
