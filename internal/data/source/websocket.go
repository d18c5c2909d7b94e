package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// WebSocketConfig configures a WebSocket source.
type WebSocketConfig struct {
	URL         string
	Columns     []string
	DialTimeout time.Duration
	Dialer      *websocket.Dialer
}

// WebSocket subscribes to a relay that pushes per-variable on-change updates.
type WebSocket struct {
	*Mailbox
	conn   *websocket.Conn
	logger util.LoggerInterface

	messages  atomic.Int64
	rejected  atomic.Int64
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebSocket dials the relay and starts consuming updates.
func NewWebSocket(ctx context.Context, cfg WebSocketConfig) (*WebSocket, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: no relay url given", model.ErrSourceUnavailable)
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", model.ErrSourceUnavailable, cfg.URL, err)
	}

	w := &WebSocket{
		Mailbox: NewMailbox(cfg.Columns),
		conn:    conn,
		logger:  util.Component("relay").With(util.F("url", cfg.URL)),
	}
	w.wg.Add(1)
	go w.readLoop()
	return w, nil
}

func (w *WebSocket) readLoop() {
	defer w.wg.Done()
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Warn("Relay connection lost", util.F("error", err))
			}
			return
		}
		if err := w.handle(data); err != nil {
			w.rejected.Inc()
			w.logger.Debug("Ignoring relay message", util.F("error", err))
		}
		w.messages.Inc()
	}
}

func (w *WebSocket) handle(data []byte) error {
	msg, err := DecodeRelayMessage(data)
	if err != nil {
		return err
	}
	return w.Apply(msg)
}

// Stats returns the number of messages received and how many were rejected.
func (w *WebSocket) Stats() (messages, rejected int64) {
	return w.messages.Load(), w.rejected.Load()
}

// Close sends a close frame, drops the connection and waits for the reader.
func (w *WebSocket) Close() error {
	var err error
	w.closeOnce.Do(func() {
		_ = w.Mailbox.Close()
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = w.conn.Close()
		w.wg.Wait()
	})
	return err
}
