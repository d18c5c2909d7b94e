// Package web serves the live dashboard: a JSON API, a websocket view
// stream, on-demand charts and push ingest for the mailbox source.
package web

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/core/view"
	"github.com/penwyp/go-sensor-monitor/internal/data/source"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/chart"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

//go:embed index.html
var indexHTML []byte

const (
	shutdownTimeout = 5 * time.Second
	maxIngestBytes  = 64 << 10
)

// Config wires the server to the rest of the monitor. Only Hub is required.
type Config struct {
	Listen string
	Title  string
	Hub    *Hub
	// Mailbox receives POST /api/readings; nil disables ingest.
	Mailbox *source.Mailbox
	// Status is encoded as-is for GET /api/status.
	Status func() interface{}
	// LatestImage returns the path of the newest captured image, or "".
	LatestImage func() string
	// Controller backs /api/projection; nil disables it.
	Controller Controller
	Chart      chart.Options
}

type Server struct {
	cfg        Config
	router     *mux.Router
	httpServer *http.Server
	logger     util.LoggerInterface
}

func NewServer(cfg Config) *Server {
	if cfg.Hub == nil {
		cfg.Hub = NewHub()
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8050"
	}
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		logger: util.Component("web").With(util.F("listen", cfg.Listen)),
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/api/view", s.handleView).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/histogram", s.handleHistogram).Methods(http.MethodGet)
	s.router.HandleFunc("/api/image/latest", s.handleLatestImage).Methods(http.MethodGet)
	s.router.HandleFunc("/api/readings", s.handleReadings).Methods(http.MethodPost)
	s.router.HandleFunc("/api/projection", s.handleGetProjection).Methods(http.MethodGet)
	s.router.HandleFunc("/api/projection", s.handleSetProjection).Methods(http.MethodPost)
	s.router.HandleFunc("/chart.png", s.handleChart).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.cfg.Hub.ServeWS)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the view hub backing the server.
func (s *Server) Hub() *Hub {
	return s.cfg.Hub
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.cfg.Hub.Close()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, _ := s.cfg.Hub.Latest()
	s.writeJSON(w, http.StatusOK, formatter.NewViewDocument(v))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Status == nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfg.Status())
}

// histogramDocument mirrors model.Histogram with JSON names.
type histogramDocument struct {
	Column string    `json:"column"`
	Bins   []binJSON `json:"bins"`
}

type binJSON struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	v, _ := s.cfg.Hub.Latest()
	column := r.URL.Query().Get("column")
	if column == "" && len(v.Columns) > 0 {
		column = v.Columns[len(v.Columns)-1]
	}
	bins := constants.DefaultHistogramBins
	if raw := r.URL.Query().Get("bins"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > constants.MaxHistogramBins {
			s.writeError(w, http.StatusBadRequest,
				fmt.Errorf("bins must be an integer between 1 and %d", constants.MaxHistogramBins))
			return
		}
		bins = n
	}
	if column != "" && v.ColumnIndex(column) < 0 && !v.IsEmpty() {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown column %q", column))
		return
	}

	h := view.Histogram(v, column, bins)
	doc := histogramDocument{Column: h.Column, Bins: make([]binJSON, len(h.Bins))}
	for i, b := range h.Bins {
		doc.Bins[i] = binJSON{Low: b.Low, High: b.High, Count: b.Count}
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleLatestImage(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"src": ""}
	if s.cfg.LatestImage != nil {
		if path := s.cfg.LatestImage(); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				s.logger.Debug("latest image unreadable", util.F("path", path), util.F("error", err))
			} else {
				resp["src"] = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
			}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Mailbox == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("push ingest is not enabled"))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	msg, err := source.DecodeRelayMessage(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.cfg.Mailbox.Apply(msg); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, model.ErrSchemaMismatch) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]bool{"ready": s.cfg.Mailbox.Ready()})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	opts := s.cfg.Chart
	if opts.Title == "" {
		opts.Title = s.cfg.Title
	}
	q := r.URL.Query()
	if raw := q.Get("kind"); raw != "" {
		kind, err := chart.ParseKind(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		opts.Kind = kind
	}
	if col := q.Get("column"); col != "" {
		opts.Column = col
	}

	v, _ := s.cfg.Hub.Latest()
	var buf bytes.Buffer
	if err := chart.Encode(&buf, v, opts); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to encode response", util.F("error", err))
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
