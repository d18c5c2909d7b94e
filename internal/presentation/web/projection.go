package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// Paging actions accepted by POST /api/projection.
const (
	ActionPrev   = "prev"
	ActionNext   = "next"
	ActionOldest = "oldest"
	ActionLive   = "live"
)

// ErrInvalidProjection marks a projection change the controller refused.
var ErrInvalidProjection = errors.New("invalid projection")

// ProjectionRequest changes what the refresh loop projects. Nil fields keep
// their current value; an empty Columns list shows every column.
type ProjectionRequest struct {
	Action    string    `json:"action,omitempty"`
	Window    *int      `json:"window,omitempty"`
	Magnitude *bool     `json:"magnitude,omitempty"`
	Columns   *[]string `json:"columns,omitempty"`
}

// ProjectionDocument describes the active projection.
type ProjectionDocument struct {
	Window    int      `json:"window"`
	Paged     bool     `json:"paged"`
	Offset    int      `json:"offset"`
	Magnitude bool     `json:"magnitude"`
	Columns   []string `json:"columns"`
	Declared  []string `json:"declared"`
	Rows      int      `json:"rows"`
}

// Controller lets the dashboard steer the refresh loop.
type Controller interface {
	Projection() ProjectionDocument
	UpdateProjection(req ProjectionRequest) (ProjectionDocument, error)
}

// ValidAction reports whether action is empty or a known paging action.
func ValidAction(action string) bool {
	switch action {
	case "", ActionPrev, ActionNext, ActionOldest, ActionLive:
		return true
	}
	return false
}

func (s *Server) handleGetProjection(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Controller == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("projection control is not enabled"))
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfg.Controller.Projection())
}

func (s *Server) handleSetProjection(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Controller == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("projection control is not enabled"))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req ProjectionRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid projection request: %w", err))
		return
	}
	if !ValidAction(req.Action) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown action %q", req.Action))
		return
	}

	doc, err := s.cfg.Controller.UpdateProjection(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidProjection) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err)
		return
	}
	s.logger.Debug("projection changed",
		util.F("window", doc.Window), util.F("paged", doc.Paged), util.F("offset", doc.Offset))
	s.writeJSON(w, http.StatusOK, doc)
}
