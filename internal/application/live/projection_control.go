package live

import (
	"fmt"

	"github.com/penwyp/go-sensor-monitor/internal/presentation/web"
)

// Projection reports the projection the refresh loop is using
func (o *Orchestrator) Projection() web.ProjectionDocument {
	opts := o.refreshCtrl.Projection()
	return web.ProjectionDocument{
		Window:    opts.Window,
		Paged:     opts.Paged,
		Offset:    opts.Offset,
		Magnitude: opts.Magnitude,
		Columns:   append([]string{}, opts.Columns...),
		Declared:  append([]string{}, o.config.Columns...),
		Rows:      o.refreshCtrl.Buffer().Len(),
	}
}

// UpdateProjection applies a dashboard request through the same state the
// keyboard drives, then triggers a refresh
func (o *Orchestrator) UpdateProjection(req web.ProjectionRequest) (web.ProjectionDocument, error) {
	if !web.ValidAction(req.Action) {
		return web.ProjectionDocument{}, fmt.Errorf("%w: unknown action %q", web.ErrInvalidProjection, req.Action)
	}
	if req.Window != nil && *req.Window < 1 {
		return web.ProjectionDocument{}, fmt.Errorf("%w: window must be at least 1", web.ErrInvalidProjection)
	}
	if req.Columns != nil {
		for _, col := range *req.Columns {
			if !o.config.hasColumn(col) {
				return web.ProjectionDocument{}, fmt.Errorf("%w: unknown column %q", web.ErrInvalidProjection, col)
			}
		}
	}

	state := o.stateManager.UpdateInteractionState(func(s *InteractionState) {
		if req.Window != nil {
			s.Window = *req.Window
		}
		if req.Magnitude != nil {
			s.Magnitude = *req.Magnitude
		}
		if req.Columns != nil {
			s.Columns = append([]string{}, *req.Columns...)
		}
	})

	window := state.Window
	if window <= 0 {
		window = o.config.Window
	}
	switch req.Action {
	case web.ActionPrev:
		o.page(-window)
	case web.ActionNext:
		o.page(window)
	case web.ActionOldest:
		o.stateManager.UpdateInteractionState(func(s *InteractionState) {
			s.Paged = true
			s.Offset = 0
		})
	case web.ActionLive:
		o.stateManager.UpdateInteractionState(func(s *InteractionState) {
			s.Paged = false
			s.Offset = 0
		})
	}

	o.applyState()
	return o.Projection(), nil
}
