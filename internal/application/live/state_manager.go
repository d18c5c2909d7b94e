package live

import (
	"sync"
	"time"

	"github.com/penwyp/go-sensor-monitor/internal/core/view"
)

// InteractionState is what the keyboard can change while the terminal view runs
type InteractionState struct {
	IsPaused    bool
	ShowHelp    bool
	LayoutStyle int
	Magnitude   bool
	Paged       bool
	Offset      int
	Window      int
	// Columns restricts the displayed columns when non-nil; empty shows all.
	Columns []string
}

// Apply overlays the interactive settings onto a base projection
func (s InteractionState) Apply(base view.Options) view.Options {
	base.Magnitude = s.Magnitude
	base.Paged = s.Paged
	base.Offset = s.Offset
	if s.Window > 0 {
		base.Window = s.Window
	}
	if s.Columns != nil {
		base.Columns = append([]string(nil), s.Columns...)
	}
	return base
}

// Status is a point-in-time summary of both loops
type Status struct {
	Producer        string    `json:"producer"`
	Sequence        int64     `json:"sequence"`
	CaptureFailures int64     `json:"capture_failures"`
	ProducerRows    int       `json:"producer_rows"`
	ConsumerRows    int       `json:"consumer_rows"`
	LastSample      time.Time `json:"last_sample"`
	LastRefresh     time.Time `json:"last_refresh"`
	Refreshes       int64     `json:"refreshes"`
	Paused          bool      `json:"paused"`
	LogPath         string    `json:"log_path"`
}

// StateManager manages application state in a thread-safe manner
type StateManager struct {
	mu sync.RWMutex

	// Interaction state
	interactionState InteractionState

	// Loading state
	isLoading      bool
	loadingMessage string

	// Metadata
	lastViewUpdate time.Time
}

// NewStateManager creates a new StateManager seeded from the configured projection
func NewStateManager(initial view.Options, layoutStyle int) *StateManager {
	return &StateManager{
		interactionState: InteractionState{
			LayoutStyle: layoutStyle,
			Magnitude:   initial.Magnitude,
			Paged:       initial.Paged,
			Offset:      initial.Offset,
			Window:      initial.Window,
			Columns:     initial.Columns,
		},
	}
}

// GetInteractionState returns current interaction state
func (sm *StateManager) GetInteractionState() InteractionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	// Return a copy of the state
	return sm.interactionState
}

// UpdateInteractionState updates specific fields of interaction state and
// returns the result
func (sm *StateManager) UpdateInteractionState(updateFunc func(*InteractionState)) InteractionState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	updateFunc(&sm.interactionState)
	if sm.interactionState.Offset < 0 {
		sm.interactionState.Offset = 0
	}
	if sm.interactionState.Window < 0 {
		sm.interactionState.Window = 0
	}
	return sm.interactionState
}

// GetLoadingState returns current loading state and message
func (sm *StateManager) GetLoadingState() (bool, string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.isLoading, sm.loadingMessage
}

// SetLoadingState updates loading state and message
func (sm *StateManager) SetLoadingState(isLoading bool, message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.isLoading = isLoading
	sm.loadingMessage = message
}

// MarkViewUpdated records when the last view reached the screen
func (sm *StateManager) MarkViewUpdated(t time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.lastViewUpdate = t
}

// GetLastViewUpdate returns when the last view reached the screen
func (sm *StateManager) GetLastViewUpdate() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.lastViewUpdate
}
