package live

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/penwyp/go-sensor-monitor/internal/core/view"
)

func TestStateManager_Seed(t *testing.T) {
	sm := NewStateManager(view.Options{Window: 50, Magnitude: true, Paged: true, Offset: 4}, 1)
	st := sm.GetInteractionState()
	assert.Equal(t, InteractionState{LayoutStyle: 1, Magnitude: true, Paged: true, Offset: 4, Window: 50}, st)
}

func TestStateManager_UpdateClamps(t *testing.T) {
	sm := NewStateManager(view.Options{Window: 10}, 0)
	st := sm.UpdateInteractionState(func(s *InteractionState) {
		s.Offset = -5
		s.Window = -1
	})
	assert.Zero(t, st.Offset)
	assert.Zero(t, st.Window)
}

func TestInteractionState_Apply(t *testing.T) {
	base := view.Options{Window: 100, TimeBox: time.Hour, Columns: []string{"x"}}

	got := InteractionState{Magnitude: true, Paged: true, Offset: 7}.Apply(base)
	assert.Equal(t, 100, got.Window, "a zero window keeps the base")
	assert.True(t, got.Magnitude)
	assert.True(t, got.Paged)
	assert.Equal(t, 7, got.Offset)
	assert.Equal(t, time.Hour, got.TimeBox)
	assert.Equal(t, []string{"x"}, got.Columns)

	got = InteractionState{Window: 25}.Apply(base)
	assert.Equal(t, 25, got.Window)

	got = InteractionState{Columns: []string{"y", "z"}}.Apply(base)
	assert.Equal(t, []string{"y", "z"}, got.Columns)

	got = InteractionState{Columns: []string{}}.Apply(base)
	assert.Empty(t, got.Columns, "an empty selection shows every column")
}

func TestStateManager_LoadingAndUpdates(t *testing.T) {
	sm := NewStateManager(view.Options{}, 0)
	sm.SetLoadingState(true, "Waiting")
	loading, msg := sm.GetLoadingState()
	assert.True(t, loading)
	assert.Equal(t, "Waiting", msg)

	assert.True(t, sm.GetLastViewUpdate().IsZero())
	sm.MarkViewUpdated(testStart)
	assert.Equal(t, testStart, sm.GetLastViewUpdate())
}

func TestStateManager_Concurrent(t *testing.T) {
	sm := NewStateManager(view.Options{}, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sm.UpdateInteractionState(func(s *InteractionState) { s.Offset++ })
			sm.GetInteractionState()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, sm.GetInteractionState().Offset)
}
