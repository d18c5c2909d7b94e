package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

var xyz = []string{"x", "y", "z"}

func TestMailbox_BlocksUntilAllColumnsArrive(t *testing.T) {
	m := NewMailbox(xyz)

	got := make(chan map[string]float64, 1)
	go func() {
		values, err := m.Fetch(context.Background())
		assert.NoError(t, err)
		got <- values
	}()

	require.NoError(t, m.Publish("x", 1))
	require.NoError(t, m.Publish("y", 2))
	select {
	case <-got:
		t.Fatal("fetch returned before every column arrived")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, m.Ready())

	require.NoError(t, m.Publish("x", 10))
	require.NoError(t, m.Publish("z", 3))

	select {
	case values := <-got:
		assert.Equal(t, map[string]float64{"x": 10, "y": 2, "z": 3}, values)
	case <-time.After(time.Second):
		t.Fatal("fetch did not wake up")
	}
	assert.True(t, m.Ready())
}

func TestMailbox_ReturnsLatestWithoutBlockingOnceReady(t *testing.T) {
	m := NewMailbox([]string{"x"})
	m.Callback("x")(1)
	m.Callback("x")(2)

	values, err := m.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, values["x"])

	values["x"] = 99
	again, err := m.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, again["x"], "fetch returns a copy")
}

func TestMailbox_RejectsUnknownColumn(t *testing.T) {
	m := NewMailbox(xyz)
	assert.ErrorIs(t, m.Publish("w", 1), model.ErrSchemaMismatch)

	err := m.PublishAll(map[string]float64{"x": 1, "bogus": 2})
	assert.ErrorIs(t, err, model.ErrSchemaMismatch)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "nothing was stored by the rejected batch")
}

func TestMailbox_CancelAndClose(t *testing.T) {
	t.Run("context cancellation", func(t *testing.T) {
		m := NewMailbox(xyz)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := m.Fetch(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("close wakes blocked fetch", func(t *testing.T) {
		m := NewMailbox(xyz)
		errs := make(chan error, 1)
		go func() {
			_, err := m.Fetch(context.Background())
			errs <- err
		}()
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())

		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrClosed)
		case <-time.After(time.Second):
			t.Fatal("close did not wake fetch")
		}
	})
}

func TestMailbox_ConcurrentPublish(t *testing.T) {
	m := NewMailbox(xyz)
	var wg sync.WaitGroup
	for _, col := range xyz {
		wg.Add(1)
		go func(col string) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = m.Publish(col, float64(i))
			}
		}(col)
	}
	wg.Wait()

	values, err := m.Fetch(context.Background())
	require.NoError(t, err)
	for _, col := range xyz {
		assert.Equal(t, 999.0, values[col])
	}
}

func TestFunc(t *testing.T) {
	calls := 0
	src := Func(func(context.Context) (map[string]float64, error) {
		calls++
		return map[string]float64{"x": float64(calls)}, nil
	})

	values, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, values["x"])
	assert.NoError(t, src.Close())
}
