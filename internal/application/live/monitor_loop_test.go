package live

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/data/appendlog"
	"github.com/penwyp/go-sensor-monitor/internal/data/source"
)

const testInterval = 5 * time.Second

func newMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(testStart.Add(700 * time.Millisecond))
	return clk
}

func counterSource() source.Func {
	n := 0.0
	return func(ctx context.Context) (map[string]float64, error) {
		n++
		return reading(n), nil
	}
}

// runUntil advances the mock clock until cond holds. Advancing in a loop
// avoids racing the loop's registration of its next timer.
func runUntil(t *testing.T, clk *clock.Mock, step time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		if cond() {
			return true
		}
		clk.Add(step)
		return cond()
	}, 3*time.Second, time.Millisecond)
}

func TestNewMonitorLoop(t *testing.T) {
	_, err := NewMonitorLoop(MonitorConfig{}, nil, &memLog{}, nil, nil, nil)
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)

	_, err = NewMonitorLoop(MonitorConfig{}, counterSource(), nil, nil, nil, nil)
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)

	m, err := NewMonitorLoop(MonitorConfig{}, counterSource(), &memLog{}, nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, m.Buffer())
	assert.Equal(t, StateIdle, m.State())
}

func TestMonitorLoop_Tick(t *testing.T) {
	clk := newMockClock()
	log := &memLog{}
	capt := &fakeCapturer{}
	m, err := NewMonitorLoop(MonitorConfig{Interval: testInterval}, counterSource(), log, nil, capt, clk)
	require.NoError(t, err)

	s, err := m.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testStart, s.Timestamp, "stamps are truncated to the second")
	assert.Equal(t, 1.0, s.Values["Accelerometer_X"])
	assert.Equal(t, int64(1), m.Sequence())
	assert.Equal(t, 1, m.Buffer().Len(), "buffer is reloaded from the log")
	assert.Equal(t, StateReloading, m.State())

	clk.Add(time.Second)
	_, err = m.Tick(context.Background())
	require.NoError(t, err)

	last, ok := m.LastSample()
	require.True(t, ok)
	assert.Equal(t, 2.0, last.Values["Accelerometer_X"])
	assert.Equal(t, []int64{1, 2}, capt.seqs)

	latest, ok := m.Buffer().Latest()
	require.True(t, ok)
	assert.Equal(t, last.Timestamp, latest.Timestamp)
}

func TestMonitorLoop_CaptureFailureIsNotFatal(t *testing.T) {
	capt := &fakeCapturer{err: model.ErrSideArtifact}
	m, err := NewMonitorLoop(MonitorConfig{}, counterSource(), &memLog{}, nil, capt, newMockClock())
	require.NoError(t, err)

	_, err = m.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.CaptureFailures())
	assert.Equal(t, 1, m.Buffer().Len(), "the sample is persisted before capture")
}

func TestMonitorLoop_FetchErrorSkipsCycle(t *testing.T) {
	log := &memLog{}
	src := source.Func(func(ctx context.Context) (map[string]float64, error) {
		return nil, errors.New("sensor offline")
	})
	m, err := NewMonitorLoop(MonitorConfig{}, src, log, nil, nil, newMockClock())
	require.NoError(t, err)

	_, err = m.Tick(context.Background())
	assert.ErrorContains(t, err, "sensor offline")
	assert.Zero(t, m.Sequence())
	assert.Empty(t, log.samples)
}

func TestMonitorLoop_ReloadErrorIsReported(t *testing.T) {
	log := &memLog{}
	m, err := NewMonitorLoop(MonitorConfig{}, counterSource(), log, nil, nil, newMockClock())
	require.NoError(t, err)

	log.setLoadErr(errors.New("disk gone"))
	_, err = m.Tick(context.Background())
	assert.ErrorContains(t, err, "reload")
	assert.Equal(t, int64(1), m.Sequence(), "the append already happened")
}

func TestMonitorLoop_RunCadence(t *testing.T) {
	clk := newMockClock()
	log := &memLog{}
	m, err := NewMonitorLoop(MonitorConfig{Interval: testInterval}, counterSource(), log, nil, nil, clk)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Sequence() == 1 }, time.Second, time.Millisecond,
		"the first cycle runs without waiting")

	runUntil(t, clk, testInterval, func() bool { return m.Sequence() >= 3 })

	samples, err := log.LoadAll()
	require.NoError(t, err)
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i].Timestamp.Sub(samples[i-1].Timestamp), testInterval,
			"cycles are at least one interval apart")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, StateIdle, m.State())
}

func TestMonitorLoop_SchemaMismatchIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	log, err := appendlog.Open(path, testColumns)
	require.NoError(t, err)
	defer log.Close()

	src := source.Func(func(ctx context.Context) (map[string]float64, error) {
		values := reading(1)
		values["Gyro_X"] = 0.1
		return values, nil
	})
	m, err := NewMonitorLoop(MonitorConfig{Interval: testInterval}, src, log, nil, nil, newMockClock())
	require.NoError(t, err)

	err = m.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchemaMismatch)

	var mismatch *model.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"Gyro_X"}, mismatch.Unexpected)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "nothing was written")
}

func TestMonitorLoop_PanicIsRecovered(t *testing.T) {
	clk := newMockClock()
	calls := 0
	src := source.Func(func(ctx context.Context) (map[string]float64, error) {
		calls++
		if calls == 1 {
			panic("driver bug")
		}
		return reading(float64(calls)), nil
	})
	m, err := NewMonitorLoop(MonitorConfig{Interval: testInterval}, src, &memLog{}, nil, nil, clk)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	runUntil(t, clk, testInterval, func() bool { return m.Sequence() >= 1 })
	cancel()
	assert.NoError(t, <-done)
}

func TestMonitorLoop_CancelWhileFetchBlocks(t *testing.T) {
	mb := source.NewMailbox(testColumns)
	m, err := NewMonitorLoop(MonitorConfig{Interval: testInterval}, mb, &memLog{}, nil, nil, newMockClock())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.State() == StateFetching }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Zero(t, m.Sequence(), "no sample is produced")
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateFetching, "fetching"},
		{StateStamping, "stamping"},
		{StatePersisting, "persisting"},
		{StateCapturing, "capturing"},
		{StateReloading, "reloading"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
