package web

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/data/source"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/formatter"
)

var base = time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)

func testView() model.View {
	v := model.View{Columns: []string{"x", "y"}}
	for i := 0; i < 5; i++ {
		y := float64(i) * 2
		if i == 2 {
			y = math.NaN()
		}
		v.Rows = append(v.Rows, model.Row{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Values:    []float64{float64(i), y},
		})
	}
	return v
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndex(t *testing.T) {
	s := NewServer(Config{})
	rec := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<canvas")
	for _, control := range []string{`id="kind"`, `id="window"`, `data-action="prev"`, `data-action="next"`, `id="magnitude"`, `id="rows"`, "/api/projection"} {
		assert.Contains(t, rec.Body.String(), control)
	}
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestViewEndpoint(t *testing.T) {
	s := NewServer(Config{})

	rec := get(t, s.Handler(), "/api/view")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty formatter.ViewDocument
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Empty(t, empty.Rows)

	s.Hub().Render(testView())
	rec = get(t, s.Handler(), "/api/view")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "null", "NaN cells are emitted as null")

	var doc formatter.ViewDocument
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, []string{"x", "y"}, doc.Columns)
	require.Len(t, doc.Rows, 5)
	assert.Nil(t, doc.Rows[2].Values[1])
}

func TestStatusEndpoint(t *testing.T) {
	s := NewServer(Config{Status: func() interface{} {
		return map[string]interface{}{"producer": "Idle", "sequence": 7}
	}})
	rec := get(t, s.Handler(), "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"producer":"Idle","sequence":7}`, rec.Body.String())

	rec = get(t, NewServer(Config{}).Handler(), "/api/status")
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestHistogramEndpoint(t *testing.T) {
	s := NewServer(Config{})
	s.Hub().Render(testView())

	tests := []struct {
		name   string
		target string
		code   int
		want   string
	}{
		{"default column", "/api/histogram?bins=2", http.StatusOK, `"column":"y"`},
		{"named column", "/api/histogram?column=x&bins=4", http.StatusOK, `"column":"x"`},
		{"bad bins", "/api/histogram?bins=zero", http.StatusBadRequest, "bins"},
		{"negative bins", "/api/histogram?bins=-3", http.StatusBadRequest, "bins"},
		{"max bins", "/api/histogram?column=x&bins=1000", http.StatusOK, `"column":"x"`},
		{"too many bins", "/api/histogram?column=x&bins=5000000", http.StatusBadRequest, "between 1 and 1000"},
		{"unknown column", "/api/histogram?column=z", http.StatusNotFound, "unknown column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s.Handler(), tt.target)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestLatestImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1_2024-05-10 120000.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8, 0xff}, 0644))

	latest := ""
	s := NewServer(Config{LatestImage: func() string { return latest }})

	rec := get(t, s.Handler(), "/api/image/latest")
	assert.JSONEq(t, `{"src":""}`, rec.Body.String())

	latest = path
	rec = get(t, s.Handler(), "/api/image/latest")
	assert.JSONEq(t, `{"src":"data:image/jpeg;base64,/9j/"}`, rec.Body.String())
}

func TestReadings(t *testing.T) {
	post := func(h http.Handler, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(body)))
		return rec
	}

	t.Run("disabled without mailbox", func(t *testing.T) {
		rec := post(NewServer(Config{}).Handler(), `{"name":"x","value":1}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	mb := source.NewMailbox([]string{"x", "y"})
	h := NewServer(Config{Mailbox: mb}).Handler()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"single", `{"name":"x","value":1.5}`, http.StatusAccepted},
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"unknown column", `{"name":"q","value":1}`, http.StatusUnprocessableEntity},
		{"batch", `{"values":{"x":2,"y":3}}`, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, post(h, tt.body).Code)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	values, err := mb.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"x": 2, "y": 3}, values)
}

func TestChartEndpoint(t *testing.T) {
	s := NewServer(Config{Title: "Accel"})
	s.Hub().Render(testView())

	for _, target := range []string{"/chart.png", "/chart.png?kind=scatter", "/chart.png?kind=distribution&column=x"} {
		rec := get(t, s.Handler(), target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		_, err := png.Decode(rec.Body)
		assert.NoError(t, err, target)
	}

	assert.Equal(t, http.StatusBadRequest, get(t, s.Handler(), "/chart.png?kind=pie").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(Config{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/view", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebSocketPush(t *testing.T) {
	s := NewServer(Config{})
	s.Hub().Render(testView())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	readView := func() formatter.ViewDocument {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type    string                 `json:"type"`
			Payload formatter.ViewDocument `json:"payload"`
		}
		require.NoError(t, sonic.Unmarshal(data, &msg))
		assert.Equal(t, "view", msg.Type)
		return msg.Payload
	}

	first := readView()
	assert.Len(t, first.Rows, 5, "a new client gets the latest view at once")

	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	s.Hub().Render(model.View{Columns: []string{"x", "y"}})
	second := readView()
	assert.Empty(t, second.Rows)

	broadcasts, _ := s.Hub().Stats()
	assert.Equal(t, int64(2), broadcasts)

	s.Hub().Close()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

type fakeController struct {
	doc  ProjectionDocument
	last ProjectionRequest
	err  error
}

func (f *fakeController) Projection() ProjectionDocument { return f.doc }

func (f *fakeController) UpdateProjection(req ProjectionRequest) (ProjectionDocument, error) {
	f.last = req
	if f.err != nil {
		return ProjectionDocument{}, f.err
	}
	if req.Window != nil {
		f.doc.Window = *req.Window
	}
	return f.doc, nil
}

func TestProjectionEndpoint(t *testing.T) {
	post := func(h http.Handler, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/projection", strings.NewReader(body)))
		return rec
	}

	t.Run("disabled without a controller", func(t *testing.T) {
		s := NewServer(Config{})
		assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/api/projection").Code)
		assert.Equal(t, http.StatusNotFound, post(s.Handler(), `{}`).Code)
	})

	t.Run("get and update", func(t *testing.T) {
		ctrl := &fakeController{doc: ProjectionDocument{Window: 100, Declared: []string{"x", "y"}}}
		s := NewServer(Config{Controller: ctrl})

		rec := get(t, s.Handler(), "/api/projection")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"declared":["x","y"]`)

		rec = post(s.Handler(), `{"action":"prev","window":20,"magnitude":true,"columns":["y"]}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"window":20`)
		assert.Equal(t, ActionPrev, ctrl.last.Action)
		require.NotNil(t, ctrl.last.Magnitude)
		assert.True(t, *ctrl.last.Magnitude)
		require.NotNil(t, ctrl.last.Columns)
		assert.Equal(t, []string{"y"}, *ctrl.last.Columns)

		rec = post(s.Handler(), `{"action":"live"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, ctrl.last.Window, "absent fields stay unset")
		assert.Nil(t, ctrl.last.Columns)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			body string
			code int
		}{
			{"malformed", nil, `{"window":`, http.StatusBadRequest},
			{"unknown action", nil, `{"action":"up"}`, http.StatusBadRequest},
			{"refused", fmt.Errorf("%w: window must be at least 1", ErrInvalidProjection), `{"window":0}`, http.StatusUnprocessableEntity},
			{"internal", errors.New("boom"), `{}`, http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := NewServer(Config{Controller: &fakeController{err: tt.err}})
				assert.Equal(t, tt.code, post(s.Handler(), tt.body).Code)
			})
		}
	})
}

func TestHub_OfferNeverBlocks(t *testing.T) {
	h := NewHub()
	c := &client{send: make(chan []byte, 1), done: make(chan struct{})}

	assert.True(t, h.offer(c, []byte("first")))

	queued := make(chan bool, 1)
	go func() { queued <- h.offer(c, []byte("second")) }()
	select {
	case ok := <-queued:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("offer blocked on a full client buffer")
	}

	_, dropped := h.Stats()
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, []byte("first"), <-c.send)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := NewServer(Config{Listen: addr})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/status")
		if err != nil {
			return false
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = NewServer(Config{Listen: ln.Addr().String()}).Run(context.Background())
	assert.Error(t, err)
}
