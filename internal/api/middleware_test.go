package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darshan-rambhia/hostwatch/internal/cache"
	"github.com/darshan-rambhia/hostwatch/internal/model"
	"github.com/darshan-rambhia/hostwatch/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs swaps the default logger for a JSON one writing to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		if line["msg"] == msg {
			out = append(out, line)
		}
	}
	return out
}

// brokenTasks panics on List so the recovery path runs under the real mux.
type brokenTasks struct {
	*scheduler.Scheduler
}

func (brokenTasks) List() []model.TaskInfo { panic("task registry unavailable") }

func TestLoggingMiddleware_RecordsRouteStatus(t *testing.T) {
	e := newTestServer(t)
	logs := captureLogs(t)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/tasks/forecast", "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/tasks/no-such-task", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPut, "/api/tasks/forecast/schedule", `{"schedule":"every now and then"}`).Code)

	lines := logLines(t, logs, "http request")
	require.Len(t, lines, 3)
	want := []struct {
		method, path string
		status       float64
	}{
		{http.MethodGet, "/api/tasks/forecast", http.StatusOK},
		{http.MethodGet, "/api/tasks/no-such-task", http.StatusNotFound},
		{http.MethodPut, "/api/tasks/forecast/schedule", http.StatusBadRequest},
	}
	for i, w := range want {
		assert.Equal(t, w.method, lines[i]["method"])
		assert.Equal(t, w.path, lines[i]["path"])
		assert.Equal(t, w.status, lines[i]["status"])
	}
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	logs := captureLogs(t)
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	lines := logLines(t, logs, "http request")
	require.Len(t, lines, 1)
	assert.Equal(t, float64(http.StatusOK), lines[0]["status"])
}

func TestRecoveryMiddleware_HandlerPanic(t *testing.T) {
	sched := scheduler.New()
	t.Cleanup(sched.Shutdown)
	srv := NewServer(":0", cache.New(4), nil, brokenTasks{sched}, &fakeAnalyzer{}, ForecastDefaults{HorizonHours: 24})
	logs := captureLogs(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), "headers set before the panic survive")

	panics := logLines(t, logs, "handler panic")
	require.Len(t, panics, 1)
	assert.Equal(t, "/api/tasks", panics[0]["path"])
	assert.Equal(t, "task registry unavailable", panics[0]["panic"])
	assert.Contains(t, panics[0]["stack"], "brokenTasks")

	// The server keeps serving after a recovered panic.
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/anything", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSecurityHeaders_OnEveryResponse(t *testing.T) {
	e := newTestServer(t)
	for _, target := range []string{"/healthz", "/api/tasks", "/api/tasks/no-such-task", "/api/metrics/latest"} {
		w := e.do(t, http.MethodGet, target, "")
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), target)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"), target)
		assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"), target)
	}
}
