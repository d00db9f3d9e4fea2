// Package api provides the HTTP JSON API for hostwatch.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/cache"
	"github.com/darshan-rambhia/hostwatch/internal/forecast"
	"github.com/darshan-rambhia/hostwatch/internal/model"
	"github.com/darshan-rambhia/hostwatch/internal/scheduler"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/darshan-rambhia/hostwatch/docs/swagger"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
	maxForecastHours    = 24 * 30
)

// Tasks is the scheduler surface exposed over HTTP.
type Tasks interface {
	List() []model.TaskInfo
	Get(id string) (model.TaskInfo, bool)
	Start(id string) bool
	Stop(id string) bool
	Trigger(id string) bool
	Reschedule(id, expr string) error
}

// Snapshots is the read side of the snapshot store.
type Snapshots interface {
	Latest(ctx context.Context) (*model.MetricSnapshot, error)
	History(ctx context.Context, limit, offset int) ([]model.MetricSnapshot, error)
}

// Analyzer produces on-demand forecast reports.
type Analyzer interface {
	Analyze(ctx context.Context, horizonHours int, sensitivity float64) (model.ForecastReport, error)
}

// ForecastDefaults apply when a forecast request omits a parameter.
type ForecastDefaults struct {
	HorizonHours int
	Sensitivity  float64
}

// Server is the HTTP server for hostwatch.
type Server struct {
	cache    *cache.Cache
	store    Snapshots
	tasks    Tasks
	analyzer Analyzer
	defaults ForecastDefaults
	mux      *http.ServeMux
	server   *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(addr string, c *cache.Cache, st Snapshots, tasks Tasks, an Analyzer, defaults ForecastDefaults) *Server {
	srv := &Server{
		cache:    c,
		store:    st,
		tasks:    tasks,
		analyzer: an,
		defaults: defaults,
		mux:      http.NewServeMux(),
	}

	srv.registerRoutes()

	srv.server = &http.Server{
		Addr:         addr,
		Handler:      SecurityHeadersMiddleware(RecoveryMiddleware(LoggingMiddleware(srv.mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("HTTP server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/start", s.taskAction(Tasks.Start))
	s.mux.HandleFunc("POST /api/tasks/{id}/stop", s.taskAction(Tasks.Stop))
	s.mux.HandleFunc("POST /api/tasks/{id}/trigger", s.taskAction(Tasks.Trigger))
	s.mux.HandleFunc("PUT /api/tasks/{id}/schedule", s.handleReschedule)

	s.mux.HandleFunc("GET /api/metrics/latest", s.handleLatestMetrics)
	s.mux.HandleFunc("GET /api/metrics/history", s.handleMetricsHistory)
	s.mux.HandleFunc("GET /api/alerts", s.handleAlerts)

	s.mux.HandleFunc("GET /api/forecast", s.handleForecast)
	s.mux.HandleFunc("GET /api/forecast/latest", s.handleLatestForecast)

	// Swagger UI
	s.mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

// writeJSON marshals v to JSON into a buffer first, then writes it to the
// response. This ensures marshalling errors can be returned as a proper 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding JSON response", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing JSON response", "path", r.URL.Path, "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

type taskResponse struct {
	OK   bool           `json:"ok"`
	Task model.TaskInfo `json:"task"`
}

type scheduleRequest struct {
	Schedule string `json:"schedule"`
}

// @Summary Health check
// @Description Returns service status and the time since each task last ran
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Router /healthz [get]
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Snapshot()
	status := "ok"
	if len(snap.LastRun) == 0 {
		status = "no_data"
	}

	tasks := make(map[string]string, len(snap.LastRun))
	for k, v := range snap.LastRun {
		tasks[k] = fmt.Sprintf("%ds ago", int(time.Since(v).Seconds()))
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"tasks":     tasks,
	})
}

// @Summary List tasks
// @Description Returns all scheduled tasks sorted by id
// @Produce json
// @Success 200 {array} model.TaskInfo
// @Router /api/tasks [get]
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.tasks.List())
}

// @Summary Get task
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {object} model.TaskInfo
// @Failure 404 {object} errorResponse
// @Router /api/tasks/{id} [get]
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	info, ok := s.tasks.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown task")
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

// taskAction adapts Start, Stop and Trigger. ok is false when the task was
// already in the requested state or a trigger did not start a run.
//
// @Summary Start, stop or trigger a task
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {object} taskResponse
// @Failure 404 {object} errorResponse
// @Router /api/tasks/{id}/start [post]
// @Router /api/tasks/{id}/stop [post]
// @Router /api/tasks/{id}/trigger [post]
func (s *Server) taskAction(action func(Tasks, string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := s.tasks.Get(id); !ok {
			writeError(w, r, http.StatusNotFound, "unknown task")
			return
		}
		ok := action(s.tasks, id)
		info, _ := s.tasks.Get(id)
		writeJSON(w, r, http.StatusOK, taskResponse{OK: ok, Task: info})
	}
}

// @Summary Reschedule a task
// @Accept json
// @Produce json
// @Param id path string true "Task id"
// @Param body body scheduleRequest true "New cron expression"
// @Success 200 {object} taskResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /api/tasks/{id}/schedule [put]
func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req scheduleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.tasks.Reschedule(id, req.Schedule)
	switch {
	case errors.Is(err, scheduler.ErrUnknownTask):
		writeError(w, r, http.StatusNotFound, "unknown task")
		return
	case err != nil:
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	info, _ := s.tasks.Get(id)
	writeJSON(w, r, http.StatusOK, taskResponse{OK: true, Task: info})
}

// @Summary Latest snapshot
// @Produce json
// @Success 200 {object} model.MetricSnapshot
// @Failure 404 {object} errorResponse
// @Router /api/metrics/latest [get]
func (s *Server) handleLatestMetrics(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.cache.Latest(); ok {
		writeJSON(w, r, http.StatusOK, snap)
		return
	}
	if s.store != nil {
		snap, err := s.store.Latest(r.Context())
		if err != nil {
			slog.Error("querying latest snapshot", "error", err)
			writeError(w, r, http.StatusInternalServerError, "failed to query snapshots")
			return
		}
		if snap != nil {
			writeJSON(w, r, http.StatusOK, snap)
			return
		}
	}
	writeError(w, r, http.StatusNotFound, "no snapshot yet")
}

// @Summary Snapshot history
// @Description Returns stored snapshots, newest first
// @Produce json
// @Param limit query int false "Page size (default 100, max 1000)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} model.MetricSnapshot
// @Failure 400 {object} errorResponse
// @Router /api/metrics/history [get]
func (s *Server) handleMetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(r, "offset", 0, 0, -1)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if s.store == nil {
		writeJSON(w, r, http.StatusOK, []model.MetricSnapshot{})
		return
	}

	history, err := s.store.History(r.Context(), limit, offset)
	if err != nil {
		slog.Error("querying snapshot history", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to query snapshots")
		return
	}
	if history == nil {
		history = []model.MetricSnapshot{}
	}
	writeJSON(w, r, http.StatusOK, history)
}

// @Summary Recent alerts
// @Description Returns the in-memory alert ring, newest first
// @Produce json
// @Param limit query int false "Maximum alerts to return"
// @Success 200 {array} model.Alert
// @Failure 400 {object} errorResponse
// @Router /api/alerts [get]
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0, 0, -1)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	alerts := s.cache.Alerts(limit)
	if alerts == nil {
		alerts = []model.Alert{}
	}
	writeJSON(w, r, http.StatusOK, alerts)
}

// @Summary On-demand forecast
// @Description Forecasts from stored history and detects anomalies
// @Produce json
// @Param hours query int false "Horizon in hours"
// @Param sensitivity query number false "Anomaly sensitivity in [0,1]"
// @Success 200 {object} model.ForecastReport
// @Failure 400 {object} errorResponse
// @Failure 422 {object} errorResponse "No history to forecast from"
// @Router /api/forecast [get]
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	hours, err := intParam(r, "hours", s.defaults.HorizonHours, 1, maxForecastHours)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sensitivity := s.defaults.Sensitivity
	if v := r.URL.Query().Get("sensitivity"); v != "" {
		sensitivity, err = strconv.ParseFloat(v, 64)
		if err != nil || sensitivity < 0 || sensitivity > 1 {
			writeError(w, r, http.StatusBadRequest, "sensitivity must be a number in [0,1]")
			return
		}
	}

	report, err := s.analyzer.Analyze(r.Context(), hours, sensitivity)
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, forecast.ErrInvalidHorizon):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("on-demand forecast", "error", err)
		writeError(w, r, http.StatusInternalServerError, "forecast failed")
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// @Summary Latest scheduled forecast
// @Produce json
// @Success 200 {object} model.ForecastReport
// @Failure 404 {object} errorResponse
// @Router /api/forecast/latest [get]
func (s *Server) handleLatestForecast(w http.ResponseWriter, r *http.Request) {
	report, ok := s.cache.Forecast()
	if !ok {
		writeError(w, r, http.StatusNotFound, "no forecast yet")
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// intParam parses an optional integer query parameter. max < 0 means no
// upper bound.
func intParam(r *http.Request, name string, def, minVal, maxVal int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minVal || (maxVal >= 0 && n > maxVal) {
		if maxVal >= 0 {
			return 0, fmt.Errorf("%s must be an integer in [%d,%d]", name, minVal, maxVal)
		}
		return 0, fmt.Errorf("%s must be an integer >= %d", name, minVal)
	}
	return n, nil
}
