// Package scheduler runs named tasks on cron schedules. Each enabled task
// owns one timer; handlers run in their own goroutines so control
// operations never wait on them.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
	"github.com/robfig/cron/v3"
)

// ErrUnknownTask is matched by UnknownTaskError.
var ErrUnknownTask = errors.New("unknown task")

// ErrTaskExists is returned when registering a duplicate task id.
var ErrTaskExists = errors.New("task already registered")

// UnknownTaskError names the task id that was not found.
type UnknownTaskError struct {
	ID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q", e.ID)
}

// Is lets errors.Is match ErrUnknownTask.
func (e *UnknownTaskError) Is(target error) bool {
	return target == ErrUnknownTask
}

// Handler is the body of a task.
type Handler func(ctx context.Context) error

// Task describes a scheduled job.
type Task struct {
	ID          string
	Name        string
	Description string
	Schedule    string // standard 5-field cron or @descriptor
	Enabled     bool
	// NoOverlap skips a fire while the previous invocation is still running.
	NoOverlap bool
	Handler   Handler
}

// ParseSchedule validates a schedule expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return s, nil
}

type entry struct {
	task     Task
	schedule cron.Schedule
	timer    *time.Timer
	gen      uint64 // bumped on every disarm so stale timer fires are ignored
	next     time.Time
	lastRun  *time.Time
	lastErr  string
	runs     int64

	inflight atomic.Bool
	running  atomic.Int32
}

// Scheduler is the task registry. Create it with New and drive it with Run.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*entry
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// New returns an empty scheduler. Timers of enabled tasks start as soon as
// they are registered.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// Register adds a task and arms its timer if it is enabled.
func (s *Scheduler) Register(t Task) error {
	if t.ID == "" {
		return errors.New("task id is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("task %q: handler is required", t.ID)
	}
	sched, err := ParseSchedule(t.Schedule)
	if err != nil {
		return fmt.Errorf("task %q: %w", t.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, t.ID)
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	e := &entry{task: t, schedule: sched}
	s.tasks[t.ID] = e
	if t.Enabled {
		s.arm(e)
	}
	slog.Info("task registered", "task", t.ID, "schedule", t.Schedule, "enabled", t.Enabled, "no_overlap", t.NoOverlap)
	return nil
}

// Start enables a stopped task. It returns false if the task is unknown or
// already running on its schedule.
func (s *Scheduler) Start(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok || e.task.Enabled {
		return false
	}
	e.task.Enabled = true
	s.arm(e)
	slog.Info("task started", "task", id, "next_run", e.next)
	return true
}

// Stop prevents future fires of a task. An invocation already in progress
// runs to completion. It returns false if the task is unknown or already
// stopped.
func (s *Scheduler) Stop(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok || !e.task.Enabled {
		return false
	}
	e.task.Enabled = false
	s.disarm(e)
	slog.Info("task stopped", "task", id)
	return true
}

// Reschedule replaces a task's schedule. A stopped task stays stopped.
func (s *Scheduler) Reschedule(id, expr string) error {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return &UnknownTaskError{ID: id}
	}
	s.disarm(e)
	e.schedule = sched
	e.task.Schedule = strings.TrimSpace(expr)
	if e.task.Enabled {
		s.arm(e)
	}
	slog.Info("task rescheduled", "task", id, "schedule", e.task.Schedule)
	return nil
}

// Trigger runs a task's handler now, outside its schedule. It returns false
// for an unknown task, after Shutdown, and when a NoOverlap task is still
// running.
func (s *Scheduler) Trigger(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return false
	}
	if !s.launch(e) {
		return false
	}
	slog.Info("task triggered", "task", id)
	return true
}

// Get returns a view of one task.
func (s *Scheduler) Get(id string) (model.TaskInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return model.TaskInfo{}, false
	}
	return e.info(), true
}

// List returns all tasks sorted by id.
func (s *Scheduler) List() []model.TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TaskInfo, 0, len(s.tasks))
	for _, e := range s.tasks {
		out = append(out, e.info())
	}
	slices.SortFunc(out, func(a, b model.TaskInfo) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Run blocks until ctx is cancelled, then disarms every timer, cancels
// handler contexts and waits for in-flight handlers to return.
func (s *Scheduler) Run(ctx context.Context) error {
	<-ctx.Done()
	s.Shutdown()
	return nil
}

// Shutdown disarms all timers and waits for running handlers. It is safe to
// call more than once.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, e := range s.tasks {
			s.disarm(e)
		}
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// arm schedules the next fire. Callers hold s.mu.
func (s *Scheduler) arm(e *entry) {
	if s.closed {
		return
	}
	now := s.now()
	e.next = e.schedule.Next(now)
	if e.next.IsZero() {
		slog.Warn("schedule has no future fire time", "task", e.task.ID)
		return
	}
	gen := e.gen
	e.timer = time.AfterFunc(e.next.Sub(now), func() { s.fire(e, gen) })
}

// disarm stops the timer. Callers hold s.mu.
func (s *Scheduler) disarm(e *entry) {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.next = time.Time{}
}

func (s *Scheduler) fire(e *entry, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != e.gen || !e.task.Enabled {
		return
	}
	s.launch(e)
	s.arm(e)
}

// launch starts one handler invocation and reports whether it did.
// Callers hold s.mu.
func (s *Scheduler) launch(e *entry) bool {
	if s.closed {
		return false
	}
	if e.task.NoOverlap && !e.inflight.CompareAndSwap(false, true) {
		slog.Warn("task still running, skipping run", "task", e.task.ID)
		return false
	}

	started := s.now()
	e.lastRun = &started
	e.runs++
	e.running.Add(1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.invoke(e)

		s.mu.Lock()
		if err != nil {
			e.lastErr = err.Error()
		} else {
			e.lastErr = ""
		}
		s.mu.Unlock()

		if e.task.NoOverlap {
			e.inflight.Store(false)
		}
		e.running.Add(-1)
	}()
	return true
}

// invoke runs the handler, converting a panic into an error.
func (s *Scheduler) invoke(e *entry) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			slog.Error("task failed", "task", e.task.ID, "error", err, "duration", time.Since(start))
			return
		}
		slog.Debug("task completed", "task", e.task.ID, "duration", time.Since(start))
	}()
	return e.task.Handler(s.ctx)
}

func (e *entry) info() model.TaskInfo {
	info := model.TaskInfo{
		ID:          e.task.ID,
		Name:        e.task.Name,
		Description: e.task.Description,
		Schedule:    e.task.Schedule,
		Enabled:     e.task.Enabled,
		Running:     e.running.Load() > 0,
		NoOverlap:   e.task.NoOverlap,
		LastError:   e.lastErr,
		RunCount:    e.runs,
	}
	if e.lastRun != nil {
		t := *e.lastRun
		info.LastRunAt = &t
	}
	if e.task.Enabled && !e.next.IsZero() {
		t := e.next
		info.NextRunAt = &t
	}
	return info
}
