package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/infrastructure/metrics"
	"github.com/gravekeeper/core/internal/ports"
)

// MaintenanceService owns the in-memory maintenance task collection, newest first,
// and mirrors it to a snapshot repository after every change.
type MaintenanceService struct {
	mu    sync.RWMutex
	tasks []*entities.MaintenanceTask

	snapshots  ports.TaskSnapshotRepository
	inventory  ports.GraveInventory
	metrics    *metrics.Metrics
	logger     *logger.Logger
	clock      func() time.Time
	location   *time.Location
	sampleData bool
}

// MaintenanceOption customises a MaintenanceService
type MaintenanceOption func(*MaintenanceService)

func WithClock(clock func() time.Time) MaintenanceOption {
	return func(s *MaintenanceService) { s.clock = clock }
}

// WithLocation sets the time zone that decides the current calendar day
func WithLocation(loc *time.Location) MaintenanceOption {
	return func(s *MaintenanceService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithInventory(inventory ports.GraveInventory) MaintenanceOption {
	return func(s *MaintenanceService) { s.inventory = inventory }
}

func WithMetrics(m *metrics.Metrics) MaintenanceOption {
	return func(s *MaintenanceService) { s.metrics = m }
}

// WithSampleData controls whether an empty or unreadable store is replaced by the demonstration tasks
func WithSampleData(enabled bool) MaintenanceOption {
	return func(s *MaintenanceService) { s.sampleData = enabled }
}

// NewMaintenanceService creates a new maintenance service. Call Load before serving requests.
func NewMaintenanceService(snapshots ports.TaskSnapshotRepository, logger *logger.Logger, opts ...MaintenanceOption) *MaintenanceService {
	s := &MaintenanceService{
		snapshots:  snapshots,
		logger:     logger.WithComponent("maintenance"),
		clock:      time.Now,
		location:   time.UTC,
		sampleData: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the stored snapshot. A missing snapshot is
// bootstrapped and written back; an unreadable one is logged and replaced in memory only.
func (s *MaintenanceService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.snapshots.Load(ctx)
	switch {
	case err == nil:
		s.tasks = tasks
		s.logger.Infow("Maintenance tasks loaded", "count", len(tasks))
	case errors.Is(err, ports.ErrSnapshotNotFound):
		s.tasks = s.bootstrap()
		s.logger.Infow("No task snapshot found, bootstrapping", "count", len(s.tasks))
		s.persistLocked(ctx)
	default:
		s.tasks = s.bootstrap()
		s.logger.Errorw("Failed to read task snapshot, using fallback dataset",
			"error", err,
			"count", len(s.tasks),
		)
	}
	s.refreshGaugesLocked()
}

func (s *MaintenanceService) bootstrap() []*entities.MaintenanceTask {
	if !s.sampleData {
		return []*entities.MaintenanceTask{}
	}
	return SampleTasks(s.now())
}

// CreateTask validates the request and prepends a new scheduled task
func (s *MaintenanceService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.MaintenanceTask, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := entities.ValidateSchedule(req.ScheduledDate, req.Deadline); err != nil {
		return nil, err
	}
	if err := checkPlacement(ctx, s.inventory, req.PlotID, req.GraveID); err != nil {
		return nil, err
	}

	now := s.now()
	task := &entities.MaintenanceTask{
		ID:            uuid.NewString(),
		GraveID:       req.GraveID,
		PlotID:        req.PlotID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Category:      req.Category,
		Status:        entities.TaskStatusScheduled,
		AssignedTo:    optionalString(req.AssignedTo),
		AssignedBy:    optionalString(&req.ActorID),
		ScheduledDate: req.ScheduledDate,
		Deadline:      req.Deadline,
		IsPublic:      req.IsPublic,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.tasks = append([]*entities.MaintenanceTask{task}, s.tasks...)
	s.persistLocked(ctx)
	s.refreshGaugesLocked()
	created := task.Clone()
	s.mu.Unlock()

	s.logger.LogUserAction(req.ActorID, "task_created", map[string]interface{}{
		"task_id":  created.ID,
		"grave_id": created.GraveID,
		"category": created.Category,
	})

	return created, nil
}

// UpdateTask replaces the editable fields of a task. Status is left alone.
func (s *MaintenanceService) UpdateTask(ctx context.Context, req ports.UpdateTaskRequest) (*entities.MaintenanceTask, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := entities.ValidateSchedule(req.ScheduledDate, req.Deadline); err != nil {
		return nil, err
	}
	if err := checkPlacement(ctx, s.inventory, req.PlotID, req.GraveID); err != nil {
		return nil, err
	}

	return s.mutate(ctx, req.ID, func(task *entities.MaintenanceTask, now time.Time) error {
		task.PlotID = req.PlotID
		task.GraveID = req.GraveID
		task.Title = strings.TrimSpace(req.Title)
		task.Description = strings.TrimSpace(req.Description)
		task.Category = req.Category
		task.AssignedTo = optionalString(req.AssignedTo)
		task.ScheduledDate = req.ScheduledDate
		task.Deadline = req.Deadline
		task.IsPublic = req.IsPublic
		task.UpdatedAt = now
		return nil
	})
}

// DeleteTask removes a task from the collection
func (s *MaintenanceService) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("delete task %s: %w", id, entities.ErrTaskNotFound)
	}

	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.persistLocked(ctx)
	s.refreshGaugesLocked()

	s.logger.Infow("Task deleted", "task_id", id)
	return nil
}

// StartTask moves a scheduled or overdue task into progress
func (s *MaintenanceService) StartTask(ctx context.Context, req ports.StartTaskRequest) (*entities.MaintenanceTask, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	task, err := s.mutate(ctx, req.ID, func(task *entities.MaintenanceTask, now time.Time) error {
		return task.Start(now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(entities.TaskStatusInProgress))
	s.logger.LogUserAction(req.ActorID, "task_started", map[string]interface{}{"task_id": req.ID})
	return task, nil
}

// CompleteTask closes a task and stamps who completed it and when
func (s *MaintenanceService) CompleteTask(ctx context.Context, req ports.CompleteTaskRequest) (*entities.MaintenanceTask, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	task, err := s.mutate(ctx, req.ID, func(task *entities.MaintenanceTask, now time.Time) error {
		return task.Complete(req.ActorID, req.Notes, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(entities.TaskStatusCompleted))
	s.logger.LogUserAction(req.ActorID, "task_completed", map[string]interface{}{"task_id": req.ID})
	return task, nil
}

// UpdateTaskStatus writes a status directly, bypassing transition rules
func (s *MaintenanceService) UpdateTaskStatus(ctx context.Context, req ports.UpdateTaskStatusRequest) (*entities.MaintenanceTask, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	task, err := s.mutate(ctx, req.ID, func(task *entities.MaintenanceTask, now time.Time) error {
		return task.SetStatus(req.Status, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(req.Status))
	return task, nil
}

// SweepOverdue marks every open task whose deadline has passed as overdue.
// When nothing changes the collection is neither touched nor persisted.
func (s *MaintenanceService) SweepOverdue(ctx context.Context) (*ports.SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	now := s.now()
	today := entities.DateOf(now)
	result := &ports.SweepResult{SweptAt: now, MarkedOverdue: []string{}}

	s.mu.Lock()
	result.Checked = len(s.tasks)
	for _, task := range s.tasks {
		if task.MarkOverdueIfPast(today, now) {
			result.MarkedOverdue = append(result.MarkedOverdue, task.ID)
		}
	}
	if len(result.MarkedOverdue) > 0 {
		s.persistLocked(ctx)
		s.refreshGaugesLocked()
	}
	s.mu.Unlock()

	s.metrics.ObserveSweep(time.Since(start), len(result.MarkedOverdue))
	if len(result.MarkedOverdue) > 0 {
		s.logger.Infow("Tasks marked overdue",
			"count", len(result.MarkedOverdue),
			"task_ids", result.MarkedOverdue,
			"today", today,
		)
	}

	return result, nil
}

// GetTask retrieves a task by ID
func (s *MaintenanceService) GetTask(id string) (*entities.MaintenanceTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("get task %s: %w", id, entities.ErrTaskNotFound)
	}
	return s.tasks[idx].Clone(), nil
}

// ListTasks returns the tasks matching every criterion of filter, in collection order
func (s *MaintenanceService) ListTasks(filter ports.TaskFilter) []*entities.MaintenanceTask {
	return s.selectTasks(func(t *entities.MaintenanceTask) bool {
		if filter.Viewer != nil && !t.IsVisibleTo(filter.Viewer.UserID, filter.Viewer.Role) {
			return false
		}
		if filter.Status != "" && t.Status != filter.Status {
			return false
		}
		if filter.Category != "" && t.Category != filter.Category {
			return false
		}
		if filter.AssignedTo != "" && !t.IsAssignedTo(filter.AssignedTo) {
			return false
		}
		if filter.GraveID != "" && t.GraveID != filter.GraveID {
			return false
		}
		if filter.PlotID != "" && t.PlotID != filter.PlotID {
			return false
		}
		return t.Matches(filter.Search)
	})
}

func (s *MaintenanceService) TasksByStatus(status entities.TaskStatus) []*entities.MaintenanceTask {
	return s.selectTasks(func(t *entities.MaintenanceTask) bool { return t.Status == status })
}

func (s *MaintenanceService) TasksByUser(userID string) []*entities.MaintenanceTask {
	return s.selectTasks(func(t *entities.MaintenanceTask) bool { return t.IsAssignedTo(userID) })
}

func (s *MaintenanceService) TasksByGrave(graveID string) []*entities.MaintenanceTask {
	return s.selectTasks(func(t *entities.MaintenanceTask) bool { return t.GraveID == graveID })
}

// UpcomingTasks returns open tasks scheduled on or before today plus days
func (s *MaintenanceService) UpcomingTasks(days int) []*entities.MaintenanceTask {
	limit := s.today().AddDays(days)
	return s.selectTasks(func(t *entities.MaintenanceTask) bool {
		return t.IsOpen() && !t.ScheduledDate.After(limit)
	})
}

func (s *MaintenanceService) OverdueTasks() []*entities.MaintenanceTask {
	return s.TasksByStatus(entities.TaskStatusOverdue)
}

// Stats counts tasks per status
func (s *MaintenanceService) Stats() ports.TaskStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

// Alerts assembles the dashboard banners for viewer: overdue tasks, upcoming
// tasks that are not already overdue, and the viewer's own unfinished tasks.
func (s *MaintenanceService) Alerts(viewer entities.Viewer, days int) *ports.TaskAlerts {
	visible := func(t *entities.MaintenanceTask) bool {
		return t.IsVisibleTo(viewer.UserID, viewer.Role)
	}

	overdue := filterTasks(s.OverdueTasks(), visible)
	overdueIDs := make(map[string]struct{}, len(overdue))
	for _, t := range overdue {
		overdueIDs[t.ID] = struct{}{}
	}

	upcoming := filterTasks(s.UpcomingTasks(days), func(t *entities.MaintenanceTask) bool {
		_, isOverdue := overdueIDs[t.ID]
		return !isOverdue && visible(t)
	})

	assigned := s.selectTasks(func(t *entities.MaintenanceTask) bool {
		return t.IsAssignedTo(viewer.UserID) && t.Status != entities.TaskStatusCompleted
	})

	return &ports.TaskAlerts{
		Overdue:  overdue,
		Upcoming: upcoming,
		Assigned: assigned,
	}
}

// mutate applies fn to the task with id under the write lock and persists on success
func (s *MaintenanceService) mutate(ctx context.Context, id string, fn func(*entities.MaintenanceTask, time.Time) error) (*entities.MaintenanceTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("task %s: %w", id, entities.ErrTaskNotFound)
	}

	// Work on a copy so a failed transition leaves the stored task untouched
	task := s.tasks[idx].Clone()
	if err := fn(task, s.now()); err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}

	s.tasks[idx] = task
	s.persistLocked(ctx)
	s.refreshGaugesLocked()
	return task.Clone(), nil
}

func (s *MaintenanceService) selectTasks(keep func(*entities.MaintenanceTask) bool) []*entities.MaintenanceTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*entities.MaintenanceTask{}
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func filterTasks(tasks []*entities.MaintenanceTask, keep func(*entities.MaintenanceTask) bool) []*entities.MaintenanceTask {
	out := []*entities.MaintenanceTask{}
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *MaintenanceService) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked mirrors the collection. Failures are logged and never fail the caller.
func (s *MaintenanceService) persistLocked(ctx context.Context) {
	if err := s.snapshots.Save(ctx, s.tasks); err != nil {
		s.metrics.IncSnapshotWriteFailure()
		s.logger.Errorw("Failed to persist task snapshot", "error", err, "count", len(s.tasks))
	}
}

func (s *MaintenanceService) statsLocked() ports.TaskStats {
	stats := ports.TaskStats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		switch t.Status {
		case entities.TaskStatusScheduled:
			stats.Scheduled++
		case entities.TaskStatusInProgress:
			stats.InProgress++
		case entities.TaskStatusCompleted:
			stats.Completed++
		case entities.TaskStatusOverdue:
			stats.Overdue++
		}
	}
	return stats
}

func (s *MaintenanceService) refreshGaugesLocked() {
	if s.metrics == nil {
		return
	}
	stats := s.statsLocked()
	s.metrics.SetTaskCounts(map[string]int{
		string(entities.TaskStatusScheduled):  stats.Scheduled,
		string(entities.TaskStatusInProgress): stats.InProgress,
		string(entities.TaskStatusCompleted):  stats.Completed,
		string(entities.TaskStatusOverdue):    stats.Overdue,
	})
}

// now returns the current time in the configured location
func (s *MaintenanceService) now() time.Time {
	return s.clock().In(s.location)
}

func (s *MaintenanceService) today() entities.Date {
	return entities.DateOf(s.now())
}
