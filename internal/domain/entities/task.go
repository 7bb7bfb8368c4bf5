package entities

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusScheduled  TaskStatus = "scheduled"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOverdue    TaskStatus = "overdue"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusScheduled,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusOverdue,
}

type TaskCategory string

const (
	TaskCategoryCleaning    TaskCategory = "cleaning"
	TaskCategoryLandscaping TaskCategory = "landscaping"
	TaskCategoryRepair      TaskCategory = "repair"
	TaskCategoryInspection  TaskCategory = "inspection"
	TaskCategoryOther       TaskCategory = "other"
)

// MaintenanceTask represents a unit of upkeep work on a grave.
// JSON keys are camelCase so the persisted mirror stays readable by older clients.
type MaintenanceTask struct {
	ID            string       `json:"id"`
	GraveID       string       `json:"graveId"`
	PlotID        string       `json:"plotId"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Category      TaskCategory `json:"category"`
	Status        TaskStatus   `json:"status"`
	AssignedTo    *string      `json:"assignedTo,omitempty"`
	AssignedBy    *string      `json:"assignedBy,omitempty"`
	ScheduledDate Date         `json:"scheduledDate"`
	Deadline      Date         `json:"deadline"`
	CompletedDate *Date        `json:"completedDate,omitempty"`
	CompletedBy   *string      `json:"completedBy,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
	IsPublic      bool         `json:"isPublic"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Start moves a scheduled or overdue task into progress.
func (t *MaintenanceTask) Start(now time.Time) error {
	switch t.Status {
	case TaskStatusCompleted:
		return ErrTaskAlreadyCompleted
	case TaskStatusScheduled, TaskStatusOverdue:
		t.Status = TaskStatusInProgress
		t.UpdatedAt = now
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Complete closes the task and records who finished it. Blank notes are stored as nil.
// The completion date is the calendar date of now in now's location.
func (t *MaintenanceTask) Complete(actorID, notes string, now time.Time) error {
	if t.Status == TaskStatusCompleted {
		return ErrTaskAlreadyCompleted
	}
	if !t.Status.IsValid() {
		return ErrInvalidTransition
	}

	completed := DateOf(now)
	t.Status = TaskStatusCompleted
	t.CompletedDate = &completed
	t.CompletedBy = &actorID
	t.Notes = nil
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		t.Notes = &trimmed
	}
	t.UpdatedAt = now
	return nil
}

// SetStatus writes status directly without transition checks.
func (t *MaintenanceTask) SetStatus(status TaskStatus, now time.Time) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	t.Status = status
	t.UpdatedAt = now
	return nil
}

// MarkOverdueIfPast reclassifies an open task whose deadline lies before today.
// It reports whether the task changed.
func (t *MaintenanceTask) MarkOverdueIfPast(today Date, now time.Time) bool {
	if !t.IsOpen() || !t.Deadline.Before(today) {
		return false
	}
	t.Status = TaskStatusOverdue
	t.UpdatedAt = now
	return true
}

// IsOpen reports whether the task is scheduled or in progress.
func (t *MaintenanceTask) IsOpen() bool {
	return t.Status == TaskStatusScheduled || t.Status == TaskStatusInProgress
}

func (t *MaintenanceTask) IsAssignedTo(userID string) bool {
	return userID != "" && t.AssignedTo != nil && *t.AssignedTo == userID
}

// IsVisibleTo applies the list visibility rules: admins see everything,
// staff see public tasks and their own, everyone else sees public tasks only.
func (t *MaintenanceTask) IsVisibleTo(viewerID string, role UserRole) bool {
	switch role {
	case UserRoleAdmin:
		return true
	case UserRoleStaff:
		return t.IsPublic || t.IsAssignedTo(viewerID)
	default:
		return t.IsPublic
	}
}

// Matches reports whether query occurs in the title or description, ignoring case.
func (t *MaintenanceTask) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (t *MaintenanceTask) Clone() *MaintenanceTask {
	c := *t
	c.AssignedTo = cloneString(t.AssignedTo)
	c.AssignedBy = cloneString(t.AssignedBy)
	c.CompletedBy = cloneString(t.CompletedBy)
	c.Notes = cloneString(t.Notes)
	if t.CompletedDate != nil {
		d := *t.CompletedDate
		c.CompletedDate = &d
	}
	return &c
}

// ValidateSchedule checks both dates and that the deadline is not before the scheduled date.
func ValidateSchedule(scheduled, deadline Date) error {
	if !scheduled.IsValid() {
		return ErrInvalidDate
	}
	if !deadline.IsValid() {
		return ErrInvalidDate
	}
	if deadline.Before(scheduled) {
		return ErrDeadlineBeforeScheduled
	}
	return nil
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusScheduled, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue:
		return true
	default:
		return false
	}
}

func (tc TaskCategory) IsValid() bool {
	switch tc {
	case TaskCategoryCleaning, TaskCategoryLandscaping, TaskCategoryRepair, TaskCategoryInspection, TaskCategoryOther:
		return true
	default:
		return false
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
