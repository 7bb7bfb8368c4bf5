package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newTask(status TaskStatus, deadline Date) *MaintenanceTask {
	return &MaintenanceTask{
		ID:            "t1",
		Title:         "Quarterly Grave Cleaning",
		Description:   "Clean headstones",
		Category:      TaskCategoryCleaning,
		Status:        status,
		ScheduledDate: "2025-05-20",
		Deadline:      deadline,
		UpdatedAt:     fixedNow.Add(-48 * time.Hour),
	}
}

func TestMaintenanceTask_Start(t *testing.T) {
	tests := []struct {
		name    string
		from    TaskStatus
		want    TaskStatus
		wantErr error
	}{
		{"scheduled", TaskStatusScheduled, TaskStatusInProgress, nil},
		{"overdue past deadline", TaskStatusOverdue, TaskStatusInProgress, nil},
		{"already in progress", TaskStatusInProgress, TaskStatusInProgress, ErrInvalidTransition},
		{"completed is terminal", TaskStatusCompleted, TaskStatusCompleted, ErrTaskAlreadyCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTask(tt.from, "2025-05-25")
			err := task.Start(fixedNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, fixedNow, task.UpdatedAt)
			}
			assert.Equal(t, tt.want, task.Status)
		})
	}
}

func TestMaintenanceTask_Complete(t *testing.T) {
	t.Run("overdue task completes past deadline", func(t *testing.T) {
		task := newTask(TaskStatusOverdue, "2025-05-25")

		require.NoError(t, task.Complete("2", "  Used epoxy resin.  ", fixedNow))

		assert.Equal(t, TaskStatusCompleted, task.Status)
		require.NotNil(t, task.CompletedDate)
		assert.Equal(t, Date("2025-06-01"), *task.CompletedDate)
		require.NotNil(t, task.CompletedBy)
		assert.Equal(t, "2", *task.CompletedBy)
		require.NotNil(t, task.Notes)
		assert.Equal(t, "Used epoxy resin.", *task.Notes)
		assert.Equal(t, fixedNow, task.UpdatedAt)
	})

	t.Run("blank notes stored as nil", func(t *testing.T) {
		task := newTask(TaskStatusInProgress, "2025-06-10")
		require.NoError(t, task.Complete("2", "   ", fixedNow))
		assert.Nil(t, task.Notes)
	})

	t.Run("second completion rejected", func(t *testing.T) {
		task := newTask(TaskStatusScheduled, "2025-06-10")
		require.NoError(t, task.Complete("2", "", fixedNow))
		assert.ErrorIs(t, task.Complete("3", "again", fixedNow.Add(time.Hour)), ErrTaskAlreadyCompleted)
		assert.Equal(t, "2", *task.CompletedBy)
	})
}

func TestMaintenanceTask_SetStatus(t *testing.T) {
	task := newTask(TaskStatusScheduled, "2025-05-25")

	require.NoError(t, task.SetStatus(TaskStatusInProgress, fixedNow))
	assert.Equal(t, TaskStatusInProgress, task.Status)

	assert.ErrorIs(t, task.SetStatus("archived", fixedNow), ErrInvalidStatus)
	assert.Equal(t, TaskStatusInProgress, task.Status)
}

func TestMaintenanceTask_MarkOverdueIfPast(t *testing.T) {
	today := Date("2025-06-01")

	tests := []struct {
		name     string
		status   TaskStatus
		deadline Date
		changed  bool
		want     TaskStatus
	}{
		{"scheduled past deadline", TaskStatusScheduled, "2025-05-31", true, TaskStatusOverdue},
		{"in progress past deadline", TaskStatusInProgress, "2025-05-01", true, TaskStatusOverdue},
		{"deadline today is not past", TaskStatusScheduled, "2025-06-01", false, TaskStatusScheduled},
		{"future deadline", TaskStatusInProgress, "2025-06-05", false, TaskStatusInProgress},
		{"completed untouched", TaskStatusCompleted, "2025-05-01", false, TaskStatusCompleted},
		{"overdue untouched", TaskStatusOverdue, "2025-05-01", false, TaskStatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTask(tt.status, tt.deadline)
			before := task.UpdatedAt

			changed := task.MarkOverdueIfPast(today, fixedNow)

			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, task.Status)
			if tt.changed {
				assert.Equal(t, fixedNow, task.UpdatedAt)
			} else {
				assert.Equal(t, before, task.UpdatedAt)
			}
		})
	}
}

func TestMaintenanceTask_IsVisibleTo(t *testing.T) {
	staff := "2"
	private := newTask(TaskStatusScheduled, "2025-06-10")
	private.AssignedTo = &staff

	public := newTask(TaskStatusScheduled, "2025-06-10")
	public.IsPublic = true

	assert.True(t, private.IsVisibleTo("1", UserRoleAdmin))
	assert.True(t, private.IsVisibleTo("2", UserRoleStaff))
	assert.False(t, private.IsVisibleTo("3", UserRoleStaff))
	assert.False(t, private.IsVisibleTo("2", UserRoleVisitor))
	assert.True(t, public.IsVisibleTo("", UserRoleVisitor))
}

func TestMaintenanceTask_Clone(t *testing.T) {
	notes := "original"
	task := newTask(TaskStatusScheduled, "2025-06-10")
	task.Notes = &notes

	c := task.Clone()
	*c.Notes = "changed"
	c.Title = "changed"

	assert.Equal(t, "original", *task.Notes)
	assert.Equal(t, "Quarterly Grave Cleaning", task.Title)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("2025-06-01", "2025-06-01"))
	assert.NoError(t, ValidateSchedule("2025-06-01", "2025-06-04"))
	assert.ErrorIs(t, ValidateSchedule("2025-06-04", "2025-06-01"), ErrDeadlineBeforeScheduled)
	assert.ErrorIs(t, ValidateSchedule("2025-13-01", "2025-06-01"), ErrInvalidDate)
	assert.ErrorIs(t, ValidateSchedule("2025-06-01", ""), ErrInvalidDate)
}
