package services

import (
	"time"

	"github.com/gravekeeper/core/internal/domain/entities"
)

const day = 24 * time.Hour

// SampleTasks builds the demonstration dataset used when no task snapshot exists.
// Dates are relative to now in now's location.
func SampleTasks(now time.Time) []*entities.MaintenanceTask {
	admin, staff := "1", "2"
	today := entities.DateOf(now)
	completed := today.AddDays(-6)
	notes := "Repair completed successfully. Used epoxy resin."

	return []*entities.MaintenanceTask{
		{
			ID:            "1",
			GraveID:       "1",
			PlotID:        "1",
			Title:         "Quarterly Grave Cleaning",
			Description:   "Deep cleaning of headstone and surrounding area",
			Category:      entities.TaskCategoryCleaning,
			Status:        entities.TaskStatusScheduled,
			AssignedTo:    cloneID(staff),
			AssignedBy:    cloneID(admin),
			ScheduledDate: today.AddDays(2),
			Deadline:      today.AddDays(5),
			IsPublic:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "2",
			GraveID:       "2",
			PlotID:        "1",
			Title:         "Landscaping Maintenance",
			Description:   "Trim grass and remove weeds around grave site",
			Category:      entities.TaskCategoryLandscaping,
			Status:        entities.TaskStatusInProgress,
			AssignedTo:    cloneID(staff),
			AssignedBy:    cloneID(admin),
			ScheduledDate: today,
			Deadline:      today.AddDays(1),
			IsPublic:      true,
			CreatedAt:     now.Add(-2 * day),
			UpdatedAt:     now,
		},
		{
			ID:            "3",
			GraveID:       "3",
			PlotID:        "1",
			Title:         "Headstone Repair",
			Description:   "Fix crack in headstone base",
			Category:      entities.TaskCategoryRepair,
			Status:        entities.TaskStatusCompleted,
			AssignedTo:    cloneID(staff),
			AssignedBy:    cloneID(admin),
			ScheduledDate: today.AddDays(-10),
			Deadline:      today.AddDays(-5),
			CompletedDate: &completed,
			CompletedBy:   cloneID(staff),
			Notes:         &notes,
			IsPublic:      false,
			CreatedAt:     now.Add(-15 * day),
			UpdatedAt:     now.Add(-6 * day),
		},
		{
			ID:            "4",
			GraveID:       "4",
			PlotID:        "2",
			Title:         "Winter Weather Inspection",
			Description:   "Check for weather damage and debris",
			Category:      entities.TaskCategoryInspection,
			Status:        entities.TaskStatusOverdue,
			AssignedTo:    cloneID(staff),
			AssignedBy:    cloneID(admin),
			ScheduledDate: today.AddDays(-3),
			Deadline:      today.AddDays(-1),
			IsPublic:      false,
			CreatedAt:     now.Add(-7 * day),
			UpdatedAt:     now.Add(-1 * day),
		},
	}
}

func cloneID(id string) *string {
	return &id
}
