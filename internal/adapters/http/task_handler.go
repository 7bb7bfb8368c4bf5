package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

// TaskHandler handles maintenance task requests
type TaskHandler struct {
	taskService  ports.MaintenanceService
	upcomingDays int
	logger       *logger.Logger
}

// NewTaskHandler creates a new task handler. upcomingDays is the default
// look-ahead of the upcoming and alerts endpoints.
func NewTaskHandler(taskService ports.MaintenanceService, upcomingDays int, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		upcomingDays: upcomingDays,
		logger:       logger.WithComponent("task_handler"),
	}
}

// ListTasks handles listing tasks visible to the caller
func (h *TaskHandler) ListTasks(c echo.Context) error {
	viewer := viewerFromContext(c)
	filter := ports.TaskFilter{
		Status:     entities.TaskStatus(c.QueryParam("status")),
		Category:   entities.TaskCategory(c.QueryParam("category")),
		AssignedTo: c.QueryParam("assignedTo"),
		GraveID:    c.QueryParam("graveId"),
		PlotID:     c.QueryParam("plotId"),
		Search:     c.QueryParam("search"),
		Viewer:     &viewer,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidStatus.Error())
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidCategory.Error())
	}

	return c.JSON(http.StatusOK, h.taskService.ListTasks(filter))
}

// GetTask handles getting a task by ID. Tasks hidden from the caller answer 404.
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Param("id"))
	if err != nil {
		return mapError(h.logger, err)
	}

	viewer := viewerFromContext(c)
	if !task.IsVisibleTo(viewer.UserID, viewer.Role) {
		return echo.NewHTTPError(http.StatusNotFound, entities.ErrTaskNotFound.Error())
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetUpcoming(c echo.Context) error {
	days, err := intQuery(c, "days", h.upcomingDays)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, visibleTasks(c, h.taskService.UpcomingTasks(days)))
}

func (h *TaskHandler) GetOverdue(c echo.Context) error {
	return c.JSON(http.StatusOK, visibleTasks(c, h.taskService.OverdueTasks()))
}

func (h *TaskHandler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.taskService.Stats())
}

// GetAlerts returns the dashboard banners for the caller
func (h *TaskHandler) GetAlerts(c echo.Context) error {
	days, err := intQuery(c, "days", h.upcomingDays)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.taskService.Alerts(viewerFromContext(c), days))
}

func (h *TaskHandler) GetGraveTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, visibleTasks(c, h.taskService.TasksByGrave(c.Param("id"))))
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ActorID = viewerFromContext(c).UserID

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}

	h.logger.LogUserAction(req.ActorID, "create_task", map[string]interface{}{"task_id": task.ID})
	return c.JSON(http.StatusCreated, task)
}

// UpdateTask handles replacing the editable fields of a task
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = c.Param("id")

	task, err := h.taskService.UpdateTask(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

func (h *TaskHandler) StartTask(c echo.Context) error {
	task, err := h.taskService.StartTask(c.Request().Context(), ports.StartTaskRequest{
		ID:      c.Param("id"),
		ActorID: viewerFromContext(c).UserID,
	})
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, task)
}

// CompleteTask closes a task with optional notes
func (h *TaskHandler) CompleteTask(c echo.Context) error {
	var req ports.CompleteTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = c.Param("id")
	req.ActorID = viewerFromContext(c).UserID

	task, err := h.taskService.CompleteTask(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}

	h.logger.LogUserAction(req.ActorID, "complete_task", map[string]interface{}{"task_id": task.ID})
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTaskStatus(c echo.Context) error {
	var req ports.UpdateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = c.Param("id")

	task, err := h.taskService.UpdateTaskStatus(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, task)
}

// SweepOverdue runs one overdue sweep on demand
func (h *TaskHandler) SweepOverdue(c echo.Context) error {
	result, err := h.taskService.SweepOverdue(c.Request().Context())
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, result)
}

func visibleTasks(c echo.Context, tasks []*entities.MaintenanceTask) []*entities.MaintenanceTask {
	viewer := viewerFromContext(c)
	out := make([]*entities.MaintenanceTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsVisibleTo(viewer.UserID, viewer.Role) {
			out = append(out, t)
		}
	}
	return out
}
