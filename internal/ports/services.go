package ports

import (
	"context"
	"time"

	"github.com/gravekeeper/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*entities.User, error)
	GetUser(ctx context.Context, id string) (*entities.User, error)
}

// MaintenanceService owns the maintenance task collection.
// Read methods are pure and never mutate the collection.
type MaintenanceService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*entities.MaintenanceTask, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*entities.MaintenanceTask, error)
	DeleteTask(ctx context.Context, id string) error
	StartTask(ctx context.Context, req StartTaskRequest) (*entities.MaintenanceTask, error)
	CompleteTask(ctx context.Context, req CompleteTaskRequest) (*entities.MaintenanceTask, error)
	UpdateTaskStatus(ctx context.Context, req UpdateTaskStatusRequest) (*entities.MaintenanceTask, error)
	SweepOverdue(ctx context.Context) (*SweepResult, error)

	GetTask(id string) (*entities.MaintenanceTask, error)
	ListTasks(filter TaskFilter) []*entities.MaintenanceTask
	TasksByStatus(status entities.TaskStatus) []*entities.MaintenanceTask
	TasksByUser(userID string) []*entities.MaintenanceTask
	TasksByGrave(graveID string) []*entities.MaintenanceTask
	UpcomingTasks(days int) []*entities.MaintenanceTask
	OverdueTasks() []*entities.MaintenanceTask
	Stats() TaskStats
	Alerts(viewer entities.Viewer, days int) *TaskAlerts
}

// BurialRecordService owns the burial record collection
type BurialRecordService interface {
	CreateRecord(ctx context.Context, req CreateBurialRecordRequest) (*entities.BurialRecord, error)
	UpdateRecord(ctx context.Context, req UpdateBurialRecordRequest) (*entities.BurialRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	ApproveRecord(ctx context.Context, req ApproveBurialRecordRequest) (*entities.BurialRecord, error)
	RejectRecord(ctx context.Context, req RejectBurialRecordRequest) (*entities.BurialRecord, error)

	GetRecord(id string) (*entities.BurialRecord, error)
	ListRecords(filter BurialRecordFilter) []*entities.BurialRecord
	CheckDuplicate(name, fatherName string, dateOfDeath entities.Date, excludeID string) bool
	RecordByGrave(graveID string) (*entities.BurialRecord, error)
}

// InventoryService manages plots and graves
type InventoryService interface {
	CreatePlot(ctx context.Context, req CreatePlotRequest) (*entities.Plot, error)
	GetPlot(ctx context.Context, id string) (*entities.Plot, error)
	ListPlots(ctx context.Context) ([]*entities.Plot, error)
	CreateGrave(ctx context.Context, req CreateGraveRequest) (*entities.Grave, error)
	GetGrave(ctx context.Context, id string) (*entities.Grave, error)
	ListGraves(ctx context.Context, plotID string) ([]*entities.Grave, error)
	UpdateGraveStatus(ctx context.Context, req UpdateGraveStatusRequest) (*entities.Grave, error)
}

// Request/Response Types

// Auth related types
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresIn   int64          `json:"expiresIn"`
	User        *entities.User `json:"user"`
}

type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
}

type CreateUserRequest struct {
	Email    string            `json:"email" validate:"required,email"`
	Name     string            `json:"name" validate:"required,max=100"`
	Password string            `json:"password" validate:"required,min=8"`
	Role     entities.UserRole `json:"role" validate:"required,oneof=admin staff visitor"`
}

// Task related types
type CreateTaskRequest struct {
	PlotID        string                `json:"plotId" validate:"required"`
	GraveID       string                `json:"graveId" validate:"required"`
	Title         string                `json:"title" validate:"required,max=200"`
	Description   string                `json:"description" validate:"required"`
	Category      entities.TaskCategory `json:"category" validate:"required,oneof=cleaning landscaping repair inspection other"`
	AssignedTo    *string               `json:"assignedTo" validate:"omitempty"`
	ScheduledDate entities.Date         `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	Deadline      entities.Date         `json:"deadline" validate:"required,datetime=2006-01-02"`
	IsPublic      bool                  `json:"isPublic"`
	ActorID       string                `json:"-"`
}

// UpdateTaskRequest replaces every editable field of a task.
type UpdateTaskRequest struct {
	ID            string                `json:"-" validate:"required"`
	PlotID        string                `json:"plotId" validate:"required"`
	GraveID       string                `json:"graveId" validate:"required"`
	Title         string                `json:"title" validate:"required,max=200"`
	Description   string                `json:"description" validate:"required"`
	Category      entities.TaskCategory `json:"category" validate:"required,oneof=cleaning landscaping repair inspection other"`
	AssignedTo    *string               `json:"assignedTo" validate:"omitempty"`
	ScheduledDate entities.Date         `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	Deadline      entities.Date         `json:"deadline" validate:"required,datetime=2006-01-02"`
	IsPublic      bool                  `json:"isPublic"`
}

type StartTaskRequest struct {
	ID      string `json:"-" validate:"required"`
	ActorID string `json:"-"`
}

type CompleteTaskRequest struct {
	ID      string `json:"-" validate:"required"`
	ActorID string `json:"-" validate:"required"`
	Notes   string `json:"notes" validate:"max=2000"`
}

type UpdateTaskStatusRequest struct {
	ID     string              `json:"-" validate:"required"`
	Status entities.TaskStatus `json:"status" validate:"required,oneof=scheduled in_progress completed overdue"`
}

// TaskFilter narrows ListTasks. Zero values disable a criterion.
type TaskFilter struct {
	Status     entities.TaskStatus
	Category   entities.TaskCategory
	AssignedTo string
	GraveID    string
	PlotID     string
	Search     string
	Viewer     *entities.Viewer
}

type TaskStats struct {
	Total      int `json:"total"`
	Scheduled  int `json:"scheduled"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// TaskAlerts groups the banners shown on the maintenance dashboard.
type TaskAlerts struct {
	Overdue  []*entities.MaintenanceTask `json:"overdue"`
	Upcoming []*entities.MaintenanceTask `json:"upcoming"`
	Assigned []*entities.MaintenanceTask `json:"assigned"`
}

type SweepResult struct {
	Checked       int       `json:"checked"`
	MarkedOverdue []string  `json:"markedOverdue"`
	SweptAt       time.Time `json:"sweptAt"`
}

// Burial record related types
type CreateBurialRecordRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	FatherName  string          `json:"fatherName" validate:"required,max=200"`
	DateOfDeath entities.Date   `json:"dateOfDeath" validate:"required,datetime=2006-01-02"`
	Gender      entities.Gender `json:"gender" validate:"required,oneof=male female"`
	Age         *int            `json:"age" validate:"required,min=0,max=150"`
	Religion    string          `json:"religion" validate:"required,max=100"`
	PlotID      string          `json:"plotId" validate:"required"`
	GraveID     string          `json:"graveId" validate:"required"`
	PhoneNumber *string         `json:"phoneNumber" validate:"omitempty,max=32"`
	Address     *string         `json:"address" validate:"omitempty,max=500"`
}

// UpdateBurialRecordRequest replaces every editable field of a record.
type UpdateBurialRecordRequest struct {
	ID          string          `json:"-" validate:"required"`
	Name        string          `json:"name" validate:"required,max=200"`
	FatherName  string          `json:"fatherName" validate:"required,max=200"`
	DateOfDeath entities.Date   `json:"dateOfDeath" validate:"required,datetime=2006-01-02"`
	Gender      entities.Gender `json:"gender" validate:"required,oneof=male female"`
	Age         *int            `json:"age" validate:"required,min=0,max=150"`
	Religion    string          `json:"religion" validate:"required,max=100"`
	PlotID      string          `json:"plotId" validate:"required"`
	GraveID     string          `json:"graveId" validate:"required"`
	PhoneNumber *string         `json:"phoneNumber" validate:"omitempty,max=32"`
	Address     *string         `json:"address" validate:"omitempty,max=500"`
}

type ApproveBurialRecordRequest struct {
	ID      string `json:"-" validate:"required"`
	ActorID string `json:"-" validate:"required"`
}

type RejectBurialRecordRequest struct {
	ID     string `json:"-" validate:"required"`
	Reason string `json:"reason" validate:"max=2000"`
}

type BurialRecordFilter struct {
	Status  entities.BurialRecordStatus
	PlotID  string
	GraveID string
	Search  string
}

// Inventory related types
type CreatePlotRequest struct {
	PlotNumber  string  `json:"plotNumber" validate:"required,max=50"`
	Section     string  `json:"section" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type CreateGraveRequest struct {
	PlotID      string               `json:"-" validate:"required"`
	GraveNumber string               `json:"graveNumber" validate:"required,max=50"`
	Status      entities.GraveStatus `json:"status" validate:"omitempty,oneof=available reserved unavailable"`
}

type UpdateGraveStatusRequest struct {
	ID         string               `json:"-" validate:"required"`
	Status     entities.GraveStatus `json:"status" validate:"required,oneof=available reserved unavailable"`
	ReservedBy *string              `json:"reservedBy" validate:"omitempty,max=200"`
}
