package entities

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrRecordNotFound          = errors.New("burial record not found")
	ErrPlotNotFound            = errors.New("plot not found")
	ErrGraveNotFound           = errors.New("grave not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidCategory         = errors.New("invalid category")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrTaskAlreadyCompleted    = errors.New("task is already completed")
	ErrDeadlineBeforeScheduled = errors.New("deadline cannot be before scheduled date")
	ErrInvalidDate             = errors.New("invalid date")
	ErrDuplicateBurialRecord   = errors.New("a burial record with the same name, father's name, and date of death already exists")
	ErrAgeOutOfRange           = errors.New("age must be between 0 and 150")
	ErrRecordAlreadyDecided    = errors.New("burial record has already been decided")
	ErrGraveNotInPlot          = errors.New("grave does not belong to plot")
	ErrMissingRequiredFields   = errors.New("please fill in all required fields")
	ErrValidation              = errors.New("validation failed")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUserInactive            = errors.New("user is inactive")
	ErrUserExists              = errors.New("user with this email already exists")
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleStaff   UserRole = "staff"
	UserRoleVisitor UserRole = "visitor"
)

type GraveStatus string

const (
	GraveStatusAvailable   GraveStatus = "available"
	GraveStatusReserved    GraveStatus = "reserved"
	GraveStatusUnavailable GraveStatus = "unavailable"
)

// User represents an account that can sign in to the administration API
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Plot is a subdivision of the burial ground containing one or more graves
type Plot struct {
	ID          string    `json:"id" db:"id"`
	PlotNumber  string    `json:"plotNumber" db:"plot_number"`
	Section     string    `json:"section" db:"section"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Grave is an individual burial site within a plot
type Grave struct {
	ID          string      `json:"id" db:"id"`
	PlotID      string      `json:"plotId" db:"plot_id"`
	GraveNumber string      `json:"graveNumber" db:"grave_number"`
	Status      GraveStatus `json:"status" db:"status"`
	ReservedBy  *string     `json:"reservedBy,omitempty" db:"reserved_by"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}

// Viewer identifies who is looking at a collection
type Viewer struct {
	UserID string
	Role   UserRole
}

// Business logic methods for User
func (u *User) CanModifyTasks() bool {
	return u.IsActive && u.Role == UserRoleAdmin
}

func (u *User) CanCompleteTasks() bool {
	return u.IsActive && (u.Role == UserRoleAdmin || u.Role == UserRoleStaff)
}

// Business logic methods for Grave
func (g *Grave) IsAvailable() bool {
	return g.Status == GraveStatusAvailable
}

// Utility methods
func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleAdmin, UserRoleStaff, UserRoleVisitor:
		return true
	default:
		return false
	}
}

func (gs GraveStatus) IsValid() bool {
	switch gs {
	case GraveStatusAvailable, GraveStatusReserved, GraveStatusUnavailable:
		return true
	default:
		return false
	}
}
