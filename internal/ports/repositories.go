package ports

import (
	"context"
	"errors"

	"github.com/gravekeeper/core/internal/domain/entities"
)

// Persistence errors
var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrSnapshotNotFound  = errors.New("task snapshot not found")
	ErrUnsupportedSchema = errors.New("unsupported snapshot schema version")
	ErrCorruptSnapshot   = errors.New("corrupt task snapshot")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
}

// PlotRepository defines the interface for plot data operations
type PlotRepository interface {
	Create(ctx context.Context, plot *entities.Plot) error
	GetByID(ctx context.Context, id string) (*entities.Plot, error)
	List(ctx context.Context) ([]*entities.Plot, error)
}

// GraveRepository defines the interface for grave data operations
type GraveRepository interface {
	Create(ctx context.Context, grave *entities.Grave) error
	GetByID(ctx context.Context, id string) (*entities.Grave, error)
	ListByPlot(ctx context.Context, plotID string) ([]*entities.Grave, error)
	UpdateStatus(ctx context.Context, id string, status entities.GraveStatus, reservedBy *string) error
}

// GraveInventory is the read-only view of plots and graves that task and
// burial record services check references against.
type GraveInventory interface {
	GetPlot(ctx context.Context, id string) (*entities.Plot, error)
	GetGrave(ctx context.Context, id string) (*entities.Grave, error)
}

// KeyValueStore is a byte-oriented key-value backend. Get returns
// ErrKeyNotFound when the key is absent.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// TaskSnapshotRepository mirrors the whole maintenance task collection.
type TaskSnapshotRepository interface {
	// Load returns ErrSnapshotNotFound when nothing has been saved yet.
	Load(ctx context.Context) ([]*entities.MaintenanceTask, error)
	Save(ctx context.Context, tasks []*entities.MaintenanceTask) error
}

// Filter types
type UserFilter struct {
	Role     *entities.UserRole
	IsActive *bool
	Limit    int
	Offset   int
}
