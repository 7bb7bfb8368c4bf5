package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gravekeeper/core/internal/domain/entities"
)

// PlotRepositoryImpl implements ports.PlotRepository
type PlotRepositoryImpl struct {
	db *sqlx.DB
}

func NewPlotRepository(db *sqlx.DB) *PlotRepositoryImpl {
	return &PlotRepositoryImpl{db: db}
}

func (r *PlotRepositoryImpl) Create(ctx context.Context, plot *entities.Plot) error {
	query := r.db.Rebind(`
		INSERT INTO plots (id, plot_number, section, description, created_at)
		VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, plot.ID, plot.PlotNumber, plot.Section, plot.Description, plot.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: plot number %s is taken", entities.ErrValidation, plot.PlotNumber)
		}
		return fmt.Errorf("create plot: %w", err)
	}
	return nil
}

func (r *PlotRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Plot, error) {
	query := r.db.Rebind(`SELECT id, plot_number, section, description, created_at FROM plots WHERE id = ?`)

	var plot entities.Plot
	if err := r.db.GetContext(ctx, &plot, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrPlotNotFound
		}
		return nil, fmt.Errorf("get plot: %w", err)
	}
	return &plot, nil
}

func (r *PlotRepositoryImpl) List(ctx context.Context) ([]*entities.Plot, error) {
	plots := []*entities.Plot{}
	err := r.db.SelectContext(ctx, &plots,
		`SELECT id, plot_number, section, description, created_at FROM plots ORDER BY section, plot_number`)
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return plots, nil
}

// GraveRepositoryImpl implements ports.GraveRepository
type GraveRepositoryImpl struct {
	db    *sqlx.DB
	clock func() time.Time
}

func NewGraveRepository(db *sqlx.DB) *GraveRepositoryImpl {
	return &GraveRepositoryImpl{db: db, clock: time.Now}
}

const graveColumns = `id, plot_id, grave_number, status, reserved_by, created_at, updated_at`

func (r *GraveRepositoryImpl) Create(ctx context.Context, grave *entities.Grave) error {
	query := r.db.Rebind(`INSERT INTO graves (` + graveColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		grave.ID, grave.PlotID, grave.GraveNumber, grave.Status, grave.ReservedBy, grave.CreatedAt, grave.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return entities.ErrPlotNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: grave number %s already exists in plot", entities.ErrValidation, grave.GraveNumber)
	default:
		return fmt.Errorf("create grave: %w", err)
	}
}

func (r *GraveRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Grave, error) {
	query := r.db.Rebind(`SELECT ` + graveColumns + ` FROM graves WHERE id = ?`)

	var grave entities.Grave
	if err := r.db.GetContext(ctx, &grave, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrGraveNotFound
		}
		return nil, fmt.Errorf("get grave: %w", err)
	}
	return &grave, nil
}

func (r *GraveRepositoryImpl) ListByPlot(ctx context.Context, plotID string) ([]*entities.Grave, error) {
	query := r.db.Rebind(`SELECT ` + graveColumns + ` FROM graves WHERE plot_id = ? ORDER BY grave_number`)

	graves := []*entities.Grave{}
	if err := r.db.SelectContext(ctx, &graves, query, plotID); err != nil {
		return nil, fmt.Errorf("list graves: %w", err)
	}
	return graves, nil
}

func (r *GraveRepositoryImpl) UpdateStatus(ctx context.Context, id string, status entities.GraveStatus, reservedBy *string) error {
	query := r.db.Rebind(`UPDATE graves SET status = ?, reserved_by = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, status, reservedBy, r.clock().UTC(), id)
	if err != nil {
		return fmt.Errorf("update grave status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrGraveNotFound
	}
	return nil
}
