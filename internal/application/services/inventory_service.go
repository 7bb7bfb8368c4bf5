package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

// InventoryService manages plots and graves. It also serves as the
// ports.GraveInventory that task and burial record services check against.
type InventoryService struct {
	plotRepo  ports.PlotRepository
	graveRepo ports.GraveRepository
	logger    *logger.Logger
	clock     func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(plotRepo ports.PlotRepository, graveRepo ports.GraveRepository, logger *logger.Logger) *InventoryService {
	return &InventoryService{
		plotRepo:  plotRepo,
		graveRepo: graveRepo,
		logger:    logger.WithComponent("inventory"),
		clock:     time.Now,
	}
}

func (s *InventoryService) CreatePlot(ctx context.Context, req ports.CreatePlotRequest) (*entities.Plot, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	plot := &entities.Plot{
		ID:          uuid.NewString(),
		PlotNumber:  strings.TrimSpace(req.PlotNumber),
		Section:     strings.TrimSpace(req.Section),
		Description: optionalString(req.Description),
		CreatedAt:   s.clock().UTC(),
	}

	if err := s.plotRepo.Create(ctx, plot); err != nil {
		return nil, fmt.Errorf("failed to create plot: %w", err)
	}

	s.logger.Infow("Plot created", "plot_id", plot.ID, "plot_number", plot.PlotNumber)
	return plot, nil
}

func (s *InventoryService) GetPlot(ctx context.Context, id string) (*entities.Plot, error) {
	plot, err := s.plotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get plot %s: %w", id, err)
	}
	return plot, nil
}

func (s *InventoryService) ListPlots(ctx context.Context) ([]*entities.Plot, error) {
	plots, err := s.plotRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return plots, nil
}

// CreateGrave adds a grave to an existing plot. Status defaults to available.
func (s *InventoryService) CreateGrave(ctx context.Context, req ports.CreateGraveRequest) (*entities.Grave, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.plotRepo.GetByID(ctx, req.PlotID); err != nil {
		return nil, fmt.Errorf("create grave in plot %s: %w", req.PlotID, err)
	}

	status := req.Status
	if status == "" {
		status = entities.GraveStatusAvailable
	}

	now := s.clock().UTC()
	grave := &entities.Grave{
		ID:          uuid.NewString(),
		PlotID:      req.PlotID,
		GraveNumber: strings.TrimSpace(req.GraveNumber),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.graveRepo.Create(ctx, grave); err != nil {
		return nil, fmt.Errorf("failed to create grave: %w", err)
	}

	s.logger.Infow("Grave created", "grave_id", grave.ID, "plot_id", grave.PlotID)
	return grave, nil
}

func (s *InventoryService) GetGrave(ctx context.Context, id string) (*entities.Grave, error) {
	grave, err := s.graveRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get grave %s: %w", id, err)
	}
	return grave, nil
}

func (s *InventoryService) ListGraves(ctx context.Context, plotID string) ([]*entities.Grave, error) {
	if _, err := s.plotRepo.GetByID(ctx, plotID); err != nil {
		return nil, fmt.Errorf("list graves of plot %s: %w", plotID, err)
	}
	graves, err := s.graveRepo.ListByPlot(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("list graves of plot %s: %w", plotID, err)
	}
	return graves, nil
}

// UpdateGraveStatus changes a grave's status. ReservedBy is kept only for reserved graves.
func (s *InventoryService) UpdateGraveStatus(ctx context.Context, req ports.UpdateGraveStatusRequest) (*entities.Grave, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var reservedBy *string
	if req.Status == entities.GraveStatusReserved {
		reservedBy = optionalString(req.ReservedBy)
	}

	if err := s.graveRepo.UpdateStatus(ctx, req.ID, req.Status, reservedBy); err != nil {
		return nil, fmt.Errorf("update grave %s: %w", req.ID, err)
	}

	s.logger.Infow("Grave status updated", "grave_id", req.ID, "status", req.Status)
	return s.GetGrave(ctx, req.ID)
}
