package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

// InventoryHandler handles plot and grave requests
type InventoryHandler struct {
	inventory ports.InventoryService
	logger    *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventory ports.InventoryService, logger *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger.WithComponent("inventory_handler"),
	}
}

func (h *InventoryHandler) ListPlots(c echo.Context) error {
	plots, err := h.inventory.ListPlots(c.Request().Context())
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, plots)
}

func (h *InventoryHandler) GetPlot(c echo.Context) error {
	plot, err := h.inventory.GetPlot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, plot)
}

func (h *InventoryHandler) CreatePlot(c echo.Context) error {
	var req ports.CreatePlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	plot, err := h.inventory.CreatePlot(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusCreated, plot)
}

func (h *InventoryHandler) ListGraves(c echo.Context) error {
	graves, err := h.inventory.ListGraves(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, graves)
}

// CreateGrave adds a grave to the plot named in the path
func (h *InventoryHandler) CreateGrave(c echo.Context) error {
	var req ports.CreateGraveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.PlotID = c.Param("id")

	grave, err := h.inventory.CreateGrave(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusCreated, grave)
}

func (h *InventoryHandler) GetGrave(c echo.Context) error {
	grave, err := h.inventory.GetGrave(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, grave)
}

func (h *InventoryHandler) UpdateGraveStatus(c echo.Context) error {
	var req ports.UpdateGraveStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = c.Param("id")

	grave, err := h.inventory.UpdateGraveStatus(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, grave)
}
