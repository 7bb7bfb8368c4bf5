package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

// BurialRecordHandler handles burial record requests
type BurialRecordHandler struct {
	recordService ports.BurialRecordService
	logger        *logger.Logger
}

// NewBurialRecordHandler creates a new burial record handler
func NewBurialRecordHandler(recordService ports.BurialRecordService, logger *logger.Logger) *BurialRecordHandler {
	return &BurialRecordHandler{
		recordService: recordService,
		logger:        logger.WithComponent("burial_handler"),
	}
}

func (h *BurialRecordHandler) ListRecords(c echo.Context) error {
	filter := ports.BurialRecordFilter{
		Status:  entities.BurialRecordStatus(c.QueryParam("status")),
		PlotID:  c.QueryParam("plotId"),
		GraveID: c.QueryParam("graveId"),
		Search:  c.QueryParam("search"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidStatus.Error())
	}
	return c.JSON(http.StatusOK, h.recordService.ListRecords(filter))
}

func (h *BurialRecordHandler) GetRecord(c echo.Context) error {
	record, err := h.recordService.GetRecord(c.Param("id"))
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetGraveRecord returns the approved record occupying a grave
func (h *BurialRecordHandler) GetGraveRecord(c echo.Context) error {
	record, err := h.recordService.RecordByGrave(c.Param("id"))
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, record)
}

// CheckDuplicate reports whether a record with the same identity exists.
// excludeId leaves the record being edited out of the comparison.
func (h *BurialRecordHandler) CheckDuplicate(c echo.Context) error {
	name := c.QueryParam("name")
	fatherName := c.QueryParam("fatherName")
	dateOfDeath := entities.Date(c.QueryParam("dateOfDeath"))
	if name == "" || fatherName == "" || dateOfDeath == "" {
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrMissingRequiredFields.Error())
	}
	if !dateOfDeath.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidDate.Error())
	}

	duplicate := h.recordService.CheckDuplicate(name, fatherName, dateOfDeath, c.QueryParam("excludeId"))
	return c.JSON(http.StatusOK, map[string]bool{"duplicate": duplicate})
}

func (h *BurialRecordHandler) CreateRecord(c echo.Context) error {
	var req ports.CreateBurialRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.recordService.CreateRecord(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}

	h.logger.LogUserAction(viewerFromContext(c).UserID, "create_burial_record", map[string]interface{}{"record_id": record.ID})
	return c.JSON(http.StatusCreated, record)
}

func (h *BurialRecordHandler) UpdateRecord(c echo.Context) error {
	var req ports.UpdateBurialRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = c.Param("id")

	record, err := h.recordService.UpdateRecord(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *BurialRecordHandler) DeleteRecord(c echo.Context) error {
	if err := h.recordService.DeleteRecord(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(h.logger, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Burial record deleted successfully"})
}

func (h *BurialRecordHandler) ApproveRecord(c echo.Context) error {
	actorID := viewerFromContext(c).UserID
	record, err := h.recordService.ApproveRecord(c.Request().Context(), ports.ApproveBurialRecordRequest{
		ID:      c.Param("id"),
		ActorID: actorID,
	})
	if err != nil {
		return mapError(h.logger, err)
	}

	h.logger.LogUserAction(actorID, "approve_burial_record", map[string]interface{}{"record_id": record.ID})
	return c.JSON(http.StatusOK, record)
}

func (h *BurialRecordHandler) RejectRecord(c echo.Context) error {
	var req ports.RejectBurialRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = c.Param("id")

	record, err := h.recordService.RejectRecord(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}

	h.logger.LogUserAction(viewerFromContext(c).UserID, "reject_burial_record", map[string]interface{}{"record_id": record.ID})
	return c.JSON(http.StatusOK, record)
}
