package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gravekeeper/core/internal/application/services"
	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

// Context keys set by the auth middleware
const (
	ContextKeyUserID    = "user"
	ContextKeyUserRole  = "user_role"
	ContextKeyUserEmail = "user_email"
)

// MessageResponse is the body of responses that carry no entity
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService ports.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.WithComponent("auth_handler"),
	}
}

// Login handles user login
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Login failed", "error", err, "email", req.Email, "ip", c.RealIP())
		if errors.Is(err, entities.ErrInvalidCredentials) || errors.Is(err, entities.ErrUserInactive) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return mapError(h.logger, err)
	}

	return c.JSON(http.StatusOK, response)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c echo.Context) error {
	viewer := viewerFromContext(c)

	user, err := h.authService.GetUser(c.Request().Context(), viewer.UserID)
	if err != nil {
		return mapError(h.logger, err)
	}

	return c.JSON(http.StatusOK, user)
}

// CreateUser registers a staff, visitor or admin account
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req ports.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.authService.CreateUser(c.Request().Context(), req)
	if err != nil {
		return mapError(h.logger, err)
	}

	h.logger.LogUserAction(viewerFromContext(c).UserID, "create_user", map[string]interface{}{
		"created_user_id": user.ID,
		"role":            user.Role,
	})
	return c.JSON(http.StatusCreated, user)
}

// viewerFromContext reads the identity placed on the context by the auth middleware.
// Unauthenticated requests are treated as visitors.
func viewerFromContext(c echo.Context) entities.Viewer {
	userID, _ := c.Get(ContextKeyUserID).(string)
	role, ok := c.Get(ContextKeyUserRole).(entities.UserRole)
	if !ok {
		role = entities.UserRoleVisitor
	}
	return entities.Viewer{UserID: userID, Role: role}
}

// mapError converts a service error into an echo HTTP error
func mapError(log *logger.Logger, err error) error {
	switch {
	case services.IsValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrRecordNotFound),
		errors.Is(err, entities.ErrPlotNotFound),
		errors.Is(err, entities.ErrGraveNotFound),
		errors.Is(err, entities.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrDuplicateBurialRecord),
		errors.Is(err, entities.ErrUserExists),
		errors.Is(err, entities.ErrRecordAlreadyDecided),
		errors.Is(err, entities.ErrTaskAlreadyCompleted),
		errors.Is(err, entities.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, entities.ErrUserInactive):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}

	log.Errorw("Unhandled service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

// intQuery parses an optional integer query parameter
func intQuery(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return value, nil
}
