package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	httpHandlers "github.com/gravekeeper/core/internal/adapters/http"
	"github.com/gravekeeper/core/internal/adapters/repository"
	"github.com/gravekeeper/core/internal/application/services"
	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/config"
	"github.com/gravekeeper/core/internal/infrastructure/database"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/infrastructure/metrics"
	"github.com/gravekeeper/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo        *echo.Echo
	config      *config.Config
	logger      *logger.Logger
	db          *database.DB
	store       ports.KeyValueStore
	metrics     *metrics.Metrics
	maintenance *services.MaintenanceService
	sweeper     *services.OverdueSweeper
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NewMaintenance builds the maintenance service from configuration and loads its snapshot
func NewMaintenance(ctx context.Context, cfg *config.Config, store ports.KeyValueStore, inventory ports.GraveInventory, m *metrics.Metrics, appLogger *logger.Logger) (*services.MaintenanceService, error) {
	loc, err := cfg.Maintenance.Location()
	if err != nil {
		return nil, err
	}

	opts := []services.MaintenanceOption{
		services.WithLocation(loc),
		services.WithMetrics(m),
		services.WithSampleData(cfg.Maintenance.SeedSampleData),
	}
	if inventory != nil {
		opts = append(opts, services.WithInventory(inventory))
	}

	snapshots := repository.NewTaskSnapshotRepository(store, cfg.Store.TaskKey)
	svc := services.NewMaintenanceService(snapshots, appLogger, opts...)
	svc.Load(ctx)
	return svc, nil
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, store ports.KeyValueStore, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	appMetrics := metrics.New()

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	plotRepo := repository.NewPlotRepository(db.DB)
	graveRepo := repository.NewGraveRepository(db.DB)

	// Services
	authService := services.NewAuthService(userRepo, cfg.JWT, appLogger)
	inventoryService := services.NewInventoryService(plotRepo, graveRepo, appLogger)
	burialService := services.NewBurialRecordService(
		entities.DecisionPolicy(cfg.Burial.DecisionPolicy), inventoryService, appMetrics, appLogger)

	maintenanceService, err := NewMaintenance(context.Background(), cfg, store, inventoryService, appMetrics, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize maintenance service: %w", err)
	}

	server := &Server{
		echo:        e,
		config:      cfg,
		logger:      appLogger,
		db:          db,
		store:       store,
		metrics:     appMetrics,
		maintenance: maintenanceService,
		sweeper:     services.NewOverdueSweeper(maintenanceService, cfg.Maintenance.SweepInterval, appLogger),
	}

	server.setupMiddleware()

	server.setupRoutes(
		authService,
		httpHandlers.NewAuthHandler(authService, appLogger),
		httpHandlers.NewTaskHandler(maintenanceService, cfg.Maintenance.UpcomingDays, appLogger),
		httpHandlers.NewBurialRecordHandler(burialService, appLogger),
		httpHandlers.NewInventoryHandler(inventoryService, appLogger),
	)

	if cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(appMetrics.Handler()))
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
				"request_id", values.RequestID,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}
			return nil
		},
	}))

	if s.config.Metrics.Enabled {
		s.echo.Use(s.metricsMiddleware())
	}

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	if s.config.Security.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / s.config.Security.RateLimitWindow.Seconds()),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			}),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, httpHandlers.MessageResponse{Message: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, httpHandlers.MessageResponse{Message: "rate limit exceeded"})
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	authService ports.AuthService,
	authHandler *httpHandlers.AuthHandler,
	taskHandler *httpHandlers.TaskHandler,
	burialHandler *httpHandlers.BurialRecordHandler,
	inventoryHandler *httpHandlers.InventoryHandler,
) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	v1 := s.echo.Group("/api/v1")
	auth := s.authMiddleware(authService)
	admin := s.requireRole(entities.UserRoleAdmin)
	staff := s.requireRole(entities.UserRoleAdmin, entities.UserRoleStaff)

	// Auth routes
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me, auth)

	v1.POST("/users", authHandler.CreateUser, auth, admin)

	// Maintenance task routes
	taskGroup := v1.Group("/tasks", auth)
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask, admin)
	taskGroup.GET("/upcoming", taskHandler.GetUpcoming)
	taskGroup.GET("/overdue", taskHandler.GetOverdue)
	taskGroup.GET("/stats", taskHandler.GetStats)
	taskGroup.GET("/alerts", taskHandler.GetAlerts)
	taskGroup.POST("/sweep", taskHandler.SweepOverdue, admin)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask, admin)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask, admin)
	taskGroup.POST("/:id/start", taskHandler.StartTask, staff)
	taskGroup.POST("/:id/complete", taskHandler.CompleteTask, staff)
	taskGroup.PUT("/:id/status", taskHandler.UpdateTaskStatus, staff)

	// Burial record routes
	recordGroup := v1.Group("/burial-records", auth, staff)
	recordGroup.GET("", burialHandler.ListRecords)
	recordGroup.POST("", burialHandler.CreateRecord)
	recordGroup.GET("/duplicate", burialHandler.CheckDuplicate)
	recordGroup.GET("/:id", burialHandler.GetRecord)
	recordGroup.PUT("/:id", burialHandler.UpdateRecord)
	recordGroup.DELETE("/:id", burialHandler.DeleteRecord)
	recordGroup.POST("/:id/approve", burialHandler.ApproveRecord, admin)
	recordGroup.POST("/:id/reject", burialHandler.RejectRecord, admin)

	// Inventory routes
	plotGroup := v1.Group("/plots", auth)
	plotGroup.GET("", inventoryHandler.ListPlots)
	plotGroup.POST("", inventoryHandler.CreatePlot, admin)
	plotGroup.GET("/:id", inventoryHandler.GetPlot)
	plotGroup.GET("/:id/graves", inventoryHandler.ListGraves)
	plotGroup.POST("/:id/graves", inventoryHandler.CreateGrave, admin)

	graveGroup := v1.Group("/graves", auth)
	graveGroup.GET("/:id", inventoryHandler.GetGrave)
	graveGroup.PUT("/:id/status", inventoryHandler.UpdateGraveStatus, admin)
	graveGroup.GET("/:id/tasks", taskHandler.GetGraveTasks)
	graveGroup.GET("/:id/burial-record", burialHandler.GetGraveRecord, staff)
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(ctx); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	if err := s.store.Ping(ctx); err != nil {
		status = "error"
		checks["store"] = map[string]interface{}{
			"status": "error",
			"driver": s.config.Store.Driver,
			"error":  err.Error(),
		}
	} else {
		checks["store"] = map[string]interface{}{
			"status": "ok",
			"driver": s.config.Store.Driver,
		}
	}

	checks["maintenance"] = map[string]interface{}{
		"status": "ok",
		"tasks":  s.maintenance.Stats(),
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.db.HealthCheck(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}
	if err := s.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "store_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the overdue sweeper and then the HTTP server. It blocks until
// the server stops; http.ErrServerClosed is not reported as an error.
func (s *Server) Start() error {
	s.sweeper.Start(context.Background())

	address := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Infow("Starting server", "address", address)

	httpServer := &http.Server{
		Addr:         address,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	if err := s.echo.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the sweeper and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	s.sweeper.Stop()
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = httpHandlers.MessageResponse{Message: fmt.Sprint(he.Message)}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": services.TranslateValidationError(ve).Error()}
		case services.IsValidationError(err):
			code = http.StatusBadRequest
			msg = httpHandlers.MessageResponse{Message: err.Error()}
		default:
			msg = httpHandlers.MessageResponse{Message: http.StatusText(code)}
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
