package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/gravekeeper/core/internal/adapters/http"
	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/ports"
)

// authMiddleware validates JWT tokens
func (s *Server) authMiddleware(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(httpHandlers.ContextKeyUserID, claims.UserID)
			c.Set(httpHandlers.ContextKeyUserRole, claims.Role)
			c.Set(httpHandlers.ContextKeyUserEmail, claims.Email)

			return next(c)
		}
	}
}

// requireRole checks if user has required role
func (s *Server) requireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole, ok := c.Get(httpHandlers.ContextKeyUserRole).(entities.UserRole)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Role information not found")
			}

			for _, requiredRole := range roles {
				if userRole == requiredRole {
					return next(c)
				}
			}

			userID, _ := c.Get(httpHandlers.ContextKeyUserID).(string)
			s.logger.LogSecurityEvent("insufficient_permissions",
				userID,
				c.RealIP(),
				map[string]interface{}{
					"required_roles": roles,
					"user_role":      userRole,
					"endpoint":       c.Request().URL.Path,
				})

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// metricsMiddleware records request counts and latencies by route
func (s *Server) metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			s.metrics.ObserveHTTP(c.Request().Method, c.Path(), status, time.Since(start))
			return err
		}
	}
}
