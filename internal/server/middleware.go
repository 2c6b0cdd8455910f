package server

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/staffboard/staffboard/internal/errors"
)

// Context keys set by requireAuth
const (
	ctxKeyEmployeeID = "employeeID"
	ctxKeyIsAdmin    = "isAdmin"
)

// requireAuth validates the bearer token and stores the employee identity
// in the request context. WebSocket clients cannot set headers from the
// browser, so a "token" query parameter is accepted as a fallback.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		claims, err := s.app.VerifyToken(token)
		if err != nil {
			return apperrors.UnauthorizedError("invalid or expired token")
		}

		c.Set(ctxKeyEmployeeID, claims.EmployeeID)
		c.Set(ctxKeyIsAdmin, claims.IsAdmin)
		return next(c)
	}
}

// requireAdmin must run after requireAuth.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		isAdmin, ok := c.Get(ctxKeyIsAdmin).(bool)
		if !ok || !isAdmin {
			return apperrors.ForbiddenError("admin access required")
		}
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, found := strings.CutPrefix(header, "Bearer "); found && after != "" {
		return after
	}
	return c.QueryParam("token")
}

func employeeID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(ctxKeyEmployeeID).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid employee ID in context", nil)
	}
	return id, nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid UUID format").WithField(name, raw)
	}
	return id, nil
}
