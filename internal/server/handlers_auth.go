package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
)

type registerRequest struct {
	EmployeeNo   string     `json:"employee_no"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	PositionID   *uuid.UUID `json:"position_id,omitempty"`
}

type loginRequest struct {
	EmployeeNo string `json:"employee_no"`
	Password   string `json:"password"`
}

type employeeResponse struct {
	ID           uuid.UUID  `json:"id"`
	EmployeeNo   string     `json:"employee_no"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	PositionID   *uuid.UUID `json:"position_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsApproved   bool       `json:"is_approved"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toEmployeeResponse(e *domain.Employee) employeeResponse {
	return employeeResponse{
		ID:           e.ID,
		EmployeeNo:   e.EmployeeNo,
		Name:         e.Name,
		Email:        e.Email,
		DepartmentID: e.DepartmentID,
		PositionID:   e.PositionID,
		IsActive:     e.IsActive,
		IsApproved:   e.IsApproved,
		IsAdmin:      e.IsAdmin,
		CreatedAt:    e.CreatedAt,
	}
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	employee, err := s.app.Register(c.Request().Context(), req.EmployeeNo, req.Name, req.Email, req.Password, req.DepartmentID, req.PositionID)
	if err != nil {
		return err
	}

	return c.JSON(201, toEmployeeResponse(employee))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	token, employee, err := s.app.Login(c.Request().Context(), req.EmployeeNo, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(200, map[string]any{
		"token":    token,
		"employee": toEmployeeResponse(employee),
	})
}

func (s *Server) handleMe(c echo.Context) error {
	id, err := employeeID(c)
	if err != nil {
		return err
	}

	employee, err := s.app.GetEmployee(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(200, toEmployeeResponse(employee))
}

func (s *Server) handleApproveEmployee(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.ApproveEmployee(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(200, map[string]string{"status": "approved"})
}

func (s *Server) handleDeactivateEmployee(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeactivateEmployee(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(200, map[string]string{"status": "deactivated"})
}
