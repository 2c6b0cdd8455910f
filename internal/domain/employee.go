package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID           uuid.UUID  `db:"id"`
	EmployeeNo   string     `db:"employee_no"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	DepartmentID *uuid.UUID `db:"department_id"`
	PositionID   *uuid.UUID `db:"position_id"`
	IsActive     bool       `db:"is_active"`
	IsApproved   bool       `db:"is_approved"`
	IsAdmin      bool       `db:"is_admin"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// EmployeeRepository abstracts employee persistence and directory lookups.
type EmployeeRepository interface {
	Create(ctx context.Context, employeeNo, name, email, passwordHash string, departmentID, positionID *uuid.UUID) (*Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetByEmployeeNo(ctx context.Context, employeeNo string) (*Employee, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	// ListRecipients returns the IDs of active, approved employees,
	// optionally filtered by department or position. Empty filters mean
	// all employees.
	ListRecipients(ctx context.Context, departmentIDs, positionIDs []uuid.UUID) ([]uuid.UUID, error)
}
