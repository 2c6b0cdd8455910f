package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/staffboard/staffboard/internal/domain"
)

// employeeColumns must match the Scan order in scanEmployee.
const employeeColumns = `id, employee_no, name, email, password_hash, department_id, position_id, is_active, is_approved, is_admin, created_at, updated_at`

// EmployeeRepo implements domain.EmployeeRepository backed by PostgreSQL.
type EmployeeRepo struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepo(pool *pgxpool.Pool) *EmployeeRepo {
	return &EmployeeRepo{pool: pool}
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(
		&e.ID, &e.EmployeeNo, &e.Name, &e.Email, &e.PasswordHash,
		&e.DepartmentID, &e.PositionID, &e.IsActive, &e.IsApproved, &e.IsAdmin,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepo) Create(ctx context.Context, employeeNo, name, email, passwordHash string, departmentID, positionID *uuid.UUID) (*domain.Employee, error) {
	employee, err := scanEmployee(r.pool.QueryRow(ctx, `
		INSERT INTO employees (employee_no, name, email, password_hash, department_id, position_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+employeeColumns,
		employeeNo, name, email, passwordHash, departmentID, positionID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, domain.ErrDuplicateEmployee
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return employee, nil
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
}

func (r *EmployeeRepo) GetByEmployeeNo(ctx context.Context, employeeNo string) (*domain.Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE employee_no = $1`, employeeNo))
}

func (r *EmployeeRepo) Approve(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE employees SET is_approved = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to approve employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE employees SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

// ListRecipients returns the active, approved recipient set for a fan-out.
// Empty filter slices mean no filtering on that attribute.
func (r *EmployeeRepo) ListRecipients(ctx context.Context, departmentIDs, positionIDs []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM employees
		WHERE is_active AND is_approved
		  AND (cardinality($1::uuid[]) = 0 OR department_id = ANY($1::uuid[]))
		  AND (cardinality($2::uuid[]) = 0 OR position_id = ANY($2::uuid[]))`,
		departmentIDs, positionIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
