package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/pkg/database"
)

// EmployeeRepository reads the employee roster
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `
	e.id, e.employee_code, e.first_name, e.last_name, e.department_id,
	d.name AS department_name, e.is_active
	FROM employees e
	LEFT JOIN departments d ON d.id = e.department_id`

// ListActive returns active employees ordered by employee code.
// A nil departmentID returns every department.
func (r *EmployeeRepository) ListActive(ctx context.Context, departmentID *string) ([]*domain.Employee, error) {
	var employees []*domain.Employee

	if departmentID == nil {
		query := `SELECT` + employeeColumns + `
			WHERE e.is_active = TRUE
			ORDER BY e.employee_code`
		if err := r.db.SelectContext(ctx, &employees, query); err != nil {
			return nil, fmt.Errorf("list active employees: %w", err)
		}
		return employees, nil
	}

	query := `SELECT` + employeeColumns + `
		WHERE e.is_active = TRUE AND e.department_id = $1
		ORDER BY e.employee_code`
	if err := r.db.SelectContext(ctx, &employees, query, *departmentID); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return employees, nil
}

// GetByID returns one employee regardless of active flag
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	var emp domain.Employee
	query := `SELECT` + employeeColumns + ` WHERE e.id = $1`

	err := r.db.GetContext(ctx, &emp, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &emp, nil
}
