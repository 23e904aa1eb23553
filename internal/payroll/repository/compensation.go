package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/pkg/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// CompensationRepository persists salary components and assignments
type CompensationRepository struct {
	db *database.DB
}

// NewCompensationRepository creates a new compensation repository
func NewCompensationRepository(db *database.DB) *CompensationRepository {
	return &CompensationRepository{db: db}
}

const componentColumns = `id, name, kind, calculation_method, percentage, is_statutory, statutory_kind, created_at`

// ListComponents returns the component master ordered by kind then name
func (r *CompensationRepository) ListComponents(ctx context.Context) ([]*domain.SalaryComponent, error) {
	var components []*domain.SalaryComponent
	query := `SELECT ` + componentColumns + ` FROM salary_components ORDER BY kind DESC, name`
	if err := r.db.SelectContext(ctx, &components, query); err != nil {
		return nil, fmt.Errorf("list salary components: %w", err)
	}
	return components, nil
}

// GetComponentsByIDs returns the components with the given ids keyed by id
func (r *CompensationRepository) GetComponentsByIDs(ctx context.Context, ids []string) (map[string]*domain.SalaryComponent, error) {
	if len(ids) == 0 {
		return map[string]*domain.SalaryComponent{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+componentColumns+` FROM salary_components WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build component query: %w", err)
	}

	var components []*domain.SalaryComponent
	if err := r.db.SelectContext(ctx, &components, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get salary components: %w", err)
	}

	byID := make(map[string]*domain.SalaryComponent, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}
	return byID, nil
}

// CreateComponent inserts a new component
func (r *CompensationRepository) CreateComponent(ctx context.Context, c *domain.SalaryComponent) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
		INSERT INTO salary_components (id, name, kind, calculation_method, percentage, is_statutory, statutory_kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.Name, c.Kind, c.Method, c.Percentage, c.IsStatutory, c.StatutoryKind,
	).Scan(&c.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("create salary component: %w", err)
	}
	return nil
}

// DeleteComponent removes a component that no assignment references.
func (r *CompensationRepository) DeleteComponent(ctx context.Context, id string) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var inUse bool
		if err := tx.GetContext(ctx, &inUse,
			`SELECT EXISTS (SELECT 1 FROM salary_assignment_lines WHERE component_id = $1)`, id); err != nil {
			return fmt.Errorf("check component references: %w", err)
		}
		if inUse {
			return domain.ErrComponentInUse
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM salary_components WHERE id = $1`, id)
		if err != nil {
			if appErr := database.MapPQError(err); appErr != nil {
				return appErr
			}
			return fmt.Errorf("delete salary component: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return domain.ErrComponentNotFound
		}
		return nil
	})
}

type assignmentLineRow struct {
	domain.SalaryComponent
	Amount decimal.Decimal `db:"amount"`
}

// GetEffectiveAssignment returns the assignment with the latest effective_from
// on or before asOf, lines included. Returns domain.ErrNoActiveAssignment when none exists.
func (r *CompensationRepository) GetEffectiveAssignment(ctx context.Context, employeeID string, asOf time.Time) (*domain.SalaryAssignment, error) {
	var a domain.SalaryAssignment
	query := `
		SELECT id, employee_id, effective_from, gross_salary, total_deductions, net_salary, created_at, updated_at
		FROM salary_assignments
		WHERE employee_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &a, query, employeeID, asOf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoActiveAssignment
	}
	if err != nil {
		return nil, fmt.Errorf("get effective assignment: %w", err)
	}

	var rows []assignmentLineRow
	linesQuery := `
		SELECT c.id, c.name, c.kind, c.calculation_method, c.percentage, c.is_statutory,
		       c.statutory_kind, c.created_at, l.amount
		FROM salary_assignment_lines l
		JOIN salary_components c ON c.id = l.component_id
		WHERE l.assignment_id = $1
		ORDER BY l.position
	`
	if err := r.db.SelectContext(ctx, &rows, linesQuery, a.ID); err != nil {
		return nil, fmt.Errorf("get assignment lines: %w", err)
	}

	a.Lines = make([]domain.AssignmentLine, 0, len(rows))
	for _, row := range rows {
		a.Lines = append(a.Lines, domain.AssignmentLine{Component: row.SalaryComponent, Amount: row.Amount})
	}
	return &a, nil
}

// ReplaceAssignment writes the assignment for (employee, effective_from) and
// replaces its whole line set in one transaction.
func (r *CompensationRepository) ReplaceAssignment(ctx context.Context, a *domain.SalaryAssignment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		upsert := `
			INSERT INTO salary_assignments (id, employee_id, effective_from, gross_salary, total_deductions, net_salary)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (employee_id, effective_from) DO UPDATE SET
				gross_salary = EXCLUDED.gross_salary,
				total_deductions = EXCLUDED.total_deductions,
				net_salary = EXCLUDED.net_salary,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRowxContext(ctx, upsert,
			a.ID, a.EmployeeID, a.EffectiveFrom, a.GrossSalary, a.TotalDeductions, a.NetSalary,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			if appErr := database.MapPQError(err); appErr != nil {
				return appErr
			}
			return fmt.Errorf("upsert salary assignment: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM salary_assignment_lines WHERE assignment_id = $1`, a.ID); err != nil {
			return fmt.Errorf("clear assignment lines: %w", err)
		}

		for i, line := range a.Lines {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO salary_assignment_lines (assignment_id, component_id, amount, position) VALUES ($1, $2, $3, $4)`,
				a.ID, line.Component.ID, line.Amount, i,
			)
			if err != nil {
				if appErr := database.MapPQError(err); appErr != nil {
					return appErr
				}
				return fmt.Errorf("insert assignment line %d: %w", i, err)
			}
		}
		return nil
	})
}
