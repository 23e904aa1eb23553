package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/pkg/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RunRepository persists payroll runs and their per-employee details
type RunRepository struct {
	db  *database.DB
	now func() time.Time
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// RunFilter narrows ListRuns. Zero values mean "any".
type RunFilter struct {
	Month        int
	Year         int
	DepartmentID *string
	Page         int
	PerPage      int
}

// ScopeKey identifies a (year, month, department) scope for advisory locking.
func ScopeKey(month, year int, departmentID *string) string {
	dept := "all"
	if departmentID != nil {
		dept = *departmentID
	}
	return fmt.Sprintf("payroll:%04d-%02d:%s", year, month, dept)
}

// CreateLocked persists the run and one detail per result in a single
// transaction. The run is written Pending and flipped to Locked only after every
// detail is stored. Same-scope writers are serialized by an advisory lock.
//
// Unless override is set, an existing Locked run for the scope yields
// domain.ErrRunAlreadyLocked. Detail failures are collected per employee and
// returned as *domain.ConfirmationError after the transaction is rolled back.
func (r *RunRepository) CreateLocked(ctx context.Context, run *domain.PayrollRun, results []domain.PayrollResult, override bool) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`,
			ScopeKey(run.Month, run.Year, run.DepartmentID)); err != nil {
			return &domain.ConfirmationError{Err: fmt.Errorf("acquire scope lock: %w", err)}
		}

		if !override {
			var exists bool
			err := tx.GetContext(ctx, &exists, `
				SELECT EXISTS (
					SELECT 1 FROM payroll_runs
					WHERE year = $1 AND month = $2
					  AND department_id IS NOT DISTINCT FROM $3
					  AND status = 'Locked'
				)`, run.Year, run.Month, run.DepartmentID)
			if err != nil {
				return &domain.ConfirmationError{Err: fmt.Errorf("check existing run: %w", err)}
			}
			if exists {
				return domain.ErrRunAlreadyLocked
			}
		}

		run.Status = domain.RunPending
		run.Override = override
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO payroll_runs (
				id, month, year, department_id, status, employee_count,
				total_earnings, total_deductions, total_net_payable, override, created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at`,
			run.ID, run.Month, run.Year, run.DepartmentID, run.Status, run.EmployeeCount,
			run.TotalEarnings, run.TotalDeductions, run.TotalNetPayable, run.Override, run.CreatedBy,
		).Scan(&run.CreatedAt)
		if err != nil {
			return &domain.ConfirmationError{Err: fmt.Errorf("insert payroll run: %w", err)}
		}

		var failed []string
		var firstErr error
		for i := range results {
			if err := r.insertDetail(ctx, tx, run.ID, i, &results[i]); err != nil {
				failed = append(failed, results[i].EmployeeID)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		if len(failed) > 0 {
			return &domain.ConfirmationError{FailedEmployeeIDs: failed, Err: firstErr}
		}

		lockedAt := r.now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE payroll_runs SET status = $2, locked_at = $3 WHERE id = $1`,
			run.ID, domain.RunLocked, lockedAt); err != nil {
			return &domain.ConfirmationError{Err: fmt.Errorf("lock payroll run: %w", err)}
		}
		run.Status = domain.RunLocked
		run.LockedAt = &lockedAt
		return nil
	})
}

// insertDetail writes one detail and its payslip placeholder inside a savepoint
// so a failure does not abort the surrounding transaction.
func (r *RunRepository) insertDetail(ctx context.Context, tx database.Querier, runID string, position int, res *domain.PayrollResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", res.EmployeeID, err)
	}

	if _, err := tx.ExecContext(ctx, `SAVEPOINT run_detail`); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	detailID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_run_details (
			id, run_id, employee_id, position, working_days, present_days, leave_days, lop_days,
			gross_salary, total_earnings, total_deductions, net_payable, calculation_details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		detailID, runID, res.EmployeeID, position, res.Days.WorkingDays, res.Days.PresentDays,
		res.Days.PaidLeaveDays, res.Days.LOPDays, res.MonthlyGross, res.TotalEarnings,
		res.TotalDeductions, res.NetPayable, payload,
	)
	if err == nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payslips (run_detail_id, employee_id, status) VALUES ($1, $2, 'Generated')`,
			detailID, res.EmployeeID)
	}
	if err != nil {
		if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT run_detail`); rbErr != nil {
			return fmt.Errorf("insert detail for %s: %v (rollback to savepoint: %w)", res.EmployeeID, err, rbErr)
		}
		return fmt.Errorf("insert detail for %s: %w", res.EmployeeID, err)
	}

	if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT run_detail`); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

const runColumns = `
	id, month, year, department_id, status, employee_count, total_earnings,
	total_deductions, total_net_payable, override, created_by, created_at, locked_at`

// GetByID returns a run header
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.PayrollRun, error) {
	var run domain.PayrollRun
	err := r.db.GetContext(ctx, &run, `SELECT`+runColumns+` FROM payroll_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payroll run: %w", err)
	}
	return &run, nil
}

// List returns locked runs, newest period first, with the total count
func (r *RunRepository) List(ctx context.Context, f RunFilter) ([]*domain.PayrollRun, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 20
	}

	where := `WHERE status = 'Locked'
		AND ($1 = 0 OR month = $1)
		AND ($2 = 0 OR year = $2)
		AND ($3::uuid IS NULL OR department_id = $3)`

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payroll_runs `+where,
		f.Month, f.Year, f.DepartmentID); err != nil {
		return nil, 0, fmt.Errorf("count payroll runs: %w", err)
	}

	runs := []*domain.PayrollRun{}
	query := `SELECT` + runColumns + ` FROM payroll_runs ` + where + `
		ORDER BY year DESC, month DESC, created_at DESC
		LIMIT $4 OFFSET $5`
	if err := r.db.SelectContext(ctx, &runs, query,
		f.Month, f.Year, f.DepartmentID, f.PerPage, (f.Page-1)*f.PerPage); err != nil {
		return nil, 0, fmt.Errorf("list payroll runs: %w", err)
	}
	return runs, total, nil
}

type detailRow struct {
	ID         string    `db:"id"`
	RunID      string    `db:"run_id"`
	EmployeeID string    `db:"employee_id"`
	Details    []byte    `db:"calculation_details"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row detailRow) toDomain() (domain.PayrollRunDetail, error) {
	d := domain.PayrollRunDetail{
		ID:         row.ID,
		RunID:      row.RunID,
		EmployeeID: row.EmployeeID,
		CreatedAt:  row.CreatedAt,
	}
	if err := json.Unmarshal(row.Details, &d.Result); err != nil {
		return d, fmt.Errorf("decode detail %s: %w", row.ID, err)
	}
	return d, nil
}

// ListDetails returns every detail of a run in confirmation order
func (r *RunRepository) ListDetails(ctx context.Context, runID string) ([]domain.PayrollRunDetail, error) {
	var rows []detailRow
	query := `
		SELECT id, run_id, employee_id, calculation_details, created_at
		FROM payroll_run_details
		WHERE run_id = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("list run details: %w", err)
	}

	details := make([]domain.PayrollRunDetail, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

// GetDetail returns one employee's detail within a run
func (r *RunRepository) GetDetail(ctx context.Context, runID, employeeID string) (*domain.PayrollRunDetail, error) {
	var row detailRow
	query := `
		SELECT id, run_id, employee_id, calculation_details, created_at
		FROM payroll_run_details
		WHERE run_id = $1 AND employee_id = $2
	`
	err := r.db.GetContext(ctx, &row, query, runID, employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunDetailNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run detail: %w", err)
	}

	d, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &d, nil
}
