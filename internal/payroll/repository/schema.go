package repository

import (
	"context"
	"fmt"

	"github.com/enjeyisback/HRMS/pkg/database"
)

// Migrations returns the payroll schema as ordered, idempotent statements.
func Migrations() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

		`CREATE TABLE IF NOT EXISTS departments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			code VARCHAR(50) UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			employee_code VARCHAR(50) NOT NULL UNIQUE,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			department_id UUID REFERENCES departments(id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS salary_components (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL,
			kind VARCHAR(20) NOT NULL CHECK (kind IN ('Earning', 'Deduction')),
			calculation_method VARCHAR(20) NOT NULL DEFAULT 'Fixed'
				CONSTRAINT salary_components_calculation_method_check
				CHECK (calculation_method IN ('Fixed', '% of Basic', '% of Gross')),
			percentage NUMERIC(7,4) NOT NULL DEFAULT 0
				CONSTRAINT salary_components_percentage_check
				CHECK (percentage >= 0 AND percentage <= 100),
			is_statutory BOOLEAN NOT NULL DEFAULT FALSE,
			statutory_kind VARCHAR(10) CHECK (statutory_kind IN ('PF', 'ESIC', 'PT', 'TDS')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT salary_components_name_key UNIQUE (name)
		)`,

		`CREATE TABLE IF NOT EXISTS salary_assignments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			employee_id UUID NOT NULL REFERENCES employees(id),
			effective_from DATE NOT NULL,
			gross_salary NUMERIC(14,2) NOT NULL DEFAULT 0,
			total_deductions NUMERIC(14,2) NOT NULL DEFAULT 0,
			net_salary NUMERIC(14,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT salary_assignments_employee_effective_key UNIQUE (employee_id, effective_from)
		)`,

		`CREATE TABLE IF NOT EXISTS salary_assignment_lines (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			assignment_id UUID NOT NULL REFERENCES salary_assignments(id) ON DELETE CASCADE,
			component_id UUID NOT NULL
				CONSTRAINT salary_assignment_lines_component_id_fkey
				REFERENCES salary_components(id) ON DELETE RESTRICT,
			amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			position INT NOT NULL,
			UNIQUE (assignment_id, component_id)
		)`,

		`CREATE TABLE IF NOT EXISTS attendance (
			employee_id UUID NOT NULL REFERENCES employees(id),
			date DATE NOT NULL,
			status VARCHAR(20) NOT NULL CHECK (status IN ('Present', 'Absent', 'Half-day', 'Holiday')),
			PRIMARY KEY (employee_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS leave_types (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL UNIQUE,
			is_paid BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS leave_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			employee_id UUID NOT NULL REFERENCES employees(id),
			leave_type_id UUID NOT NULL REFERENCES leave_types(id),
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Pending'
				CHECK (status IN ('Pending', 'Approved', 'Rejected', 'Cancelled')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (end_date >= start_date)
		)`,

		`CREATE TABLE IF NOT EXISTS payroll_runs (
			id UUID PRIMARY KEY,
			month INT NOT NULL CONSTRAINT payroll_runs_month_check CHECK (month BETWEEN 1 AND 12),
			year INT NOT NULL,
			department_id UUID REFERENCES departments(id),
			status VARCHAR(20) NOT NULL CHECK (status IN ('Pending', 'Locked')),
			employee_count INT NOT NULL DEFAULT 0,
			total_earnings NUMERIC(16,2) NOT NULL DEFAULT 0,
			total_deductions NUMERIC(16,2) NOT NULL DEFAULT 0,
			total_net_payable NUMERIC(16,2) NOT NULL DEFAULT 0,
			override BOOLEAN NOT NULL DEFAULT FALSE,
			created_by VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			locked_at TIMESTAMPTZ
		)`,

		`CREATE INDEX IF NOT EXISTS idx_payroll_runs_scope ON payroll_runs (year, month, department_id)`,

		`CREATE TABLE IF NOT EXISTS payroll_run_details (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES payroll_runs(id) ON DELETE CASCADE,
			employee_id UUID NOT NULL,
			position INT NOT NULL,
			working_days INT NOT NULL,
			present_days INT NOT NULL,
			leave_days INT NOT NULL,
			lop_days INT NOT NULL,
			gross_salary NUMERIC(14,2) NOT NULL,
			total_earnings NUMERIC(14,2) NOT NULL,
			total_deductions NUMERIC(14,2) NOT NULL,
			net_payable NUMERIC(14,2) NOT NULL,
			calculation_details JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT payroll_run_details_run_employee_key UNIQUE (run_id, employee_id)
		)`,

		`CREATE TABLE IF NOT EXISTS payslips (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_detail_id UUID NOT NULL REFERENCES payroll_run_details(id) ON DELETE CASCADE,
			employee_id UUID NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Generated',
			generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

// Migrate applies Migrations in order.
func Migrate(ctx context.Context, db *database.DB) error {
	for i, stmt := range Migrations() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply payroll migration %d: %w", i, err)
		}
	}
	return nil
}
