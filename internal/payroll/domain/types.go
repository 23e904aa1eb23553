package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentKind separates earnings from deductions
type ComponentKind string

const (
	KindEarning   ComponentKind = "Earning"
	KindDeduction ComponentKind = "Deduction"
)

// CalculationMethod describes how a component's base amount is derived
type CalculationMethod string

const (
	MethodFixed          CalculationMethod = "Fixed"
	MethodPercentOfBasic CalculationMethod = "% of Basic"
	MethodPercentOfGross CalculationMethod = "% of Gross"
)

// StatutoryKind identifies a regulated withholding
type StatutoryKind string

const (
	StatutoryPF   StatutoryKind = "PF"
	StatutoryESIC StatutoryKind = "ESIC"
	StatutoryPT   StatutoryKind = "PT"
	StatutoryTDS  StatutoryKind = "TDS"
)

// AttendanceStatus is the daily attendance state
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceHalfDay AttendanceStatus = "Half-day"
	AttendanceHoliday AttendanceStatus = "Holiday"
)

// LeaveStatus is the approval state of a leave request
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "Pending"
	LeaveApproved  LeaveStatus = "Approved"
	LeaveRejected  LeaveStatus = "Rejected"
	LeaveCancelled LeaveStatus = "Cancelled"
)

// RunStatus is the lifecycle state of a persisted payroll run
type RunStatus string

const (
	RunPending RunStatus = "Pending"
	RunLocked  RunStatus = "Locked"
)

// Employee is the roster entry the engine reads. HR owns it.
type Employee struct {
	ID             string  `json:"id" db:"id"`
	EmployeeCode   string  `json:"employee_code" db:"employee_code"`
	FirstName      string  `json:"first_name" db:"first_name"`
	LastName       string  `json:"last_name" db:"last_name"`
	DepartmentID   *string `json:"department_id,omitempty" db:"department_id"`
	DepartmentName *string `json:"department_name,omitempty" db:"department_name"`
	IsActive       bool    `json:"is_active" db:"is_active"`
}

// FullName returns "First Last"
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Department returns the department name or "N/A"
func (e *Employee) Department() string {
	if e.DepartmentName == nil || *e.DepartmentName == "" {
		return "N/A"
	}
	return *e.DepartmentName
}

// SalaryComponent is a named payroll line item from the component master
type SalaryComponent struct {
	ID            string            `json:"id" db:"id"`
	Name          string            `json:"name" db:"name"`
	Kind          ComponentKind     `json:"kind" db:"kind"`
	Method        CalculationMethod `json:"calculation_method" db:"calculation_method"`
	Percentage    decimal.Decimal   `json:"percentage" db:"percentage"`
	IsStatutory   bool              `json:"is_statutory" db:"is_statutory"`
	StatutoryKind *StatutoryKind    `json:"statutory_kind,omitempty" db:"statutory_kind"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// AssignmentLine is one (component, amount) pair of an assignment
type AssignmentLine struct {
	Component SalaryComponent `json:"component"`
	Amount    decimal.Decimal `json:"amount"`
}

// SalaryAssignment links an employee to a component set from EffectiveFrom onwards
type SalaryAssignment struct {
	ID              string           `json:"id" db:"id"`
	EmployeeID      string           `json:"employee_id" db:"employee_id"`
	EffectiveFrom   time.Time        `json:"effective_from" db:"effective_from"`
	GrossSalary     decimal.Decimal  `json:"gross_salary" db:"gross_salary"`
	TotalDeductions decimal.Decimal  `json:"total_deductions" db:"total_deductions"`
	NetSalary       decimal.Decimal  `json:"net_salary" db:"net_salary"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
	Lines           []AssignmentLine `json:"lines" db:"-"`
}

// AttendanceRecord is one (employee, date) attendance row
type AttendanceRecord struct {
	EmployeeID string           `json:"employee_id" db:"employee_id"`
	Date       time.Time        `json:"date" db:"date"`
	Status     AttendanceStatus `json:"status" db:"status"`
}

// LeaveRequest is a date range of leave. IsPaid comes from the leave type.
type LeaveRequest struct {
	ID         string      `json:"id" db:"id"`
	EmployeeID string      `json:"employee_id" db:"employee_id"`
	StartDate  time.Time   `json:"start_date" db:"start_date"`
	EndDate    time.Time   `json:"end_date" db:"end_date"`
	IsPaid     bool        `json:"is_paid" db:"is_paid"`
	Status     LeaveStatus `json:"status" db:"status"`
}

// PayrollRun is the header of a confirmed payroll for one scope
type PayrollRun struct {
	ID              string          `json:"id" db:"id"`
	Month           int             `json:"month" db:"month"`
	Year            int             `json:"year" db:"year"`
	DepartmentID    *string         `json:"department_id,omitempty" db:"department_id"`
	Status          RunStatus       `json:"status" db:"status"`
	EmployeeCount   int             `json:"employee_count" db:"employee_count"`
	TotalEarnings   decimal.Decimal `json:"total_earnings" db:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions" db:"total_deductions"`
	TotalNetPayable decimal.Decimal `json:"total_net_payable" db:"total_net_payable"`
	Override        bool            `json:"override" db:"override"`
	CreatedBy       *string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	LockedAt        *time.Time      `json:"locked_at,omitempty" db:"locked_at"`
}

// PayrollRunDetail holds one employee's frozen result within a run
type PayrollRunDetail struct {
	ID         string        `json:"id"`
	RunID      string        `json:"run_id"`
	EmployeeID string        `json:"employee_id"`
	Result     PayrollResult `json:"result"`
	CreatedAt  time.Time     `json:"created_at"`
}
