package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
)

// FixtureFactory creates payroll test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Employee creates an active employee fixture
func (f *FixtureFactory) Employee(opts ...func(*domain.Employee)) *domain.Employee {
	seq := f.nextSeq()

	emp := &domain.Employee{
		ID:           uuid.New().String(),
		EmployeeCode: fmt.Sprintf("EMP-%04d", seq),
		FirstName:    fmt.Sprintf("Employee%d", seq),
		LastName:     "Test",
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(emp)
	}

	return emp
}

// WithEmployeeName sets the employee's first and last name
func WithEmployeeName(first, last string) func(*domain.Employee) {
	return func(e *domain.Employee) {
		e.FirstName = first
		e.LastName = last
	}
}

// WithDepartment places the employee in a department
func WithDepartment(id, name string) func(*domain.Employee) {
	return func(e *domain.Employee) {
		e.DepartmentID = &id
		e.DepartmentName = &name
	}
}

// Component creates a fixed earning component fixture
func (f *FixtureFactory) Component(name string, opts ...func(*domain.SalaryComponent)) domain.SalaryComponent {
	f.nextSeq()

	c := domain.SalaryComponent{
		ID:         uuid.New().String(),
		Name:       name,
		Kind:       domain.KindEarning,
		Method:     domain.MethodFixed,
		Percentage: decimal.Zero,
		CreatedAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// AsDeduction marks the component as a deduction
func AsDeduction() func(*domain.SalaryComponent) {
	return func(c *domain.SalaryComponent) {
		c.Kind = domain.KindDeduction
	}
}

// PercentOf switches the component to a percentage method
func PercentOf(method domain.CalculationMethod, pct string) func(*domain.SalaryComponent) {
	return func(c *domain.SalaryComponent) {
		c.Method = method
		c.Percentage = decimal.RequireFromString(pct)
	}
}

// Statutory marks the component as a statutory withholding
func Statutory(kind domain.StatutoryKind) func(*domain.SalaryComponent) {
	return func(c *domain.SalaryComponent) {
		c.IsStatutory = true
		c.StatutoryKind = &kind
	}
}

// Line pairs a component with an amount given as a decimal string
func Line(c domain.SalaryComponent, amount string) domain.AssignmentLine {
	return domain.AssignmentLine{Component: c, Amount: decimal.RequireFromString(amount)}
}

// Assignment creates a salary assignment fixture effective from the given date
func (f *FixtureFactory) Assignment(employeeID string, effectiveFrom time.Time, lines ...domain.AssignmentLine) *domain.SalaryAssignment {
	f.nextSeq()

	gross, deductions := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Component.Kind == domain.KindDeduction {
			deductions = deductions.Add(l.Amount)
		} else {
			gross = gross.Add(l.Amount)
		}
	}

	now := time.Now()
	return &domain.SalaryAssignment{
		ID:              uuid.New().String(),
		EmployeeID:      employeeID,
		EffectiveFrom:   effectiveFrom,
		GrossSalary:     gross,
		TotalDeductions: deductions,
		NetSalary:       gross.Sub(deductions),
		CreatedAt:       now,
		UpdatedAt:       now,
		Lines:           lines,
	}
}

// Attendance builds one attendance row per date with the given status
func Attendance(employeeID string, status domain.AttendanceStatus, dates ...time.Time) []domain.AttendanceRecord {
	out := make([]domain.AttendanceRecord, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.AttendanceRecord{EmployeeID: employeeID, Date: d, Status: status})
	}
	return out
}

// Leave builds an approved leave request
func Leave(employeeID string, from, to time.Time, paid bool) domain.LeaveRequest {
	return domain.LeaveRequest{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		StartDate:  from,
		EndDate:    to,
		IsPaid:     paid,
		Status:     domain.LeaveApproved,
	}
}

// Weekdays returns every Monday-Friday date of the month in UTC
func Weekdays(year int, month time.Month) []time.Time {
	var out []time.Time
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Month() == month {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}
