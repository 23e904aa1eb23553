package domain

import (
	"github.com/shopspring/decimal"
)

// Warning codes attached to results that need operator review before confirmation.
const (
	WarningNegativeNet        = "negative_net_payable"
	WarningPayableExceedsWork = "payable_days_exceed_working_days"
	WarningZeroWorkingDays    = "zero_working_days"
)

// DaySummary is the attendance and leave breakdown for one employee and period.
// LOPDays counts every working day not covered by presence or paid leave.
// UnexplainedAbsenceDays is the part of LOPDays not covered by approved unpaid leave.
type DaySummary struct {
	WorkingDays            int `json:"working_days"`
	PresentDays            int `json:"present_days"`
	PaidLeaveDays          int `json:"paid_leave_days"`
	UnpaidLeaveDays        int `json:"unpaid_leave_days"`
	LOPDays                int `json:"lop_days"`
	UnexplainedAbsenceDays int `json:"unexplained_absence_days"`
}

// PayableDays is present days plus paid leave days.
func (s DaySummary) PayableDays() int {
	return s.PresentDays + s.PaidLeaveDays
}

// LineItem is one earning or deduction on a result
type LineItem struct {
	ComponentID   string           `json:"component_id,omitempty"`
	Name          string           `json:"name"`
	Amount        decimal.Decimal  `json:"amount"`
	BaseAmount    *decimal.Decimal `json:"base_amount,omitempty"`
	StatutoryKind *StatutoryKind   `json:"statutory_kind,omitempty"`
}

// StatutoryBreakdown holds the regulated deductions
type StatutoryBreakdown struct {
	PF   decimal.Decimal `json:"pf"`
	ESIC decimal.Decimal `json:"esic"`
	PT   decimal.Decimal `json:"pt"`
}

// Total sums the three statutory amounts.
func (s StatutoryBreakdown) Total() decimal.Decimal {
	return s.PF.Add(s.ESIC).Add(s.PT)
}

// PayrollResult is the full calculation for one employee and period.
// It is the payload persisted in a run detail and rendered on the payslip.
type PayrollResult struct {
	Month           int                `json:"month"`
	Year            int                `json:"year"`
	PeriodStart     string             `json:"period_start"`
	PeriodEnd       string             `json:"period_end"`
	EmployeeID      string             `json:"employee_id"`
	EmployeeCode    string             `json:"employee_code"`
	EmployeeName    string             `json:"employee_name"`
	DepartmentName  string             `json:"department_name"`
	AssignmentID    string             `json:"assignment_id"`
	MonthlyGross    decimal.Decimal    `json:"monthly_gross"`
	Days            DaySummary         `json:"days"`
	PayableFraction decimal.Decimal    `json:"payable_fraction"`
	PerDaySalary    decimal.Decimal    `json:"per_day_salary"`
	BasicAmount     decimal.Decimal    `json:"basic_amount"`
	Earnings        []LineItem         `json:"earnings"`
	Deductions      []LineItem         `json:"deductions"`
	TotalEarnings   decimal.Decimal    `json:"total_earnings"`
	TotalDeductions decimal.Decimal    `json:"total_deductions"`
	NetPayable      decimal.Decimal    `json:"net_payable"`
	Statutory       StatutoryBreakdown `json:"statutory"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// HasWarning reports whether the result carries the given warning code.
func (r *PayrollResult) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w == code {
			return true
		}
	}
	return false
}
