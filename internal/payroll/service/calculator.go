package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/statutory"
)

const dateLayout = "2006-01-02"

// Statutory line item names as they appear on the payslip
const (
	LinePF   = "Provident Fund (PF)"
	LineESIC = "ESIC"
	LinePT   = "Professional Tax (PT)"
)

// Calculator produces one employee's PayrollResult for a period
type Calculator struct {
	policy     statutory.Policy
	resolver   *CompensationResolver
	aggregator *AttendanceAggregator
}

// NewCalculator creates a new calculator
func NewCalculator(policy statutory.Policy, resolver *CompensationResolver, aggregator *AttendanceAggregator) *Calculator {
	return &Calculator{policy: policy, resolver: resolver, aggregator: aggregator}
}

// Calculate resolves compensation, aggregates attendance and computes the result.
// Returns domain.ErrNoActiveAssignment (wrapped) when the employee has no structure.
func (c *Calculator) Calculate(ctx context.Context, emp *domain.Employee, period domain.Period) (*domain.PayrollResult, error) {
	comp, err := c.resolver.Resolve(ctx, emp.ID, period)
	if err != nil {
		return nil, err
	}
	days, err := c.aggregator.Aggregate(ctx, emp.ID, period)
	if err != nil {
		return nil, err
	}
	return c.Compute(emp, period, comp, days), nil
}

// Compute is the pure part of Calculate.
func (c *Calculator) Compute(emp *domain.Employee, period domain.Period, comp *Compensation, days domain.DaySummary) *domain.PayrollResult {
	payable := days.PayableDays()
	working := days.WorkingDays

	res := &domain.PayrollResult{
		Month:           period.Month,
		Year:            period.Year,
		PeriodStart:     period.Start.Format(dateLayout),
		PeriodEnd:       period.End.Format(dateLayout),
		EmployeeID:      emp.ID,
		EmployeeCode:    emp.EmployeeCode,
		EmployeeName:    emp.FullName(),
		DepartmentName:  emp.Department(),
		AssignmentID:    comp.AssignmentID,
		MonthlyGross:    comp.MonthlyGross,
		Days:            days,
		PayableFraction: decimal.Zero,
		PerDaySalary:    decimal.Zero,
		BasicAmount:     prorate(comp.Basic, payable, working),
		Earnings:        []domain.LineItem{},
		Deductions:      []domain.LineItem{},
		TotalEarnings:   decimal.Zero,
		TotalDeductions: decimal.Zero,
	}
	if working > 0 {
		w := decimal.NewFromInt(int64(working))
		res.PayableFraction = decimal.NewFromInt(int64(payable)).Div(w).Round(4)
		res.PerDaySalary = comp.MonthlyGross.Div(w).Round(2)
	}

	for _, l := range comp.Lines {
		if l.Component.IsStatutory {
			continue
		}
		base := l.BaseAmount
		switch l.Component.Kind {
		case domain.KindEarning:
			amount := prorate(base, payable, working)
			res.Earnings = append(res.Earnings, domain.LineItem{
				ComponentID: l.Component.ID,
				Name:        l.Component.Name,
				Amount:      amount,
				BaseAmount:  &base,
			})
			res.TotalEarnings = res.TotalEarnings.Add(amount)
		case domain.KindDeduction:
			res.Deductions = append(res.Deductions, domain.LineItem{
				ComponentID: l.Component.ID,
				Name:        l.Component.Name,
				Amount:      base,
			})
			res.TotalDeductions = res.TotalDeductions.Add(base)
		}
	}

	res.Statutory = domain.StatutoryBreakdown{
		PF:   c.policy.PF(res.BasicAmount),
		ESIC: c.policy.ESIC(res.TotalEarnings),
		PT:   c.policy.PT(res.TotalEarnings),
	}
	res.Deductions = append(res.Deductions,
		statutoryLine(LinePF, domain.StatutoryPF, res.Statutory.PF),
		statutoryLine(LineESIC, domain.StatutoryESIC, res.Statutory.ESIC),
		statutoryLine(LinePT, domain.StatutoryPT, res.Statutory.PT),
	)
	res.TotalDeductions = res.TotalDeductions.Add(res.Statutory.Total())
	res.NetPayable = res.TotalEarnings.Sub(res.TotalDeductions)

	if working == 0 {
		res.Warnings = append(res.Warnings, domain.WarningZeroWorkingDays)
	}
	if payable > working {
		res.Warnings = append(res.Warnings, domain.WarningPayableExceedsWork)
	}
	if res.NetPayable.IsNegative() {
		res.Warnings = append(res.Warnings, domain.WarningNegativeNet)
	}

	return res
}

// prorate returns round2(base × payable / working), multiplying first so that
// payable == working returns base unchanged. Zero working days prorate to 0.
func prorate(base decimal.Decimal, payable, working int) decimal.Decimal {
	if working <= 0 {
		return decimal.Zero
	}
	return base.Mul(decimal.NewFromInt(int64(payable))).
		Div(decimal.NewFromInt(int64(working))).
		Round(2)
}

func statutoryLine(name string, kind domain.StatutoryKind, amount decimal.Decimal) domain.LineItem {
	return domain.LineItem{Name: name, Amount: amount, StatutoryKind: &kind}
}
