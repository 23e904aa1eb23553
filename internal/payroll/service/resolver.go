package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
)

var hundred = decimal.NewFromInt(100)

// DefaultBasicNames are the component names treated as Basic when none are configured.
var DefaultBasicNames = []string{"basic", "basic pay", "basic salary"}

// AssignmentStore reads salary assignments
type AssignmentStore interface {
	GetEffectiveAssignment(ctx context.Context, employeeID string, asOf time.Time) (*domain.SalaryAssignment, error)
}

// ResolvedLine is an assignment line with its percentage already expanded to an amount
type ResolvedLine struct {
	Component  domain.SalaryComponent `json:"component"`
	BaseAmount decimal.Decimal        `json:"base_amount"`
}

// Compensation is an employee's unprorated monthly structure
type Compensation struct {
	AssignmentID  string          `json:"assignment_id"`
	EffectiveFrom time.Time       `json:"effective_from"`
	Lines         []ResolvedLine  `json:"lines"`
	Basic         decimal.Decimal `json:"basic"`
	MonthlyGross  decimal.Decimal `json:"monthly_gross"`
}

// CompensationResolver turns the effective assignment into resolved base amounts
type CompensationResolver struct {
	store      AssignmentStore
	basicNames map[string]struct{}
}

// NewCompensationResolver creates a resolver. Basic is matched case-insensitively
// against basicNames, or DefaultBasicNames when empty.
func NewCompensationResolver(store AssignmentStore, basicNames []string) *CompensationResolver {
	if len(basicNames) == 0 {
		basicNames = DefaultBasicNames
	}
	names := make(map[string]struct{}, len(basicNames))
	for _, n := range basicNames {
		names[normalizeName(n)] = struct{}{}
	}
	return &CompensationResolver{store: store, basicNames: names}
}

// Resolve loads the assignment with the latest effective date on or before the
// period start and expands it.
func (r *CompensationResolver) Resolve(ctx context.Context, employeeID string, period domain.Period) (*Compensation, error) {
	a, err := r.store.GetEffectiveAssignment(ctx, employeeID, period.Start)
	if errors.Is(err, domain.ErrNoActiveAssignment) {
		return nil, fmt.Errorf("employee %s: %w", employeeID, domain.ErrNoActiveAssignment)
	}
	if err != nil {
		return nil, domain.NewDataFetchError("assignment", employeeID, err)
	}
	return r.Expand(a.ID, a.EffectiveFrom, a.Lines), nil
}

// IsBasic reports whether c is the Basic earning.
func (r *CompensationResolver) IsBasic(c domain.SalaryComponent) bool {
	if c.Kind != domain.KindEarning || c.IsStatutory {
		return false
	}
	_, ok := r.basicNames[normalizeName(c.Name)]
	return ok
}

// Expand resolves percentage lines. Basic is resolved first: a Fixed Basic is
// its entered amount and a % of Gross Basic is taken over the other Fixed
// earnings. % of Basic then uses that unprorated Basic, and the remaining % of
// Gross lines use the sum of Basic, Fixed and % of Basic earnings, so no earning
// depends on itself. Expanded amounts are rounded to two decimals.
func (r *CompensationResolver) Expand(assignmentID string, effectiveFrom time.Time, lines []domain.AssignmentLine) *Compensation {
	comp := &Compensation{
		AssignmentID:  assignmentID,
		EffectiveFrom: effectiveFrom,
		Lines:         make([]ResolvedLine, len(lines)),
		Basic:         decimal.Zero,
		MonthlyGross:  decimal.Zero,
	}

	basicIdx := -1
	for i, l := range lines {
		if r.IsBasic(l.Component) {
			basicIdx = i
			comp.Basic = basicAmount(lines, i)
			break
		}
	}

	grossBasis := decimal.Zero
	for i, l := range lines {
		base := l.Amount
		switch {
		case i == basicIdx:
			base = comp.Basic
		case l.Component.Method == domain.MethodPercentOfBasic:
			base = percentOf(comp.Basic, l.Component.Percentage)
		case l.Component.Method == domain.MethodPercentOfGross:
			// filled in the second pass
			continue
		}
		comp.Lines[i] = ResolvedLine{Component: l.Component, BaseAmount: base}
		if isGrossEarning(l.Component) {
			grossBasis = grossBasis.Add(base)
		}
	}

	for i, l := range lines {
		if i != basicIdx && l.Component.Method == domain.MethodPercentOfGross {
			comp.Lines[i] = ResolvedLine{Component: l.Component, BaseAmount: percentOf(grossBasis, l.Component.Percentage)}
		}
	}

	for _, l := range comp.Lines {
		if isGrossEarning(l.Component) {
			comp.MonthlyGross = comp.MonthlyGross.Add(l.BaseAmount)
		}
	}

	return comp
}

// basicAmount resolves the Basic line at idx. A Basic defined as a share of
// itself cannot be resolved and counts as zero.
func basicAmount(lines []domain.AssignmentLine, idx int) decimal.Decimal {
	basic := lines[idx]
	switch basic.Component.Method {
	case domain.MethodPercentOfGross:
		fixed := decimal.Zero
		for i, l := range lines {
			if i != idx && isGrossEarning(l.Component) && !isPercentage(l.Component.Method) {
				fixed = fixed.Add(l.Amount)
			}
		}
		return percentOf(fixed, basic.Component.Percentage)
	case domain.MethodPercentOfBasic:
		return decimal.Zero
	default:
		return basic.Amount
	}
}

func isPercentage(m domain.CalculationMethod) bool {
	return m == domain.MethodPercentOfBasic || m == domain.MethodPercentOfGross
}

func isGrossEarning(c domain.SalaryComponent) bool {
	return c.Kind == domain.KindEarning && !c.IsStatutory
}

func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred).Round(2)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
