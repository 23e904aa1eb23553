package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/statutory"
	apperrors "github.com/enjeyisback/HRMS/pkg/errors"
	"github.com/enjeyisback/HRMS/pkg/logger"
)

// CompensationStore manages components and assignments
type CompensationStore interface {
	AssignmentStore
	ListComponents(ctx context.Context) ([]*domain.SalaryComponent, error)
	GetComponentsByIDs(ctx context.Context, ids []string) (map[string]*domain.SalaryComponent, error)
	CreateComponent(ctx context.Context, c *domain.SalaryComponent) error
	DeleteComponent(ctx context.Context, id string) error
	ReplaceAssignment(ctx context.Context, a *domain.SalaryAssignment) error
}

// EmployeeLookup finds a single employee
type EmployeeLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
}

// AssignmentEventPublisher announces written salary structures
type AssignmentEventPublisher interface {
	PublishAssignmentReplaced(ctx context.Context, a *domain.SalaryAssignment)
}

// AssignLineInput is one requested (component, amount) pair
type AssignLineInput struct {
	ComponentID string          `json:"component_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
}

// AssignStructureRequest writes an employee's structure from EffectiveFrom onwards
type AssignStructureRequest struct {
	EmployeeID    string
	EffectiveFrom time.Time
	Lines         []AssignLineInput
}

// CompensationService administers salary components and assignments
type CompensationService struct {
	store     CompensationStore
	employees EmployeeLookup
	resolver  *CompensationResolver
	policy    statutory.Policy
	publisher AssignmentEventPublisher
	logger    *logger.Logger
}

// NewCompensationService creates a new compensation service. publisher may be nil.
func NewCompensationService(
	store CompensationStore,
	employees EmployeeLookup,
	resolver *CompensationResolver,
	policy statutory.Policy,
	publisher AssignmentEventPublisher,
	log *logger.Logger,
) *CompensationService {
	return &CompensationService{
		store:     store,
		employees: employees,
		resolver:  resolver,
		policy:    policy,
		publisher: publisher,
		logger:    log.WithComponent("compensation"),
	}
}

// ============================================================================
// COMPONENTS
// ============================================================================

// ListComponents lists the component master
func (s *CompensationService) ListComponents(ctx context.Context) ([]*domain.SalaryComponent, error) {
	return s.store.ListComponents(ctx)
}

// CreateComponent validates and stores a new component
func (s *CompensationService) CreateComponent(ctx context.Context, c *domain.SalaryComponent) error {
	if err := s.validateComponent(c); err != nil {
		return err
	}
	if c.Method == domain.MethodFixed {
		c.Percentage = decimal.Zero
	}
	if !c.IsStatutory {
		c.StatutoryKind = nil
	}

	if err := s.store.CreateComponent(ctx, c); err != nil {
		return err
	}

	s.logger.Info().Str("component_id", c.ID).Str("name", c.Name).Msg("salary component created")
	return nil
}

func (s *CompensationService) validateComponent(c *domain.SalaryComponent) error {
	details := map[string]string{}

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		details["name"] = "is required"
	}
	switch c.Kind {
	case domain.KindEarning, domain.KindDeduction:
	default:
		details["kind"] = "must be one of: Earning, Deduction"
	}
	switch c.Method {
	case "":
		c.Method = domain.MethodFixed
	case domain.MethodFixed:
	case domain.MethodPercentOfBasic, domain.MethodPercentOfGross:
		if !c.Percentage.IsPositive() || c.Percentage.GreaterThan(hundred) {
			details["percentage"] = "must be greater than 0 and at most 100"
		}
	default:
		details["calculation_method"] = "must be one of: Fixed, % of Basic, % of Gross"
	}
	if c.IsStatutory && c.Kind == domain.KindEarning {
		details["is_statutory"] = "only deductions can be statutory"
	}
	if c.Method == domain.MethodPercentOfBasic && s.resolver.IsBasic(*c) {
		details["calculation_method"] = "basic cannot be a percentage of itself"
	}
	if c.IsStatutory {
		if c.StatutoryKind == nil {
			details["statutory_kind"] = "is required for statutory components"
		} else {
			switch *c.StatutoryKind {
			case domain.StatutoryPF, domain.StatutoryESIC, domain.StatutoryPT, domain.StatutoryTDS:
			default:
				details["statutory_kind"] = "must be one of: PF, ESIC, PT, TDS"
			}
		}
	}

	if len(details) > 0 {
		return apperrors.Validation(details)
	}
	return nil
}

// DeleteComponent removes an unreferenced component.
// Returns domain.ErrComponentInUse while any assignment references it.
func (s *CompensationService) DeleteComponent(ctx context.Context, id string) error {
	if err := s.store.DeleteComponent(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("component_id", id).Msg("salary component deleted")
	return nil
}

// ============================================================================
// ASSIGNMENTS
// ============================================================================

// AssignStructure computes the gross/deductions/net snapshot for the requested
// lines and replaces the employee's assignment at EffectiveFrom.
func (s *CompensationService) AssignStructure(ctx context.Context, req AssignStructureRequest) (*domain.SalaryAssignment, error) {
	if len(req.Lines) == 0 {
		return nil, apperrors.BadRequest("at least one component line is required")
	}
	if _, err := s.employees.GetByID(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Lines))
	details := map[string]string{}
	seen := map[string]struct{}{}
	for i, l := range req.Lines {
		key := "lines[" + strconv.Itoa(i) + "]"
		if _, dup := seen[l.ComponentID]; dup {
			details[key] = "duplicate component " + l.ComponentID
		}
		if l.Amount.IsNegative() {
			details[key] = "amount must not be negative"
		}
		seen[l.ComponentID] = struct{}{}
		ids = append(ids, l.ComponentID)
	}
	if len(details) > 0 {
		return nil, apperrors.Validation(details)
	}

	components, err := s.store.GetComponentsByIDs(ctx, ids)
	if err != nil {
		return nil, domain.NewDataFetchError("components", req.EmployeeID, err)
	}

	lines := make([]domain.AssignmentLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		c, ok := components[l.ComponentID]
		if !ok {
			return nil, fmt.Errorf("component %s: %w", l.ComponentID, domain.ErrComponentNotFound)
		}
		lines = append(lines, domain.AssignmentLine{Component: *c, Amount: l.Amount})
	}

	effective := domain.DateOf(req.EffectiveFrom)
	comp := s.resolver.Expand("", effective, lines)
	deductions := s.policy.PF(comp.Basic).
		Add(s.policy.ESIC(comp.MonthlyGross)).
		Add(s.policy.PT(comp.MonthlyGross))
	for _, l := range comp.Lines {
		if l.Component.Kind == domain.KindDeduction && !l.Component.IsStatutory {
			deductions = deductions.Add(l.BaseAmount)
		}
	}

	a := &domain.SalaryAssignment{
		EmployeeID:      req.EmployeeID,
		EffectiveFrom:   effective,
		GrossSalary:     comp.MonthlyGross,
		TotalDeductions: deductions,
		NetSalary:       comp.MonthlyGross.Sub(deductions),
		Lines:           lines,
	}
	if err := s.store.ReplaceAssignment(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("employee_id", a.EmployeeID).
		Str("assignment_id", a.ID).
		Time("effective_from", a.EffectiveFrom).
		Str("gross_salary", a.GrossSalary.StringFixed(2)).
		Msg("salary structure assigned")

	if s.publisher != nil {
		s.publisher.PublishAssignmentReplaced(ctx, a)
	}
	return a, nil
}

// CurrentStructure returns the structure that would be used for month/year
func (s *CompensationService) CurrentStructure(ctx context.Context, employeeID string, month, year int) (*Compensation, error) {
	period, err := domain.NewPeriod(month, year)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	return s.resolver.Resolve(ctx, employeeID, period)
}
