package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/repository"
	apperrors "github.com/enjeyisback/HRMS/pkg/errors"
	"github.com/enjeyisback/HRMS/pkg/logger"
)

// Roster lists the employees a run covers
type Roster interface {
	ListActive(ctx context.Context, departmentID *string) ([]*domain.Employee, error)
}

// RunStore persists and reads payroll runs
type RunStore interface {
	CreateLocked(ctx context.Context, run *domain.PayrollRun, results []domain.PayrollResult, override bool) error
	GetByID(ctx context.Context, id string) (*domain.PayrollRun, error)
	List(ctx context.Context, f repository.RunFilter) ([]*domain.PayrollRun, int64, error)
	ListDetails(ctx context.Context, runID string) ([]domain.PayrollRunDetail, error)
	GetDetail(ctx context.Context, runID, employeeID string) (*domain.PayrollRunDetail, error)
}

// RunEventPublisher announces locked runs
type RunEventPublisher interface {
	PublishRunLocked(ctx context.Context, run *domain.PayrollRun)
}

// PreviewRequest selects the period and department of a preview. A nil
// DepartmentID covers every department.
type PreviewRequest struct {
	Month        int
	Year         int
	DepartmentID *string
}

// SkippedEmployee is an employee left out of a preview
type SkippedEmployee struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeCode string `json:"employee_code"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

// PreviewSummary aggregates a preview for the operator
type PreviewSummary struct {
	EmployeeCount   int             `json:"employee_count"`
	SkippedCount    int             `json:"skipped_count"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNetPayable decimal.Decimal `json:"total_net_payable"`
	Anomalies       map[string]int  `json:"anomalies"`
}

// Preview is a non-persisted batch calculation
type Preview struct {
	Period       domain.Period          `json:"period"`
	DepartmentID *string                `json:"department_id,omitempty"`
	Results      []domain.PayrollResult `json:"results"`
	Skipped      []SkippedEmployee      `json:"skipped"`
	Summary      PreviewSummary         `json:"summary"`
}

// ConfirmRequest carries the reviewed preview results to be locked
type ConfirmRequest struct {
	Month        int
	Year         int
	DepartmentID *string
	Results      []domain.PayrollResult
	Override     bool
	ConfirmedBy  string
}

// RunWithDetails is a locked run and its frozen results
type RunWithDetails struct {
	Run     *domain.PayrollRun        `json:"run"`
	Details []domain.PayrollRunDetail `json:"details"`
}

// RunOrchestrator previews and confirms payroll runs
type RunOrchestrator struct {
	roster     Roster
	calculator *Calculator
	runs       RunStore
	publisher  RunEventPublisher
	workers    int
	logger     *logger.Logger
}

// NewRunOrchestrator creates a new orchestrator. workers bounds concurrent
// calculations and falls back to 1. publisher may be nil.
func NewRunOrchestrator(
	roster Roster,
	calculator *Calculator,
	runs RunStore,
	publisher RunEventPublisher,
	workers int,
	log *logger.Logger,
) *RunOrchestrator {
	if workers < 1 {
		workers = 1
	}
	return &RunOrchestrator{
		roster:     roster,
		calculator: calculator,
		runs:       runs,
		publisher:  publisher,
		workers:    workers,
		logger:     log.WithComponent("orchestrator"),
	}
}

// Preview calculates every active employee in scope. Employees without a
// salary structure are reported in Skipped; any data fetch failure aborts the
// whole preview. Nothing is persisted.
func (o *RunOrchestrator) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	period, err := domain.NewPeriod(req.Month, req.Year)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	log := o.logger.WithPeriod(req.Month, req.Year)

	employees, err := o.roster.ListActive(ctx, req.DepartmentID)
	if err != nil {
		return nil, domain.NewDataFetchError("roster", "", err)
	}

	log.Info().Int("employees", len(employees)).Int("workers", o.workers).Msg("payroll preview started")

	results := make([]*domain.PayrollResult, len(employees))
	skipped := make([]bool, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			res, err := o.calculator.Calculate(gctx, emp, period)
			if errors.Is(err, domain.ErrNoActiveAssignment) {
				skipped[i] = true
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("payroll preview aborted")
		return nil, err
	}

	p := &Preview{
		Period:       period,
		DepartmentID: req.DepartmentID,
		Results:      make([]domain.PayrollResult, 0, len(employees)),
		Skipped:      []SkippedEmployee{},
	}
	for i, emp := range employees {
		if skipped[i] {
			p.Skipped = append(p.Skipped, SkippedEmployee{
				EmployeeID:   emp.ID,
				EmployeeCode: emp.EmployeeCode,
				EmployeeName: emp.FullName(),
				Reason:       domain.ErrNoActiveAssignment.Error(),
			})
			log.Warn().Str("employee_id", emp.ID).Msg("employee skipped: no active salary assignment")
			continue
		}
		p.Results = append(p.Results, *results[i])
	}
	p.Summary = summarize(p.Results, len(p.Skipped))

	log.Info().
		Int("calculated", p.Summary.EmployeeCount).
		Int("skipped", p.Summary.SkippedCount).
		Str("total_net_payable", p.Summary.TotalNetPayable.StringFixed(2)).
		Interface("anomalies", p.Summary.Anomalies).
		Msg("payroll preview completed")

	return p, nil
}

func summarize(results []domain.PayrollResult, skipped int) PreviewSummary {
	s := PreviewSummary{
		EmployeeCount:   len(results),
		SkippedCount:    skipped,
		TotalEarnings:   decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNetPayable: decimal.Zero,
		Anomalies:       map[string]int{},
	}
	for _, r := range results {
		s.TotalEarnings = s.TotalEarnings.Add(r.TotalEarnings)
		s.TotalDeductions = s.TotalDeductions.Add(r.TotalDeductions)
		s.TotalNetPayable = s.TotalNetPayable.Add(r.NetPayable)
		for _, w := range r.Warnings {
			s.Anomalies[w]++
		}
	}
	return s
}

// Confirm locks the reviewed results as a payroll run. The run and every detail
// are written in one transaction: either all are persisted or none is.
func (o *RunOrchestrator) Confirm(ctx context.Context, req ConfirmRequest) (*domain.PayrollRun, error) {
	if err := validateConfirm(req); err != nil {
		return nil, err
	}
	log := o.logger.WithPeriod(req.Month, req.Year)

	summary := summarize(req.Results, 0)
	run := &domain.PayrollRun{
		Month:           req.Month,
		Year:            req.Year,
		DepartmentID:    req.DepartmentID,
		EmployeeCount:   summary.EmployeeCount,
		TotalEarnings:   summary.TotalEarnings,
		TotalDeductions: summary.TotalDeductions,
		TotalNetPayable: summary.TotalNetPayable,
	}
	if req.ConfirmedBy != "" {
		run.CreatedBy = &req.ConfirmedBy
	}

	if err := o.runs.CreateLocked(ctx, run, req.Results, req.Override); err != nil {
		var cerr *domain.ConfirmationError
		if errors.As(err, &cerr) {
			log.Error().Err(err).Strs("failed_employee_ids", cerr.FailedEmployeeIDs).Msg("payroll confirmation failed")
		}
		return nil, err
	}

	log.Info().
		Str("run_id", run.ID).
		Int("employees", run.EmployeeCount).
		Bool("override", req.Override).
		Msg("payroll run locked")

	if o.publisher != nil {
		o.publisher.PublishRunLocked(ctx, run)
	}
	return run, nil
}

func validateConfirm(req ConfirmRequest) error {
	if _, err := domain.NewPeriod(req.Month, req.Year); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	if len(req.Results) == 0 {
		return apperrors.BadRequest("at least one payroll result is required")
	}

	details := map[string]string{}
	seen := make(map[string]struct{}, len(req.Results))
	for i, r := range req.Results {
		key := "results[" + strconv.Itoa(i) + "]"
		if r.EmployeeID == "" {
			details[key] = "employee_id is required"
			continue
		}
		if r.Month != req.Month || r.Year != req.Year {
			details[key] = fmt.Sprintf("result is for %02d/%d, run is for %02d/%d", r.Month, r.Year, req.Month, req.Year)
		}
		if _, dup := seen[r.EmployeeID]; dup {
			details[key] = "duplicate employee " + r.EmployeeID
		}
		seen[r.EmployeeID] = struct{}{}
	}
	if len(details) > 0 {
		return apperrors.Validation(details)
	}
	return nil
}

// GetRun returns a run with its details as they were confirmed
func (o *RunOrchestrator) GetRun(ctx context.Context, id string) (*RunWithDetails, error) {
	run, err := o.runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := o.runs.ListDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RunWithDetails{Run: run, Details: details}, nil
}

// ListRuns lists locked runs
func (o *RunOrchestrator) ListRuns(ctx context.Context, f repository.RunFilter) ([]*domain.PayrollRun, int64, error) {
	return o.runs.List(ctx, f)
}

// GetRunDetail returns one employee's frozen result, the payslip input
func (o *RunOrchestrator) GetRunDetail(ctx context.Context, runID, employeeID string) (*domain.PayrollRunDetail, error) {
	return o.runs.GetDetail(ctx, runID, employeeID)
}
