package events

import (
	"context"
	"time"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/pkg/logger"
	"github.com/enjeyisback/HRMS/pkg/messaging"
)

const source = "payroll-service"

// Publisher is the part of messaging.Publisher this package uses
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// PayrollEventPublisher publishes payroll events. A nil publisher drops events,
// which is how the service runs with RabbitMQ disabled.
type PayrollEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewPayrollEventPublisher declares the payroll exchange and creates a publisher on it
func NewPayrollEventPublisher(rmq *messaging.RabbitMQ, exchange string, log *logger.Logger) (*PayrollEventPublisher, error) {
	if exchange == "" {
		exchange = messaging.ExchangePayrollEvents
	}
	publisher, err := messaging.NewPublisher(rmq, exchange, source, log)
	if err != nil {
		return nil, err
	}

	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing publisher
func NewWithPublisher(p Publisher, log *logger.Logger) *PayrollEventPublisher {
	return &PayrollEventPublisher{
		publisher: p,
		logger:    log,
	}
}

// PublishRunLocked publishes a run locked event
func (p *PayrollEventPublisher) PublishRunLocked(ctx context.Context, run *domain.PayrollRun) {
	if p == nil {
		return
	}

	lockedAt := time.Now().UTC()
	if run.LockedAt != nil {
		lockedAt = *run.LockedAt
	}

	data := messaging.PayrollRunLockedEvent{
		RunID:           run.ID,
		Month:           run.Month,
		Year:            run.Year,
		DepartmentID:    run.DepartmentID,
		EmployeeCount:   run.EmployeeCount,
		TotalEarnings:   run.TotalEarnings.StringFixed(2),
		TotalDeductions: run.TotalDeductions.StringFixed(2),
		TotalNetPayable: run.TotalNetPayable.StringFixed(2),
		LockedBy:        run.CreatedBy,
		LockedAt:        lockedAt,
	}

	if err := p.publisher.Publish(ctx, messaging.EventPayrollRunLocked, data); err != nil {
		p.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to publish payroll run locked event")
	}
}

// PublishAssignmentReplaced publishes an assignment replaced event
func (p *PayrollEventPublisher) PublishAssignmentReplaced(ctx context.Context, a *domain.SalaryAssignment) {
	if p == nil {
		return
	}

	data := messaging.AssignmentReplacedEvent{
		AssignmentID:  a.ID,
		EmployeeID:    a.EmployeeID,
		EffectiveFrom: a.EffectiveFrom.Format("2006-01-02"),
		GrossSalary:   a.GrossSalary.StringFixed(2),
		NetSalary:     a.NetSalary.StringFixed(2),
	}

	if err := p.publisher.Publish(ctx, messaging.EventPayrollAssignmentReplaced, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", a.EmployeeID).Msg("failed to publish assignment replaced event")
	}
}
