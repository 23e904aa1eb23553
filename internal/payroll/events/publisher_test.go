package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/events"
	"github.com/enjeyisback/HRMS/pkg/logger"
	"github.com/enjeyisback/HRMS/pkg/messaging"
	"github.com/enjeyisback/HRMS/pkg/testutil"
)

func TestPublishRunLocked(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewWithPublisher(mock, logger.Nop())

	lockedAt := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)
	run := &domain.PayrollRun{
		ID:              "run-1",
		Month:           4,
		Year:            2024,
		EmployeeCount:   2,
		TotalEarnings:   decimal.RequireFromString("50909.1"),
		TotalDeductions: decimal.RequireFromString("4764"),
		TotalNetPayable: decimal.RequireFromString("46145.1"),
		LockedAt:        &lockedAt,
	}

	p.PublishRunLocked(context.Background(), run)

	mock.AssertEventPublished(t, messaging.EventPayrollRunLocked)
	got := mock.Events()
	require.Len(t, got, 1)
	data, ok := got[0].Payload.(messaging.PayrollRunLockedEvent)
	require.True(t, ok)
	assert.Equal(t, "run-1", data.RunID)
	assert.Equal(t, "46145.10", data.TotalNetPayable)
	assert.Equal(t, lockedAt, data.LockedAt)
}

func TestPublishRunLocked_ErrorIsSwallowed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("channel closed")
	p := events.NewWithPublisher(mock, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishRunLocked(context.Background(), &domain.PayrollRun{ID: "run-1"})
	})
	assert.Len(t, mock.Events(), 1)
}

func TestNilPublisherDropsEvents(t *testing.T) {
	var p *events.PayrollEventPublisher

	assert.NotPanics(t, func() {
		p.PublishRunLocked(context.Background(), &domain.PayrollRun{ID: "run-1"})
		p.PublishAssignmentReplaced(context.Background(), &domain.SalaryAssignment{ID: "a-1"})
	})
}
