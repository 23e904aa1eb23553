package service

import (
	"context"
	"time"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
)

// AttendanceStore reads attendance rows and approved leave
type AttendanceStore interface {
	ListAttendance(ctx context.Context, employeeID string, from, to time.Time) ([]domain.AttendanceRecord, error)
	ListApprovedLeave(ctx context.Context, employeeID string, from, to time.Time) ([]domain.LeaveRequest, error)
}

// AttendanceAggregator reduces attendance and leave to a DaySummary
type AttendanceAggregator struct {
	store AttendanceStore
}

// NewAttendanceAggregator creates a new aggregator
func NewAttendanceAggregator(store AttendanceStore) *AttendanceAggregator {
	return &AttendanceAggregator{store: store}
}

// Aggregate counts working, present and leave days for the employee within the period.
// Leave outside the period is clipped and only Approved leave counts.
func (a *AttendanceAggregator) Aggregate(ctx context.Context, employeeID string, period domain.Period) (domain.DaySummary, error) {
	records, err := a.store.ListAttendance(ctx, employeeID, period.Start, period.End)
	if err != nil {
		return domain.DaySummary{}, domain.NewDataFetchError("attendance", employeeID, err)
	}
	leaves, err := a.store.ListApprovedLeave(ctx, employeeID, period.Start, period.End)
	if err != nil {
		return domain.DaySummary{}, domain.NewDataFetchError("leave", employeeID, err)
	}

	s := domain.DaySummary{WorkingDays: domain.CountWeekdays(period.Start, period.End)}

	seen := make(map[time.Time]struct{}, len(records))
	for _, rec := range records {
		day := domain.DateOf(rec.Date)
		if rec.Status != domain.AttendancePresent || !period.Contains(day) {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		s.PresentDays++
	}

	for _, l := range leaves {
		if l.Status != domain.LeaveApproved {
			continue
		}
		from, to := domain.DateOf(l.StartDate), domain.DateOf(l.EndDate)
		if from.Before(period.Start) {
			from = period.Start
		}
		if to.After(period.End) {
			to = period.End
		}
		days := domain.CountWeekdays(from, to)
		if l.IsPaid {
			s.PaidLeaveDays += days
		} else {
			s.UnpaidLeaveDays += days
		}
	}

	s.LOPDays = max(0, s.WorkingDays-s.PresentDays-s.PaidLeaveDays)
	s.UnexplainedAbsenceDays = max(0, s.LOPDays-s.UnpaidLeaveDays)
	return s, nil
}
