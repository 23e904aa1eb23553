package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/pkg/database"
)

// AttendanceRepository reads daily attendance and approved leave
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListAttendance returns the employee's attendance rows dated within [from, to].
func (r *AttendanceRepository) ListAttendance(ctx context.Context, employeeID string, from, to time.Time) ([]domain.AttendanceRecord, error) {
	var records []domain.AttendanceRecord
	query := `
		SELECT employee_id, date, status
		FROM attendance
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	if err := r.db.SelectContext(ctx, &records, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListApprovedLeave returns approved leave requests overlapping [from, to].
// IsPaid is taken from the request's leave type.
func (r *AttendanceRepository) ListApprovedLeave(ctx context.Context, employeeID string, from, to time.Time) ([]domain.LeaveRequest, error) {
	var leaves []domain.LeaveRequest
	query := `
		SELECT lr.id, lr.employee_id, lr.start_date, lr.end_date, lt.is_paid, lr.status
		FROM leave_requests lr
		JOIN leave_types lt ON lt.id = lr.leave_type_id
		WHERE lr.employee_id = $1
		  AND lr.status = 'Approved'
		  AND lr.start_date <= $3
		  AND lr.end_date >= $2
		ORDER BY lr.start_date
	`
	if err := r.db.SelectContext(ctx, &leaves, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list approved leave: %w", err)
	}
	return leaves, nil
}
