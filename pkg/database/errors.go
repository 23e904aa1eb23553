package database

import (
	stderrors "errors"
	"strings"

	"github.com/enjeyisback/HRMS/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with a meaningful message.
// Returns nil if the error is not a pq.Error or has no mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23514":
		return mapCheckConstraint(pqErr)

	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	case "23503":
		// Deleting a parent that is still referenced also lands here.
		if strings.Contains(pqErr.Constraint, "component") {
			return errors.Conflict("salary component is referenced by an assignment")
		}
		return errors.BadRequest("referenced record does not exist")

	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "percentage"):
		return errors.Validation(map[string]string{
			"percentage": "must be between 0 and 100",
		})
	case strings.Contains(constraint, "calculation_method"):
		return errors.Validation(map[string]string{
			"calculation_method": "must be one of: Fixed, % of Basic, % of Gross",
		})
	case strings.Contains(constraint, "month"):
		return errors.Validation(map[string]string{
			"month": "must be between 1 and 12",
		})
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "salary_components_name"):
		return "a salary component with this name already exists"
	case strings.Contains(constraint, "run_details"):
		return "employee already has a result in this payroll run"
	case strings.Contains(constraint, "assignments_employee"):
		return "an assignment with this effective date already exists"
	default:
		return "a record with these values already exists"
	}
}
