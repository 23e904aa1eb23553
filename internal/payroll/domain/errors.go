package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActiveAssignment means the employee has no salary structure effective for the period.
	ErrNoActiveAssignment = errors.New("no active salary assignment")

	// ErrDataFetch marks a failure reading attendance, leave, roster or assignment data.
	ErrDataFetch = errors.New("payroll data fetch failed")

	// ErrConfirmationWrite marks a failure persisting a payroll run.
	ErrConfirmationWrite = errors.New("payroll confirmation write failed")

	// ErrRunAlreadyLocked means a locked run exists for the scope and no override was requested.
	ErrRunAlreadyLocked = errors.New("payroll run already locked for this period and department")

	// ErrComponentInUse means a salary component is still referenced by an assignment.
	ErrComponentInUse = errors.New("salary component is referenced by an assignment")

	ErrRunNotFound       = errors.New("payroll run not found")
	ErrRunDetailNotFound = errors.New("payroll run detail not found")
	ErrComponentNotFound = errors.New("salary component not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
)

// DataFetchError wraps a store failure with the source that failed.
type DataFetchError struct {
	Source     string
	EmployeeID string
	Err        error
}

func (e *DataFetchError) Error() string {
	if e.EmployeeID != "" {
		return fmt.Sprintf("fetch %s for employee %s: %v", e.Source, e.EmployeeID, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *DataFetchError) Unwrap() []error {
	return []error{ErrDataFetch, e.Err}
}

// NewDataFetchError builds a DataFetchError.
func NewDataFetchError(source, employeeID string, err error) *DataFetchError {
	return &DataFetchError{Source: source, EmployeeID: employeeID, Err: err}
}

// ConfirmationError reports which employees' details could not be persisted.
// Nothing from the run is persisted when it is returned.
type ConfirmationError struct {
	FailedEmployeeIDs []string
	Err               error
}

func (e *ConfirmationError) Error() string {
	if len(e.FailedEmployeeIDs) == 0 {
		return fmt.Sprintf("confirm payroll run: %v", e.Err)
	}
	return fmt.Sprintf("confirm payroll run: failed employees [%s]: %v",
		strings.Join(e.FailedEmployeeIDs, ", "), e.Err)
}

func (e *ConfirmationError) Unwrap() []error {
	return []error{ErrConfirmationWrite, e.Err}
}
