package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventPayrollRunLocked          = "payroll.run.locked"
	EventPayrollAssignmentReplaced = "payroll.assignment.replaced"
)

// Exchange names
const (
	ExchangePayrollEvents = "payroll.events"
)

// Event is the envelope every message on the bus carries
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// PayrollRunLockedEvent is published once a run and all its details are committed.
// Money values are decimal strings.
type PayrollRunLockedEvent struct {
	RunID           string    `json:"run_id"`
	Month           int       `json:"month"`
	Year            int       `json:"year"`
	DepartmentID    *string   `json:"department_id,omitempty"`
	EmployeeCount   int       `json:"employee_count"`
	TotalEarnings   string    `json:"total_earnings"`
	TotalDeductions string    `json:"total_deductions"`
	TotalNetPayable string    `json:"total_net_payable"`
	LockedBy        *string   `json:"locked_by,omitempty"`
	LockedAt        time.Time `json:"locked_at"`
}

// AssignmentReplacedEvent is published when an employee's salary structure is written.
type AssignmentReplacedEvent struct {
	AssignmentID  string `json:"assignment_id"`
	EmployeeID    string `json:"employee_id"`
	EffectiveFrom string `json:"effective_from"`
	GrossSalary   string `json:"gross_salary"`
	NetSalary     string `json:"net_salary"`
}
