package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/repository"
)

type fakeCompensation struct {
	mu          sync.Mutex
	assignments map[string][]*domain.SalaryAssignment
	components  map[string]*domain.SalaryComponent
	inUse       map[string]bool
	err         error
}

func newFakeCompensation() *fakeCompensation {
	return &fakeCompensation{
		assignments: map[string][]*domain.SalaryAssignment{},
		components:  map[string]*domain.SalaryComponent{},
		inUse:       map[string]bool{},
	}
}

func (f *fakeCompensation) add(a *domain.SalaryAssignment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments[a.EmployeeID] = append(f.assignments[a.EmployeeID], a)
	for _, l := range a.Lines {
		c := l.Component
		f.components[c.ID] = &c
	}
}

func (f *fakeCompensation) GetEffectiveAssignment(_ context.Context, employeeID string, asOf time.Time) (*domain.SalaryAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var best *domain.SalaryAssignment
	for _, a := range f.assignments[employeeID] {
		if a.EffectiveFrom.After(asOf) {
			continue
		}
		if best == nil || a.EffectiveFrom.After(best.EffectiveFrom) {
			best = a
		}
	}
	if best == nil {
		return nil, domain.ErrNoActiveAssignment
	}
	return best, nil
}

func (f *fakeCompensation) ListComponents(context.Context) ([]*domain.SalaryComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.SalaryComponent, 0, len(f.components))
	for _, c := range f.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCompensation) GetComponentsByIDs(_ context.Context, ids []string) (map[string]*domain.SalaryComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]*domain.SalaryComponent{}
	for _, id := range ids {
		if c, ok := f.components[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeCompensation) CreateComponent(_ context.Context, c *domain.SalaryComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	f.components[c.ID] = c
	return nil
}

func (f *fakeCompensation) DeleteComponent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inUse[id] {
		return domain.ErrComponentInUse
	}
	if _, ok := f.components[id]; !ok {
		return domain.ErrComponentNotFound
	}
	delete(f.components, id)
	return nil
}

func (f *fakeCompensation) ReplaceAssignment(_ context.Context, a *domain.SalaryAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.assignments[a.EmployeeID]
	for i, existing := range list {
		if existing.EffectiveFrom.Equal(a.EffectiveFrom) {
			a.ID = existing.ID
			list[i] = a
			return nil
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	f.assignments[a.EmployeeID] = append(list, a)
	return nil
}

type fakeAttendance struct {
	records map[string][]domain.AttendanceRecord
	leaves  map[string][]domain.LeaveRequest
	failFor map[string]error
}

func newFakeAttendance() *fakeAttendance {
	return &fakeAttendance{
		records: map[string][]domain.AttendanceRecord{},
		leaves:  map[string][]domain.LeaveRequest{},
		failFor: map[string]error{},
	}
}

func (f *fakeAttendance) ListAttendance(_ context.Context, employeeID string, _, _ time.Time) ([]domain.AttendanceRecord, error) {
	if err := f.failFor[employeeID]; err != nil {
		return nil, err
	}
	return f.records[employeeID], nil
}

func (f *fakeAttendance) ListApprovedLeave(_ context.Context, employeeID string, _, _ time.Time) ([]domain.LeaveRequest, error) {
	return f.leaves[employeeID], nil
}

type fakeRoster struct {
	employees []*domain.Employee
	err       error
}

func (f *fakeRoster) ListActive(_ context.Context, departmentID *string) ([]*domain.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Employee
	for _, e := range f.employees {
		if departmentID == nil || (e.DepartmentID != nil && *e.DepartmentID == *departmentID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRoster) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrEmployeeNotFound
}

// fakeRuns stores details as JSON so reads go through the same encoding as the
// real repository.
type fakeRuns struct {
	mu      sync.Mutex
	runs    map[string]*domain.PayrollRun
	details map[string][][]byte
	failFor map[string]bool
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{
		runs:    map[string]*domain.PayrollRun{},
		details: map[string][][]byte{},
		failFor: map[string]bool{},
	}
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeRuns) CreateLocked(_ context.Context, run *domain.PayrollRun, results []domain.PayrollResult, override bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !override {
		for _, r := range f.runs {
			if r.Month == run.Month && r.Year == run.Year && sameScope(r.DepartmentID, run.DepartmentID) {
				return domain.ErrRunAlreadyLocked
			}
		}
	}

	var failed []string
	staged := make([][]byte, 0, len(results))
	for i := range results {
		if f.failFor[results[i].EmployeeID] {
			failed = append(failed, results[i].EmployeeID)
			continue
		}
		b, err := json.Marshal(results[i])
		if err != nil {
			return err
		}
		staged = append(staged, b)
	}
	if len(failed) > 0 {
		return &domain.ConfirmationError{FailedEmployeeIDs: failed, Err: errors.New("insert failed")}
	}

	run.ID = uuid.New().String()
	now := time.Now().UTC()
	run.Status = domain.RunLocked
	run.Override = override
	run.CreatedAt = now
	run.LockedAt = &now
	f.runs[run.ID] = run
	f.details[run.ID] = staged
	return nil
}

func (f *fakeRuns) GetByID(_ context.Context, id string) (*domain.PayrollRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return r, nil
}

func (f *fakeRuns) List(_ context.Context, _ repository.RunFilter) ([]*domain.PayrollRun, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.PayrollRun, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRuns) ListDetails(_ context.Context, runID string) ([]domain.PayrollRunDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.PayrollRunDetail, 0, len(f.details[runID]))
	for i, b := range f.details[runID] {
		d := domain.PayrollRunDetail{ID: fmt.Sprintf("%s-%d", runID, i), RunID: runID}
		if err := json.Unmarshal(b, &d.Result); err != nil {
			return nil, err
		}
		d.EmployeeID = d.Result.EmployeeID
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRuns) GetDetail(ctx context.Context, runID, employeeID string) (*domain.PayrollRunDetail, error) {
	details, err := f.ListDetails(ctx, runID)
	if err != nil {
		return nil, err
	}
	for i := range details {
		if details[i].EmployeeID == employeeID {
			return &details[i], nil
		}
	}
	return nil, domain.ErrRunDetailNotFound
}

func (f *fakeRuns) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}
