package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/export"
	"github.com/enjeyisback/HRMS/internal/payroll/handler"
	"github.com/enjeyisback/HRMS/internal/payroll/repository"
	"github.com/enjeyisback/HRMS/internal/payroll/service"
	"github.com/enjeyisback/HRMS/pkg/httputil"
	"github.com/enjeyisback/HRMS/pkg/logger"
	"github.com/enjeyisback/HRMS/pkg/testutil"
)

type stubRuns struct {
	preview   func(service.PreviewRequest) (*service.Preview, error)
	confirm   func(service.ConfirmRequest) (*domain.PayrollRun, error)
	getRun    func(id string) (*service.RunWithDetails, error)
	listRuns  func(repository.RunFilter) ([]*domain.PayrollRun, int64, error)
	getDetail func(runID, employeeID string) (*domain.PayrollRunDetail, error)
}

func (s *stubRuns) Preview(_ context.Context, req service.PreviewRequest) (*service.Preview, error) {
	return s.preview(req)
}

func (s *stubRuns) Confirm(_ context.Context, req service.ConfirmRequest) (*domain.PayrollRun, error) {
	return s.confirm(req)
}

func (s *stubRuns) GetRun(_ context.Context, id string) (*service.RunWithDetails, error) {
	return s.getRun(id)
}

func (s *stubRuns) ListRuns(_ context.Context, f repository.RunFilter) ([]*domain.PayrollRun, int64, error) {
	return s.listRuns(f)
}

func (s *stubRuns) GetRunDetail(_ context.Context, runID, employeeID string) (*domain.PayrollRunDetail, error) {
	return s.getDetail(runID, employeeID)
}

type stubCompensation struct {
	created  *domain.SalaryComponent
	assigned *service.AssignStructureRequest
	err      error
}

func (s *stubCompensation) ListComponents(context.Context) ([]*domain.SalaryComponent, error) {
	return []*domain.SalaryComponent{{ID: "c-1", Name: "Basic", Kind: domain.KindEarning}}, s.err
}

func (s *stubCompensation) CreateComponent(_ context.Context, c *domain.SalaryComponent) error {
	if s.err != nil {
		return s.err
	}
	c.ID = "c-new"
	s.created = c
	return nil
}

func (s *stubCompensation) DeleteComponent(context.Context, string) error {
	return s.err
}

func (s *stubCompensation) AssignStructure(_ context.Context, req service.AssignStructureRequest) (*domain.SalaryAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.assigned = &req
	return &domain.SalaryAssignment{ID: "a-1", EmployeeID: req.EmployeeID, EffectiveFrom: req.EffectiveFrom}, nil
}

func (s *stubCompensation) CurrentStructure(context.Context, string, int, int) (*service.Compensation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.Compensation{AssignmentID: "a-1", Basic: decimal.NewFromInt(20000)}, nil
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
	Meta    *httputil.Meta      `json:"meta"`
}

func router(runs *stubRuns, comp *stubCompensation) http.Handler {
	r := chi.NewRouter()
	r.Use(httputil.UserContext)
	r.Route("/api/v1/payroll", func(r chi.Router) {
		handler.Mount(r,
			handler.NewPayrollHandler(runs, logger.Nop()),
			handler.NewCompensationHandler(comp, logger.Nop()),
		)
	})
	return r
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	return env
}

func sampleResult(id string) domain.PayrollResult {
	return domain.PayrollResult{
		EmployeeID:     id,
		EmployeeCode:   "EMP-0001",
		EmployeeName:   "Asha Rao",
		DepartmentName: "Nursing",
		Month:          4,
		Year:           2024,
		MonthlyGross:   decimal.NewFromInt(28000),
		TotalEarnings:  decimal.RequireFromString("25454.55"),
		NetPayable:     decimal.RequireFromString("23072.55"),
	}
}

func TestPreview_ValidatesPeriod(t *testing.T) {
	called := false
	runs := &stubRuns{preview: func(service.PreviewRequest) (*service.Preview, error) {
		called = true
		return nil, nil
	}}

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/preview", map[string]int{"month": 13, "year": 2024})
	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	env := decode(t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "month")
	assert.False(t, called)
}

func TestPreview_AllDepartmentsMeansNoFilter(t *testing.T) {
	var got service.PreviewRequest
	runs := &stubRuns{preview: func(req service.PreviewRequest) (*service.Preview, error) {
		got = req
		return &service.Preview{Results: []domain.PayrollResult{sampleResult("emp-1")}}, nil
	}}

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/preview", map[string]interface{}{
		"month": 4, "year": 2024, "department_id": "all",
	})
	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}), req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 4, got.Month)
	assert.Nil(t, got.DepartmentID)
	testutil.AssertBodyContains(t, rr, `"net_payable":"23072.55"`)
}

func TestPreview_DataFetchFailureIsUnavailable(t *testing.T) {
	runs := &stubRuns{preview: func(service.PreviewRequest) (*service.Preview, error) {
		return nil, domain.NewDataFetchError("attendance", "emp-1", errors.New("timeout"))
	}}

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/preview", map[string]int{"month": 4, "year": 2024})
	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}), req)

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decode(t, rr).Error.Code)
}

func TestPreviewExport_WritesWorkbook(t *testing.T) {
	dept := uuid.NewString()
	runs := &stubRuns{preview: func(req service.PreviewRequest) (*service.Preview, error) {
		return &service.Preview{DepartmentID: &dept, Results: []domain.PayrollResult{sampleResult("emp-1")}}, nil
	}}

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/preview/export", map[string]interface{}{
		"month": 4, "year": 2024, "department_id": dept,
	})
	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}), req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, export.ContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "payroll-register-2024-04.xlsx")

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue(export.SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Payroll Register - April 2024 - Nursing", title)
}

func TestConfirm_PassesActingUser(t *testing.T) {
	var got service.ConfirmRequest
	runs := &stubRuns{confirm: func(req service.ConfirmRequest) (*domain.PayrollRun, error) {
		got = req
		return &domain.PayrollRun{ID: "run-1", Month: 4, Year: 2024, Status: domain.RunLocked, EmployeeCount: 1}, nil
	}}

	body := map[string]interface{}{
		"month":    4,
		"year":     2024,
		"override": true,
		"results":  []domain.PayrollResult{sampleResult("emp-1")},
	}
	req := testutil.WithUserHeaders(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/runs", body), "user-7")
	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}), req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	assert.Equal(t, "user-7", got.ConfirmedBy)
	assert.True(t, got.Override)
	require.Len(t, got.Results, 1)
	assert.True(t, got.Results[0].NetPayable.Equal(decimal.RequireFromString("23072.55")))
	testutil.AssertBodyContains(t, rr, `"status":"Locked"`)
}

func TestConfirm_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "already locked", err: domain.ErrRunAlreadyLocked, status: http.StatusConflict, code: "RUN_ALREADY_LOCKED"},
		{
			name:   "write failure",
			err:    &domain.ConfirmationError{FailedEmployeeIDs: []string{"emp-2", "emp-5"}, Err: errors.New("disk full")},
			status: http.StatusInternalServerError,
			code:   "CONFIRMATION_FAILED",
		},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &stubRuns{confirm: func(service.ConfirmRequest) (*domain.PayrollRun, error) {
				return nil, tt.err
			}}
			body := map[string]interface{}{
				"month": 4, "year": 2024, "results": []domain.PayrollResult{sampleResult("emp-1")},
			}
			rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}),
				testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/runs", body))

			testutil.AssertStatus(t, rr, tt.status)
			env := decode(t, rr)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestConfirm_ReportsFailedEmployees(t *testing.T) {
	runs := &stubRuns{confirm: func(service.ConfirmRequest) (*domain.PayrollRun, error) {
		return nil, &domain.ConfirmationError{FailedEmployeeIDs: []string{"emp-2", "emp-5"}, Err: errors.New("disk full")}
	}}
	body := map[string]interface{}{
		"month": 4, "year": 2024, "results": []domain.PayrollResult{sampleResult("emp-1")},
	}
	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}),
		testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/runs", body))

	env := decode(t, rr)
	assert.Equal(t, "emp-2,emp-5", env.Error.Details["failed_employee_ids"])
}

func TestConfirm_RequiresResults(t *testing.T) {
	rr := testutil.ExecuteRequest(router(&stubRuns{}, &stubCompensation{}),
		testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/runs", map[string]int{"month": 4, "year": 2024}))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, decode(t, rr).Error.Details, "results")
}

func TestListRuns_PassesFilter(t *testing.T) {
	deptID := uuid.NewString()
	var got repository.RunFilter
	runs := &stubRuns{listRuns: func(f repository.RunFilter) ([]*domain.PayrollRun, int64, error) {
		got = f
		return []*domain.PayrollRun{{ID: "run-1"}}, 11, nil
	}}

	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}),
		testutil.NewHTTPRequest(http.MethodGet, "/api/v1/payroll/runs?page=2&per_page=5&month=4&year=2024&department_id="+deptID, nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 5, got.PerPage)
	assert.Equal(t, 4, got.Month)
	assert.Equal(t, 2024, got.Year)
	require.NotNil(t, got.DepartmentID)
	assert.Equal(t, deptID, *got.DepartmentID)

	env := decode(t, rr)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestListRuns_BadQuery(t *testing.T) {
	rr := testutil.ExecuteRequest(router(&stubRuns{}, &stubCompensation{}),
		testutil.NewHTTPRequest(http.MethodGet, "/api/v1/payroll/runs?page=two", nil))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestGetRun_NotFound(t *testing.T) {
	runs := &stubRuns{getRun: func(id string) (*service.RunWithDetails, error) {
		return nil, domain.ErrRunNotFound
	}}

	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}),
		testutil.NewHTTPRequest(http.MethodGet, "/api/v1/payroll/runs/"+uuid.NewString(), nil))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestMalformedIDsNeverReachTheService(t *testing.T) {
	calls := 0
	runs := &stubRuns{
		getRun: func(string) (*service.RunWithDetails, error) {
			calls++
			return nil, domain.ErrRunNotFound
		},
		getDetail: func(string, string) (*domain.PayrollRunDetail, error) {
			calls++
			return nil, domain.ErrRunDetailNotFound
		},
	}
	comp := &stubCompensation{}
	h := router(runs, comp)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "run", method: http.MethodGet, path: "/api/v1/payroll/runs/missing"},
		{name: "run export", method: http.MethodGet, path: "/api/v1/payroll/runs/42/export"},
		{name: "run detail", method: http.MethodGet, path: "/api/v1/payroll/runs/" + uuid.NewString() + "/details/emp-3"},
		{name: "component", method: http.MethodDelete, path: "/api/v1/payroll/components/c-1"},
		{name: "assignment", method: http.MethodGet, path: "/api/v1/payroll/employees/emp-1/assignment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(tt.method, tt.path, nil))
			testutil.AssertStatus(t, rr, http.StatusNotFound)
			assert.Equal(t, "NOT_FOUND", decode(t, rr).Error.Code)
		})
	}
	assert.Zero(t, calls)
}

func TestMalformedDepartmentIsRejected(t *testing.T) {
	called := false
	runs := &stubRuns{
		preview: func(service.PreviewRequest) (*service.Preview, error) {
			called = true
			return nil, nil
		},
		listRuns: func(repository.RunFilter) ([]*domain.PayrollRun, int64, error) {
			called = true
			return nil, 0, nil
		},
	}
	h := router(runs, &stubCompensation{})

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/preview",
		map[string]interface{}{"month": 4, "year": 2024, "department_id": "nursing"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, decode(t, rr).Error.Details, "department_id")

	rr = testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/payroll/runs?department_id=nursing", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.False(t, called)
}

func TestExportRun_UsesRunMetadata(t *testing.T) {
	runID := uuid.NewString()
	runs := &stubRuns{getRun: func(id string) (*service.RunWithDetails, error) {
		return &service.RunWithDetails{
			Run: &domain.PayrollRun{ID: id, Month: 4, Year: 2024, Status: domain.RunLocked},
			Details: []domain.PayrollRunDetail{
				{RunID: id, EmployeeID: "emp-1", Result: sampleResult("emp-1")},
			},
		}, nil
	}}

	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}),
		testutil.NewHTTPRequest(http.MethodGet, "/api/v1/payroll/runs/"+runID+"/export", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "payroll-register-2024-04-"+runID+".xlsx")

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	status, err := f.GetCellValue(export.SheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Status: Locked", status)
	code, err := f.GetCellValue(export.SheetName, "A5")
	require.NoError(t, err)
	assert.Equal(t, "EMP-0001", code)
}

func TestGetRunDetail_RoutesBothParams(t *testing.T) {
	runID, employeeID := uuid.NewString(), uuid.NewString()
	var gotRun, gotEmp string
	runs := &stubRuns{getDetail: func(runID, employeeID string) (*domain.PayrollRunDetail, error) {
		gotRun, gotEmp = runID, employeeID
		return nil, domain.ErrRunDetailNotFound
	}}

	rr := testutil.ExecuteRequest(router(runs, &stubCompensation{}),
		testutil.NewHTTPRequest(http.MethodGet, "/api/v1/payroll/runs/"+runID+"/details/"+employeeID, nil))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	assert.Equal(t, runID, gotRun)
	assert.Equal(t, employeeID, gotEmp)
}

func TestCreateComponent(t *testing.T) {
	comp := &stubCompensation{}
	h := router(&stubRuns{}, comp)

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/components",
		map[string]interface{}{"name": "HRA", "kind": "Bonus"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, decode(t, rr).Error.Details, "kind")
	assert.Nil(t, comp.created)

	rr = testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/components",
		map[string]interface{}{"name": "HRA", "kind": "Earning", "calculation_method": "% of Basic", "percentage": "40"}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	require.NotNil(t, comp.created)
	assert.Equal(t, domain.MethodPercentOfBasic, comp.created.Method)
	assert.True(t, comp.created.Percentage.Equal(decimal.NewFromInt(40)))
}

func TestDeleteComponent(t *testing.T) {
	comp := &stubCompensation{}
	h := router(&stubRuns{}, comp)
	path := "/api/v1/payroll/components/" + uuid.NewString()

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodDelete, path, nil))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	comp.err = domain.ErrComponentInUse
	rr = testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodDelete, path, nil))
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestAssignStructure(t *testing.T) {
	empID := uuid.NewString()
	comp := &stubCompensation{}
	h := router(&stubRuns{}, comp)
	componentID := uuid.NewString()
	path := "/api/v1/payroll/employees/" + empID + "/assignment"

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPut, path,
		map[string]interface{}{
			"effective_from": "01/04/2024",
			"lines":          []map[string]string{{"component_id": componentID, "amount": "20000"}},
		}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, decode(t, rr).Error.Details, "effective_from")

	rr = testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPut, path,
		map[string]interface{}{
			"effective_from": "2024-04-01",
			"lines":          []map[string]string{{"component_id": componentID, "amount": "20000"}},
		}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	require.NotNil(t, comp.assigned)
	assert.Equal(t, empID, comp.assigned.EmployeeID)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), comp.assigned.EffectiveFrom)
	assert.True(t, comp.assigned.Lines[0].Amount.Equal(decimal.NewFromInt(20000)))
}

func TestCurrentStructure(t *testing.T) {
	comp := &stubCompensation{}
	h := router(&stubRuns{}, comp)
	path := "/api/v1/payroll/employees/" + uuid.NewString() + "/assignment"

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, path+"?month=4&year=2024", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"basic":"20000"`)

	rr = testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, path+"?month=0&year=2024", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	comp.err = domain.ErrNoActiveAssignment
	rr = testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, path+"?month=4&year=2024", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestServerErrorsAreLoggedWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	runs := &stubRuns{confirm: func(service.ConfirmRequest) (*domain.PayrollRun, error) {
		return nil, errors.New("boom")
	}}

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Route("/api/v1/payroll", func(r chi.Router) {
		handler.Mount(r,
			handler.NewPayrollHandler(runs, logger.NewWithWriter(&buf, "payroll-service")),
			handler.NewCompensationHandler(&stubCompensation{}, logger.Nop()),
		)
	})

	body := map[string]interface{}{
		"month": 4, "year": 2024, "results": []domain.PayrollResult{sampleResult("emp-1")},
	}
	req := testutil.WithRequestID(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/payroll/runs", body), "req-42")
	rr := testutil.ExecuteRequest(r, req)

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
}
