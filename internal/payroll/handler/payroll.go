package handler

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/export"
	"github.com/enjeyisback/HRMS/internal/payroll/repository"
	"github.com/enjeyisback/HRMS/internal/payroll/service"
	"github.com/enjeyisback/HRMS/pkg/errors"
	"github.com/enjeyisback/HRMS/pkg/httputil"
	"github.com/enjeyisback/HRMS/pkg/logger"
)

// RunService is the run orchestration the handler exposes
type RunService interface {
	Preview(ctx context.Context, req service.PreviewRequest) (*service.Preview, error)
	Confirm(ctx context.Context, req service.ConfirmRequest) (*domain.PayrollRun, error)
	GetRun(ctx context.Context, id string) (*service.RunWithDetails, error)
	ListRuns(ctx context.Context, f repository.RunFilter) ([]*domain.PayrollRun, int64, error)
	GetRunDetail(ctx context.Context, runID, employeeID string) (*domain.PayrollRunDetail, error)
}

// PayrollHandler handles payroll run endpoints
type PayrollHandler struct {
	runs   RunService
	logger *logger.Logger
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(runs RunService, log *logger.Logger) *PayrollHandler {
	return &PayrollHandler{
		runs:   runs,
		logger: log,
	}
}

// PreviewRequest selects a payroll period
type PreviewRequest struct {
	Month        int     `json:"month" validate:"required,min=1,max=12"`
	Year         int     `json:"year" validate:"required,min=2000,max=2100"`
	DepartmentID *string `json:"department_id,omitempty"`
}

func (p PreviewRequest) toService() (service.PreviewRequest, error) {
	dept, err := departmentScope(p.DepartmentID)
	if err != nil {
		return service.PreviewRequest{}, err
	}
	return service.PreviewRequest{Month: p.Month, Year: p.Year, DepartmentID: dept}, nil
}

// ConfirmRequest locks reviewed preview results
type ConfirmRequest struct {
	Month        int                    `json:"month" validate:"required,min=1,max=12"`
	Year         int                    `json:"year" validate:"required,min=2000,max=2100"`
	DepartmentID *string                `json:"department_id,omitempty"`
	Override     bool                   `json:"override"`
	Results      []domain.PayrollResult `json:"results" validate:"required,min=1"`
}

// departmentScope maps "" and "all" to nil, meaning every department.
// Anything else must be a department UUID.
func departmentScope(id *string) (*string, error) {
	if id == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*id)
	if v == "" || strings.EqualFold(v, "all") {
		return nil, nil
	}
	if _, err := uuid.Parse(v); err != nil {
		return nil, errors.Validation(map[string]string{"department_id": "must be a UUID or \"all\""})
	}
	return &v, nil
}

// uuidParam returns the URL parameter key, or a not-found error for resource
// when it is not a UUID.
func uuidParam(r *http.Request, key, resource string) (string, error) {
	v := chi.URLParam(r, key)
	if _, err := uuid.Parse(v); err != nil {
		return "", errors.NotFound(resource)
	}
	return v, nil
}

// ============================================================================
// PREVIEW
// ============================================================================

// Preview calculates payroll for the period without persisting anything
func (h *PayrollHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	scope, err := req.toService()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	preview, err := h.runs.Preview(r.Context(), scope)
	if err != nil {
		h.error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, preview)
}

// PreviewExport returns the preview as an XLSX register
func (h *PayrollHandler) PreviewExport(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	scope, err := req.toService()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	preview, err := h.runs.Preview(r.Context(), scope)
	if err != nil {
		h.error(w, r, err)
		return
	}

	meta := export.RegisterMeta{Month: req.Month, Year: req.Year, Status: "Preview"}
	if preview.DepartmentID != nil && len(preview.Results) > 0 {
		meta.DepartmentName = preview.Results[0].DepartmentName
	}
	h.writeRegister(w, r, meta, preview.Results)
}

// ============================================================================
// RUNS
// ============================================================================

// Confirm locks a reviewed preview as a payroll run
func (h *PayrollHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	dept, err := departmentScope(req.DepartmentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	run, err := h.runs.Confirm(r.Context(), service.ConfirmRequest{
		Month:        req.Month,
		Year:         req.Year,
		DepartmentID: dept,
		Results:      req.Results,
		Override:     req.Override,
		ConfirmedBy:  httputil.GetUserID(r.Context()),
	})
	if err != nil {
		h.error(w, r, err)
		return
	}

	httputil.Created(w, run)
}

// ListRuns lists locked runs
func (h *PayrollHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	f := repository.RunFilter{Page: 1, PerPage: 20}

	var err error
	if f.Page, err = httputil.QueryInt(r, "page", 1); err != nil {
		httputil.Error(w, err)
		return
	}
	if f.PerPage, err = httputil.QueryInt(r, "per_page", 20); err != nil {
		httputil.Error(w, err)
		return
	}
	if f.Month, err = httputil.QueryInt(r, "month", 0); err != nil {
		httputil.Error(w, err)
		return
	}
	if f.Year, err = httputil.QueryInt(r, "year", 0); err != nil {
		httputil.Error(w, err)
		return
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	if dept := r.URL.Query().Get("department_id"); dept != "" {
		if f.DepartmentID, err = departmentScope(&dept); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	runs, total, err := h.runs.ListRuns(r.Context(), f)
	if err != nil {
		h.error(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, runs, httputil.NewMeta(f.Page, f.PerPage, total))
}

// GetRun returns a run with its frozen details
func (h *PayrollHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id", "payroll run")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, run)
}

// ExportRun returns a locked run as an XLSX register
func (h *PayrollHandler) ExportRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id", "payroll run")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.error(w, r, err)
		return
	}

	results := make([]domain.PayrollResult, 0, len(run.Details))
	for _, d := range run.Details {
		results = append(results, d.Result)
	}

	meta := export.RegisterMeta{
		Month:  run.Run.Month,
		Year:   run.Run.Year,
		Status: string(run.Run.Status),
		RunID:  run.Run.ID,
	}
	if run.Run.DepartmentID != nil && len(results) > 0 {
		meta.DepartmentName = results[0].DepartmentName
	}
	h.writeRegister(w, r, meta, results)
}

// GetRunDetail returns one employee's frozen result
func (h *PayrollHandler) GetRunDetail(w http.ResponseWriter, r *http.Request) {
	runID, err := uuidParam(r, "id", "payroll run")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	employeeID, err := uuidParam(r, "employeeId", "payroll run detail")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	detail, err := h.runs.GetRunDetail(r.Context(), runID, employeeID)
	if err != nil {
		h.error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, detail)
}

func (h *PayrollHandler) writeRegister(w http.ResponseWriter, r *http.Request, meta export.RegisterMeta, results []domain.PayrollResult) {
	var buf bytes.Buffer
	if err := export.WriteRegister(&buf, meta, results); err != nil {
		h.error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *PayrollHandler) error(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

// ============================================================================
// ERRORS
// ============================================================================

func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := httputil.DecodeJSON(r, v); err != nil {
		return err
	}
	return httputil.Validate(v)
}

// toAppError maps domain errors to HTTP errors
func toAppError(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var confirmErr *domain.ConfirmationError
	switch {
	case stderrors.Is(err, domain.ErrNoActiveAssignment):
		return errors.Wrap(err, "NOT_FOUND", "no active salary assignment for this period", http.StatusNotFound)
	case stderrors.Is(err, domain.ErrRunNotFound):
		return errors.NotFound("payroll run")
	case stderrors.Is(err, domain.ErrRunDetailNotFound):
		return errors.NotFound("payroll run detail")
	case stderrors.Is(err, domain.ErrComponentNotFound):
		return errors.NotFound("salary component")
	case stderrors.Is(err, domain.ErrEmployeeNotFound):
		return errors.NotFound("employee")
	case stderrors.Is(err, domain.ErrRunAlreadyLocked):
		return errors.Wrap(err, "RUN_ALREADY_LOCKED",
			"a locked payroll run already exists for this period and department; set override to confirm again",
			http.StatusConflict)
	case stderrors.Is(err, domain.ErrComponentInUse):
		return errors.Wrap(err, "COMPONENT_IN_USE", "salary component is still assigned to employees", http.StatusConflict)
	case stderrors.As(err, &confirmErr):
		appErr := errors.Wrap(err, "CONFIRMATION_FAILED", "payroll run was not saved", http.StatusInternalServerError)
		if len(confirmErr.FailedEmployeeIDs) > 0 {
			appErr = appErr.WithDetails(map[string]string{
				"failed_employee_ids": strings.Join(confirmErr.FailedEmployeeIDs, ","),
			})
		}
		return appErr
	case stderrors.Is(err, domain.ErrDataFetch):
		return errors.Unavailable("payroll data could not be loaded; nothing was calculated")
	}
	return err
}

func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	mapped := toAppError(err)

	var appErr *errors.AppError
	if !stderrors.As(mapped, &appErr) || appErr.StatusCode >= http.StatusInternalServerError {
		log.WithRequestID(httputil.GetRequestID(r.Context())).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	httputil.Error(w, mapped)
}
