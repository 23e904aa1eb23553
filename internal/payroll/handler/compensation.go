package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/enjeyisback/HRMS/internal/payroll/domain"
	"github.com/enjeyisback/HRMS/internal/payroll/service"
	"github.com/enjeyisback/HRMS/pkg/errors"
	"github.com/enjeyisback/HRMS/pkg/httputil"
	"github.com/enjeyisback/HRMS/pkg/logger"
)

// CompensationAdmin manages the component master and employee assignments
type CompensationAdmin interface {
	ListComponents(ctx context.Context) ([]*domain.SalaryComponent, error)
	CreateComponent(ctx context.Context, c *domain.SalaryComponent) error
	DeleteComponent(ctx context.Context, id string) error
	AssignStructure(ctx context.Context, req service.AssignStructureRequest) (*domain.SalaryAssignment, error)
	CurrentStructure(ctx context.Context, employeeID string, month, year int) (*service.Compensation, error)
}

// CompensationHandler handles salary component and assignment endpoints
type CompensationHandler struct {
	service CompensationAdmin
	logger  *logger.Logger
}

// NewCompensationHandler creates a new compensation handler
func NewCompensationHandler(svc CompensationAdmin, log *logger.Logger) *CompensationHandler {
	return &CompensationHandler{
		service: svc,
		logger:  log,
	}
}

// CreateComponentRequest is the body for POST /components
type CreateComponentRequest struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Kind          string          `json:"kind" validate:"required,oneof=Earning Deduction"`
	Method        string          `json:"calculation_method" validate:"omitempty,oneof=Fixed '% of Basic' '% of Gross'"`
	Percentage    decimal.Decimal `json:"percentage"`
	IsStatutory   bool            `json:"is_statutory"`
	StatutoryKind *string         `json:"statutory_kind,omitempty" validate:"omitempty,oneof=PF ESIC PT TDS"`
}

// AssignStructureRequest is the body for PUT /employees/{id}/assignment
type AssignStructureRequest struct {
	EffectiveFrom string                    `json:"effective_from" validate:"required,datetime=2006-01-02"`
	Lines         []service.AssignLineInput `json:"lines" validate:"required,min=1,dive"`
}

// ============================================================================
// COMPONENTS
// ============================================================================

// ListComponents returns the component master
func (h *CompensationHandler) ListComponents(w http.ResponseWriter, r *http.Request) {
	components, err := h.service.ListComponents(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, components)
}

// CreateComponent adds a component to the master
func (h *CompensationHandler) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var req CreateComponentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	c := &domain.SalaryComponent{
		Name:        req.Name,
		Kind:        domain.ComponentKind(req.Kind),
		Method:      domain.CalculationMethod(req.Method),
		Percentage:  req.Percentage,
		IsStatutory: req.IsStatutory,
	}
	if req.StatutoryKind != nil {
		kind := domain.StatutoryKind(*req.StatutoryKind)
		c.StatutoryKind = &kind
	}

	if err := h.service.CreateComponent(r.Context(), c); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	httputil.Created(w, c)
}

// DeleteComponent removes an unreferenced component
func (h *CompensationHandler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id", "salary component")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteComponent(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	httputil.NoContent(w)
}

// ============================================================================
// ASSIGNMENTS
// ============================================================================

// AssignStructure replaces an employee's salary structure from a date
func (h *CompensationHandler) AssignStructure(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuidParam(r, "id", "employee")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req AssignStructureRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		httputil.Error(w, errors.BadRequest("effective_from must be YYYY-MM-DD"))
		return
	}

	assignment, err := h.service.AssignStructure(r.Context(), service.AssignStructureRequest{
		EmployeeID:    employeeID,
		EffectiveFrom: effectiveFrom,
		Lines:         req.Lines,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, assignment)
}

// CurrentStructure returns the resolved structure for ?month=&year=, defaulting to the current month
func (h *CompensationHandler) CurrentStructure(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuidParam(r, "id", "employee")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	now := time.Now()
	month, err := httputil.QueryInt(r, "month", int(now.Month()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	year, err := httputil.QueryInt(r, "year", now.Year())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if _, err := domain.NewPeriod(month, year); err != nil {
		httputil.Error(w, errors.BadRequest(err.Error()))
		return
	}

	comp, err := h.service.CurrentStructure(r.Context(), employeeID, month, year)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, comp)
}
