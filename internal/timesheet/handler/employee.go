package handler

import (
	"net/http"

	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/httputil"
	"github.com/worktime/worktime-backend/pkg/logger"
)

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	service *service.TimesheetService
	logger  *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc *service.TimesheetService, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{service: svc, logger: log}
}

// CreateEmployeeRequest is the body of POST /employees
type CreateEmployeeRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	PositionID string `json:"position_id" validate:"required,uuid"`
}

// List returns all employees with their positions
// GET /employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, employees, &httputil.Meta{Total: int64(len(employees))})
}

// Create creates an employee
// POST /employees
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	employee, err := h.service.CreateEmployee(r.Context(), req.Name, req.PositionID)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, employee)
}

// Get returns one employee
// GET /employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	employee, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employee)
}

// Delete deletes an employee without time entries
// DELETE /employees/{id}
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.DeleteEmployee(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.NoContent(w)
}
