package handler

import (
	"net/http"
	"time"

	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/httputil"
	"github.com/worktime/worktime-backend/pkg/logger"
)

// TimeEntryHandler handles time entry endpoints
type TimeEntryHandler struct {
	service *service.TimesheetService
	logger  *logger.Logger
}

// NewTimeEntryHandler creates a new time entry handler
func NewTimeEntryHandler(svc *service.TimesheetService, log *logger.Logger) *TimeEntryHandler {
	return &TimeEntryHandler{service: svc, logger: log}
}

// TimeEntryRequest is the body of create and update. Ordering of the
// times is checked by the service so it can report InvalidInterval.
type TimeEntryRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	TaskID     string    `json:"task_id" validate:"required,uuid"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
}

// DeleteTimeEntryResponse names the employee the deleted entry belonged to
type DeleteTimeEntryResponse struct {
	ID           string `json:"id"`
	EmployeeName string `json:"employee_name"`
}

// Create books a time entry
// POST /time-entries
func (h *TimeEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TimeEntryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	entry, err := h.service.CreateTimeEntry(r.Context(), req.EmployeeID, req.TaskID, req.StartTime, req.EndTime)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, entry)
}

// Get returns one time entry
// GET /time-entries/{id}
func (h *TimeEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	entry, err := h.service.GetTimeEntry(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Update rewrites a time entry
// PUT /time-entries/{id}
func (h *TimeEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req TimeEntryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	entry, err := h.service.UpdateTimeEntry(r.Context(), id, req.EmployeeID, req.TaskID, req.StartTime, req.EndTime)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Delete deletes a time entry
// DELETE /time-entries/{id}
func (h *TimeEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	name, err := h.service.DeleteTimeEntry(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, DeleteTimeEntryResponse{ID: id, EmployeeName: name})
}

// ListByEmployee returns an employee's entries
// GET /employees/{id}/time-entries
func (h *TimeEntryHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	entries, err := h.service.ListTimeEntriesByEmployee(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, &httputil.Meta{Total: int64(len(entries))})
}
