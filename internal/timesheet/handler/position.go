package handler

import (
	"net/http"

	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/httputil"
	"github.com/worktime/worktime-backend/pkg/logger"
)

// PositionHandler handles position endpoints
type PositionHandler struct {
	service *service.TimesheetService
	logger  *logger.Logger
}

// NewPositionHandler creates a new position handler
func NewPositionHandler(svc *service.TimesheetService, log *logger.Logger) *PositionHandler {
	return &PositionHandler{service: svc, logger: log}
}

// PositionRequest is the body of create and update
type PositionRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	HourlyRate *int   `json:"hourly_rate" validate:"required,min=0,max=100"`
}

// List returns all positions
// GET /positions
func (h *PositionHandler) List(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.ListPositions(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, positions, &httputil.Meta{Total: int64(len(positions))})
}

// Create creates a position
// POST /positions
func (h *PositionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	position, err := h.service.CreatePosition(r.Context(), req.Name, *req.HourlyRate)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, position)
}

// Get returns one position
// GET /positions/{id}
func (h *PositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	position, err := h.service.GetPosition(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, position)
}

// Update changes a position's name and rate
// PUT /positions/{id}
func (h *PositionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req PositionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	position, err := h.service.UpdatePosition(r.Context(), id, req.Name, *req.HourlyRate)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, position)
}

// Delete deletes a position no employee holds
// DELETE /positions/{id}
func (h *PositionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.DeletePosition(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.NoContent(w)
}
