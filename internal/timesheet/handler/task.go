package handler

import (
	"net/http"

	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/httputil"
	"github.com/worktime/worktime-backend/pkg/logger"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	service *service.TimesheetService
	logger  *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(svc *service.TimesheetService, log *logger.Logger) *TaskHandler {
	return &TaskHandler{service: svc, logger: log}
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// DeleteTaskResponse reports how many time entries went with the task
type DeleteTaskResponse struct {
	ID             string `json:"id"`
	EntriesDeleted int64  `json:"entries_deleted"`
}

// List returns all tasks
// GET /tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, tasks, &httputil.Meta{Total: int64(len(tasks))})
}

// Create creates a task
// POST /tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	task, err := h.service.CreateTask(r.Context(), req.Name)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, task)
}

// Delete deletes a task and its time entries
// DELETE /tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	removed, err := h.service.DeleteTask(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, DeleteTaskResponse{ID: id, EntriesDeleted: removed})
}
