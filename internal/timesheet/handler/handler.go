package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worktime/worktime-backend/pkg/errors"
)

// Handlers groups every timesheet endpoint
type Handlers struct {
	Positions   *PositionHandler
	Employees   *EmployeeHandler
	Tasks       *TaskHandler
	TimeEntries *TimeEntryHandler
	Import      *ImportHandler
	Reports     *ReportHandler
}

// Routes returns the /api/v1 routes
func (h *Handlers) Routes() func(r chi.Router) {
	return func(r chi.Router) {
		r.Route("/positions", func(r chi.Router) {
			r.Get("/", h.Positions.List)
			r.Post("/", h.Positions.Create)
			r.Get("/{id}", h.Positions.Get)
			r.Put("/{id}", h.Positions.Update)
			r.Delete("/{id}", h.Positions.Delete)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.Employees.List)
			r.Post("/", h.Employees.Create)
			r.Get("/{id}", h.Employees.Get)
			r.Delete("/{id}", h.Employees.Delete)
			r.Get("/{id}/time-entries", h.TimeEntries.ListByEmployee)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Tasks.List)
			r.Post("/", h.Tasks.Create)
			r.Delete("/{id}", h.Tasks.Delete)
		})

		r.Route("/time-entries", func(r chi.Router) {
			r.Post("/", h.TimeEntries.Create)
			r.Get("/{id}", h.TimeEntries.Get)
			r.Put("/{id}", h.TimeEntries.Update)
			r.Delete("/{id}", h.TimeEntries.Delete)
		})

		r.Post("/import", h.Import.Import)

		r.Get("/reports", h.Reports.Get)
		r.Get("/reports/pdf", h.Reports.PDF)
	}
}

// pathID returns the {id} URL parameter, rejecting anything that is not a UUID
func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.BadRequest("invalid id: " + id)
	}
	return id, nil
}
