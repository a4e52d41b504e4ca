package service

import (
	"context"
	"time"

	"github.com/worktime/worktime-backend/internal/timesheet/events"
	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/pkg/errors"
	"github.com/worktime/worktime-backend/pkg/logger"
)

// TimesheetService handles the reference data and time entry operations
type TimesheetService struct {
	positions *repository.PositionRepository
	employees *repository.EmployeeRepository
	tasks     *repository.TaskRepository
	entries   *repository.TimeEntryRepository
	publisher *events.TimesheetEventPublisher
	logger    *logger.Logger
}

// NewTimesheetService creates a new timesheet service
func NewTimesheetService(
	positions *repository.PositionRepository,
	employees *repository.EmployeeRepository,
	tasks *repository.TaskRepository,
	entries *repository.TimeEntryRepository,
	publisher *events.TimesheetEventPublisher,
	log *logger.Logger,
) *TimesheetService {
	return &TimesheetService{
		positions: positions,
		employees: employees,
		tasks:     tasks,
		entries:   entries,
		publisher: publisher,
		logger:    log.WithComponent("timesheet"),
	}
}

// ============================================================================
// POSITIONS
// ============================================================================

// CreatePosition creates a position
func (s *TimesheetService) CreatePosition(ctx context.Context, name string, rate int) (*repository.Position, error) {
	p := &repository.Position{Name: name, HourlyRate: rate}
	if err := s.positions.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePosition renames or re-rates a position
func (s *TimesheetService) UpdatePosition(ctx context.Context, id, name string, rate int) (*repository.Position, error) {
	p := &repository.Position{ID: id, Name: name, HourlyRate: rate}
	if err := s.positions.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPosition gets a position by ID
func (s *TimesheetService) GetPosition(ctx context.Context, id string) (*repository.Position, error) {
	return s.positions.GetByID(ctx, id)
}

// ListPositions lists all positions
func (s *TimesheetService) ListPositions(ctx context.Context) ([]*repository.Position, error) {
	return s.positions.List(ctx)
}

// DeletePosition deletes a position no employee holds
func (s *TimesheetService) DeletePosition(ctx context.Context, id string) error {
	if err := s.positions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("position_id", id).Msg("position deleted")
	return nil
}

// ============================================================================
// EMPLOYEES
// ============================================================================

// CreateEmployee creates an employee holding positionID
func (s *TimesheetService) CreateEmployee(ctx context.Context, name, positionID string) (*repository.Employee, error) {
	e := &repository.Employee{Name: name, PositionID: positionID}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEmployee gets an employee with its position
func (s *TimesheetService) GetEmployee(ctx context.Context, id string) (*repository.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// ListEmployees lists all employees
func (s *TimesheetService) ListEmployees(ctx context.Context) ([]*repository.Employee, error) {
	return s.employees.List(ctx)
}

// DeleteEmployee deletes an employee without time entries
func (s *TimesheetService) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("employee_id", id).Msg("employee deleted")
	return nil
}

// ============================================================================
// TASKS
// ============================================================================

// CreateTask creates a task
func (s *TimesheetService) CreateTask(ctx context.Context, name string) (*repository.Task, error) {
	t := &repository.Task{Name: name}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks lists all tasks
func (s *TimesheetService) ListTasks(ctx context.Context) ([]*repository.Task, error) {
	return s.tasks.List(ctx)
}

// DeleteTask deletes a task and every time entry booked against it,
// returning how many entries went with it
func (s *TimesheetService) DeleteTask(ctx context.Context, id string) (int64, error) {
	task, removed, err := s.tasks.Delete(ctx, id, s.publisher.PublishTaskDeleted)
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("task_name", task.Name).
		Int64("entries_deleted", removed).
		Msg("task deleted")

	return removed, nil
}

// ============================================================================
// TIME ENTRIES
// ============================================================================

// CreateTimeEntry books a new interval after checking it against every
// other entry of the employee
func (s *TimesheetService) CreateTimeEntry(ctx context.Context, employeeID, taskID string, start, end time.Time) (*repository.TimeEntry, error) {
	entry := &repository.TimeEntry{
		EmployeeID: employeeID,
		TaskID:     taskID,
		StartTime:  start,
		EndTime:    end,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.WithEmployee(employeeID).Debug().Str("time_entry_id", entry.ID).Msg("time entry created")
	s.publisher.PublishTimeEntryCreated(ctx, entry)
	return entry, nil
}

// UpdateTimeEntry rewrites an entry. The entry itself is ignored by the
// overlap check.
func (s *TimesheetService) UpdateTimeEntry(ctx context.Context, id, employeeID, taskID string, start, end time.Time) (*repository.TimeEntry, error) {
	entry := &repository.TimeEntry{
		ID:         id,
		EmployeeID: employeeID,
		TaskID:     taskID,
		StartTime:  start,
		EndTime:    end,
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.WithEmployee(employeeID).Debug().Str("time_entry_id", id).Msg("time entry updated")
	s.publisher.PublishTimeEntryUpdated(ctx, entry)
	return entry, nil
}

// GetTimeEntry gets a time entry with employee and task names
func (s *TimesheetService) GetTimeEntry(ctx context.Context, id string) (*repository.TimeEntry, error) {
	return s.entries.GetByID(ctx, id)
}

// ListTimeEntriesByEmployee lists an employee's entries chronologically
func (s *TimesheetService) ListTimeEntriesByEmployee(ctx context.Context, employeeID string) ([]*repository.TimeEntry, error) {
	exists, err := s.employees.Exists(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("employee")
	}
	return s.entries.ListByEmployee(ctx, employeeID)
}

// DeleteTimeEntry deletes an entry and returns the name of the employee it
// belonged to. The deleting event is published before the row goes; if
// publishing fails nothing is deleted.
func (s *TimesheetService) DeleteTimeEntry(ctx context.Context, id string) (string, error) {
	entry, err := s.entries.Delete(ctx, id, s.publisher.PublishTimeEntryDeleting)
	if err != nil {
		return "", err
	}

	var name string
	if entry.EmployeeName != nil {
		name = *entry.EmployeeName
	}
	s.logger.Info().Str("time_entry_id", id).Str("employee", name).Msg("time entry deleted")
	return name, nil
}
