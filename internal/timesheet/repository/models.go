package repository

import (
	"time"
)

// Position is a job title with an hourly rate
type Position struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	HourlyRate int       `db:"hourly_rate" json:"hourly_rate"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Employee is a worker holding exactly one position
type Employee struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	PositionID string    `db:"position_id" json:"position_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (populated by specific queries)
	PositionName *string `db:"position_name" json:"position_name,omitempty"`
	HourlyRate   *int    `db:"hourly_rate" json:"hourly_rate,omitempty"`
}

// Task is a named unit of work time is booked against
type Task struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimeEntry is a half-open interval [StartTime, EndTime) an employee spent on a task
type TimeEntry struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	TaskID     string    `db:"task_id" json:"task_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
	TaskName     *string `db:"task_name" json:"task_name,omitempty"`
}

// Duration returns the length of the entry
func (e *TimeEntry) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Overlaps reports whether two half-open intervals share an instant
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ReportRow is one time entry flattened with everything the reports need
type ReportRow struct {
	EntryID      string    `db:"entry_id"`
	TaskName     string    `db:"task_name"`
	EmployeeName string    `db:"employee_name"`
	HourlyRate   int       `db:"hourly_rate"`
	StartTime    time.Time `db:"start_time"`
	EndTime      time.Time `db:"end_time"`
}
