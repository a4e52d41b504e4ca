package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTimeEntryCreated  = "timesheet.time_entry.created"
	EventTimeEntryUpdated  = "timesheet.time_entry.updated"
	EventTimeEntryDeleting = "timesheet.time_entry.deleting"
	EventTaskDeleted       = "timesheet.task.deleted"
	EventImportCompleted   = "timesheet.import.completed"
)

// ExchangeTimesheetEvents is the topic exchange all timesheet events go to
const ExchangeTimesheetEvents = "timesheet.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// TimeEntryEvent is published when a time entry is created or updated
type TimeEntryEvent struct {
	TimeEntryID string    `json:"time_entry_id"`
	EmployeeID  string    `json:"employee_id"`
	TaskID      string    `json:"task_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// TimeEntryDeletingEvent is published inside the delete transaction, before
// the row is removed. A failed publish aborts the delete.
type TimeEntryDeletingEvent struct {
	TimeEntryID  string    `json:"time_entry_id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	TaskID       string    `json:"task_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// TaskDeletedEvent is published after a task and its entries are removed
type TaskDeletedEvent struct {
	TaskID         string `json:"task_id"`
	TaskName       string `json:"task_name"`
	EntriesDeleted int64  `json:"entries_deleted"`
}

// ImportPassSummary is one pass of an import run
type ImportPassSummary struct {
	Pass    string `json:"pass"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
}

// ImportCompletedEvent is published after ImportAll finishes
type ImportCompletedEvent struct {
	Passes []ImportPassSummary `json:"passes"`
}
