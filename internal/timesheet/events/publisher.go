package events

import (
	"context"

	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/pkg/logger"
	"github.com/worktime/worktime-backend/pkg/messaging"
)

// TimesheetEventPublisher publishes timesheet domain events.
//
// Notifications that follow a committed write are best effort: failures
// are logged and swallowed. The deleting and task-deleted events run inside
// the delete transaction and return their error so the delete can roll back.
type TimesheetEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewTimesheetEventPublisher creates a new timesheet event publisher
func NewTimesheetEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *TimesheetEventPublisher {
	return &TimesheetEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("events"),
	}
}

// PublishTimeEntryCreated publishes a time entry created event
func (p *TimesheetEventPublisher) PublishTimeEntryCreated(ctx context.Context, entry *repository.TimeEntry) {
	p.publishEntry(ctx, messaging.EventTimeEntryCreated, entry)
}

// PublishTimeEntryUpdated publishes a time entry updated event
func (p *TimesheetEventPublisher) PublishTimeEntryUpdated(ctx context.Context, entry *repository.TimeEntry) {
	p.publishEntry(ctx, messaging.EventTimeEntryUpdated, entry)
}

func (p *TimesheetEventPublisher) publishEntry(ctx context.Context, eventType string, entry *repository.TimeEntry) {
	data := messaging.TimeEntryEvent{
		TimeEntryID: entry.ID,
		EmployeeID:  entry.EmployeeID,
		TaskID:      entry.TaskID,
		StartTime:   entry.StartTime,
		EndTime:     entry.EndTime,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("time_entry_id", entry.ID).Str("event_type", eventType).Msg("failed to publish time entry event")
	}
}

// PublishTimeEntryDeleting announces that entry is about to be removed
func (p *TimesheetEventPublisher) PublishTimeEntryDeleting(ctx context.Context, entry *repository.TimeEntry) error {
	data := messaging.TimeEntryDeletingEvent{
		TimeEntryID: entry.ID,
		EmployeeID:  entry.EmployeeID,
		TaskID:      entry.TaskID,
		StartTime:   entry.StartTime,
		EndTime:     entry.EndTime,
	}
	if entry.EmployeeName != nil {
		data.EmployeeName = *entry.EmployeeName
	}

	return p.publisher.Publish(ctx, messaging.EventTimeEntryDeleting, data)
}

// PublishTaskDeleted publishes a task deleted event with the cascade count
func (p *TimesheetEventPublisher) PublishTaskDeleted(ctx context.Context, task *repository.Task, entriesDeleted int64) error {
	return p.publisher.Publish(ctx, messaging.EventTaskDeleted, messaging.TaskDeletedEvent{
		TaskID:         task.ID,
		TaskName:       task.Name,
		EntriesDeleted: entriesDeleted,
	})
}

// PublishImportCompleted publishes the per-pass counts of an import run
func (p *TimesheetEventPublisher) PublishImportCompleted(ctx context.Context, passes []messaging.ImportPassSummary) {
	if err := p.publisher.Publish(ctx, messaging.EventImportCompleted, messaging.ImportCompletedEvent{Passes: passes}); err != nil {
		p.logger.Error().Err(err).Msg("failed to publish import completed event")
	}
}
