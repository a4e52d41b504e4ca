package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/pkg/logger"
	"github.com/worktime/worktime-backend/pkg/messaging"
	"github.com/worktime/worktime-backend/pkg/testutil"
)

func TestPublishTimeEntryDeleting_CarriesEmployeeName(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := NewTimesheetEventPublisher(mock, logger.Nop())

	name := "Alice"
	entry := &repository.TimeEntry{
		ID:           "c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f",
		EmployeeID:   "5b0c7d0e-3f4e-4a53-8d83-0e8a7f3b9a10",
		TaskID:       "8a3f1c2d-6b7e-4f80-9a1b-2c3d4e5f6a7b",
		StartTime:    testutil.At(9, 0),
		EndTime:      testutil.At(10, 0),
		EmployeeName: &name,
	}

	require.NoError(t, p.PublishTimeEntryDeleting(context.Background(), entry))

	events := mock.Published(messaging.EventTimeEntryDeleting)
	require.Len(t, events, 1)
	data := events[0].Payload.(messaging.TimeEntryDeletingEvent)
	assert.Equal(t, entry.ID, data.TimeEntryID)
	assert.Equal(t, "Alice", data.EmployeeName)
}

func TestTransactionalEventsReturnErrors(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("broker unavailable")
	p := NewTimesheetEventPublisher(mock, logger.Nop())

	assert.Error(t, p.PublishTimeEntryDeleting(context.Background(), &repository.TimeEntry{}))
	assert.Error(t, p.PublishTaskDeleted(context.Background(), &repository.Task{Name: "Build"}, 3))
}

func TestNotificationsSwallowErrors(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("broker unavailable")
	p := NewTimesheetEventPublisher(mock, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishTimeEntryCreated(context.Background(), &repository.TimeEntry{})
		p.PublishTimeEntryUpdated(context.Background(), &repository.TimeEntry{})
		p.PublishImportCompleted(context.Background(), nil)
	})
	assert.Empty(t, mock.Events)
}

func TestPublishTaskDeleted(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := NewTimesheetEventPublisher(mock, logger.Nop())

	task := &repository.Task{ID: "8a3f1c2d-6b7e-4f80-9a1b-2c3d4e5f6a7b", Name: "Build"}
	require.NoError(t, p.PublishTaskDeleted(context.Background(), task, 4))

	events := mock.Published(messaging.EventTaskDeleted)
	require.Len(t, events, 1)
	assert.Equal(t, messaging.TaskDeletedEvent{TaskID: task.ID, TaskName: "Build", EntriesDeleted: 4}, events[0].Payload)
}
