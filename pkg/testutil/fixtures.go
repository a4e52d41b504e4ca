package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/worktime/worktime-backend/pkg/database"
)

// FixtureFactory inserts timesheet rows directly, bypassing the services,
// so integration tests can arrange state the API would refuse.
type FixtureFactory struct {
	db  *database.DB
	mu  sync.Mutex
	seq int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory(db *database.DB) *FixtureFactory {
	return &FixtureFactory{db: db}
}

func (f *FixtureFactory) nextSeq() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq
}

// UniqueName returns prefix with a per-factory sequence number appended
func (f *FixtureFactory) UniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, f.nextSeq())
}

// Position inserts a position and returns its id
func (f *FixtureFactory) Position(t *testing.T, name string, rate int) string {
	t.Helper()
	id := uuid.NewString()
	f.exec(t, "INSERT INTO positions (id, name, hourly_rate) VALUES ($1, $2, $3)", id, name, rate)
	return id
}

// Employee inserts an employee and returns its id
func (f *FixtureFactory) Employee(t *testing.T, name, positionID string) string {
	t.Helper()
	id := uuid.NewString()
	f.exec(t, "INSERT INTO employees (id, name, position_id) VALUES ($1, $2, $3)", id, name, positionID)
	return id
}

// Task inserts a task and returns its id
func (f *FixtureFactory) Task(t *testing.T, name string) string {
	t.Helper()
	id := uuid.NewString()
	f.exec(t, "INSERT INTO tasks (id, name) VALUES ($1, $2)", id, name)
	return id
}

// TimeEntry inserts a time entry and returns its id
func (f *FixtureFactory) TimeEntry(t *testing.T, employeeID, taskID string, start, end time.Time) string {
	t.Helper()
	id := uuid.NewString()
	f.exec(t, "INSERT INTO time_entries (id, employee_id, task_id, start_time, end_time) VALUES ($1, $2, $3, $4, $5)",
		id, employeeID, taskID, start, end)
	return id
}

// Count returns the number of rows in table
func (f *FixtureFactory) Count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := f.db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func (f *FixtureFactory) exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()
	if _, err := f.db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
}

// At builds a UTC timestamp on a fixed day, handy for interval tests
func At(hour, minute int) time.Time {
	return time.Date(2024, time.March, 4, hour, minute, 0, 0, time.UTC)
}
