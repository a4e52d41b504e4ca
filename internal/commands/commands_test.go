package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/messaging"
)

func TestResolveImportPaths(t *testing.T) {
	t.Run("dir supplies every file", func(t *testing.T) {
		paths, err := resolveImportPaths("data", "", "", "")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join("data", "positions.csv"),
			filepath.Join("data", "employees.csv"),
			filepath.Join("data", "timesheet.csv"),
		}, paths)
	})

	t.Run("explicit flag overrides dir", func(t *testing.T) {
		paths, err := resolveImportPaths("data", "/tmp/other/positions.csv", "", "")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/other/positions.csv", paths[0])
		assert.Equal(t, filepath.Join("data", "employees.csv"), paths[1])
	})

	t.Run("missing file without dir", func(t *testing.T) {
		_, err := resolveImportPaths("", "positions.csv", "", "timesheet.csv")
		assert.Error(t, err)
	})

	t.Run("wrong file name", func(t *testing.T) {
		_, err := resolveImportPaths("", "positions.csv", "staff.csv", "timesheet.csv")
		require.Error(t, err)
		assert.Equal(t, "Expected file 'employees.csv', got 'staff.csv'", err.Error())
	})
}

func TestPrintImportResults(t *testing.T) {
	var buf bytes.Buffer
	printImportResults(&buf, []*service.ImportResult{
		{Pass: service.PassPositions, Created: 2},
		{Pass: service.PassEmployees, Created: 1, Skipped: 1, Errors: []string{"Error adding employee 'Bob': position 'Tester' does not exist"}},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "created 2, skipped 0, errors 0")
	assert.Contains(t, lines[1], "created 1, skipped 1, errors 1")
	assert.Equal(t, "  Error adding employee 'Bob': position 'Tester' does not exist", lines[2])
}

func TestPrintReport(t *testing.T) {
	report := &service.Report{
		LongTasks: []service.TaskHours{{Task: "Build", Hours: 8}},
		CostTasks: []service.TaskCost{{Task: "Build", Cost: 400}},
		Employees: []service.EmployeeHours{{Employee: "Alice", Hours: 8}},
	}

	t.Run("english headings", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printReport(&buf, "en", report))
		out := buf.String()
		assert.Contains(t, out, "Top 5 longest tasks")
		assert.Contains(t, out, "Top 5 most expensive tasks")
		assert.Contains(t, out, "Top 5 employees by hours")
		assert.Contains(t, out, "400")
		assert.Contains(t, out, "Alice")
	})

	t.Run("empty report prints headings only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printReport(&buf, "en", &service.Report{}))
		assert.NotContains(t, buf.String(), "Build")
		assert.Contains(t, buf.String(), "Top 5 longest tasks")
	})
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	handler := printEvent(&buf)

	err := handler(context.Background(), &messaging.Event{
		Type:      messaging.EventTaskDeleted,
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Data:      json.RawMessage(`{"task_name":"Build"}`),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2024-03-01 09:30:00")
	assert.Contains(t, buf.String(), messaging.EventTaskDeleted)
	assert.Contains(t, buf.String(), `{"task_name":"Build"}`)
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc", "today")
	defer SetVersion("dev", "none", "unknown")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "worktime 1.2.3 (commit abc, built today)\n", buf.String())
}
