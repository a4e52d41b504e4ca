package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/pkg/i18n"
	"github.com/worktime/worktime-backend/pkg/logger"
	"github.com/worktime/worktime-backend/pkg/testutil"
)

func row(task, employee string, rate int, start time.Time, d time.Duration) repository.ReportRow {
	return repository.ReportRow{
		TaskName:     task,
		EmployeeName: employee,
		HourlyRate:   rate,
		StartTime:    start,
		EndTime:      start.Add(d),
	}
}

func TestBuildReport_SingleDeveloperDay(t *testing.T) {
	day := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	report := BuildReport([]repository.ReportRow{
		row("Build", "Alice", 50, day, 8*time.Hour),
	})

	assert.Equal(t, []TaskHours{{Task: "Build", Hours: 8}}, report.LongTasks)
	assert.Equal(t, []TaskCost{{Task: "Build", Cost: 400}}, report.CostTasks)
	assert.Equal(t, []EmployeeHours{{Employee: "Alice", Hours: 8}}, report.Employees)
}

func TestLongTasks_TruncatesEachEntry(t *testing.T) {
	start := testutil.At(9, 0)
	rows := []repository.ReportRow{
		row("Build", "Alice", 10, start, 90*time.Minute),
		row("Build", "Bob", 10, start, 90*time.Minute),
		row("Review", "Alice", 10, start.Add(2*time.Hour), 59*time.Minute),
	}

	assert.Equal(t, []TaskHours{{Task: "Build", Hours: 2}, {Task: "Review", Hours: 0}}, LongTasks(rows))
}

func TestCostTasks_TruncatesEachEntryCost(t *testing.T) {
	start := testutil.At(9, 0)
	rows := []repository.ReportRow{
		// 20 minutes at 10/h is 3.33, truncated to 3, three times
		row("Build", "Alice", 10, start, 20*time.Minute),
		row("Build", "Alice", 10, start.Add(time.Hour), 20*time.Minute),
		row("Build", "Alice", 10, start.Add(2*time.Hour), 20*time.Minute),
		row("Deploy", "Bob", 100, start, 30*time.Minute),
	}

	assert.Equal(t, []TaskCost{{Task: "Deploy", Cost: 50}, {Task: "Build", Cost: 9}}, CostTasks(rows))
}

func TestEmployees_RoundsTotalHalfUp(t *testing.T) {
	start := testutil.At(9, 0)
	rows := []repository.ReportRow{
		row("Build", "Alice", 10, start, 90*time.Minute),
		row("Build", "Bob", 10, start, 2*time.Hour+29*time.Minute),
		row("Build", "Carol", 10, start, 20*time.Minute),
		row("Review", "Carol", 10, start.Add(time.Hour), 10*time.Minute),
	}

	assert.Equal(t, []EmployeeHours{
		{Employee: "Alice", Hours: 2},
		{Employee: "Bob", Hours: 2},
		{Employee: "Carol", Hours: 1},
	}, Employees(rows))
}

func TestTopByTotal_StableTiesAndLimit(t *testing.T) {
	start := testutil.At(8, 0)
	var rows []repository.ReportRow
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		rows = append(rows, row(name, "Alice", 10, start, time.Hour))
	}
	rows = append(rows, row("F", "Alice", 10, start, time.Hour))

	got := LongTasks(rows)
	require.Len(t, got, 5)
	assert.Equal(t, TaskHours{Task: "F", Hours: 2}, got[0])
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{got[1].Task, got[2].Task, got[3].Task, got[4].Task})
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil)
	assert.Empty(t, report.LongTasks)
	assert.Empty(t, report.CostTasks)
	assert.Empty(t, report.Employees)
}

func TestReportService_ExportReportPDF(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	svc := NewReportService(repository.NewTimeEntryRepository(mockDB.DB), ReportOptions{}, logger.Nop())

	mockDB.ExpectQuery("ORDER BY te.created_at, te.id").
		WillReturnRows(testutil.MockRows("entry_id", "task_name", "employee_name", "hourly_rate", "start_time", "end_time").
			AddRow("c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f", "Build", "Alice", 50, testutil.At(9, 0), testutil.At(17, 0)))

	ctx := i18n.WithLocale(context.Background(), i18n.LocaleEnglish)
	pdf, err := svc.ExportReportPDF(ctx)
	require.NoError(t, err)
	require.Greater(t, len(pdf), 100)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
