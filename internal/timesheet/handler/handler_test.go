package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktime/worktime-backend/internal/timesheet/events"
	"github.com/worktime/worktime-backend/internal/timesheet/handler"
	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/httputil"
	"github.com/worktime/worktime-backend/pkg/i18n"
	"github.com/worktime/worktime-backend/pkg/logger"
	"github.com/worktime/worktime-backend/pkg/messaging"
	"github.com/worktime/worktime-backend/pkg/testutil"
)

const (
	employeeID = "5b0c7d0e-3f4e-4a53-8d83-0e8a7f3b9a10"
	taskID     = "8a3f1c2d-6b7e-4f80-9a1b-2c3d4e5f6a7b"
	entryID    = "c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
	Meta    *httputil.Meta      `json:"meta"`
}

type testServer struct {
	router    http.Handler
	mockDB    *testutil.MockDB
	publisher *testutil.MockPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	log := logger.Nop()

	positions := repository.NewPositionRepository(mockDB.DB)
	employees := repository.NewEmployeeRepository(mockDB.DB)
	tasks := repository.NewTaskRepository(mockDB.DB)
	entries := repository.NewTimeEntryRepository(mockDB.DB)

	mockPub := testutil.NewMockPublisher()
	publisher := events.NewTimesheetEventPublisher(mockPub, log)

	timesheet := service.NewTimesheetService(positions, employees, tasks, entries, publisher, log)
	importer := service.NewImportService(mockDB.DB, positions, employees, tasks, entries, publisher, service.ImportOptions{}, log)
	reports := service.NewReportService(entries, service.ReportOptions{}, log)

	h := &handler.Handlers{
		Positions:   handler.NewPositionHandler(timesheet, log),
		Employees:   handler.NewEmployeeHandler(timesheet, log),
		Tasks:       handler.NewTaskHandler(timesheet, log),
		TimeEntries: handler.NewTimeEntryHandler(timesheet, log),
		Import:      handler.NewImportHandler(importer, 1<<20, log),
		Reports:     handler.NewReportHandler(reports, log),
	}

	r := chi.NewRouter()
	r.Use(i18n.Middleware)
	r.Route("/api/v1", h.Routes())

	return &testServer{router: r, mockDB: mockDB, publisher: mockPub}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := testutil.ExecuteRequest(s.router, req)
	var body envelope
	if rr.Header().Get("Content-Type") == "application/json" {
		testutil.ParseJSONBody(t, rr, &body)
	}
	return rr, body
}

func TestCreatePosition_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing rate", map[string]interface{}{"name": "Developer"}},
		{"rate above range", map[string]interface{}{"name": "Developer", "hourly_rate": 150}},
		{"negative rate", map[string]interface{}{"name": "Developer", "hourly_rate": -1}},
		{"missing name", map[string]interface{}{"hourly_rate": 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/positions", tt.body))

			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			require.NotNil(t, body.Error)
			assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		})
	}
}

func TestCreatePosition_ZeroRateAllowed(t *testing.T) {
	srv := newTestServer(t)
	now := time.Now()

	srv.mockDB.ExpectQuery("INSERT INTO positions").
		WithArgs(testutil.AnyUUID{}, "Intern", 0).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/positions",
		map[string]interface{}{"name": "Intern", "hourly_rate": 0}))

	testutil.AssertStatus(t, rr, http.StatusCreated)
	var position repository.Position
	require.NoError(t, json.Unmarshal(body.Data, &position))
	assert.Equal(t, "Intern", position.Name)
	assert.Equal(t, 0, position.HourlyRate)
}

func TestGetPosition_InvalidID(t *testing.T) {
	srv := newTestServer(t)
	rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/positions/42", nil))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, "BAD_REQUEST", body.Error.Code)
}

func TestGetEmployee_NotFoundIsLocalized(t *testing.T) {
	srv := newTestServer(t)

	srv.mockDB.ExpectQuery("WHERE e.id = $1").
		WithArgs(employeeID).
		WillReturnRows(testutil.MockRows("id"))

	req := testutil.WithLocale(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/"+employeeID, nil), "ru-RU,ru;q=0.9,en;q=0.5")
	rr, body := srv.do(t, req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	assert.Equal(t, "ru", rr.Header().Get("Content-Language"))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "Сотрудник: не найдено", body.Error.Message)
}

func TestCreateTimeEntry_InvalidInterval(t *testing.T) {
	srv := newTestServer(t)
	at := testutil.At(10, 0)

	srv.mockDB.ExpectBegin()
	srv.mockDB.ExpectRollback()

	rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/time-entries", map[string]interface{}{
		"employee_id": employeeID,
		"task_id":     taskID,
		"start_time":  at,
		"end_time":    at,
	}))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, "INVALID_INTERVAL", body.Error.Code)
}

func TestCreateTimeEntry_OverlapIsConflict(t *testing.T) {
	srv := newTestServer(t)
	start, end := testutil.At(10, 30), testutil.At(11, 30)

	srv.mockDB.ExpectBegin()
	srv.mockDB.ExpectQuery("SELECT id FROM employees WHERE id = $1 FOR UPDATE").
		WithArgs(employeeID).
		WillReturnRows(testutil.MockRows("id").AddRow(employeeID))
	srv.mockDB.ExpectQuery("SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)").
		WithArgs(taskID).
		WillReturnRows(testutil.MockRows("exists").AddRow(true))
	srv.mockDB.ExpectQuery("AND te.end_time > $2").
		WillReturnRows(testutil.MockRows("id", "task_name", "start_time", "end_time").
			AddRow(entryID, "Build", testutil.At(10, 0), testutil.At(11, 0)))
	srv.mockDB.ExpectRollback()

	rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/time-entries", map[string]interface{}{
		"employee_id": employeeID,
		"task_id":     taskID,
		"start_time":  start,
		"end_time":    end,
	}))

	testutil.AssertStatus(t, rr, http.StatusConflict)
	assert.Equal(t, "OVERLAP", body.Error.Code)
	assert.Equal(t, entryID, body.Error.Details["conflicting_entry_id"])
	assert.Equal(t, "Build", body.Error.Details["task_name"])
	assert.Empty(t, srv.publisher.Events)
}

func TestDeleteTimeEntry_ReturnsEmployeeName(t *testing.T) {
	srv := newTestServer(t)
	now := time.Now()

	srv.mockDB.ExpectBegin()
	srv.mockDB.ExpectQuery("FOR UPDATE OF te").
		WithArgs(entryID).
		WillReturnRows(testutil.MockRows("id", "employee_id", "task_id", "start_time", "end_time",
			"created_at", "updated_at", "employee_name", "task_name").
			AddRow(entryID, employeeID, taskID, testutil.At(9, 0), testutil.At(10, 0), now, now, "Alice", "Build"))
	srv.mockDB.ExpectExec("DELETE FROM time_entries WHERE id = $1").
		WithArgs(entryID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	srv.mockDB.ExpectCommit()

	rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/time-entries/"+entryID, nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	var resp handler.DeleteTimeEntryResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, "Alice", resp.EmployeeName)
	srv.publisher.AssertEventPublished(t, messaging.EventTimeEntryDeleting)
}

func TestDeleteEmployee_ReferencedIsConflict(t *testing.T) {
	srv := newTestServer(t)

	srv.mockDB.ExpectBegin()
	srv.mockDB.ExpectQuery("SELECT id FROM employees WHERE id = $1 FOR UPDATE").
		WithArgs(employeeID).
		WillReturnRows(testutil.MockRows("id").AddRow(employeeID))
	srv.mockDB.ExpectQuery("SELECT id FROM time_entries WHERE employee_id = $1").
		WithArgs(employeeID).
		WillReturnRows(testutil.MockRows("id").AddRow(entryID))
	srv.mockDB.ExpectRollback()

	rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/employees/"+employeeID, nil))

	testutil.AssertStatus(t, rr, http.StatusConflict)
	assert.Equal(t, "REFERENTIAL_CONFLICT", body.Error.Code)
	assert.Equal(t, entryID, body.Error.Details["blocking_id"])
}

func TestImport_RejectsWrongFileName(t *testing.T) {
	srv := newTestServer(t)

	rr, body := srv.do(t, testutil.NewMultipartRequest(t, "/api/v1/import", map[string]testutil.UploadFile{
		handler.FieldPositionsFile:  {Name: "positions.csv", Content: "Developer,50\n"},
		handler.FieldEmployeesFile:  {Name: "staff.csv", Content: "Alice,Developer\n"},
		handler.FieldTimesheetsFile: {Name: "timesheet.csv"},
	}))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, "INVALID_IMPORT_FILE", body.Error.Code)
	assert.Equal(t, "Expected file 'employees.csv', got 'staff.csv'", body.Error.Message)
}

func TestImport_RequiresEveryFile(t *testing.T) {
	srv := newTestServer(t)

	rr, body := srv.do(t, testutil.NewMultipartRequest(t, "/api/v1/import", map[string]testutil.UploadFile{
		handler.FieldPositionsFile: {Name: "positions.csv", Content: "Developer,50\n"},
	}))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, "MISSING_IMPORT_FILE", body.Error.Code)
}

func reportRows() *sqlmock.Rows {
	return testutil.MockRows("entry_id", "task_name", "employee_name", "hourly_rate", "start_time", "end_time").
		AddRow(entryID, "Build", "Alice", 50,
			time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 1, 17, 0, 0, 0, time.UTC))
}

func TestGetReport(t *testing.T) {
	srv := newTestServer(t)
	srv.mockDB.ExpectQuery("ORDER BY te.created_at, te.id").WillReturnRows(reportRows())

	rr, body := srv.do(t, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/reports", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	var report service.Report
	require.NoError(t, json.Unmarshal(body.Data, &report))
	assert.Equal(t, []service.TaskHours{{Task: "Build", Hours: 8}}, report.LongTasks)
	assert.Equal(t, []service.TaskCost{{Task: "Build", Cost: 400}}, report.CostTasks)
	assert.Equal(t, []service.EmployeeHours{{Employee: "Alice", Hours: 8}}, report.Employees)
}

func TestGetReportPDF(t *testing.T) {
	srv := newTestServer(t)
	srv.mockDB.ExpectQuery("ORDER BY te.created_at, te.id").WillReturnRows(reportRows())

	rr := testutil.ExecuteRequest(srv.router, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/reports/pdf", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "timesheet-report-")
	assert.Equal(t, "%PDF", rr.Body.String()[:4])
}
