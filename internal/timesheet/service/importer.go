package service

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/worktime/worktime-backend/internal/timesheet/events"
	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/pkg/database"
	"github.com/worktime/worktime-backend/pkg/errors"
	"github.com/worktime/worktime-backend/pkg/logger"
	"github.com/worktime/worktime-backend/pkg/messaging"
)

// Import passes, in the order ImportAll runs them
const (
	PassPositions      = "positions"
	PassEmployees      = "employees"
	PassTimesheetTasks = "timesheet_tasks"
	PassTimesheetRows  = "timesheet_rows"
)

// Expected upload file names
const (
	PositionsFileName  = "positions.csv"
	EmployeesFileName  = "employees.csv"
	TimesheetsFileName = "timesheet.csv"
)

// TimestampLayout is the format of start and end in timesheet.csv
const TimestampLayout = "2006-01-02 15:04:05"

const rowSavepoint = "import_row"

// ImportResult is the outcome of one import pass. Created only counts rows
// that were committed.
type ImportResult struct {
	Pass    string   `json:"pass"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// Summary converts the result into its event payload
func (r *ImportResult) Summary() messaging.ImportPassSummary {
	return messaging.ImportPassSummary{
		Pass:    r.Pass,
		Created: r.Created,
		Skipped: r.Skipped,
		Errors:  len(r.Errors),
	}
}

// ImportOptions configures how rows are interpreted
type ImportOptions struct {
	// Location is applied to the naive timestamps in timesheet.csv
	Location *time.Location
	// StrictReferences aborts a pass on the first missing position or employee
	StrictReferences bool
}

// MissingReferenceError is a row error for a position or employee name
// that matches nothing
type MissingReferenceError struct {
	Resource string
	Name     string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s '%s' does not exist", e.Resource, e.Name)
}

// AmbiguousReferenceError is a row error for a name that matches several rows
type AmbiguousReferenceError struct {
	Resource string
	Name     string
	Matches  int
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("%s name '%s' is ambiguous (%d matches)", e.Resource, e.Name, e.Matches)
}

// passAbortedError unwinds a pass transaction in strict mode
type passAbortedError struct {
	row   int
	cause error
}

func (e *passAbortedError) Error() string {
	return fmt.Sprintf("Import aborted at row %d: %v", e.row, e.cause)
}

// ImportService loads positions, employees and time entries from CSV.
// Each pass runs in one transaction with one savepoint per row, so a bad
// row is rolled back alone and the rest of the pass still commits.
type ImportService struct {
	db        *database.DB
	positions *repository.PositionRepository
	employees *repository.EmployeeRepository
	tasks     *repository.TaskRepository
	entries   *repository.TimeEntryRepository
	publisher *events.TimesheetEventPublisher
	opts      ImportOptions
	logger    *logger.Logger
}

// NewImportService creates a new import service
func NewImportService(
	db *database.DB,
	positions *repository.PositionRepository,
	employees *repository.EmployeeRepository,
	tasks *repository.TaskRepository,
	entries *repository.TimeEntryRepository,
	publisher *events.TimesheetEventPublisher,
	opts ImportOptions,
	log *logger.Logger,
) *ImportService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &ImportService{
		db:        db,
		positions: positions,
		employees: employees,
		tasks:     tasks,
		entries:   entries,
		publisher: publisher,
		opts:      opts,
		logger:    log.WithComponent("import"),
	}
}

// ValidateFilename checks an uploaded file name against the one expected
// for its slot, ignoring case
func ValidateFilename(actual, expected string) error {
	if strings.EqualFold(strings.TrimSpace(actual), expected) {
		return nil
	}
	return errors.NewWithKey("INVALID_IMPORT_FILE", "errors.invalid_import_file", http.StatusBadRequest,
		map[string]string{"actual": actual, "expected": expected})
}

// ImportPositions runs the positions pass over rows of (name, rate)
func (s *ImportService) ImportPositions(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, malformed, err := readRows(r, 2)
	if err != nil {
		return nil, err
	}

	return s.runPass(ctx, PassPositions, rows, malformed, func(tx *sqlx.Tx, row csvRow) (bool, string, error) {
		name := row.fields[0]
		label := fmt.Sprintf("Error adding position '%s'", name)
		if name == "" {
			return false, label, stderrors.New("name is empty")
		}

		rate, err := strconv.Atoi(row.fields[1])
		if err != nil {
			return false, label, fmt.Errorf("hourly rate %q is not an integer", row.fields[1])
		}
		if rate < 0 || rate > 100 {
			return false, label, fmt.Errorf("hourly rate %d is outside 0..100", rate)
		}

		_, created, err := s.positions.GetOrCreate(ctx, tx, name, rate)
		if err != nil {
			return false, label, err
		}
		if !created {
			s.logger.Debug().Str("position", name).Int("hourly_rate", rate).Msg("position already exists, skipping")
		}
		return created, label, nil
	})
}

// ImportEmployees runs the employees pass over rows of (name, position name)
func (s *ImportService) ImportEmployees(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, malformed, err := readRows(r, 2)
	if err != nil {
		return nil, err
	}

	return s.runPass(ctx, PassEmployees, rows, malformed, func(tx *sqlx.Tx, row csvRow) (bool, string, error) {
		name, positionName := row.fields[0], row.fields[1]
		label := fmt.Sprintf("Error adding employee '%s'", name)
		if name == "" {
			return false, label, stderrors.New("name is empty")
		}

		matches, err := s.positions.FindByName(ctx, tx, positionName)
		if err != nil {
			return false, label, err
		}
		switch len(matches) {
		case 0:
			return false, label, &MissingReferenceError{Resource: "position", Name: positionName}
		case 1:
		default:
			return false, label, &AmbiguousReferenceError{Resource: "position", Name: positionName, Matches: len(matches)}
		}

		_, created, err := s.employees.GetOrCreate(ctx, tx, name, matches[0].ID)
		if err != nil {
			return false, label, err
		}
		if !created {
			s.logger.Debug().Str("employee", name).Str("position", positionName).Msg("employee already exists, skipping")
		}
		return created, label, nil
	})
}

// ImportTimesheets runs the two time entry passes over rows of
// (task, employee, start, end): first every distinct task is created, then
// every row is booked through the overlap validator
func (s *ImportService) ImportTimesheets(ctx context.Context, r io.Reader) ([]*ImportResult, error) {
	rows, malformed, err := readRows(r, 4)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var taskRows []csvRow
	for _, row := range rows {
		if !seen[row.fields[0]] {
			seen[row.fields[0]] = true
			taskRows = append(taskRows, row)
		}
	}

	tasks, err := s.runPass(ctx, PassTimesheetTasks, taskRows, nil, func(tx *sqlx.Tx, row csvRow) (bool, string, error) {
		name := row.fields[0]
		label := fmt.Sprintf("Error adding task '%s'", name)
		if name == "" {
			return false, label, stderrors.New("name is empty")
		}
		_, created, err := s.tasks.GetOrCreate(ctx, tx, name)
		if err != nil {
			return false, label, err
		}
		if !created {
			s.logger.Debug().Str("task", name).Msg("task already exists, skipping")
		}
		return created, label, nil
	})
	if err != nil {
		return []*ImportResult{tasks}, err
	}

	entries, err := s.runPass(ctx, PassTimesheetRows, rows, malformed, func(tx *sqlx.Tx, row csvRow) (bool, string, error) {
		return s.importTimesheetRow(ctx, tx, row)
	})
	return []*ImportResult{tasks, entries}, err
}

func (s *ImportService) importTimesheetRow(ctx context.Context, tx *sqlx.Tx, row csvRow) (bool, string, error) {
	taskName, employeeName := row.fields[0], row.fields[1]
	label := fmt.Sprintf("Error adding timesheet entry (row %d, employee '%s')", row.line, employeeName)

	task, err := s.tasks.FindByName(ctx, tx, taskName)
	if err != nil {
		return false, label, err
	}
	if task == nil {
		return false, label, fmt.Errorf("task '%s' does not exist", taskName)
	}

	employees, err := s.employees.FindByName(ctx, tx, employeeName)
	if err != nil {
		return false, label, err
	}
	switch len(employees) {
	case 0:
		return false, label, &MissingReferenceError{Resource: "employee", Name: employeeName}
	case 1:
	default:
		return false, label, &AmbiguousReferenceError{Resource: "employee", Name: employeeName, Matches: len(employees)}
	}
	employee := employees[0]

	start, err := time.ParseInLocation(TimestampLayout, row.fields[2], s.opts.Location)
	if err != nil {
		return false, label, fmt.Errorf("invalid start time %q", row.fields[2])
	}
	end, err := time.ParseInLocation(TimestampLayout, row.fields[3], s.opts.Location)
	if err != nil {
		return false, label, fmt.Errorf("invalid end time %q", row.fields[3])
	}

	existing, err := s.entries.FindExact(ctx, tx, employee.ID, task.ID, start, end)
	if err != nil {
		return false, label, err
	}
	if existing != nil {
		s.logger.Debug().Str("employee", employeeName).Str("task", taskName).Msg("time entry already exists, skipping")
		return false, label, nil
	}

	entry := &repository.TimeEntry{EmployeeID: employee.ID, TaskID: task.ID, StartTime: start, EndTime: end}
	if err := s.entries.Save(ctx, tx, entry); err != nil {
		return false, label, err
	}
	return true, label, nil
}

// ImportAll runs every pass in order. Each pass commits on its own, so a
// later storage failure keeps the earlier passes.
func (s *ImportService) ImportAll(ctx context.Context, positions, employees, timesheets io.Reader) ([]*ImportResult, error) {
	var results []*ImportResult

	result, err := s.ImportPositions(ctx, positions)
	if result != nil {
		results = append(results, result)
	}
	if err != nil {
		return results, err
	}

	result, err = s.ImportEmployees(ctx, employees)
	if result != nil {
		results = append(results, result)
	}
	if err != nil {
		return results, err
	}

	passes, err := s.ImportTimesheets(ctx, timesheets)
	results = append(results, passes...)
	if err != nil {
		return results, err
	}

	summaries := make([]messaging.ImportPassSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, r.Summary())
	}
	s.publisher.PublishImportCompleted(ctx, summaries)

	return results, nil
}

// rowFunc imports one row. It returns whether a row was created, the
// prefix for an error message, and the row's failure if any.
type rowFunc func(tx *sqlx.Tx, row csvRow) (created bool, label string, err error)

func (s *ImportService) runPass(ctx context.Context, pass string, rows []csvRow, malformed []string, fn rowFunc) (*ImportResult, error) {
	result := &ImportResult{Pass: pass, Errors: append([]string{}, malformed...)}
	log := s.logger.WithPass(pass)

	var created, skipped int
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			var (
				rowCreated bool
				label      string
			)
			err := database.Savepoint(ctx, tx, rowSavepoint, func() error {
				var err error
				rowCreated, label, err = fn(tx, row)
				return err
			})

			var spErr *database.SavepointError
			switch {
			case err == nil && rowCreated:
				created++
			case err == nil:
				skipped++
			case stderrors.As(err, &spErr):
				return err
			case s.opts.StrictReferences && isMissingReference(err):
				return &passAbortedError{row: row.line, cause: err}
			default:
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", label, err))
			}
		}
		return nil
	})

	var aborted *passAbortedError
	switch {
	case err == nil:
		result.Created = created
		result.Skipped = skipped
	case stderrors.As(err, &aborted):
		result.Errors = append(result.Errors, aborted.Error())
		log.Warn().Err(aborted.cause).Int("row", aborted.row).Msg("import pass aborted")
		return result, nil
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("Import of %s failed: %v", pass, err))
		log.Error().Err(err).Msg("import pass failed")
		return result, err
	}

	log.Info().
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("import pass completed")

	return result, nil
}

func isMissingReference(err error) bool {
	var missing *MissingReferenceError
	return stderrors.As(err, &missing)
}

// csvRow is one record with its 1-based position in the file
type csvRow struct {
	line   int
	fields []string
}

// readRows parses headerless CSV. Records with the wrong number of columns
// or broken quoting become row errors; only a read failure is returned.
func readRows(r io.Reader, columns int) ([]csvRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows      []csvRow
		malformed []string
	)
	for n := 1; ; n++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if stderrors.As(err, &parseErr) {
			malformed = append(malformed, fmt.Sprintf("Error reading row %d: %v", n, parseErr.Err))
			continue
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "BAD_REQUEST", "failed to read CSV file", http.StatusBadRequest)
		}

		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) != columns {
			malformed = append(malformed, fmt.Sprintf("Error reading row %d: expected %d columns, got %d", n, columns, len(record)))
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, csvRow{line: n, fields: record})
	}
	return rows, malformed, nil
}
