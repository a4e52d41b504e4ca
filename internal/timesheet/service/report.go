package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/pkg/i18n"
	"github.com/worktime/worktime-backend/pkg/logger"
)

const topN = 5

// TaskHours is a task ranked by whole hours worked
type TaskHours struct {
	Task  string `json:"task"`
	Hours int64  `json:"hours"`
}

// TaskCost is a task ranked by labour cost
type TaskCost struct {
	Task string `json:"task"`
	Cost int64  `json:"cost"`
}

// EmployeeHours is an employee ranked by rounded hours worked
type EmployeeHours struct {
	Employee string `json:"employee"`
	Hours    int64  `json:"hours"`
}

// Report bundles the three rankings
type Report struct {
	LongTasks []TaskHours     `json:"top5_long_tasks"`
	CostTasks []TaskCost      `json:"top5_cost_tasks"`
	Employees []EmployeeHours `json:"top5_employees"`
}

// ReportOptions configures the PDF export
type ReportOptions struct {
	// FontPath points at a TTF font with the glyphs of every locale. Without
	// it the PDF uses a core font, which only covers Latin-1 text.
	FontPath string
}

// ReportService computes the timesheet rankings
type ReportService struct {
	entries *repository.TimeEntryRepository
	opts    ReportOptions
	logger  *logger.Logger
}

// NewReportService creates a new report service
func NewReportService(entries *repository.TimeEntryRepository, opts ReportOptions, log *logger.Logger) *ReportService {
	return &ReportService{
		entries: entries,
		opts:    opts,
		logger:  log.WithComponent("report"),
	}
}

// Top5LongTasks ranks tasks by hours worked
func (s *ReportService) Top5LongTasks(ctx context.Context) ([]TaskHours, error) {
	rows, err := s.entries.ReportRows(ctx)
	if err != nil {
		return nil, err
	}
	return LongTasks(rows), nil
}

// Top5CostTasks ranks tasks by cost
func (s *ReportService) Top5CostTasks(ctx context.Context) ([]TaskCost, error) {
	rows, err := s.entries.ReportRows(ctx)
	if err != nil {
		return nil, err
	}
	return CostTasks(rows), nil
}

// Top5Employees ranks employees by hours worked
func (s *ReportService) Top5Employees(ctx context.Context) ([]EmployeeHours, error) {
	rows, err := s.entries.ReportRows(ctx)
	if err != nil {
		return nil, err
	}
	return Employees(rows), nil
}

// Report computes all three rankings from one snapshot of the entries
func (s *ReportService) Report(ctx context.Context) (*Report, error) {
	rows, err := s.entries.ReportRows(ctx)
	if err != nil {
		return nil, err
	}
	return BuildReport(rows), nil
}

// BuildReport computes all three rankings over rows
func BuildReport(rows []repository.ReportRow) *Report {
	return &Report{
		LongTasks: LongTasks(rows),
		CostTasks: CostTasks(rows),
		Employees: Employees(rows),
	}
}

// LongTasks sums whole hours per task. Each entry is truncated to whole
// hours before summing, so two 90 minute entries count as 2.
func LongTasks(rows []repository.ReportRow) []TaskHours {
	keys, totals := aggregate(rows, func(r repository.ReportRow) (string, int64) {
		return r.TaskName, int64(seconds(r) / 3600)
	})
	ranked := topByTotal(keys, totals)

	out := make([]TaskHours, len(ranked))
	for i, k := range ranked {
		out[i] = TaskHours{Task: k, Hours: totals[k]}
	}
	return out
}

// CostTasks sums hours times the employee's hourly rate per task,
// truncating each entry's cost to an integer before summing
func CostTasks(rows []repository.ReportRow) []TaskCost {
	keys, totals := aggregate(rows, func(r repository.ReportRow) (string, int64) {
		return r.TaskName, int64(float64(seconds(r)) / 3600.0 * float64(r.HourlyRate))
	})
	ranked := topByTotal(keys, totals)

	out := make([]TaskCost, len(ranked))
	for i, k := range ranked {
		out[i] = TaskCost{Task: k, Cost: totals[k]}
	}
	return out
}

// Employees sums seconds per employee and rounds the total to the nearest
// hour, halves rounding up
func Employees(rows []repository.ReportRow) []EmployeeHours {
	keys, totals := aggregate(rows, func(r repository.ReportRow) (string, int64) {
		return r.EmployeeName, seconds(r)
	})
	hours := make(map[string]int64, len(totals))
	for k, secs := range totals {
		hours[k] = int64(math.Round(float64(secs) / 3600.0))
	}
	ranked := topByTotal(keys, hours)

	out := make([]EmployeeHours, len(ranked))
	for i, k := range ranked {
		out[i] = EmployeeHours{Employee: k, Hours: hours[k]}
	}
	return out
}

func seconds(r repository.ReportRow) int64 {
	return int64(r.EndTime.Sub(r.StartTime) / time.Second)
}

// aggregate sums value per key and returns the keys in first-seen order
func aggregate(rows []repository.ReportRow, value func(repository.ReportRow) (string, int64)) ([]string, map[string]int64) {
	var keys []string
	totals := make(map[string]int64)
	for _, r := range rows {
		k, v := value(r)
		if _, ok := totals[k]; !ok {
			keys = append(keys, k)
		}
		totals[k] += v
	}
	return keys, totals
}

// topByTotal orders keys by descending total, keeping first-seen order on
// ties, and keeps the first five
func topByTotal(keys []string, totals map[string]int64) []string {
	sorted := append([]string(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return totals[sorted[i]] > totals[sorted[j]]
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}

// ExportReportPDF renders the three rankings as a PDF, with headings in
// the locale carried by ctx
func (s *ReportService) ExportReportPDF(ctx context.Context) ([]byte, error) {
	report, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	return s.renderPDF(i18n.GetLocaleFromContext(ctx), report, time.Now())
}

func (s *ReportService) renderPDF(locale string, report *Report, generatedAt time.Time) ([]byte, error) {
	t := func(key string) string { return i18n.TWithLocale(locale, key) }

	pdf := fpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	text := pdf.UnicodeTranslatorFromDescriptor("")
	if s.opts.FontPath != "" {
		family = "ReportFont"
		pdf.AddUTF8Font(family, "", s.opts.FontPath)
		pdf.AddUTF8Font(family, "B", s.opts.FontPath)
		text = func(str string) string { return str }
	}

	pdf.SetTitle(t("reports.title"), true)
	pdf.SetMargins(20, 15, 20)
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, text(t("reports.title")), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, 6, generatedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	table := func(title, nameHeader, valueHeader string, rows [][2]string) {
		pdf.SetFont(family, "B", 12)
		pdf.CellFormat(0, 8, text(title), "", 1, "L", false, 0, "")

		pdf.SetFillColor(230, 230, 230)
		pdf.SetFont(family, "B", 10)
		pdf.CellFormat(120, 7, text(nameHeader), "1", 0, "L", true, 0, "")
		pdf.CellFormat(50, 7, text(valueHeader), "1", 1, "R", true, 0, "")

		pdf.SetFont(family, "", 10)
		for _, row := range rows {
			pdf.CellFormat(120, 7, text(row[0]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, row[1], "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	longRows := make([][2]string, len(report.LongTasks))
	for i, r := range report.LongTasks {
		longRows[i] = [2]string{r.Task, strconv.FormatInt(r.Hours, 10)}
	}
	table(t("reports.long_tasks"), t("reports.task"), t("reports.hours"), longRows)

	costRows := make([][2]string, len(report.CostTasks))
	for i, r := range report.CostTasks {
		costRows[i] = [2]string{r.Task, strconv.FormatInt(r.Cost, 10)}
	}
	table(t("reports.cost_tasks"), t("reports.task"), t("reports.cost"), costRows)

	employeeRows := make([][2]string, len(report.Employees))
	for i, r := range report.Employees {
		employeeRows[i] = [2]string{r.Employee, strconv.FormatInt(r.Hours, 10)}
	}
	table(t("reports.employees"), t("reports.employee"), t("reports.hours"), employeeRows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}
	return buf.Bytes(), nil
}
