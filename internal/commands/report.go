package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/i18n"
)

var reportPDF string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the top-5 task and employee rankings",
	Long: `Print the longest tasks, the most expensive tasks and the employees
with the most hours. With --pdf the same report is written to a file.

Examples:
  worktime report
  worktime report --pdf report.pdf --lang ru`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if reportPDF != "" {
			data, err := a.Reports.ExportReportPDF(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(reportPDF, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", reportPDF, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", reportPDF)
			return nil
		}

		report, err := a.Reports.Report(ctx)
		if err != nil {
			return err
		}
		return printReport(cmd.OutOrStdout(), i18n.GetLocaleFromContext(ctx), report)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportPDF, "pdf", "", "write the report as PDF to this path")
}

func printReport(w io.Writer, locale string, report *service.Report) error {
	t := func(key string) string { return i18n.TWithLocale(locale, key) }
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n%s\t%s\n", t("reports.long_tasks"), t("reports.task"), t("reports.hours"))
	for _, r := range report.LongTasks {
		fmt.Fprintf(tw, "%s\t%d\n", r.Task, r.Hours)
	}

	fmt.Fprintf(tw, "\n%s\n%s\t%s\n", t("reports.cost_tasks"), t("reports.task"), t("reports.cost"))
	for _, r := range report.CostTasks {
		fmt.Fprintf(tw, "%s\t%d\n", r.Task, r.Cost)
	}

	fmt.Fprintf(tw, "\n%s\n%s\t%s\n", t("reports.employees"), t("reports.employee"), t("reports.hours"))
	for _, r := range report.Employees {
		fmt.Fprintf(tw, "%s\t%d\n", r.Employee, r.Hours)
	}

	return tw.Flush()
}
