package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/worktime/worktime-backend/internal/timesheet/service"
)

var (
	importDir        string
	importPositions  string
	importEmployees  string
	importTimesheets string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import positions, employees and timesheet rows from CSV",
	Long: `Import the three CSV files in order: positions, employees, then
timesheet tasks and rows. Rows that already exist are skipped, so the
same files can be imported again safely.

Examples:
  worktime import --dir ./data
  worktime import --positions p/positions.csv --employees e/employees.csv --timesheets t/timesheet.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := resolveImportPaths(importDir, importPositions, importEmployees, importTimesheets)
		if err != nil {
			return err
		}

		var readers []io.Reader
		for _, p := range paths {
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()
			readers = append(readers, f)
		}

		ctx, a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.Importer.ImportAll(ctx, readers[0], readers[1], readers[2])
		printImportResults(cmd.OutOrStdout(), results)
		return err
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory holding positions.csv, employees.csv and timesheet.csv")
	importCmd.Flags().StringVar(&importPositions, "positions", "", "path to positions.csv")
	importCmd.Flags().StringVar(&importEmployees, "employees", "", "path to employees.csv")
	importCmd.Flags().StringVar(&importTimesheets, "timesheets", "", "path to timesheet.csv")
}

// resolveImportPaths returns the positions, employees and timesheet paths.
// Explicit file flags override the files found in dir, and every base name
// must match the expected file name.
func resolveImportPaths(dir, positions, employees, timesheets string) ([]string, error) {
	files := []struct {
		path     string
		expected string
	}{
		{positions, service.PositionsFileName},
		{employees, service.EmployeesFileName},
		{timesheets, service.TimesheetsFileName},
	}

	paths := make([]string, len(files))
	for i, f := range files {
		p := f.path
		if p == "" {
			if dir == "" {
				return nil, errors.New("pass --dir or all of --positions, --employees and --timesheets")
			}
			p = filepath.Join(dir, f.expected)
		}
		if err := service.ValidateFilename(filepath.Base(p), f.expected); err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return paths, nil
}

func printImportResults(w io.Writer, results []*service.ImportResult) {
	for _, r := range results {
		fmt.Fprintf(w, "%-16s created %d, skipped %d, errors %d\n", r.Pass, r.Created, r.Skipped, len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
