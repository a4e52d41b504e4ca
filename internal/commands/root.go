package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/worktime/worktime-backend/internal/app"
	"github.com/worktime/worktime-backend/pkg/config"
	"github.com/worktime/worktime-backend/pkg/i18n"
	"github.com/worktime/worktime-backend/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	envFile string
	lang    string
)

var rootCmd = &cobra.Command{
	Use:   "worktime",
	Short: "Timesheet administration tool",
	Long: `worktime manages the timesheet database from the terminal.
Apply migrations, bulk import CSV files, print the top-5 reports and
follow timesheet events as they are published.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "worktime %s (commit %s, built %s)\n", version, commit, date)
	},
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", i18n.DefaultLocale, "locale for report headings (en, ru)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// openApp loads the configuration and connects to the backing services.
// The returned context carries the --lang locale.
func openApp(cmd *cobra.Command) (context.Context, *app.App, error) {
	if envFile != "" {
		// A missing dotenv file is not an error
		_ = godotenv.Load(envFile)
	}

	cfg, err := config.LoadWithValidation(app.ServiceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewCLI("worktime")
	ctx := i18n.WithLocale(cmd.Context(), i18n.ParseAcceptLanguage(lang))

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return ctx, a, nil
}
