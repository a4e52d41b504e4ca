package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		applied, err := a.Migrate(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "Schema is up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintf(out, "Applied %s\n", name)
		}
		return nil
	},
}
