package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/worktime/worktime-backend/pkg/messaging"
)

const watchQueue = "timesheet.watch"

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print timesheet events as they are published",
	Long: `Bind a queue to the timesheet exchange and print every matching event
until interrupted. Requires WORKTIME_RABBITMQ_ENABLED=true.

Examples:
  worktime watch
  worktime watch --pattern 'timesheet.time_entry.*'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.RabbitMQ == nil {
			return errors.New("RabbitMQ is disabled, set WORKTIME_RABBITMQ_ENABLED=true")
		}

		consumer, err := messaging.NewConsumer(a.RabbitMQ, watchQueue, messaging.ExchangeTimesheetEvents,
			watchPattern, printEvent(cmd.OutOrStdout()), a.Logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return consumer.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "#", "routing key pattern to bind")
}

func printEvent(w io.Writer) messaging.MessageHandler {
	return func(ctx context.Context, event *messaging.Event) error {
		_, err := fmt.Fprintf(w, "%s  %-22s %s\n", event.Timestamp.Format("2006-01-02 15:04:05"), event.Type, event.Data)
		return err
	}
}
