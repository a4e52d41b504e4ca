package app

import (
	"context"
	"fmt"

	"github.com/worktime/worktime-backend/internal/timesheet/events"
	"github.com/worktime/worktime-backend/internal/timesheet/handler"
	"github.com/worktime/worktime-backend/internal/timesheet/repository"
	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/migrations"
	"github.com/worktime/worktime-backend/pkg/config"
	"github.com/worktime/worktime-backend/pkg/database"
	"github.com/worktime/worktime-backend/pkg/logger"
	"github.com/worktime/worktime-backend/pkg/messaging"
)

// ServiceName identifies this service in logs, config and events
const ServiceName = "timesheet-service"

// App holds the connections and services shared by the HTTP server and the CLI
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *database.DB
	RabbitMQ  *messaging.RabbitMQ // nil when messaging is disabled
	Timesheet *service.TimesheetService
	Importer  *service.ImportService
	Reports   *service.ReportService
}

// New connects to PostgreSQL and, when enabled, RabbitMQ, then builds the services
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	loc, err := cfg.Import.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: log, DB: db}

	var publisher messaging.EventPublisher
	if cfg.RabbitMQ.Enabled {
		a.RabbitMQ, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher, err = messaging.NewPublisher(a.RabbitMQ, messaging.ExchangeTimesheetEvents, ServiceName, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
	} else {
		log.Info().Msg("RabbitMQ disabled, events are only logged")
		publisher = messaging.NewLogPublisher(log)
	}

	positions := repository.NewPositionRepository(db)
	employees := repository.NewEmployeeRepository(db)
	tasks := repository.NewTaskRepository(db)
	entries := repository.NewTimeEntryRepository(db)
	eventPublisher := events.NewTimesheetEventPublisher(publisher, log)

	a.Timesheet = service.NewTimesheetService(positions, employees, tasks, entries, eventPublisher, log)
	a.Importer = service.NewImportService(db, positions, employees, tasks, entries, eventPublisher,
		service.ImportOptions{Location: loc, StrictReferences: cfg.Import.StrictReferences}, log)
	a.Reports = service.NewReportService(entries, service.ReportOptions{FontPath: cfg.Report.FontPath}, log)

	return a, nil
}

// Migrate applies the embedded schema migrations
func (a *App) Migrate(ctx context.Context) ([]string, error) {
	return a.DB.Migrate(ctx, migrations.FS)
}

// Handlers builds the HTTP handlers over the services
func (a *App) Handlers() *handler.Handlers {
	return &handler.Handlers{
		Positions:   handler.NewPositionHandler(a.Timesheet, a.Logger),
		Employees:   handler.NewEmployeeHandler(a.Timesheet, a.Logger),
		Tasks:       handler.NewTaskHandler(a.Timesheet, a.Logger),
		TimeEntries: handler.NewTimeEntryHandler(a.Timesheet, a.Logger),
		Import:      handler.NewImportHandler(a.Importer, a.Config.Import.MaxUploadBytes, a.Logger),
		Reports:     handler.NewReportHandler(a.Reports, a.Logger),
	}
}

// Health reports the state of every backing service
func (a *App) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status":   "healthy",
		"service":  ServiceName,
		"database": a.DB.Health(ctx),
	}
	if a.RabbitMQ != nil {
		health["rabbitmq"] = a.RabbitMQ.Health()
	}
	return health
}

// Close releases the connections
func (a *App) Close() {
	if a.RabbitMQ != nil {
		if err := a.RabbitMQ.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("failed to close RabbitMQ connection")
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("failed to close database")
	}
}
