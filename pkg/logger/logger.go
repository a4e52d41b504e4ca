package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New creates the service logger. Development writes debug-level console
// output, every other environment writes info-level JSON lines to stdout.
func New(serviceName string, environment string) *Logger {
	if environment == "development" {
		l := NewWithWriter(serviceName, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		return &Logger{Logger: l.Level(zerolog.DebugLevel)}
	}

	l := NewWithWriter(serviceName, os.Stdout)
	return &Logger{Logger: l.Level(zerolog.InfoLevel)}
}

// NewCLI creates a logger for command-line tools: info-level console
// output on stderr, leaving stdout to the command
func NewCLI(name string) *Logger {
	l := NewWithWriter(name, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	return &Logger{Logger: l.Level(zerolog.InfoLevel)}
}

// NewWithWriter creates a logger that writes every level to w
func NewWithWriter(serviceName string, w io.Writer) *Logger {
	return &Logger{
		Logger: zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger(),
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}

// WithRequestID tags entries with the HTTP request id
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

// WithComponent tags entries with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithEmployee scopes entries to one employee
func (l *Logger) WithEmployee(employeeID string) *Logger {
	return l.with("employee_id", employeeID)
}

// WithPass scopes entries to one import pass
func (l *Logger) WithPass(pass string) *Logger {
	return l.with("pass", pass)
}
