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

// New creates a logger for the service. Development gets human readable console
// output, every other environment gets JSON lines.
func New(serviceName string, environment string) *Logger {
	var output io.Writer = os.Stdout

	level := zerolog.InfoLevel
	if environment == "development" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	}

	return NewWithWriter(output, serviceName).Level(level)
}

// NewWithWriter creates a logger writing to w. Tests pass io.Discard or a buffer.
func NewWithWriter(w io.Writer, serviceName string) *Logger {
	return &Logger{
		Logger: zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger(),
	}
}

// Nop returns a logger that drops everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Level returns a copy of the logger with the minimum level set.
func (l *Logger) Level(level zerolog.Level) *Logger {
	return &Logger{Logger: l.Logger.Level(level)}
}

// WithRequestID returns a logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("request_id", requestID).Logger(),
	}
}

// WithComponent returns a logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("component", component).Logger(),
	}
}

// WithPeriod returns a logger tagged with a payroll month and year.
func (l *Logger) WithPeriod(month, year int) *Logger {
	return &Logger{
		Logger: l.Logger.With().Int("month", month).Int("year", year).Logger(),
	}
}
