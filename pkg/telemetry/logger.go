package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with alignment-engine conventions: every
// child logger is tagged with the component or run it belongs to, and
// the raw zerolog instance is exposed for the solver packages that
// take one directly.
type Logger struct {
	zlog   zerolog.Logger
	config LoggingConfig
}

// loggerContextKey is the context key for logger instances.
type loggerContextKey struct{}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	var writer io.Writer
	switch cfg.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	default:
		// Anything else is a file path.
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		writer = file
	}

	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.RFC3339,
		}
	}

	switch cfg.TimeFormat {
	case "unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	case "unixms":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	zlog := zerolog.New(writer).With().Timestamp().Logger()
	zlog = zlog.Level(parseLogLevel(cfg.Level))
	if cfg.EnableCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog, config: cfg}, nil
}

// Zerolog returns the underlying zerolog logger for packages that take
// one directly (solver, scene, stores).
func (l *Logger) Zerolog() zerolog.Logger { return l.zlog }

// NewComponentLogger creates a child logger for a specific component.
func (l *Logger) NewComponentLogger(component string) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Str("component", component).Logger(),
		config: l.config,
	}
}

// WithContext adds the logger to the context.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext retrieves the logger from the context, or a minimal
// default when none is stored.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zlog: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

// WithField returns a logger with a single additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Interface(key, value).Logger(),
		config: l.config,
	}
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Str("run_id", runID).Logger(),
		config: l.config,
	}
}

// WithConstraintID adds a constraint_id field to the logger.
func (l *Logger) WithConstraintID(constraintID string) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Str("constraint_id", constraintID).Logger(),
		config: l.config,
	}
}

// WithScene adds a scene field to the logger.
func (l *Logger) WithScene(scene string) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Str("scene", scene).Logger(),
		config: l.config,
	}
}

// WithError adds error information to the logger.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Err(err).Logger(),
		config: l.config,
	}
}

// Trace logs a trace-level message.
func (l *Logger) Trace(msg string) { l.zlog.Trace().Msg(msg) }

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }

// Debugf logs a formatted debug-level message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Info logs an info-level message.
func (l *Logger) Info(msg string) { l.zlog.Info().Msg(msg) }

// Infof logs a formatted info-level message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(msg string) { l.zlog.Warn().Msg(msg) }

// Error logs an error-level message.
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Errorf logs a formatted error-level message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Fatal logs a fatal-level message and exits.
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

// parseLogLevel converts a string log level to zerolog.Level.
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
