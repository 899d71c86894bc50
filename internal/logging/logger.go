// Package logging provides structured logging for cmdsync.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
)

// Logger is the structured logging interface injected into every component.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a new logger with additional key-value pairs.
	With(args ...any) Logger
	// Shutdown flushes any buffered logs and releases resources.
	Shutdown() error
}

// loggerImpl is the charmbracelet/log based implementation.
type loggerImpl struct {
	clogger  *clog.Logger
	closer   io.Closer
	redactor *redactor
	fields   []any
	path     string
}

// Init opens a JSON log file for this process under LogDir.
// If cfg.Enabled is false, returns a no-op logger.
func Init(cfg Config) (Logger, error) {
	if !cfg.Enabled {
		return noopLogger{}, nil
	}
	logDir, err := LogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine log directory: %w", err)
	}
	if err := rotate(logDir, cfg.MaxFiles); err != nil {
		// Non-fatal; the new file is still opened.
		fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
	}
	fname := fmt.Sprintf("%s%s_PID%d_%s.log",
		logFilePrefix,
		time.Now().Format("20060102_150405"),
		cfg.PID,
		strings.ReplaceAll(cfg.Command, " ", "_"))
	path := filepath.Join(logDir, fname)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	clogger := clog.NewWithOptions(f, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           parseLevel(cfg.Level),
		Formatter:       clog.JSONFormatter,
	})
	clogger = clogger.With("pid", cfg.PID, "command", cfg.Command)
	return &loggerImpl{
		clogger:  clogger,
		closer:   f,
		redactor: newRedactor(),
		path:     path,
	}, nil
}

// New returns a text logger writing to w. Used for console logging and tests.
func New(w io.Writer, level string) Logger {
	clogger := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: false,
		Level:           parseLevel(level),
		Formatter:       clog.TextFormatter,
	})
	return &loggerImpl{clogger: clogger, redactor: newRedactor()}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return noopLogger{}
}

// parseLevel converts a string level to clog.Level.
func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "info":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

func (l *loggerImpl) Debug(msg string, args ...any) { l.log(clog.DebugLevel, msg, args) }
func (l *loggerImpl) Info(msg string, args ...any)  { l.log(clog.InfoLevel, msg, args) }
func (l *loggerImpl) Warn(msg string, args ...any)  { l.log(clog.WarnLevel, msg, args) }
func (l *loggerImpl) Error(msg string, args ...any) { l.log(clog.ErrorLevel, msg, args) }

// log writes a log entry with redaction applied to the key-value pairs.
func (l *loggerImpl) log(level clog.Level, msg string, args []any) {
	all := make([]any, 0, len(l.fields)+len(args))
	all = append(all, l.fields...)
	all = append(all, args...)
	l.clogger.Log(level, msg, l.redactor.redact(all)...)
}

func (l *loggerImpl) With(args ...any) Logger {
	fields := make([]any, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &loggerImpl{
		clogger:  l.clogger,
		closer:   l.closer,
		redactor: l.redactor,
		fields:   fields,
		path:     l.path,
	}
}

func (l *loggerImpl) Shutdown() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// noopLogger is a logger that discards all output.
type noopLogger struct{}

func (n noopLogger) Debug(msg string, args ...any) {}
func (n noopLogger) Info(msg string, args ...any)  {}
func (n noopLogger) Warn(msg string, args ...any)  {}
func (n noopLogger) Error(msg string, args ...any) {}
func (n noopLogger) With(args ...any) Logger       { return n }
func (n noopLogger) Shutdown() error               { return nil }

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

// InitGlobal initializes the process-wide logger from the global config.
// Only the CLI layer uses the global; components receive loggers explicitly.
func InitGlobal() (Logger, error) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger != nil {
		return globalLogger, nil
	}
	l, err := Init(FromGlobalConfig())
	if err != nil {
		return noopLogger{}, err
	}
	globalLogger = l
	return l, nil
}

// GetGlobal returns the global logger, or a no-op logger if not initialized.
func GetGlobal() Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if globalLogger == nil {
		return noopLogger{}
	}
	return globalLogger
}

// ShutdownGlobal closes the global logger.
func ShutdownGlobal() error {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	err := globalLogger.Shutdown()
	globalLogger = nil
	return err
}

// CurrentLogFile returns the active log file path, or "" when logging to a file is off.
func CurrentLogFile() string {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if impl, ok := globalLogger.(*loggerImpl); ok {
		return impl.path
	}
	return ""
}

// Tee fans log entries out to several loggers.
func Tee(loggers ...Logger) Logger {
	return teeLogger(loggers)
}

type teeLogger []Logger

func (t teeLogger) Debug(msg string, args ...any) {
	for _, l := range t {
		l.Debug(msg, args...)
	}
}

func (t teeLogger) Info(msg string, args ...any) {
	for _, l := range t {
		l.Info(msg, args...)
	}
}

func (t teeLogger) Warn(msg string, args ...any) {
	for _, l := range t {
		l.Warn(msg, args...)
	}
}

func (t teeLogger) Error(msg string, args ...any) {
	for _, l := range t {
		l.Error(msg, args...)
	}
}

func (t teeLogger) With(args ...any) Logger {
	out := make(teeLogger, len(t))
	for i, l := range t {
		out[i] = l.With(args...)
	}
	return out
}

func (t teeLogger) Shutdown() error {
	var first error
	for _, l := range t {
		if err := l.Shutdown(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
