// Package logging wraps charmbracelet/log with the application's defaults.
//
// Loggers are built once per invocation and handed to every component that
// needs one; there is no package-level logger.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const prefix = "mcpconf"

// Options controls how a logger is constructed.
type Options struct {
	// Debug enables debug level output with caller reporting.
	Debug bool
	// File, when set, receives the log output instead of stderr. The file is
	// truncated on open.
	File string
	// Output overrides the destination. Ignored when File is set.
	Output io.Writer
}

type AppLogger struct {
	logger *log.Logger
	debug  bool
	closer io.Closer
}

// NewAppLogger builds a logger from the process environment: DEBUG turns on
// debug output and MCPCONF_LOG_FILE redirects it to a file.
func NewAppLogger() *AppLogger {
	logger, err := New(Options{
		Debug: os.Getenv("DEBUG") != "",
		File:  os.Getenv("MCPCONF_LOG_FILE"),
	})
	if err != nil {
		// fall back to stderr rather than refusing to run
		logger, _ = New(Options{Debug: os.Getenv("DEBUG") != ""})
		logger.Warn("Could not open log file, logging to stderr", "error", err)
	}
	return logger
}

// New creates a logger.
//
// Production loggers write warnings and errors to stderr with RFC3339
// timestamps. Debug loggers additionally report the caller.
func New(opts Options) (*AppLogger, error) {
	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}

	var closer io.Closer
	if opts.File != "" {
		logFile, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = logFile
		closer = logFile
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportCaller:    opts.Debug,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	if opts.Debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	al := &AppLogger{logger: logger, debug: opts.Debug, closer: closer}
	if opts.Debug && opts.File != "" {
		al.Debug("Debug logging enabled", "log_file", opts.File)
	}
	return al, nil
}

// With returns a child logger that adds keyvals to every entry.
func (al *AppLogger) With(keyvals ...interface{}) *AppLogger {
	return &AppLogger{
		logger: al.logger.With(keyvals...),
		debug:  al.debug,
	}
}

// Close releases the log file, if any.
func (al *AppLogger) Close() error {
	if al.closer == nil {
		return nil
	}
	err := al.closer.Close()
	al.closer = nil
	return err
}

func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	if al.debug {
		al.logger.Debug(msg, keyvals...)
	}
}

// DebugObject dumps obj with its field names at debug level.
func (al *AppLogger) DebugObject(name string, obj interface{}) {
	if al.debug {
		al.logger.Debug("Object dump", "name", name, "object", fmt.Sprintf("%+v", obj))
	}
}

// Log performance metrics
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.debug {
		al.logger.Debug("Performance",
			"operation", operation,
			"duration", time.Since(start),
		)
	}
}

// Log state transitions for debugging
func (al *AppLogger) LogStateTransition(component, from, to string) {
	if al.debug {
		al.logger.Debug("State transition",
			"component", component,
			"from", from,
			"to", to,
		)
	}
}

// Testing Helper - NewTestLogger creates a logger that writes to a buffer for testing
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false, // Easier to test without timestamps
		ReportCaller:    false,
		Prefix:          "Test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{
		logger: logger,
		debug:  true,
	}, &buf
}

// Discard returns a logger that drops everything.
func Discard() *AppLogger {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	logger.SetLevel(log.FatalLevel)
	return &AppLogger{logger: logger}
}
