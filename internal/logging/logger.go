package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const prefix = "dcs"

// Options configures a Logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
	// Console receives human-readable output. Nil means os.Stderr.
	Console io.Writer
	// FilePath, when set, also appends logfmt lines to that file so runs can
	// be inspected after the terminal is gone.
	FilePath string
}

// Logger fans leveled messages out to the console and an optional log file.
// Every line carries the run id of the invocation. A nil *Logger discards
// everything.
type Logger struct {
	console *log.Logger
	file    *log.Logger
	handle  *os.File
	runID   string
}

// New builds a logger for one invocation.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	runID := uuid.NewString()
	l := &Logger{
		runID: runID,
		console: log.NewWithOptions(console, log.Options{
			Level:  level,
			Prefix: prefix,
		}),
	}
	if strings.TrimSpace(opts.FilePath) != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		l.handle = f
		l.file = log.NewWithOptions(f, log.Options{
			Level:           log.DebugLevel,
			Formatter:       log.LogfmtFormatter,
			ReportTimestamp: true,
			Fields:          []interface{}{"run", runID},
		})
	}
	return l, nil
}

// ParseLevel maps a config/flag value onto a log level. Empty means warn so
// batch runs stay quiet unless something is off.
func ParseLevel(value string) (log.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return log.WarnLevel, nil
	}
	level, err := log.ParseLevel(trimmed)
	if err != nil {
		return 0, fmt.Errorf("logging: unknown level %q", value)
	}
	return level, nil
}

// RunID identifies the invocation in the log file.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.handle == nil {
		return nil
	}
	return l.handle.Close()
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log(log.DebugLevel, msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(log.InfoLevel, msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log(log.WarnLevel, msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(log.ErrorLevel, msg, keyvals...)
}

func (l *Logger) log(level log.Level, msg string, keyvals ...interface{}) {
	if l == nil {
		return
	}
	msg = strings.TrimRight(msg, "\n")
	if l.console != nil {
		l.console.Log(level, msg, keyvals...)
	}
	if l.file != nil {
		l.file.Log(level, msg, keyvals...)
	}
}
