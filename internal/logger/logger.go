// Package logger provides structured logging with file and console output.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultLogMaxSize is the default maximum size in megabytes before log rotation
	DefaultLogMaxSize = 2

	// DefaultLogMaxBackups is the default number of old log files to retain
	DefaultLogMaxBackups = 3

	// DefaultLogMaxAge is the default maximum number of days to retain old log files
	DefaultLogMaxAge = 28

	// LevelTrace is a custom log level below Debug, only logged to file
	LevelTrace = slog.LevelDebug - 4

	appName     = "pbirefresh"
	logFileName = appName + ".log"
)

// LoggerInterface defines the logging methods
type LoggerInterface interface {
	Trace(msg string, args ...any) // Only logs to file, never to console
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) LoggerInterface
	Close()
	GetLogPath() string
}

// LoggerOptions configures the logger
type LoggerOptions struct {
	Verbose    bool
	LogDir     string    // If empty, uses %LOCALAPPDATA%\pbirefresh
	MaxSize    int       // Max size in megabytes before rotation (default: 10)
	MaxBackups int       // Max number of old log files to keep (default: 3)
	MaxAge     int       // Max days to keep old log files (default: 28)
	Compress   bool      // Whether to compress rotated logs (default: true)
	Console    io.Writer // Console destination (default: os.Stdout)
}

// GetLogPath returns the path where logs will be written based on options
func GetLogPath(opts LoggerOptions) string {
	// Determine log directory
	logDir := opts.LogDir
	if logDir == "" {
		localAppData := os.Getenv("LOCALAPPDATA")

		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}

		logDir = filepath.Join(localAppData, appName)
	}

	return filepath.Join(logDir, logFileName)
}

// PrintLogFile prints the current log file to the provided writer
// If writer is nil, prints to stdout. Returns error if log file doesn't exist or can't be read.
func PrintLogFile(w io.Writer, opts LoggerOptions) error {
	if w == nil {
		w = os.Stdout
	}

	logPath := GetLogPath(opts)

	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Ignore close errors on read-only file
		}
	}()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	return nil
}

// Logger handles dual output logging (file + console).
// Loggers derived through With share the root's file handle; only the root closes it.
type Logger struct {
	file             *slog.Logger
	console          *slog.Logger
	lumberjackLogger *lumberjack.Logger
	logPath          string
	root             bool

	// base loggers carry every attribute except "component", which is
	// single-valued and applied on top
	fileBase    *slog.Logger
	consoleBase *slog.Logger
	component   string
}

// NewLogger creates a new logger instance
func NewLogger(opts LoggerOptions) (*Logger, error) {
	// Set defaults
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultLogMaxSize
	}

	if opts.MaxBackups == 0 {
		opts.MaxBackups = DefaultLogMaxBackups
	}

	if opts.MaxAge == 0 {
		opts.MaxAge = DefaultLogMaxAge
	}

	// Get log path and ensure directory exists
	logPath := GetLogPath(opts)
	logDir := filepath.Dir(logPath)

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	// Set up lumberjack for log rotation
	lumberjackLogger := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}

	// File logger: structured text with all fields (including Trace level)
	fileLogger := slog.New(slog.NewTextHandler(lumberjackLogger, &slog.HandlerOptions{
		Level: LevelTrace, // Set to LevelTrace to capture all levels including Trace
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Replace "DEBUG-4" with "TRACE" in the level attribute
			if a.Key == slog.LevelKey && a.Value.Any().(slog.Level) == LevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
			return a
		},
	}))

	// Console logger: clean output without timestamps
	consoleWriter := opts.Console
	if consoleWriter == nil {
		consoleWriter = os.Stdout
	}

	consoleHandler := &ConsoleHandler{
		writer:  consoleWriter,
		verbose: opts.Verbose,
	}

	consoleLogger := slog.New(consoleHandler)

	logger := &Logger{
		file:             fileLogger,
		console:          consoleLogger,
		lumberjackLogger: lumberjackLogger,
		logPath:          logPath,
		root:             true,
		fileBase:         fileLogger,
		consoleBase:      consoleLogger,
	}

	return logger, nil
}

// Close closes the log file and flushes any buffered data
func (l *Logger) Close() {
	if l.root && l.lumberjackLogger != nil {
		if err := l.lumberjackLogger.Close(); err != nil {
			// Log to stderr since we're closing the log file
			fmt.Fprintf(os.Stderr, "ERROR: Failed to close log file: %v\n", err)
		}
	}
}

// GetLogPath returns the path to the current log file
func (l *Logger) GetLogPath() string {
	return l.logPath
}

// With returns a logger that adds the given attributes to every file record.
// The console only picks up "component". A record carries one component: a
// nested With("component", ...) replaces the outer name.
func (l *Logger) With(args ...any) LoggerInterface {
	derived := &Logger{
		lumberjackLogger: l.lumberjackLogger,
		logPath:          l.logPath,
		fileBase:         l.fileBase,
		consoleBase:      l.consoleBase,
		component:        l.component,
	}

	rest := make([]any, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			if v.Key == "component" {
				derived.component = v.Value.String()
				continue
			}

		case string:
			if v == "component" && i+1 < len(args) {
				derived.component = fmt.Sprint(args[i+1])
				i++
				continue
			}
		}

		rest = append(rest, args[i])
	}

	if len(rest) > 0 {
		derived.fileBase = derived.fileBase.With(rest...)
		derived.consoleBase = derived.consoleBase.With(rest...)
	}

	derived.file, derived.console = derived.fileBase, derived.consoleBase
	if derived.component != "" {
		derived.file = derived.fileBase.With("component", derived.component)
		derived.console = derived.consoleBase.With("component", derived.component)
	}

	return derived
}

// Trace logs a trace message (file only, never to console)
func (l *Logger) Trace(msg string, args ...any) {
	l.file.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.file.Debug(msg, args...)
	l.console.Debug(msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.file.Info(msg, args...)
	l.console.Info(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.file.Warn(msg, args...)
	l.console.Warn(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.file.Error(msg, args...)
	l.console.Error(msg, args...)
}

// consoleStyle is the prefix and colour of a console level
type consoleStyle struct {
	prefix string
	color  *color.Color
}

var consoleStyles = map[slog.Level]consoleStyle{
	slog.LevelError: {"ERROR: ", color.New(color.FgRed)},
	slog.LevelWarn:  {"WARNING: ", color.New(color.FgYellow)},
	slog.LevelDebug: {"VERBOSE: ", color.New(color.FgCyan)},
}

// ConsoleHandler writes clean, timestamp-free lines for the operator.
// Of the attributes added through With only "component" is kept; it tags
// verbose lines so the interleaved monitor/visibility output stays readable.
type ConsoleHandler struct {
	writer    io.Writer
	verbose   bool
	component string
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	// Trace level never goes to console
	if level == LevelTrace {
		return false
	}

	if !h.verbose && level == slog.LevelDebug {
		return false
	}

	return true
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	style := consoleStyles[r.Level]

	msg := r.Message
	if h.component != "" && h.verbose {
		msg = "[" + h.component + "] " + msg
	}

	// Info lines stay terse unless verbose; other levels always carry attributes
	if r.NumAttrs() > 0 && (r.Level != slog.LevelInfo || h.verbose) {
		attrs := make([]string, 0, r.NumAttrs())

		r.Attrs(func(a slog.Attr) bool {
			attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
			return true
		})

		msg += " " + strings.Join(attrs, " ")
	}

	// Write errors to the console are ignored
	if style.color != nil {
		_, _ = style.color.Fprintf(h.writer, "%s%s\n", style.prefix, msg)
		return nil
	}

	_, _ = fmt.Fprintf(h.writer, "%s%s\n", style.prefix, msg)
	return nil
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	for _, a := range attrs {
		if a.Key == "component" {
			clone := *h
			clone.component = a.Value.String()
			return &clone
		}
	}

	return h
}

func (h *ConsoleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// NoOpLogger is a logger that does nothing - useful for tests
type NoOpLogger struct{}

func (n *NoOpLogger) Trace(msg string, args ...any) {}
func (n *NoOpLogger) Debug(msg string, args ...any) {}
func (n *NoOpLogger) Info(msg string, args ...any)  {}
func (n *NoOpLogger) Warn(msg string, args ...any)  {}
func (n *NoOpLogger) Error(msg string, args ...any) {}
func (n *NoOpLogger) With(args ...any) LoggerInterface {
	return n
}
func (n *NoOpLogger) Close()             {}
func (n *NoOpLogger) GetLogPath() string { return "" }

// NewNoOpLogger creates a new no-op logger for testing
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}
