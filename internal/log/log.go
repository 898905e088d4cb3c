// Package log is hostprobe's structured logger. Records fan out to stderr
// (warnings and errors unless verbose) and to a daily JSONL debug file that
// always captures every level.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var (
	base       *slog.Logger
	logger     *slog.Logger
	fileWriter *FileWriter
)

// Options configures the logger.
type Options struct {
	// Verbose sends debug and info records to stderr.
	Verbose bool
	// JSONFormat writes stderr records as JSON instead of text.
	JSONFormat bool
	// Interactive keeps stderr to warnings and errors even when Verbose is
	// set, so log lines do not tear through the menu prompt.
	Interactive bool
	// DebugDir holds the daily debug files. Empty disables file logging.
	DebugDir string
	// RetentionDays removes debug files older than this many days. Zero keeps
	// everything.
	RetentionDays int
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// Init replaces the global logger.
func Init(opts Options) error {
	Close()

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose && !opts.Interactive {
		level = slog.LevelDebug
	}
	stderrOpts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if opts.JSONFormat {
		handlers = append(handlers, slog.NewJSONHandler(stderr, stderrOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stderr, stderrOpts))
	}

	if opts.DebugDir != "" {
		if opts.RetentionDays > 0 {
			Cleanup(opts.DebugDir, opts.RetentionDays)
		}
		fw, err := NewFileWriter(opts.DebugDir)
		if err != nil {
			return err
		}
		fileWriter = fw
		handlers = append(handlers, slog.NewJSONHandler(fw, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	setBase(slog.New(&fanout{handlers: handlers}))
	return nil
}

// Close flushes and closes the debug file, if any.
func Close() {
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
}

// DebugFile returns the path of the current debug file, or "" when file
// logging is off.
func DebugFile() string {
	if fileWriter == nil {
		return ""
	}
	return fileWriter.Path()
}

// SetOutput sends all levels to w as text. Used by tests.
func SetOutput(w io.Writer) {
	setBase(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// SetSession tags every later record with the session id.
func SetSession(id string) {
	logger = base.With(slog.String("session", id))
	slog.SetDefault(logger)
}

// ClearSession drops the session tag.
func ClearSession() {
	logger = base
	slog.SetDefault(logger)
}

func setBase(l *slog.Logger) {
	base = l
	logger = l
	slog.SetDefault(l)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { logger.Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { logger.Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { logger.Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { logger.Error(msg, args...) }

// With returns a child logger carrying args.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}

// fanout hands each record to every handler that accepts its level.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: hs}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &fanout{handlers: hs}
}

func init() {
	base = slog.Default()
	logger = base
}
