package hnswdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with this package's operations, generalized
// from the teacher's logger.go down to the operations this engine
// actually has: no delete/update logging, since those are Non-goals.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler
// selects a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that emits JSON records at the given level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that emits human-readable text records.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithID returns a Logger that tags subsequent records with id.
func (l *Logger) WithID(id uint32) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}

// WithK returns a Logger that tags subsequent records with k.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithCount returns a Logger that tags subsequent records with count.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// LogInsert logs the outcome of one Insert call.
func (l *Logger) LogInsert(ctx context.Context, id uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "id", id, "error", err)
		return
	}
	l.DebugContext(ctx, "insert completed", "id", id)
}

// LogBatchInsert logs the outcome of one InsertBatch call.
func (l *Logger) LogBatchInsert(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch insert failed", "count", count, "error", err)
		return
	}
	l.InfoContext(ctx, "batch insert completed", "count", count)
}

// LogSearch logs the outcome of one Search call.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "k", k, "results", resultsFound)
}

// LogRecovery logs the outcome of rebuilding the metadata offset table on Open.
func (l *Logger) LogRecovery(ctx context.Context, entriesRecovered int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "metadata recovery failed", "entries", entriesRecovered, "error", err)
		return
	}
	l.InfoContext(ctx, "metadata recovery completed", "entries", entriesRecovered)
}
