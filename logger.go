package docstore

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/docstore/record"
)

// Logger wraps slog.Logger with docstore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCollection adds a collection field to the logger.
func (l *Logger) WithCollection(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("collection", name),
	}
}

// LogCreate logs a create operation.
func (l *Logger) LogCreate(ctx context.Context, id record.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "create completed",
			"id", id,
		)
	}
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, id record.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"id", id,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id record.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"id", id,
		)
	}
}

// LogBulk logs a bulk update/delete operation.
func (l *Logger) LogBulk(ctx context.Context, op string, matched int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bulk operation failed",
			"op", op,
			"matched", matched,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "bulk operation completed",
			"op", op,
			"matched", matched,
		)
	}
}

// LogFind logs a query operation.
func (l *Logger) LogFind(ctx context.Context, matched int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "find failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "find completed",
			"matched", matched,
		)
	}
}

// LogLoad logs a snapshot load.
func (l *Logger) LogLoad(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"records", count,
		)
	}
}

// LogPersist logs a snapshot persist.
func (l *Logger) LogPersist(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot persist failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "snapshot persisted",
			"records", count,
		)
	}
}
