package subword

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with subword-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithModel adds the model kind and dimension to the logger.
func (l *Logger) WithModel(kind string, dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("model", kind, "dim", dim),
	}
}

// LogVocabulary logs the result of the vocabulary pass.
func (l *Logger) LogVocabulary(ctx context.Context, words, labels int32, tokens int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "vocabulary pass failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "vocabulary built",
		"words", words,
		"labels", labels,
		"tokens", tokens,
	)
}

// LogProgress logs training progress.
func (l *Logger) LogProgress(ctx context.Context, progress float64, lr float32, loss float64, wordsPerSec float64) {
	l.InfoContext(ctx, "training",
		"progress", progress,
		"lr", lr,
		"loss", loss,
		"words_per_sec", int64(wordsPerSec),
	)
}

// LogTrainDone logs the end of a training run.
func (l *Logger) LogTrainDone(ctx context.Context, examples int64, loss float64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"examples", examples,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "training completed",
		"examples", examples,
		"loss", loss,
		"elapsed", elapsed,
	)
}

// LogQuantize logs a quantization run.
func (l *Logger) LogQuantize(ctx context.Context, rows int, sizeBytes int64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "quantization failed",
			"rows", rows,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "quantization completed",
		"rows", rows,
		"size_bytes", sizeBytes,
		"elapsed", elapsed,
	)
}

// LogPublish logs a publish operation.
func (l *Logger) LogPublish(ctx context.Context, name string, version int64, blob string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"name", name,
			"version", version,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "model published",
		"name", name,
		"version", version,
		"blob", blob,
	)
}

// LogSave logs a save to or load from a file.
func (l *Logger) LogSave(ctx context.Context, op, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"filename", filename,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, op+" completed",
		"filename", filename,
	)
}
