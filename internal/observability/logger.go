package observability

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"rfm-segmentation/internal/config"
)

func NewLogger(cfg config.LoggerConfig, w io.Writer) *slog.Logger {
	level := parseLogLevel(cfg.Level)

	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: shortSource,
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ForRun returns logger with the run id from ctx attached, so every line of a
// run can be grepped by it. Without a run id the logger is returned as is.
func ForRun(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if runID := GetRunID(ctx); runID != "" {
		return logger.With(string(RunIDKey), runID)
	}
	return logger
}

// shortSource trims the source attribute to package/file.go:line.
func shortSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey || len(groups) > 0 {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}
	file := filepath.Join(filepath.Base(filepath.Dir(src.File)), filepath.Base(src.File))
	return slog.String(slog.SourceKey, file+":"+strconv.Itoa(src.Line))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey string

const RunIDKey contextKey = "run_id"

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}
