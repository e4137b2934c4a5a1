// Package log sets up the default slog logger and carries loggers in contexts.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

// Debug is set from the command line and switches the log level to debug.
var Debug bool

// InitializeDefaultLogger installs a text logger on stderr as the default logger.
// stdout stays free for exported data.
func InitializeDefaultLogger() {
	InitializeLogger(os.Stderr)
}

// InitializeLogger installs a text logger writing to w as the default logger.
// The interactive ui uses it to move log output into one of its views.
func InitializeLogger(w io.Writer) {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
