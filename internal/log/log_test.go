package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger for empty context")
	}
	l := slog.Default().With(slog.String("url", "https://example.com"))
	ctx := ContextWithLogger(context.Background(), l)
	if LoggerFromContext(ctx) != l {
		t.Fatal("expected logger from context")
	}
}

func TestInitializeLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	var buf bytes.Buffer
	Debug = true
	defer func() { Debug = false }()

	InitializeLogger(&buf)
	slog.Debug("hello")

	if !strings.Contains(buf.String(), "level=DEBUG msg=hello") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}
