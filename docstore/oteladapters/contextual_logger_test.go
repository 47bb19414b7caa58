package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore/oteladapters"
)

func Test_SlogBridgeLoggerWithHandler_WritesAllLevels(t *testing.T) {
	// setup
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message", "collection", "users")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message")
	logger.Info("plain message", "deleted", 3)

	// assert
	output := buf.String()
	assert.Contains(t, output, `"msg":"debug message"`)
	assert.Contains(t, output, `"collection":"users"`)
	assert.Contains(t, output, `"msg":"info message"`)
	assert.Contains(t, output, `"msg":"warn message"`)
	assert.Contains(t, output, `"msg":"error message"`)
	assert.Contains(t, output, `"deleted":3`)
}

func Test_SlogBridgeLogger_WithGlobalProvider_DoesNotPanic(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("test")

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "message", "key", "value")
		logger.Error("message")
	})
}

func Test_OTelLogger_AcceptsOddArguments(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "message", "key", "value", "count", 3, "dangling")
		logger.ErrorContext(context.Background(), "message", 42, "not a key")
	})
}
