// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNew_CarriesLogger(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), testLogger(&buf))

	Info(ctx, "hello", "key", "value")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNew_NilLoggerUsesDefault(t *testing.T) {
	ctx := New(context.Background(), nil)
	assert.Equal(t, DefaultLogger, Logger(ctx))
}

func TestLogger_MissingReturnsDefault(t *testing.T) {
	assert.Equal(t, DefaultLogger, Logger(context.Background()))
}

func TestLoggingFunctions_Levels(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), testLogger(&buf))

	Debug(ctx, "debug msg")
	Info(ctx, "info msg")
	Warn(ctx, "warn msg")
	Error(ctx, "error msg")

	out := buf.String()
	require.NotEmpty(t, out)

	for _, want := range []string{"debug msg", "info msg", "warn msg", "error msg"} {
		assert.Contains(t, out, want)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
}

func TestLevelVar_ControlsDefaultLogger(t *testing.T) {
	orig := LevelVar.Level()
	defer LevelVar.Set(orig)

	LevelVar.Set(slog.LevelError)
	assert.False(t, DefaultLogger.Enabled(context.Background(), slog.LevelInfo))

	LevelVar.Set(slog.LevelDebug)
	assert.True(t, DefaultLogger.Enabled(context.Background(), slog.LevelDebug))
}
