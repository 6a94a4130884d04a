// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrettyHandler_Defaults(t *testing.T) {
	h := NewPrettyHandler(nil)
	require.NotNil(t, h)
	assert.NotNil(t, h.h)
	assert.NotNil(t, h.b)
	assert.NotNil(t, h.m)
	assert.False(t, h.colour)
}

func TestPrettyHandler_Options(t *testing.T) {
	var buf bytes.Buffer

	h := NewPrettyHandler(nil,
		WithDestinationWriter(&buf),
		WithColour(),
		WithOutputEmptyAttrs(),
	)

	assert.Equal(t, &buf, h.writer)
	assert.True(t, h.colour)
	assert.True(t, h.outputEmptyAttrs)
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer

	h := NewPrettyHandler(&slog.HandlerOptions{
		Level: slog.LevelDebug,
	}, WithDestinationWriter(&buf))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "something happened", 0)
	r.AddAttrs(slog.String("name", "value"))

	require.NoError(t, h.Handle(context.Background(), r))

	out := buf.String()
	assert.Contains(t, out, "something happened")
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, `"name"`)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_HandleNoAttrs(t *testing.T) {
	var buf bytes.Buffer

	h := NewPrettyHandler(&slog.HandlerOptions{
		Level: slog.LevelDebug,
	}, WithDestinationWriter(&buf))

	r := slog.NewRecord(time.Now(), slog.LevelWarn, "bare message", 0)
	require.NoError(t, h.Handle(context.Background(), r))

	assert.Contains(t, buf.String(), "bare message")
	assert.NotContains(t, buf.String(), "{")
}

func TestPrettyHandler_ColourWrapsLevel(t *testing.T) {
	var buf bytes.Buffer

	h := NewPrettyHandler(&slog.HandlerOptions{
		Level: slog.LevelDebug,
	}, WithDestinationWriter(&buf), WithColour())

	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	require.NoError(t, h.Handle(context.Background(), r))

	assert.Contains(t, buf.String(), ansiRed+"ERROR:"+ansiReset)
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&slog.HandlerOptions{
		Level: slog.LevelWarn,
	})

	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer

	h := NewPrettyHandler(&slog.HandlerOptions{
		Level: slog.LevelDebug,
	}, WithDestinationWriter(&buf))

	withAttrs := h.WithAttrs([]slog.Attr{slog.String("component", "pool")})
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "attached", 0)
	require.NoError(t, withAttrs.Handle(context.Background(), r))
	assert.Contains(t, buf.String(), "component")

	grouped := h.WithGroup("grp")
	require.NotNil(t, grouped)
}
