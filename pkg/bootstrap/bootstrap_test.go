package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/abgdnv/webstore/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, toLevel(tc.in))
		})
	}
}

func TestNewLogger_AddsContextAttributes(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := newLogger(&buf, "info")
	ctx := web.WithRequestID(context.Background(), "req-1")
	ctx = web.WithUserID(ctx, "42")

	// when
	log.InfoContext(ctx, "hello")
	log.DebugContext(ctx, "suppressed")

	// then
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "42", record["user_id"])
}
