package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("pos-service", &buf, slog.LevelDebug)

	log.Info("order_placed", "Order placed", "req-1", map[string]interface{}{"order_id": "42"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "Order placed", line["msg"])
	assert.Equal(t, "pos-service", line["service"])
	assert.Equal(t, "order_placed", line["action"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "42", line["order_id"])
	assert.NotEmpty(t, line["timestamp"])
}

func TestLogger_ErrorGroup(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("pos-service", &buf, slog.LevelDebug)

	log.Error("db_failed", "Query failed", "req-2", errors.New("connection refused"), nil)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	group, ok := line["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connection refused", group["msg"])
	assert.NotEmpty(t, group["stack"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("pos-service", &buf, slog.LevelWarn)

	log.Debug("noise", "dropped", "", nil)
	log.Info("noise", "dropped", "", nil)
	assert.Zero(t, buf.Len())

	log.Warn("publish_failed", "kept", "", nil)
	assert.NotZero(t, buf.Len())
}

func TestLogger_NilIsSafe(t *testing.T) {
	var log *Logger
	assert.NotPanics(t, func() {
		log.Info("x", "y", "", nil)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestWith_KeepsHandler(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("pos-service", &buf, slog.LevelInfo).With("engine")

	log.Info("started", "Engine started", "", nil)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "engine", line["service"])
}

func TestRequestIDContext(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.NotEqual(t, GenerateRequestID(), GenerateRequestID())
}
