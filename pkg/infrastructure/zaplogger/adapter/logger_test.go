package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mateusmacedo/bus-reservation/pkg/application"
)

func TestLoggerAddsRequestIDAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core))
	ctx := application.WithRequestID(context.Background(), "req-1")

	application.LogError(ctx, logger, "booking failed", assert.AnError, map[string]interface{}{
		"bus_id": "bus-1",
	})
	logger.Trace(context.Background(), "trace", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "req-1", fields["requestID"])
	assert.Equal(t, "bus-1", fields["bus_id"])
	assert.Equal(t, assert.AnError.Error(), fields["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "requestID")
}

func TestNewZapAppLoggerAcceptsUnknownLevel(t *testing.T) {
	logger, err := NewZapAppLogger("bus-reservation", "verbose")

	require.NoError(t, err)
	assert.NotNil(t, logger)
}
