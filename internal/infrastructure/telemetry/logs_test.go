package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "pos-sync-test",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, NewZapOTELCore(nil, zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.False(t, NewZapOTELCore(lp, zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}

func TestBridgeLogger_DisabledReturnsBase(t *testing.T) {
	base := zap.NewNop()
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, base)
	require.NoError(t, err)

	assert.Same(t, base, BridgeLogger(base, lp, zapcore.InfoLevel))
	assert.Same(t, base, BridgeLogger(base, nil, zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))

	logger := zap.New(core).With(zap.String("sales_channel_id", "abc"))
	logger.Info("dropped")
	logger.Warn("stock push failed")
	logger.Error("sync failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "stock push failed", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["sales_channel_id"])

	_, ok := logger.Core().(*levelFilterCore)
	assert.True(t, ok, "With must keep the level filter")
}
