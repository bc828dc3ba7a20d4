package cache

import (
	"testing"

	"github.com/paypos/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestRunLockFactory_CreateLock(t *testing.T) {
	t.Run("redis disabled uses in-memory lock", func(t *testing.T) {
		lock, err := NewRunLockFactory(config.RedisConfig{}).CreateLock()
		require.NoError(t, err)
		defer lock.Close()

		assert.IsType(t, &InMemoryRunLock{}, lock)
	})

	t.Run("unreachable redis falls back with a warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)

		lock, err := NewRunLockFactory(unreachableRedis, WithLogger(zap.New(core))).CreateLock()
		require.NoError(t, err)
		defer lock.Close()

		assert.IsType(t, &InMemoryRunLock{}, lock)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		lock, err := NewRunLockFactory(unreachableRedis, WithInMemoryFallback(false)).CreateLock()
		assert.Error(t, err)
		assert.Nil(t, lock)
	})
}
