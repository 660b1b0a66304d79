package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FocusGate/internal/config"
	"github.com/utafrali/FocusGate/pkg/logger"
	"github.com/utafrali/FocusGate/pkg/tracing"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:         "development",
		HTTPPort:            0,
		ShutdownTimeout:     time.Second,
		CORSOrigins:         []string{"*"},
		StorageDriver:       config.StorageMemory,
		LockBackend:         config.LockLocal,
		LockTTL:             time.Second,
		JWTSecret:           "app-test-secret",
		ProgressionTimezone: "UTC",
		UnlockSweepInterval: 10 * time.Millisecond,
		GenerateRatePerMin:  10,
		GenerateBurst:       2,
	}
}

func TestNewApp_MemoryBackend(t *testing.T) {
	a, err := NewApp(memoryConfig(), logger.Discard())
	require.NoError(t, err)

	assert.Nil(t, a.pool)
	assert.Nil(t, a.redis)
	assert.Nil(t, a.producer)
	assert.NotNil(t, a.httpServer.Handler)
	assert.NoError(t, a.Shutdown())
}

func TestNewApp_ShutsDownTracerWhenInitFails(t *testing.T) {
	var shutdownCalls int
	orig := initTracer
	initTracer = func(context.Context, tracing.Config) (tracing.ShutdownFunc, error) {
		return func(context.Context) error {
			shutdownCalls++
			return nil
		}, nil
	}
	t.Cleanup(func() { initTracer = orig })

	// Reserve a port, then free it so the Redis dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := memoryConfig()
	cfg.LockBackend = config.LockRedis
	cfg.RedisHost = "127.0.0.1"
	cfg.RedisPort = port

	a, err := NewApp(cfg, logger.Discard())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Equal(t, 1, shutdownCalls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := NewApp(memoryConfig(), logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
