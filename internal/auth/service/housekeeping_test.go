package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHousekeepingService_PurgesExpiredTokens(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")
	u, _, err := env.users.FindByUsername(ctx, "alice", true)
	require.NoError(t, err)

	stale, err := env.tokens.Create(ctx, u.ID)
	require.NoError(t, err)
	env.clock.Advance(testTTL)
	live, err := env.tokens.Create(ctx, u.ID)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hk := NewHousekeepingService(env.tokens, logger, time.Hour, metrics.New(prometheus.NewRegistry()))
	hk.Start()

	// The first cleanup runs as soon as the worker starts.
	require.Eventually(t, func() bool {
		_, found, err := env.tokens.FindByToken(ctx, stale.Token)
		return err == nil && !found
	}, time.Second, 10*time.Millisecond)

	hk.Stop()
	hk.Stop()

	_, found, err := env.tokens.FindByToken(ctx, live.Token)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestHousekeepingService_RunOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "bob")
	u, _, err := env.users.FindByUsername(ctx, "bob", true)
	require.NoError(t, err)

	for range 3 {
		_, err := env.tokens.Create(ctx, u.ID)
		require.NoError(t, err)
	}
	env.clock.Advance(testTTL)

	hk := NewHousekeepingService(env.tokens, slog.Default(), time.Minute, nil)

	n, err := hk.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = hk.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHousekeepingService_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	hk := NewHousekeepingService(newTestEnv(t).tokens, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour, nil)

	done := make(chan struct{})
	go func() {
		hk.Stop()
		hk.Stop()
		hk.Start()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a service that never started")
	}
}

func TestNewHousekeepingService_DefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(nil, slog.Default(), 0, nil)
	assert.Equal(t, DefaultHousekeepingInterval, hk.Interval)
}
