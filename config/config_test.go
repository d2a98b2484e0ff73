package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 60*time.Second, cfg.Scheduler.Interval)
	require.Equal(t, 10, cfg.Scheduler.BatchLimit)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

// Interval'ın alt sınırın altına düşmemesi gerekir — daha sık tarama,
// çoklu oturum duplicate-delivery penceresini büyütür.
func TestSchedulerIntervalClamp(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SCHEDULER_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, cfg.Scheduler.Interval)
}

func TestSchedulerBatchLimitFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SCHEDULER_BATCH_LIMIT", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Scheduler.BatchLimit)
}
