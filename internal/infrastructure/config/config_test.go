package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogdenik/bankcore/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "1", cfg.TransferMinAmount)
	assert.Equal(t, "1000000", cfg.TransferMaxAmount)
	assert.Equal(t, 3, cfg.TransferMaxAttempts)
	assert.Equal(t, "0.10", cfg.InterestRate)
	assert.Equal(t, "2.07", cfg.BalanceCapMultiplier)
	assert.Equal(t, 30*time.Second, cfg.AccrualInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRANSFER_MAX_ATTEMPTS", "5")
	t.Setenv("ACCRUAL_INTERVAL", "1m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.TransferMaxAttempts)
	assert.Equal(t, time.Minute, cfg.AccrualInterval)
}
