package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/a11y-audit/internal/config"
)

func TestLoadConfig_ZeroDelayFromEnv(t *testing.T) {
	t.Setenv("A11Y_HYDRATION_DELAY", "0")
	t.Setenv("A11Y_KEY_SETTLE_DELAY", "0")

	cfg, err := loadConfig(&cobra.Command{})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.HydrationDelay)
	assert.Equal(t, time.Duration(0), cfg.KeySettleDelay)
	assert.Equal(t, config.DefaultNavigationTimeout, cfg.NavigationTimeout)
}

func TestLoadConfig_ZeroDelayFlagOverridesEnv(t *testing.T) {
	t.Setenv("A11Y_HYDRATION_DELAY", "5s")

	cmd := &cobra.Command{}
	cmd.Flags().DurationVar(&hydrationDelay, "hydration-delay", 0, "")
	require.NoError(t, cmd.Flags().Set("hydration-delay", "0"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.HydrationDelay)
}

func TestLoadConfig_UnsetFlagKeepsEnv(t *testing.T) {
	t.Setenv("A11Y_HYDRATION_DELAY", "750ms")

	cmd := &cobra.Command{}
	cmd.Flags().DurationVar(&hydrationDelay, "hydration-delay", 0, "")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.HydrationDelay)
}
