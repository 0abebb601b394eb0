package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, "imports", cfg.Paths.ImportDir)
	assert.Equal(t, "0 18 * * 1-5", cfg.Schedule.RefreshSpec)

	require.NoError(t, cfg.validate())
}

func TestRiskConfigEngineConfig(t *testing.T) {
	cfg := Default()
	engineCfg := cfg.Risk.EngineConfig()

	assert.InDelta(t, 0.25, engineCfg.Weights.Coverage, 1e-9)
	assert.InDelta(t, 0.25, engineCfg.Weights.PaperPhysical, 1e-9)
	assert.InDelta(t, 0.20, engineCfg.Weights.InventoryTrend, 1e-9)
	assert.InDelta(t, 0.15, engineCfg.Weights.DeliveryVelocity, 1e-9)
	assert.InDelta(t, 0.15, engineCfg.Weights.MarketActivity, 1e-9)
	assert.True(t, engineCfg.Weights.IsValid())

	assert.Equal(t, 25, engineCfg.Thresholds.Low)
	assert.Equal(t, 50, engineCfg.Thresholds.Moderate)
	assert.Equal(t, 75, engineCfg.Thresholds.High)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "invalid port",
			mutate: func(c *Config) { c.Server.Port = -1 },
		},
		{
			name:   "zero read timeout",
			mutate: func(c *Config) { c.Server.ReadTimeout = 0 },
		},
		{
			name:   "no allowed origins",
			mutate: func(c *Config) { c.Security.AllowedOrigins = nil },
		},
		{
			name:   "weights do not sum to one",
			mutate: func(c *Config) { c.Risk.Weights.Coverage = 0.5 },
		},
		{
			name:   "thresholds out of order",
			mutate: func(c *Config) { c.Risk.Thresholds.Moderate = 10 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}
