package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5250, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "database/agentpulse.db", cfg.Database.Path)

	assert.Equal(t, 100, cfg.BatchProcessing.MaxBatchSize)
	assert.Equal(t, 100, cfg.BatchProcessing.QueueSize)
	assert.Equal(t, 2, cfg.BatchProcessing.ProcessorCount)
	assert.Equal(t, 3, cfg.BatchProcessing.MaxRetries)
	assert.Equal(t, 5, cfg.BatchProcessing.RetryDelay)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://portal.example.com,https://staging.example.com")
	t.Setenv("BATCH_MAX_SIZE", "25")
	t.Setenv("BATCH_PROCESSOR_COUNT", "8")
	t.Setenv("ADJUST_SQFT_RATE", "65.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://portal.example.com", "https://staging.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 25, cfg.BatchProcessing.MaxBatchSize)
	assert.Equal(t, 8, cfg.BatchProcessing.ProcessorCount)
	assert.Equal(t, 65.5, cfg.Adjustments.SqftPerUnit)
}

func TestDefaultRates(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	rates := cfg.DefaultRates()
	assert.Equal(t, 50.0, rates.SqftPerUnit)
	assert.Equal(t, 10000.0, rates.BedroomValue)
	assert.Equal(t, 7500.0, rates.BathroomValue)
	assert.Equal(t, 25000.0, rates.PoolValue)
	assert.Equal(t, 5000.0, rates.GaragePerSpace)
	assert.Equal(t, 1000.0, rates.YearBuiltPerYear)
	assert.Equal(t, 2.0, rates.LotSizePerSqft)
}
