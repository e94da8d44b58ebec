package config

import (
	"github.com/caarlos0/env/v6"

	"agentpulse/server/internal/models"
)

type Config struct {
	// Server configuration
	Server struct {
		Port int `env:"SERVER_PORT" envDefault:"5250"`

		// Origins allowed to call the API from a browser
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	// Database configuration
	Database struct {
		Path string `env:"DB_PATH" envDefault:"database/agentpulse.db"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of listings per queued batch
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of batches the ingestion queue buffers before rejecting
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	// Adjustments holds the default per-unit dollar rates for feature adjustments.
	// Every CMA document starts from these and may override them per document.
	Adjustments struct {
		// Dollars per square foot of living area difference
		SqftPerUnit float64 `env:"ADJUST_SQFT_RATE" envDefault:"50"`

		// Dollars per bedroom difference
		BedroomValue float64 `env:"ADJUST_BEDROOM_VALUE" envDefault:"10000"`

		// Dollars per bathroom difference
		BathroomValue float64 `env:"ADJUST_BATHROOM_VALUE" envDefault:"7500"`

		// Dollars for pool presence difference
		PoolValue float64 `env:"ADJUST_POOL_VALUE" envDefault:"25000"`

		// Dollars per garage space difference
		GaragePerSpace float64 `env:"ADJUST_GARAGE_PER_SPACE" envDefault:"5000"`

		// Dollars per year of age difference
		YearBuiltPerYear float64 `env:"ADJUST_YEAR_BUILT_PER_YEAR" envDefault:"1000"`

		// Dollars per square foot of lot size difference
		LotSizePerSqft float64 `env:"ADJUST_LOT_SQFT_RATE" envDefault:"2"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultRates returns the configured adjustment rates in the engine's shape.
func (c *Config) DefaultRates() models.AdjustmentRates {
	return models.AdjustmentRates{
		SqftPerUnit:      c.Adjustments.SqftPerUnit,
		BedroomValue:     c.Adjustments.BedroomValue,
		BathroomValue:    c.Adjustments.BathroomValue,
		PoolValue:        c.Adjustments.PoolValue,
		GaragePerSpace:   c.Adjustments.GaragePerSpace,
		YearBuiltPerYear: c.Adjustments.YearBuiltPerYear,
		LotSizePerSqft:   c.Adjustments.LotSizePerSqft,
	}
}
