package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Storage StorageConfig `json:"storage"`
	Series  SeriesConfig  `json:"series"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	ListenAddr string        `json:"listen_addr"`
	Timeout    time.Duration `json:"timeout"`
}

// StorageConfig holds array-store configuration.
type StorageConfig struct {
	Path             string `json:"path"`
	CompressionLevel int    `json:"compression_level"`
	RowCacheSize     int    `json:"row_cache_size"`
}

// SeriesConfig describes the served time series.
type SeriesConfig struct {
	Title        string  `json:"title"`
	SamplePeriod float64 `json:"sample_period"`
	StartTime    float64 `json:"start_time"`
	Kind         string  `json:"kind"`
}

// DefaultConfig returns configuration from the environment with defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":8085"),
			Timeout:    30 * time.Second,
		},
		Storage: StorageConfig{
			Path:             getEnv("STORAGE_PATH", "./data"),
			CompressionLevel: getEnvInt("COMPRESSION_LEVEL", 3),
			RowCacheSize:     getEnvInt("ROW_CACHE_SIZE", 256),
		},
		Series: SeriesConfig{
			Title:        getEnv("SERIES_TITLE", "default"),
			SamplePeriod: getEnvFloat("SAMPLE_PERIOD", 1.0),
			StartTime:    getEnvFloat("START_TIME", 0.0),
			Kind:         getEnv("SERIES_KIND", "generic"),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	if c.Storage.CompressionLevel < 1 || c.Storage.CompressionLevel > 4 {
		return fmt.Errorf("compression level must be between 1 and 4")
	}
	if c.Storage.RowCacheSize < 0 {
		return fmt.Errorf("row cache size must not be negative")
	}
	if c.Series.SamplePeriod <= 0 {
		return fmt.Errorf("sample period must be positive")
	}
	switch c.Series.Kind {
	case "generic", "sensor", "region", "surface":
	default:
		return fmt.Errorf("unknown series kind %q", c.Series.Kind)
	}
	return nil
}

// Helper functions for environment variables.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
