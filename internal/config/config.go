// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DefaultSeed seeds requests that do not name one
	DefaultSeed uint64 = 20240601
	// DefaultMaxTrials bounds the trial count of a single request
	DefaultMaxTrials = 1_000_000
	// DefaultSweepMemoryMB bounds the tables a sweep holds at once
	DefaultSweepMemoryMB = 2048
)

// Config holds application configuration
type Config struct {
	DataDir   string // Directory for archive.db (defaults to "./data", always absolute)
	LogLevel  string
	Port      int
	DevMode   bool
	Workers   int    // Simulation workers; 0 means one per logical CPU
	Seed      uint64 // Default seed
	Archive   bool   // Archive completed sweeps
	MaxTrials int
	// SweepMemoryMB caps the working memory of concurrently replayed sweep vectors
	SweepMemoryMB int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("MINESIM_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Port:      getEnvAsInt("GO_PORT", 8001),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		Workers:   getEnvAsInt("SIM_WORKERS", 0),
		Seed:      getEnvAsUint64("SIM_SEED", DefaultSeed),
		Archive:   getEnvAsBool("SIM_ARCHIVE", true),
		MaxTrials: getEnvAsInt("SIM_MAX_TRIALS", DefaultMaxTrials),

		SweepMemoryMB: getEnvAsInt("SIM_SWEEP_MEMORY_MB", DefaultSweepMemoryMB),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ArchivePath returns the location of archive.db
func (c *Config) ArchivePath() string {
	return filepath.Join(c.DataDir, "archive.db")
}

// Validate checks the simulation limits
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("SIM_WORKERS must be >= 0, got %d", c.Workers)
	}
	if c.MaxTrials <= 0 {
		return fmt.Errorf("SIM_MAX_TRIALS must be > 0, got %d", c.MaxTrials)
	}
	if c.SweepMemoryMB <= 0 {
		return fmt.Errorf("SIM_SWEEP_MEMORY_MB must be > 0, got %d", c.SweepMemoryMB)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be a valid port, got %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
