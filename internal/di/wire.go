// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/minesim/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories
// 3. Initialize services
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeRepositories(container, log)
	InitializeServices(container, cfg, log)

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
