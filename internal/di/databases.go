// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/minesim/internal/config"
	"github.com/aristath/minesim/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens archive.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	archiveDB, err := database.New(database.Config{
		Path:    cfg.ArchivePath(),
		Profile: database.ProfileArchive,
		Name:    "archive",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive database: %w", err)
	}

	if err := archiveDB.Migrate(); err != nil {
		archiveDB.Close()
		return nil, fmt.Errorf("failed to migrate archive database: %w", err)
	}
	container.ArchiveDB = archiveDB

	log.Info().Str("path", archiveDB.Path()).Msg("Archive database initialized")

	return container, nil
}
