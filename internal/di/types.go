/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived dependency of the server: the archive
 * database, its repository and the scenario service. It is created by Wire()
 * and handed to the HTTP server.
 */
package di

import (
	"github.com/aristath/minesim/internal/database"
	"github.com/aristath/minesim/internal/modules/runs"
	"github.com/aristath/minesim/internal/modules/scenarios"
)

// Container holds all dependencies for the application
type Container struct {
	// Databases
	ArchiveDB *database.DB // archive.db - sweep summaries

	// Repositories
	RunsRepo *runs.Repository

	// Services
	ScenarioService *scenarios.Service
}

// Close releases the databases held by the container
func (c *Container) Close() error {
	if c == nil || c.ArchiveDB == nil {
		return nil
	}
	return c.ArchiveDB.Close()
}
