package di

import (
	"github.com/aristath/minesim/internal/config"
	"github.com/aristath/minesim/internal/modules/runs"
	"github.com/aristath/minesim/internal/modules/scenarios"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates repositories over the opened databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.RunsRepo = runs.NewRepository(container.ArchiveDB.Conn(), log)
}

// InitializeServices creates the scenario service sized by the configuration
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.ScenarioService = scenarios.NewService(scenarios.Config{
		Workers:     cfg.Workers,
		MaxTrials:   cfg.MaxTrials,
		SweepMemory: int64(cfg.SweepMemoryMB) << 20,
	}, log)

	log.Info().
		Int("workers", container.ScenarioService.Workers()).
		Int("max_trials", container.ScenarioService.MaxTrials()).
		Msg("Scenario service initialized")
}
