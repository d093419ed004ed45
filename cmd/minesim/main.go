// Command minesim runs the mining cash-flow simulation from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aristath/minesim/internal/config"
	"github.com/aristath/minesim/internal/modules/scenarios"
	"github.com/aristath/minesim/internal/server"
	"github.com/aristath/minesim/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minesim",
		Short: "Stochastic cash-flow simulation for a mining operation",
		Long: `minesim draws thousands of possible futures for a producing mine, replays
operator decisions (sell the leased asset, fund exploration, close a found mine)
against them and reports how often each choice leads to foreclosure.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("params", "", "YAML parameter file (defaults to the built-in gold mine case)")
	rootCmd.PersistentFlags().Int("trials", 10_000, "Number of trials")
	rootCmd.PersistentFlags().Int("years", 5, "Horizon in years")
	rootCmd.PersistentFlags().Uint64("seed", config.DefaultSeed, "Random seed (SIM_SEED when not given)")
	rootCmd.PersistentFlags().Int("report-year", 0, "Year to summarise (defaults to the last year)")
	rootCmd.PersistentFlags().Int("workers", 0, "Simulation workers (SIM_WORKERS when not given, 0 = one per CPU)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				_ = json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": server.Version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "minesim version %s\n", server.Version)
			}
		},
	}
}

// common holds what run and sweep share: sizing, seed, params and the service
type common struct {
	cfg        *config.Config
	log        zerolog.Logger
	service    *scenarios.Service
	params     *scenarios.Params
	trials     int
	years      int
	seed       uint64
	reportYear int
	jsonOut    bool
}

func loadCommon(cmd *cobra.Command) (*common, error) {
	flags := cmd.Flags()
	level, _ := flags.GetString("log-level")
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: cmd.ErrOrStderr()})

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c := &common{cfg: cfg, log: log, seed: cfg.Seed}
	c.trials, _ = flags.GetInt("trials")
	c.years, _ = flags.GetInt("years")
	c.reportYear, _ = flags.GetInt("report-year")
	c.jsonOut, _ = flags.GetBool("json")
	if flags.Changed("seed") {
		c.seed, _ = flags.GetUint64("seed")
	}

	workers := cfg.Workers
	if flags.Changed("workers") {
		workers, _ = flags.GetInt("workers")
	}
	c.service = scenarios.NewService(scenarios.Config{
		Workers:     workers,
		MaxTrials:   cfg.MaxTrials,
		SweepMemory: int64(cfg.SweepMemoryMB) << 20,
	}, log)

	if path, _ := flags.GetString("params"); path != "" {
		p, err := scenarios.LoadParams(path)
		if err != nil {
			return nil, err
		}
		c.params = &p
	}
	return c, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
