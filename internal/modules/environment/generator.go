package environment

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/evaluation/workers"
	"github.com/aristath/minesim/internal/modules/pert"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultChunkSize is the number of trials drawn from one random substream
const DefaultChunkSize = 1024

// chunkMix spreads chunk indices across the stream id space
const chunkMix = 0x9E3779B97F4A7C15

// Generator draws environment tables. Every (stream label, chunk) pair owns an
// independent PCG substream derived from the seed, so tables are bit-identical for a
// given seed regardless of how many workers run the chunks.
type Generator struct {
	seed      uint64
	chunkSize int
	pool      *workers.WorkerPool
	log       zerolog.Logger
}

// NewGenerator creates a generator bound to seed
func NewGenerator(seed uint64, pool *workers.WorkerPool, log zerolog.Logger) *Generator {
	if pool == nil {
		pool = workers.NewWorkerPool(0)
	}
	return &Generator{
		seed:      seed,
		chunkSize: DefaultChunkSize,
		pool:      pool,
		log:       log.With().Str("component", "environment_generator").Logger(),
	}
}

// WithChunkSize returns a copy that splits trials into chunks of size rows.
// Changing the chunk size changes the drawn values.
func (g *Generator) WithChunkSize(size int) *Generator {
	c := *g
	if size > 0 {
		c.chunkSize = size
	}
	return &c
}

// Seed returns the root seed
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Source returns the substream for a stream label and chunk index
func (g *Generator) Source(stream string, chunk int) rand.Source {
	return rand.NewPCG(g.seed, xxhash.Sum64String(stream)^(uint64(chunk)*chunkMix))
}

// Generate draws one variable table. Year 1 of every trial comes from spec.Init; later
// years follow spec.Kind using a fresh per-trial per-year delta draw.
func (g *Generator) Generate(spec VariableSpec, stream string, trials, years int) (*Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	table, err := NewTable(trials, years)
	if err != nil {
		return nil, err
	}

	g.pool.ForEachChunk(trials, g.chunkSize, func(c workers.Chunk) {
		src := g.Source(stream, c.Index)
		// Validated above, New cannot fail here.
		initDist, _ := pert.New(spec.Init, src)
		var deltaDist *pert.Distribution
		if spec.Kind.Chained() {
			deltaDist, _ = pert.New(*spec.Delta, src)
		}

		for i := c.Lo; i < c.Hi; i++ {
			fillRow(table.Row(i), spec.Kind, initDist, deltaDist)
		}
	})

	return table, nil
}

// fillRow writes one trial's trajectory
func fillRow(row []float64, kind Kind, initDist, deltaDist *pert.Distribution) {
	row[0] = initDist.Rand()
	for t := 1; t < len(row); t++ {
		switch kind {
		case Independent:
			row[t] = initDist.Rand()
		case Autoregressive:
			row[t] = row[t-1] * deltaDist.Rand()
		case FixedBase:
			row[t] = row[0] * deltaDist.Rand()
		case Additive:
			row[t] = row[t-1] + deltaDist.Rand()
		}
	}
}

// GenerateSet draws every spec for one asset into a new environment.
// All specs are validated before the first draw.
func (g *Generator) GenerateSet(asset domain.Asset, specs []VariableSpec, trials, years int) (*Environment, error) {
	env, err := New(trials, years)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: variable %s specified twice", domain.ErrInvalidParameters, spec.Name)
		}
		seen[spec.Name] = true
	}

	start := time.Now()
	for _, spec := range specs {
		table, err := g.Generate(spec, asset.StreamLabel(spec.Name), trials, years)
		if err != nil {
			return nil, err
		}
		if err := env.Put(spec.Name, table); err != nil {
			return nil, err
		}
	}

	g.log.Debug().
		Str("asset", string(asset)).
		Int("variables", len(specs)).
		Int("trials", trials).
		Int("years", years).
		Dur("elapsed", time.Since(start)).
		Msg("Environment generated")

	return env, nil
}

// Uniforms draws a trials × years table of U[0,1) values from its own stream.
// Used for event draws (exploration success) that must not disturb the variable streams.
func (g *Generator) Uniforms(stream string, trials, years int) (*Table, error) {
	table, err := NewTable(trials, years)
	if err != nil {
		return nil, err
	}
	g.pool.ForEachChunk(trials, g.chunkSize, func(c workers.Chunk) {
		u := distuv.Uniform{Min: 0, Max: 1, Src: g.Source(stream, c.Index)}
		for i := c.Lo; i < c.Hi; i++ {
			row := table.Row(i)
			for t := range row {
				row[t] = u.Rand()
			}
		}
	})
	return table, nil
}
