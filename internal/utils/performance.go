// Package utils holds small helpers shared by the simulation service and the CLI.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Slow-phase thresholds. A full sweep over 100k trials sits well under the warning level.
const (
	slowPhase     = 10 * time.Second
	verySlowPhase = 30 * time.Second
)

// Timer measures one simulation phase
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for the named phase
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Elapsed returns the time since the timer started without logging
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// StopWithContext logs the duration together with the given fields
func (t *Timer) StopWithContext(fields map[string]interface{}) time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug().
		Str("phase", t.name).
		Dur("duration_ms", duration)
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case uint64:
			event = event.Uint64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	event.Msg("Phase finished")

	// Warn if the phase took longer than expected
	if duration > verySlowPhase {
		t.log.Warn().
			Str("phase", t.name).
			Dur("duration", duration).
			Msg("Slow phase detected (>30s)")
	} else if duration > slowPhase {
		t.log.Info().
			Str("phase", t.name).
			Dur("duration", duration).
			Msg("Phase took longer than expected (>10s)")
	}

	return duration
}

// MeasureDBQuery measures an archive query
func MeasureDBQuery(queryName string, log zerolog.Logger) func(rowsAffected int64) {
	start := time.Now()

	return func(rowsAffected int64) {
		duration := time.Since(start)

		log.Debug().
			Str("query", queryName).
			Dur("duration_ms", duration).
			Int64("rows_affected", rowsAffected).
			Msg("Database query completed")

		if duration > 5*time.Second {
			log.Warn().
				Str("query", queryName).
				Dur("duration", duration).
				Int64("rows_affected", rowsAffected).
				Msg("Slow database query detected")
		}
	}
}
