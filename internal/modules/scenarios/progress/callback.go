// Package progress provides progress reporting for long-running simulation batches.
package progress

import (
	"sync"
	"time"
)

// Update is a detailed progress update
type Update struct {
	Phase   string         // e.g. "environment_generation", "scenario_sweep"
	Current int            // items completed within the phase
	Total   int            // items in the phase
	Message string         // human-readable description
	Elapsed time.Duration  // time since the phase started
	Details map[string]any // phase specific metrics
}

// Done reports whether the phase has completed
func (u Update) Done() bool {
	return u.Total > 0 && u.Current >= u.Total
}

// DetailedCallback receives detailed updates. A nil DetailedCallback is ignored by CallDetailed.
type DetailedCallback func(update Update)

// CallDetailed invokes cb if it is non-nil
func CallDetailed(cb DetailedCallback, update Update) {
	if cb != nil {
		cb(update)
	}
}

// Tracker counts completions for one phase and forwards them to a DetailedCallback.
// It is safe for concurrent use; the callback is invoked under the tracker's lock so
// callers never see updates out of order.
type Tracker struct {
	mu      sync.Mutex
	phase   string
	total   int
	current int
	started time.Time
	cb      DetailedCallback
}

// NewTracker starts a phase of total items
func NewTracker(phase string, total int, cb DetailedCallback) *Tracker {
	return &Tracker{
		phase:   phase,
		total:   total,
		started: time.Now(),
		cb:      cb,
	}
}

// Step records one completed item and emits an update
func (t *Tracker) Step(message string, details map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current++
	CallDetailed(t.cb, Update{
		Phase:   t.phase,
		Current: t.current,
		Total:   t.total,
		Message: message,
		Elapsed: time.Since(t.started),
		Details: details,
	})
}

// Current returns the number of completed items
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
