package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallDetailed_NilCallback(t *testing.T) {
	assert.NotPanics(t, func() {
		CallDetailed(nil, Update{Phase: "scenario_sweep"})
	})
}

func TestUpdate_Done(t *testing.T) {
	assert.False(t, Update{Current: 0, Total: 0}.Done())
	assert.False(t, Update{Current: 3, Total: 4}.Done())
	assert.True(t, Update{Current: 4, Total: 4}.Done())
}

func TestTracker_ConcurrentSteps(t *testing.T) {
	var updates []Update
	tracker := NewTracker("scenario_sweep", 50, func(u Update) {
		updates = append(updates, u)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Step("Evaluating scenario", map[string]any{"worker": "test"})
		}()
	}
	wg.Wait()

	require.Len(t, updates, 50)
	assert.Equal(t, 50, tracker.Current())
	for i, u := range updates {
		assert.Equal(t, "scenario_sweep", u.Phase)
		assert.Equal(t, i+1, u.Current, "updates are emitted in completion order")
		assert.Equal(t, 50, u.Total)
	}
	assert.True(t, updates[len(updates)-1].Done())
}
