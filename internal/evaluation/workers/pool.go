// Package workers provides the goroutine pool that runs trial chunks and scenario batches.
package workers

import (
	"runtime"
	"sync"

	"github.com/aristath/minesim/internal/modules/scenarios/progress"
	"github.com/shirou/gopsutil/v3/cpu"
)

// WorkerPool manages a fixed number of worker goroutines per batch
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool with numWorkers workers.
// Zero or negative falls back to the number of logical CPUs.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers()
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// DefaultWorkers returns the logical CPU count as reported by the host
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Chunk is a contiguous half-open row range [Lo, Hi) owned by exactly one job
type Chunk struct {
	Index int
	Lo    int
	Hi    int
}

// Len returns the number of rows in the chunk
func (c Chunk) Len() int {
	return c.Hi - c.Lo
}

// Chunks splits [0, total) into ranges of at most size rows.
// The split depends only on total and size, never on the worker count.
func Chunks(total, size int) []Chunk {
	if total <= 0 {
		return nil
	}
	if size <= 0 {
		size = total
	}
	chunks := make([]Chunk, 0, (total+size-1)/size)
	for lo, idx := 0, 0; lo < total; lo, idx = lo+size, idx+1 {
		hi := lo + size
		if hi > total {
			hi = total
		}
		chunks = append(chunks, Chunk{Index: idx, Lo: lo, Hi: hi})
	}
	return chunks
}

// ForEachChunk runs fn once per chunk of [0, total) and waits for all of them.
// Chunks own disjoint rows, so fn may write its rows of a shared pre-sized table.
func (wp *WorkerPool) ForEachChunk(total, size int, fn func(c Chunk)) {
	chunks := Chunks(total, size)
	Evaluate(wp, len(chunks), func(i int) struct{} {
		fn(chunks[i])
		return struct{}{}
	}, nil)
}

// jobItem is a single index to evaluate
type jobItem struct {
	index int
}

// resultItem carries a result back with its input index
type resultItem[T any] struct {
	index  int
	result T
}

// Evaluate runs fn for every index in [0, n) on the pool and returns the results in
// input order. The optional tracker is stepped once per completed index from the
// collecting goroutine.
func Evaluate[T any](wp *WorkerPool, n int, fn func(i int) T, tracker *progress.Tracker) []T {
	if n <= 0 {
		return []T{}
	}

	jobs := make(chan jobItem, n)
	results := make(chan resultItem[T], n)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if n < numActualWorkers {
		numActualWorkers = n // Don't spawn more workers than jobs
	}

	for w := 0; w < numActualWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- resultItem[T]{index: job.index, result: fn(job.index)}
			}
		}()
	}

	for idx := 0; idx < n; idx++ {
		jobs <- jobItem{index: idx}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]T, n)
	for r := range results {
		out[r.index] = r.result
		if tracker != nil {
			tracker.Step("Evaluating", map[string]any{
				"index":          r.index,
				"workers_active": numActualWorkers,
			})
		}
	}

	return out
}
