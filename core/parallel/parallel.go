// Package parallel provides small helpers for chunked parallel execution.
// Ensemble backends use it to spread tree construction and batch scoring
// across workers without exposing any concurrency to the detector contract.
package parallel

import (
	"runtime"
	"sync"
)

// ParallelizeWorkers divides items across at most workers goroutines and
// executes fn for each assigned range [start, end). A non-positive workers
// value uses the number of available CPU cores.
func ParallelizeWorkers(workers, items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	// Ceiling division so every item lands in exactly one chunk.
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// Parallelize divides items according to the number of CPU cores and executes
// fn in parallel for each range (start, end).
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeWorkers(0, items, fn)
}

// ParallelizeWithThreshold parallelizes only when items exceeds threshold;
// below it the work runs sequentially on the calling goroutine.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}
