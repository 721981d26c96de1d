package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which work stays on the calling goroutine.
const DefaultThreshold = 1000

// Workers resolves an n_jobs style setting: -1 (or any value < 1 other
// than 0) means all CPU cores, 0 means one worker.
func Workers(nJobs int) int {
	switch {
	case nJobs > 0:
		return nJobs
	case nJobs == 0:
		return 1
	default:
		return runtime.NumCPU()
	}
}

// Parallelize splits [0, items) into contiguous ranges, one per worker, and
// runs fn on each range concurrently. Ranges never overlap, so fn may write
// to disjoint rows of a shared output without locking.
func Parallelize(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}

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

// ParallelizeWithThreshold runs fn sequentially when items <= threshold or
// only one worker is requested, and through Parallelize otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold || workers <= 1 {
		fn(0, items)
		return
	}
	Parallelize(items, workers, fn)
}
