package stage

import (
	"runtime"
	"sync"
)

// getWorkers returns the configured worker count or a sane default.
func getWorkers(meta *Meta) int {
	n := runtime.NumCPU()
	if meta != nil && meta.Workers > 0 {
		n = meta.Workers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// runIndexedParallel executes fn for indices [0,n) using a worker pool and
// returns the results in index order.
func runIndexedParallel[T any](n, workers int, fn func(int) T) []T {
	if workers > n {
		workers = n
	}
	type indexed struct {
		idx int
		val T
	}
	jobs := make(chan int)
	results := make(chan indexed)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			results <- indexed{idx: idx, val: fn(idx)}
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go worker()
	}

	go func() {
		for i := 0; i < n; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	out := make([]T, n)
	for i := 0; i < n; i++ {
		r := <-results
		out[r.idx] = r.val
	}
	wg.Wait()
	return out
}
