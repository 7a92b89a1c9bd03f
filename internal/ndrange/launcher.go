// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ndrange

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/reduce/internal/parallel"
)

const (
	// DefaultLanes is the number of goroutines executing the work-items of
	// one group when the caller does not choose.
	DefaultLanes = 4

	// batchesPerWorker controls how finely groups are split across the pool.
	// More batches than workers lets work stealing even out the tail.
	batchesPerWorker = 4
)

// ErrEmptyKernel is returned when a kernel has no phases.
var ErrEmptyKernel = errors.New("ndrange: kernel has no phases")

// Stats describes a completed launch.
type Stats struct {
	Groups  int
	Items   int
	Phases  int
	Lanes   int
	Batches int
	Elapsed time.Duration
}

// Launcher runs kernels over ranges on a worker pool.
//
// A Launcher may be reused for any number of launches and by several
// goroutines at once. Close releases the pool.
type Launcher struct {
	pool  *parallel.WorkerPool
	lanes int
}

// NewLauncher creates a launcher executing up to workers groups at once with
// lanes goroutines per group. Non-positive values select GOMAXPROCS workers
// and DefaultLanes lanes.
func NewLauncher(workers, lanes int) *Launcher {
	if lanes <= 0 {
		lanes = DefaultLanes
	}
	return &Launcher{
		pool:  parallel.NewWorkerPool(workers),
		lanes: lanes,
	}
}

// Workers returns the number of groups that may execute concurrently.
func (l *Launcher) Workers() int { return l.pool.Workers() }

// Lanes returns the configured number of lanes per group.
func (l *Launcher) Lanes() int { return l.lanes }

// Close releases the worker pool. Launch fails with ErrLauncherClosed after.
func (l *Launcher) Close() { l.pool.Close() }

// Launch executes k over r and blocks until every group has completed.
//
// The range is validated before anything runs; a launch either executes all
// of its groups or none of them.
func (l *Launcher) Launch(k Kernel, r Range) (Stats, error) {
	if err := r.Validate(); err != nil {
		return Stats{}, err
	}
	if len(k.Phases) == 0 {
		return Stats{}, fmt.Errorf("%w: %q", ErrEmptyKernel, k.Name)
	}
	if !l.pool.IsRunning() {
		return Stats{}, ErrLauncherClosed
	}

	start := time.Now()
	lanes := min(l.lanes, max(r.Local, 1))
	stats := Stats{
		Groups: r.Groups(),
		Items:  r.Global,
		Phases: len(k.Phases),
		Lanes:  lanes,
	}
	if stats.Groups == 0 {
		stats.Elapsed = time.Since(start)
		return stats, nil
	}

	batches := planBatches(stats.Groups, l.pool.Workers()*batchesPerWorker)
	stats.Batches = len(batches)

	work := make([]func(), len(batches))
	for i, b := range batches {
		work[i] = func() { runBatch(k, r, b, lanes) }
	}
	if err := l.pool.ExecuteAll(work); err != nil {
		if errors.Is(err, parallel.ErrPoolClosed) {
			return Stats{}, ErrLauncherClosed
		}
		return Stats{}, err
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// batch is a contiguous run of groups [first, last) executed by one worker.
type batch struct {
	first, last int
}

// planBatches splits groups into at most limit contiguous batches whose
// sizes differ by at most one.
func planBatches(groups, limit int) []batch {
	n := min(groups, max(limit, 1))
	out := make([]batch, 0, n)
	per, extra := groups/n, groups%n
	first := 0
	for i := 0; i < n; i++ {
		size := per
		if i < extra {
			size++
		}
		out = append(out, batch{first: first, last: first + size})
		first += size
	}
	return out
}

// runBatch executes the groups of b. The lanes of the batch share one block
// of local memory and one barrier, reused group after group.
func runBatch(k Kernel, r Range, b batch, lanes int) {
	mem := make([]atomic.Int32, k.LocalCells)

	if lanes == 1 {
		runLane(k, r, b, 0, 1, mem, nil)
		return
	}

	bar := NewBarrier(lanes)
	var wg sync.WaitGroup
	wg.Add(lanes - 1)
	for lane := 1; lane < lanes; lane++ {
		go func() {
			defer wg.Done()
			runLane(k, r, b, lane, lanes, mem, bar)
		}()
	}
	runLane(k, r, b, 0, lanes, mem, bar)
	wg.Wait()
}

// runLane executes work-items lane, lane+lanes, ... of every group in b,
// waiting on bar after each phase. The barrier after the last phase also
// keeps the next group from touching local memory still being read.
func runLane(k Kernel, r Range, b batch, lane, lanes int, mem []atomic.Int32, bar *Barrier) {
	it := Item{r: r, mem: mem}
	for g := b.first; g < b.last; g++ {
		base := g * r.Local
		it.group = g
		for _, phase := range k.Phases {
			for li := lane; li < r.Local; li += lanes {
				it.local = li
				it.global = base + li
				phase(&it)
			}
			if bar != nil {
				bar.Wait()
			}
		}
	}
}
