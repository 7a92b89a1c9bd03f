// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the goroutine pool that executes batches of
// work-groups for the CPU compute substrate.
package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned when work is handed to a pool after Close.
var ErrPoolClosed = errors.New("parallel: worker pool is closed")

// WorkerPool is a pool of goroutines executing independent work-group batches.
//
// Each worker owns a queue. Batches are distributed round-robin, and an idle
// worker steals from the other queues, which keeps the pool busy when some
// batches contain slower groups than others.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int

	// workQueues holds per-worker queues. A worker pulls from its own queue
	// first and steals from the others when it runs dry.
	workQueues []chan func()

	done chan struct{}
	wg   sync.WaitGroup

	// submitMu is held for reading while ExecuteAll queues a launch and for
	// writing while Close stops the workers. No batch is queued after the
	// workers have drained their queues.
	submitMu sync.RWMutex
	running  atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// Workers start immediately and block waiting for batches.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// 4x workers of buffering hides submission latency.
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return

		case work := <-myQueue:
			if work != nil {
				work()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				if work != nil {
					work()
				}
			}
		}
	}
}

// drainQueue runs everything left in a queue so no batch is lost on Close.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal takes one batch from another worker's queue, or returns nil.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every batch and blocks until all of them have finished.
//
// A launch is queued as a whole: Close waits until every batch of an
// in-flight ExecuteAll is queued, and the workers drain their queues before
// exiting, so no batch is dropped. ExecuteAll returns ErrPoolClosed, without
// running anything, if the pool was already closed.
func (p *WorkerPool) ExecuteAll(work []func()) error {
	if len(work) == 0 {
		if !p.running.Load() {
			return ErrPoolClosed
		}
		return nil
	}

	p.submitMu.RLock()
	if !p.running.Load() {
		p.submitMu.RUnlock()
		return ErrPoolClosed
	}

	var completion sync.WaitGroup
	completion.Add(len(work))
	for i, fn := range work {
		p.workQueues[i%p.workers] <- func() {
			defer completion.Done()
			fn()
		}
	}
	p.submitMu.RUnlock()

	completion.Wait()
	return nil
}

// Close stops accepting batches, waits for queued batches to finish and
// stops the workers. Close is safe to call multiple times and concurrently
// with ExecuteAll.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.submitMu.Lock()
	close(p.done)
	p.submitMu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts batches.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
