// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ndrange

import "sync"

// Barrier is a reusable synchronization point for a fixed number of parties.
//
// Wait blocks until all parties have called it, then releases them together
// and resets for the next round. Everything a party wrote before Wait is
// visible to every party after Wait returns.
type Barrier struct {
	parties int

	mu      sync.Mutex
	cond    *sync.Cond
	arrived int
	round   uint64
}

// NewBarrier creates a barrier for n parties. n must be positive.
func NewBarrier(n int) *Barrier {
	if n <= 0 {
		panic("ndrange: barrier needs at least one party")
	}
	b := &Barrier{parties: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Parties returns the number of goroutines the barrier waits for.
func (b *Barrier) Parties() int {
	return b.parties
}

// Wait blocks until all parties of the current round have arrived.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	round := b.round
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.round++
		b.cond.Broadcast()
		return
	}
	for round == b.round {
		b.cond.Wait()
	}
}
