// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ndrange

import "sync/atomic"

// Phase is the part of a kernel between two group barriers. It runs once
// per work-item and must be safe for concurrent use by the items of a group.
type Phase func(it *Item)

// Kernel is a data-parallel program split at its group barriers.
//
// Phases[i+1] starts for any item of a group only after Phases[i] has
// finished for every item of that group. A kernel with a single phase has
// no barrier at all.
type Kernel struct {
	// Name identifies the kernel in logs.
	Name string

	// LocalCells is the number of group-local atomic cells each group gets.
	// Local memory is scratch: it is not cleared between groups that reuse
	// it, so kernels initialize what they read.
	LocalCells int

	Phases []Phase
}

// Item is the view one work-item has of the launch.
// It is only valid during the Phase call it was passed to.
type Item struct {
	global int
	local  int
	group  int
	r      Range
	mem    []atomic.Int32
}

// GlobalID returns the work-item index within the whole range.
func (it *Item) GlobalID() int { return it.global }

// LocalID returns the work-item index within its group.
func (it *Item) LocalID() int { return it.local }

// GroupID returns the index of the work-item's group.
func (it *Item) GroupID() int { return it.group }

// LocalRange returns the group size.
func (it *Item) LocalRange() int { return it.r.Local }

// Groups returns the number of groups in the launch.
func (it *Item) Groups() int { return it.r.Groups() }

// LocalMem returns the group-local atomic cells shared by the items of the
// current group.
func (it *Item) LocalMem() []atomic.Int32 { return it.mem }
