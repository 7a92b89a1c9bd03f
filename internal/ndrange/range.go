// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ndrange executes data-parallel kernels on the CPU using the
// work-item / work-group model of GPU compute APIs.
//
// A launch covers a one-dimensional Range of Global work-items split into
// groups of Local work-items. Groups run independently on a worker pool.
// Work-items of one group run concurrently on a small set of lane goroutines
// and meet at a group Barrier between the phases of a Kernel.
package ndrange

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLocalSize is returned when the group size is not positive.
	ErrInvalidLocalSize = errors.New("ndrange: local size must be positive")

	// ErrRaggedRange is returned when the global size is not a multiple of
	// the local size. Ragged final groups are not executed.
	ErrRaggedRange = errors.New("ndrange: global size is not a multiple of local size")

	// ErrNegativeGlobalSize is returned for a negative global size.
	ErrNegativeGlobalSize = errors.New("ndrange: global size must not be negative")

	// ErrLauncherClosed is returned by Launch after Close.
	ErrLauncherClosed = errors.New("ndrange: launcher is closed")
)

// Range is the launch shape: Global work-items in groups of Local.
type Range struct {
	Global int
	Local  int
}

// Groups returns the number of work-groups in the range.
func (r Range) Groups() int {
	if r.Local <= 0 {
		return 0
	}
	return r.Global / r.Local
}

// Validate checks the launch preconditions.
func (r Range) Validate() error {
	if r.Local <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLocalSize, r.Local)
	}
	if r.Global < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeGlobalSize, r.Global)
	}
	if r.Global%r.Local != 0 {
		return fmt.Errorf("%w: global=%d local=%d", ErrRaggedRange, r.Global, r.Local)
	}
	return nil
}

// String returns the range in "global/local" form.
func (r Range) String() string {
	return fmt.Sprintf("%d/%d", r.Global, r.Local)
}
