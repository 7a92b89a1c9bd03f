// Package reduce sums integers with a two-level atomic reduction.
//
// # Overview
//
// The input is split into work-groups of a fixed size. Each group first
// accumulates its elements into a group-local atomic cell, then exactly one
// work-item of the group folds that partial sum into a single global
// accumulator with one atomic add. Contention on the global accumulator
// drops by a factor of the group size compared to every work-item adding
// into it directly (StrategyGlobal, kept as a baseline).
//
// # Quick Start
//
//	data := make([]int32, 1<<20)
//	for i := range data {
//	    data[i] = 1
//	}
//
//	sum, err := reduce.Sum(data, 256) // 1048576
//
// # Substrates
//
// Launches run on the CPU by default: groups are scheduled onto a goroutine
// pool and the work-items of a group run on lanes that meet at a group
// barrier between the reset, accumulate and fold steps.
//
// Importing the gpu package registers a WebGPU compute accelerator that runs
// the same kernel as a WGSL shader with workgroup memory:
//
//	import _ "github.com/gogpu/reduce/gpu"
//
// If the device is unavailable or rejects the launch shape, the launch
// transparently runs on the CPU.
//
// # Preconditions
//
// The input length must be a multiple of the group size. Ragged inputs fail
// with ErrRaggedInput before anything runs, unless WithZeroPadding is given.
// Sums use 32-bit two's complement arithmetic on every substrate.
package reduce

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
