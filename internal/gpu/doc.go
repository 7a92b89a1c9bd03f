// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu runs atomic sum reductions as WebGPU compute shaders through
// the wgpu HAL.
//
// The two-level kernel keeps a workgroup-local atomic accumulator in
// workgroup memory and folds it into a storage-buffer accumulator once per
// workgroup. Inputs larger than one storage binding are streamed in chunks
// that all add into the same device-side total, which is read back once.
package gpu
