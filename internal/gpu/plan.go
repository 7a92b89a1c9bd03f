// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import "encoding/binary"

const (
	// MaxGroupSize is the largest workgroup the accelerator launches. It is
	// the WebGPU default for maxComputeInvocationsPerWorkgroup.
	MaxGroupSize = 256

	// maxDispatchDim is the WebGPU default maxComputeWorkgroupsPerDimension.
	maxDispatchDim = 65535

	// maxBindingBytes is the WebGPU default maxStorageBufferBindingSize.
	maxBindingBytes = 128 << 20

	// paramsSize is the size of the Params uniform in bytes.
	paramsSize = 16
)

// chunk is a run of whole work-groups uploaded and dispatched together.
type chunk struct {
	offset int // first element
	n      int // element count, a multiple of the group size
}

// planChunks splits n elements into chunks of at most maxBytes, each holding
// whole groups. n must be a multiple of groupSize.
func planChunks(n, groupSize, maxBytes int) []chunk {
	if n == 0 {
		return nil
	}
	per := (maxBytes / 4 / groupSize) * groupSize
	if per < groupSize {
		per = groupSize
	}

	chunks := make([]chunk, 0, (n+per-1)/per)
	for off := 0; off < n; off += per {
		chunks = append(chunks, chunk{offset: off, n: min(per, n-off)})
	}
	return chunks
}

// dispatchDims lays groups out over x and y so neither dimension exceeds
// maxDispatchDim. Workgroups past groups are padding and exit immediately.
func dispatchDims(groups int) (x, y uint32) {
	if groups <= maxDispatchDim {
		return uint32(groups), 1 //nolint:gosec // groups <= 65535
	}
	rows := (groups + maxDispatchDim - 1) / maxDispatchDim
	return maxDispatchDim, uint32(rows) //nolint:gosec // rows <= 65535 for any storage binding
}

// packParams encodes the Params uniform.
func packParams(numGroups, groupsX uint32) []byte {
	buf := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(buf[0:], numGroups)
	binary.LittleEndian.PutUint32(buf[4:], groupsX)
	return buf
}

// packInput writes src into dst as little-endian i32 values.
func packInput(dst []byte, src []int32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(v)) //nolint:gosec // two's complement bit pattern
	}
}
