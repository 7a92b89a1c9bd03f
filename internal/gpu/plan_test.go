// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestPlanChunks(t *testing.T) {
	tests := []struct {
		name              string
		n, group, maxByte int
		want              []chunk
	}{
		{"empty", 0, 256, maxBindingBytes, nil},
		{"single", 1024, 256, maxBindingBytes, []chunk{{0, 1024}}},
		{"exact split", 64, 4, 128, []chunk{{0, 32}, {32, 32}}},
		{"short tail", 40, 4, 64, []chunk{{0, 16}, {16, 16}, {32, 8}}},
		// 3 groups of 3 fit in 40 bytes (10 elements).
		{"whole groups only", 18, 3, 40, []chunk{{0, 9}, {9, 9}}},
		// A group larger than the limit still gets its own chunk.
		{"oversized group", 8, 8, 16, []chunk{{0, 8}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planChunks(tt.n, tt.group, tt.maxByte)
			if len(got) != len(tt.want) {
				t.Fatalf("planChunks() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanChunksCoverInput(t *testing.T) {
	const group = 256
	n := 1024 * 1000 * 1000
	chunks := planChunks(n, group, maxBindingBytes)

	next := 0
	for i, c := range chunks {
		if c.offset != next {
			t.Fatalf("chunk %d starts at %d, want %d", i, c.offset, next)
		}
		if c.n%group != 0 {
			t.Errorf("chunk %d has %d elements, not a multiple of %d", i, c.n, group)
		}
		if c.n*4 > maxBindingBytes {
			t.Errorf("chunk %d is %d bytes, over the binding limit", i, c.n*4)
		}
		next += c.n
	}
	if next != n {
		t.Errorf("chunks cover %d elements, want %d", next, n)
	}
}

func TestDispatchDims(t *testing.T) {
	tests := []struct {
		groups int
		x, y   uint32
	}{
		{1, 1, 1},
		{65535, 65535, 1},
		{65536, 65535, 2},
		{131072, 65535, 3},
		{maxBindingBytes / 4, 65535, 513},
	}
	for _, tt := range tests {
		x, y := dispatchDims(tt.groups)
		if x != tt.x || y != tt.y {
			t.Errorf("dispatchDims(%d) = (%d, %d), want (%d, %d)", tt.groups, x, y, tt.x, tt.y)
		}
		if int(x)*int(y) < tt.groups {
			t.Errorf("dispatchDims(%d) launches only %d workgroups", tt.groups, x*y)
		}
	}
}

func TestPackParams(t *testing.T) {
	buf := packParams(131072, 65535)
	if len(buf) != paramsSize {
		t.Fatalf("len = %d, want %d", len(buf), paramsSize)
	}
	if got := binary.LittleEndian.Uint32(buf[0:]); got != 131072 {
		t.Errorf("num_groups = %d, want 131072", got)
	}
	if got := binary.LittleEndian.Uint32(buf[4:]); got != 65535 {
		t.Errorf("groups_x = %d, want 65535", got)
	}
	if binary.LittleEndian.Uint64(buf[8:]) != 0 {
		t.Error("padding is not zero")
	}
}

func TestPackInput(t *testing.T) {
	src := []int32{0, 1, -1, math.MaxInt32, math.MinInt32}
	dst := make([]byte, len(src)*4)
	packInput(dst, src)

	for i, want := range src {
		got := int32(binary.LittleEndian.Uint32(dst[i*4:])) //nolint:gosec // round-trip check
		if got != want {
			t.Errorf("element %d = %d, want %d", i, got, want)
		}
	}
}
