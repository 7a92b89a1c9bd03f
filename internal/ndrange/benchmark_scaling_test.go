// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ndrange

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
)

// =============================================================================
// Core Scaling Benchmarks
// =============================================================================
//
// Run with: go test -bench=BenchmarkScaling -benchmem ./internal/ndrange/...
//
// =============================================================================

// setMaxProcs sets GOMAXPROCS and returns a cleanup function to restore it.
func setMaxProcs(n int) func() {
	old := runtime.GOMAXPROCS(n)
	return func() {
		runtime.GOMAXPROCS(old)
	}
}

// localSum is the reset / accumulate / fold kernel over data.
func localSum(data []int32, total *atomic.Int32) Kernel {
	return Kernel{
		Name:       "bench_local_sum",
		LocalCells: 1,
		Phases: []Phase{
			func(it *Item) {
				if it.LocalID() == 0 {
					it.LocalMem()[0].Store(0)
				}
			},
			func(it *Item) { it.LocalMem()[0].Add(data[it.GlobalID()]) },
			func(it *Item) {
				if it.LocalID() == 0 {
					total.Add(it.LocalMem()[0].Load())
				}
			},
		},
	}
}

func BenchmarkScaling_LocalSum(b *testing.B) {
	data := make([]int32, 1<<20)
	for i := range data {
		data[i] = 1
	}
	r := Range{Global: len(data), Local: 256}

	for _, cores := range []int{1, 2, 4, 8} {
		for _, lanes := range []int{1, DefaultLanes} {
			b.Run(fmt.Sprintf("%dcores_%dlanes", cores, lanes), func(b *testing.B) {
				cleanup := setMaxProcs(cores)
				defer cleanup()

				l := NewLauncher(cores, lanes)
				defer l.Close()

				var total atomic.Int32
				k := localSum(data, &total)

				b.SetBytes(int64(len(data)) * 4)
				b.ReportAllocs()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					total.Store(0)
					if _, err := l.Launch(k, r); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
