package reduce

import (
	"fmt"

	"github.com/gogpu/reduce/internal/ndrange"
)

// Strategy selects how work-items contribute to the global accumulator.
type Strategy int

const (
	// StrategyLocal accumulates each work-group into a group-local atomic
	// cell and folds it into the global accumulator with one atomic add per
	// group. Global contention drops by a factor of the group size.
	StrategyLocal Strategy = iota

	// StrategyGlobal has every work-item add straight into the global
	// accumulator. It produces the same sum and serves as the baseline.
	StrategyGlobal
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyLocal:
		return "local"
	case StrategyGlobal:
		return "global"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns the strategy named by s ("local" or "global").
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "local":
		return StrategyLocal, nil
	case "global":
		return StrategyGlobal, nil
	default:
		return 0, fmt.Errorf("reduce: unknown strategy %q", s)
	}
}

// Cell is a shared 32-bit accumulator updated with atomic adds.
// *sync/atomic.Int32 implements Cell.
type Cell interface {
	Add(delta int32) (new int32)
	Load() int32
}

// localSumKernel builds the two-level reduction:
//
//  1. local index 0 resets the group's local accumulator
//  2. barrier
//  3. every work-item atomically adds its element into the local accumulator
//  4. barrier
//  5. local index 0 atomically adds the local sum into total
func localSumKernel(input []int32, total Cell) ndrange.Kernel {
	return ndrange.Kernel{
		Name:       "local_atomic_sum",
		LocalCells: 1,
		Phases: []ndrange.Phase{
			func(it *ndrange.Item) {
				if it.LocalID() == 0 {
					it.LocalMem()[0].Store(0)
				}
			},
			func(it *ndrange.Item) {
				it.LocalMem()[0].Add(input[it.GlobalID()])
			},
			func(it *ndrange.Item) {
				if it.LocalID() == 0 {
					total.Add(it.LocalMem()[0].Load())
				}
			},
		},
	}
}

// globalSumKernel builds the baseline: one global atomic add per work-item.
func globalSumKernel(input []int32, total Cell) ndrange.Kernel {
	return ndrange.Kernel{
		Name: "global_atomic_sum",
		Phases: []ndrange.Phase{
			func(it *ndrange.Item) {
				total.Add(input[it.GlobalID()])
			},
		},
	}
}

func sumKernel(s Strategy, input []int32, total Cell) (ndrange.Kernel, error) {
	switch s {
	case StrategyLocal:
		return localSumKernel(input, total), nil
	case StrategyGlobal:
		return globalSumKernel(input, total), nil
	default:
		return ndrange.Kernel{}, fmt.Errorf("reduce: unknown strategy %v", s)
	}
}
