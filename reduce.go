package reduce

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/reduce/internal/ndrange"
)

// BackendCPU is the Result.Backend value of launches run on the CPU.
const BackendCPU = "cpu"

// Result describes a completed reduction.
type Result struct {
	// Sum is the value of the global accumulator after the launch.
	Sum int32

	// N is the number of elements reduced, including zero padding.
	N int

	// Groups is the number of work-groups launched (N / group size).
	Groups int

	Strategy Strategy

	// Backend is BackendCPU or the name of the accelerator that ran the launch.
	Backend string

	// Elapsed is the kernel execution time. It excludes input preparation
	// and, on an accelerator, device setup, uploads and readback.
	Elapsed time.Duration
}

// Sum returns the sum of input reduced in work-groups of groupSize items.
// It uses the default options: two-level atomics, accelerator if registered.
func Sum(input []int32, groupSize int) (int32, error) {
	res, err := Reduce(input, groupSize)
	return res.Sum, err
}

// Reduce sums input into a fresh zero accumulator.
//
// len(input) must be a multiple of groupSize unless WithZeroPadding is
// given. An empty input sums to zero. Arithmetic wraps at 32 bits exactly
// like the device atomics it models.
func Reduce(input []int32, groupSize int, opts ...Option) (Result, error) {
	var total atomic.Int32
	return Launch(input, groupSize, &total, opts...)
}

// Launch adds the sum of input into total, which the caller owns.
//
// total is not reset: callers that reuse a cell store zero first. Work-items
// only ever touch total through Add, and Launch returns only after every
// group has contributed, so total may be read as soon as Launch returns.
// Result.Sum is total.Load() at that point.
func Launch(input []int32, groupSize int, total Cell, opts ...Option) (Result, error) {
	if total == nil {
		return Result{}, ErrNilCell
	}
	o := buildOptions(opts)
	if !o.strategy.valid() {
		return Result{}, fmt.Errorf("reduce: unknown strategy %v", o.strategy)
	}

	data, err := prepareInput(input, groupSize, o.zeroPadding)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		N:        len(data),
		Groups:   len(data) / groupSize,
		Strategy: o.strategy,
	}

	if a := Accelerator(); a != nil && !o.cpuOnly && len(data) > 0 {
		sum, elapsed, err := launchAccelerated(a, data, groupSize, o.strategy)
		switch {
		case err == nil:
			total.Add(sum)
			res.Sum = total.Load()
			res.Backend = a.Name()
			res.Elapsed = elapsed
			return res, nil
		case errors.Is(err, ErrFallbackToCPU):
			Logger().Debug("reduce: accelerator declined launch",
				"accelerator", a.Name(), "n", len(data), "group", groupSize)
		default:
			Logger().Warn("reduce: accelerator failed, falling back to CPU",
				"accelerator", a.Name(), "error", err)
		}
	}

	elapsed, err := launchCPU(data, groupSize, total, o)
	if err != nil {
		return Result{}, err
	}
	res.Sum = total.Load()
	res.Backend = BackendCPU
	res.Elapsed = elapsed
	return res, nil
}

func (s Strategy) valid() bool {
	return s == StrategyLocal || s == StrategyGlobal
}

// prepareInput checks the launch preconditions and pads a ragged tail with
// zeros when allowed. The input is copied only when padding is needed.
func prepareInput(input []int32, groupSize int, pad bool) ([]int32, error) {
	if groupSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGroupSize, groupSize)
	}
	rem := len(input) % groupSize
	if rem == 0 {
		return input, nil
	}
	if !pad {
		return nil, fmt.Errorf("%w: n=%d group=%d", ErrRaggedInput, len(input), groupSize)
	}
	padded := make([]int32, len(input)+groupSize-rem)
	copy(padded, input)
	return padded, nil
}

func launchAccelerated(a GPUAccelerator, data []int32, groupSize int, s Strategy) (int32, time.Duration, error) {
	if !a.CanReduce(len(data), groupSize, s) {
		return 0, 0, ErrFallbackToCPU
	}
	return a.Reduce(data, groupSize, s)
}

func launchCPU(data []int32, groupSize int, total Cell, o options) (time.Duration, error) {
	k, err := sumKernel(o.strategy, data, total)
	if err != nil {
		return 0, err
	}

	l := ndrange.NewLauncher(o.workers, o.lanes)
	defer l.Close()

	stats, err := l.Launch(k, ndrange.Range{Global: len(data), Local: groupSize})
	if err != nil {
		return 0, fmt.Errorf("reduce: launch %s: %w", k.Name, err)
	}

	Logger().Debug("reduce: launch complete",
		"kernel", k.Name,
		"n", stats.Items,
		"groups", stats.Groups,
		"workers", l.Workers(),
		"lanes", stats.Lanes,
		"batches", stats.Batches,
		"elapsed", stats.Elapsed)
	return stats.Elapsed, nil
}
