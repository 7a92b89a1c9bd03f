package reduce

// Option configures a single Reduce, Sum or Launch call.
//
// Example:
//
//	// Two-level reduction on the CPU with 8 lanes per group
//	res, err := reduce.Reduce(data, 256, reduce.WithoutAccelerator(), reduce.WithLanes(8))
//
//	// Global-atomics baseline
//	res, err := reduce.Reduce(data, 256, reduce.WithStrategy(reduce.StrategyGlobal))
type Option func(*options)

// options holds the optional configuration of a launch.
type options struct {
	strategy    Strategy
	workers     int
	lanes       int
	zeroPadding bool
	cpuOnly     bool
}

// defaultOptions returns the default launch options.
func defaultOptions() options {
	return options{
		strategy: StrategyLocal,
		workers:  0, // GOMAXPROCS
		lanes:    0, // ndrange.DefaultLanes
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithStrategy selects how work-items reach the global accumulator.
// The default is StrategyLocal.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithWorkers sets how many work-groups may execute concurrently on the CPU.
// Zero or negative selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLanes sets how many goroutines execute the work-items of one group on
// the CPU. One lane runs the items of a group one after another; the result
// is the same for any lane count.
func WithLanes(n int) Option {
	return func(o *options) {
		o.lanes = n
	}
}

// WithZeroPadding accepts inputs whose length is not a multiple of the group
// size by padding the final group with zeros. Without it such inputs fail
// with ErrRaggedInput.
func WithZeroPadding() Option {
	return func(o *options) {
		o.zeroPadding = true
	}
}

// WithoutAccelerator runs the launch on the CPU even when an accelerator is
// registered.
func WithoutAccelerator() Option {
	return func(o *options) {
		o.cpuOnly = true
	}
}
