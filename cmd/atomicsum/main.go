// Command atomicsum sums a vector of ones with the two-level atomic
// reduction and checks the result.
//
// Usage:
//
//	atomicsum [-n 16777216] [-group 256] [-strategy local|global|both] [-cpu] [-v]
//
// It prints the reduction sum and the kernel execution time, then PASSED or
// FAILED. The exit status is 1 when the sum is wrong or the launch fails and
// 2 for invalid flags.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/reduce"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	n          int
	group      int
	strategies []reduce.Strategy
	cpuOnly    bool
	workers    int
	lanes      int
	pad        bool
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var (
		cfg      config
		strategy string
	)
	fs := flag.NewFlagSet("atomicsum", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.n, "n", 16*1024*1024, "number of elements (the full-size run uses 1024000000)")
	fs.IntVar(&cfg.group, "group", 256, "work-group size")
	fs.StringVar(&strategy, "strategy", "local", "local, global or both")
	fs.BoolVar(&cfg.cpuOnly, "cpu", false, "run on the CPU even when a GPU is available")
	fs.IntVar(&cfg.workers, "workers", 0, "concurrent work-groups on the CPU (0 = GOMAXPROCS)")
	fs.IntVar(&cfg.lanes, "lanes", 0, "goroutines per work-group on the CPU (0 = default)")
	fs.BoolVar(&cfg.pad, "pad", false, "zero-pad a final partial group")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging to stderr")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.n < 0 {
		return cfg, fmt.Errorf("-n must not be negative, got %d", cfg.n)
	}
	if strategy == "both" {
		cfg.strategies = []reduce.Strategy{reduce.StrategyLocal, reduce.StrategyGlobal}
		return cfg, nil
	}
	s, err := reduce.ParseStrategy(strategy)
	if err != nil {
		return cfg, err
	}
	cfg.strategies = []reduce.Strategy{s}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "atomicsum:", err)
		}
		return 2
	}

	if cfg.verbose {
		reduce.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	p := message.NewPrinter(language.English)

	data := make([]int32, cfg.n)
	for i := range data {
		data[i] = 1
	}

	opts := []reduce.Option{
		reduce.WithWorkers(cfg.workers),
		reduce.WithLanes(cfg.lanes),
	}
	if cfg.cpuOnly {
		opts = append(opts, reduce.WithoutAccelerator())
	}
	if cfg.pad {
		opts = append(opts, reduce.WithZeroPadding())
	}

	passed := true
	for _, s := range cfg.strategies {
		res, err := reduce.Reduce(data, cfg.group, append(opts, reduce.WithStrategy(s))...)
		if err != nil {
			fmt.Fprintln(stderr, "atomicsum:", err)
			return 1
		}

		// The sum is printed without digit grouping.
		fmt.Fprintf(stdout, "Reduction Sum : %d\n", res.Sum)
		p.Fprintf(stdout, "Kernel Execution Time of %s Atomics : %.6f seconds\n",
			label(s), res.Elapsed.Seconds())
		p.Fprintf(stdout, "Backend : %s (%d groups of %d)\n", res.Backend, res.Groups, cfg.group)

		if int(res.Sum) != cfg.n {
			passed = false
		}
	}

	if !passed {
		fmt.Fprintln(stdout, "FAILED")
		return 1
	}
	fmt.Fprintln(stdout, "PASSED")
	return 0
}

func label(s reduce.Strategy) string {
	switch s {
	case reduce.StrategyGlobal:
		return "Global"
	default:
		return "Local"
	}
}
