package reduce

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record. Enabled reports false, so the launch and
// fallback log sites skip formatting their attributes.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr holds the logger read by every launch. SetLogger may run while
// launches are in flight on other goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger sets the logger used by launches and hands it to the registered
// accelerator. Launches log nothing until it is called; nil restores that.
// It is safe to call while launches run.
//
// Records emitted:
//   - [slog.LevelDebug] "reduce: launch complete" after a CPU launch, with
//     the kernel name, item and group counts, the worker, lane and batch
//     counts and elapsed
//   - [slog.LevelDebug] "reduce: accelerator declined launch" when
//     CanReduce refuses the shape or the device asks for the CPU path
//   - [slog.LevelWarn] "reduce: accelerator failed, falling back to CPU"
//     when a device launch errors and the CPU reruns it
//
// The GPU accelerator adds its own records under the "gpu-reduce:" prefix:
// dispatch chunk plans and pipeline compiles at Debug, device selection at
// Info, device init failure at Warn.
//
// Example:
//
//	reduce.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	if a != nil {
		propagateLogger(a, l)
	}
}

// Logger returns the logger set by SetLogger. The gpu package reports
// accelerator registration failures through it.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by accelerators that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands l to a if it accepts one.
func propagateLogger(a GPUAccelerator, l *slog.Logger) {
	if ls, ok := a.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
