package reduce

import (
	"errors"
	"sync"
	"time"
)

// ErrFallbackToCPU indicates the accelerator cannot run this launch.
// The caller transparently falls back to the CPU substrate.
var ErrFallbackToCPU = errors.New("reduce: falling back to CPU execution")

// GPUAccelerator is an optional device that runs reductions off the CPU.
//
// When registered via RegisterAccelerator, Reduce tries the accelerator
// first. If it declines with ErrFallbackToCPU, or fails with any other
// error, the whole launch reruns on the CPU; there are no partial results.
//
// Implementations live in GPU backend packages and are enabled by a blank
// import:
//
//	import _ "github.com/gogpu/reduce/gpu"
type GPUAccelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-compute").
	Name() string

	// Init prepares the accelerator. Called once during registration.
	// Expensive device setup may be deferred to the first launch.
	Init() error

	// Close releases device resources.
	Close()

	// CanReduce is a fast check that the launch shape and strategy are
	// supported, used to skip the device entirely.
	CanReduce(n, groupSize int, s Strategy) bool

	// Reduce sums input with groups of groupSize work-items using strategy
	// s and returns the value of the device-side global accumulator together
	// with the device execution time of the kernel, excluding device setup,
	// pipeline compilation, uploads and readback.
	// len(input) is a multiple of groupSize.
	Reduce(input []int32, groupSize int, s Strategy) (sum int32, elapsed time.Duration, err error)
}

// DeviceProviderAware is an optional interface for accelerators that can
// run on a GPU device owned by someone else instead of opening their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   GPUAccelerator
)

// RegisterAccelerator registers a device accelerator.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called first; if it fails the accelerator is
// not registered and the error is returned.
//
// Typical usage from a backend package:
//
//	func init() {
//	    reduce.RegisterAccelerator(&Accelerator{})
//	}
func RegisterAccelerator(a GPUAccelerator) error {
	if a == nil {
		return errors.New("reduce: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	return nil
}

// UnregisterAccelerator removes and closes the registered accelerator, if
// any. Later launches run on the CPU.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Accelerator returns the registered accelerator, or nil if none.
func Accelerator() GPUAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator. It is a no-op when no accelerator is registered or the
// accelerator cannot share devices.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
