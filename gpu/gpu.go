//go:build !nogpu

// Package gpu registers the WebGPU compute accelerator for reductions.
//
// Import this package to run reduce launches as WGSL compute shaders through
// wgpu/hal. The device is opened on the first launch; if no Vulkan adapter is
// available, or a launch exceeds the device limits (group size above 256),
// launches fall back to the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/reduce/gpu" // enable GPU reductions
package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/reduce"
	gpuimpl "github.com/gogpu/reduce/internal/gpu"
)

// ErrNilProvider is returned when a nil DeviceProvider is passed.
var ErrNilProvider = errors.New("gpu: nil DeviceProvider")

func init() {
	accel := &gpuimpl.ReduceAccelerator{}
	if err := reduce.RegisterAccelerator(accel); err != nil {
		reduce.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider makes the accelerator run on a GPU device owned by an
// external provider (e.g., gogpu) instead of opening its own.
//
// The provider must also expose HalDevice() and HalQueue() for direct HAL
// access; otherwise an error is returned and the accelerator keeps its own
// device.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if provider == nil {
		return ErrNilProvider
	}
	return reduce.SetAcceleratorDeviceProvider(provider)
}
