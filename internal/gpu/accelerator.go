// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/reduce"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ReduceAccelerator runs reductions as wgpu/hal compute shaders.
// It implements reduce.GPUAccelerator and reduce.DeviceProviderAware.
//
// Launches are serialized: one reduction owns the device queue at a time.
type ReduceAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	dispatcher *dispatcher

	gpuReady       bool
	initFailed     bool // standalone device init failed; stop retrying
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var _ reduce.GPUAccelerator = (*ReduceAccelerator)(nil)
var _ reduce.DeviceProviderAware = (*ReduceAccelerator)(nil)

// Name returns the accelerator identifier.
func (a *ReduceAccelerator) Name() string { return "wgpu-compute" }

// Init registers the accelerator. The device is opened on the first launch
// or supplied by SetDeviceProvider, so registration never touches the GPU.
func (a *ReduceAccelerator) Init() error {
	return nil
}

// SetLogger sets the logger for the accelerator.
// Called by reduce.SetLogger to propagate logging configuration.
func (a *ReduceAccelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// CanReduce reports whether the launch fits the device limits. It does not
// open the device.
func (a *ReduceAccelerator) CanReduce(n, groupSize int, s reduce.Strategy) bool {
	if n < 0 || groupSize <= 0 || groupSize > MaxGroupSize {
		return false
	}
	if s != reduce.StrategyLocal && s != reduce.StrategyGlobal {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady || !a.initFailed
}

// Reduce sums input on the GPU and returns the device accumulator with the
// time the submissions spent on the device. Device setup, pipeline
// compilation, uploads and readback are not counted.
// Errors that mean the device is unusable wrap reduce.ErrFallbackToCPU.
func (a *ReduceAccelerator) Reduce(input []int32, groupSize int, s reduce.Strategy) (int32, time.Duration, error) {
	if groupSize <= 0 || len(input)%groupSize != 0 {
		return 0, 0, fmt.Errorf("gpu-reduce: %d elements do not fill groups of %d", len(input), groupSize)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureGPU(); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", reduce.ErrFallbackToCPU, err)
	}

	p, err := a.dispatcher.pipeline(pipelineKey{strategy: s, groupSize: groupSize})
	if err != nil {
		return 0, 0, fmt.Errorf("gpu-reduce: %w", err)
	}
	sum, elapsed, err := a.dispatcher.run(p, input)
	if err != nil {
		return 0, 0, fmt.Errorf("gpu-reduce: %w", err)
	}
	return sum, elapsed, nil
}

// Close releases all GPU resources held by the accelerator.
func (a *ReduceAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
	a.initFailed = false
}

func (a *ReduceAccelerator) releaseLocked() {
	if a.dispatcher != nil {
		a.dispatcher.close()
		a.dispatcher = nil
	}
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	// Shared devices belong to the provider.
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetDeviceProvider switches the accelerator to a shared GPU device from an
// external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (a *ReduceAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("gpu-reduce: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("gpu-reduce: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("gpu-reduce: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.initFailed = false

	if err := a.startDispatcher(); err != nil {
		a.releaseLocked()
		return fmt.Errorf("gpu-reduce: init with shared device: %w", err)
	}
	slogger().Info("gpu-reduce: switched to shared GPU device")
	return nil
}

// ensureGPU opens a standalone device on first use. A failed attempt is not
// retried until Close or SetDeviceProvider.
func (a *ReduceAccelerator) ensureGPU() error {
	if a.gpuReady {
		return nil
	}
	if a.initFailed {
		return errors.New("GPU unavailable")
	}
	if err := a.initGPU(); err != nil {
		a.releaseLocked()
		a.initFailed = true
		slogger().Warn("gpu-reduce: GPU init failed, using CPU", "error", err)
		return err
	}
	return nil
}

// initGPU creates a standalone Vulkan device for compute-only use.
func (a *ReduceAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue

	if err := a.startDispatcher(); err != nil {
		return err
	}
	slogger().Info("gpu-reduce: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return nil
}

func (a *ReduceAccelerator) startDispatcher() error {
	d := newDispatcher(a.device, a.queue)
	if err := d.init(); err != nil {
		return err
	}
	a.dispatcher = d
	a.gpuReady = true
	return nil
}
