// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/reduce"
	"github.com/gogpu/wgpu/hal"
)

// fenceTimeout bounds the wait for one chunk submission.
const fenceTimeout = 10 * time.Second

type pipelineKey struct {
	strategy  reduce.Strategy
	groupSize int
}

// reducePipeline is a compiled kernel for one strategy and group size.
type reducePipeline struct {
	key      pipelineKey
	shader   hal.ShaderModule
	pipeline hal.ComputePipeline
}

// dispatcher owns the compute pipelines of one device and runs launches on
// it. It is not safe for concurrent use; ReduceAccelerator serializes calls.
type dispatcher struct {
	device hal.Device
	queue  hal.Queue

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[pipelineKey]*reducePipeline
}

func newDispatcher(device hal.Device, queue hal.Queue) *dispatcher {
	return &dispatcher{
		device:    device,
		queue:     queue,
		pipelines: make(map[pipelineKey]*reducePipeline),
	}
}

// init creates the layouts shared by every reduction pipeline:
// binding 0 Params uniform, binding 1 input, binding 2 global accumulator.
func (d *dispatcher) init() error {
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "reduce_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "reduce_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return nil
}

// pipeline returns the cached pipeline for key, compiling it on first use.
func (d *dispatcher) pipeline(key pipelineKey) (*reducePipeline, error) {
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}

	src, err := shaderSource(key.strategy, key.groupSize)
	if err != nil {
		return nil, err
	}
	label := fmt.Sprintf("reduce_%v_%d", key.strategy, key.groupSize)

	shader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", label, err)
	}

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: label, Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		d.device.DestroyShaderModule(shader)
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}

	p := &reducePipeline{key: key, shader: shader, pipeline: pipeline}
	d.pipelines[key] = p
	slogger().Debug("gpu-reduce: pipeline compiled", "strategy", key.strategy, "group", key.groupSize)
	return p, nil
}

// launchBuffers are the device buffers of one reduction.
type launchBuffers struct {
	params  hal.Buffer
	input   hal.Buffer
	total   hal.Buffer
	staging hal.Buffer
	bind    hal.BindGroup
}

func (d *dispatcher) createBuffers(inputBytes uint64) (*launchBuffers, error) {
	b := &launchBuffers{}
	var err error

	b.params, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "reduce_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return b, fmt.Errorf("create params buffer: %w", err)
	}
	b.input, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "reduce_input", Size: inputBytes,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return b, fmt.Errorf("create input buffer: %w", err)
	}
	b.total, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "reduce_total", Size: 4,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return b, fmt.Errorf("create total buffer: %w", err)
	}
	b.staging, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "reduce_staging", Size: 4,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return b, fmt.Errorf("create staging buffer: %w", err)
	}

	b.bind, err = d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "reduce_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.params.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: b.input.NativeHandle(), Offset: 0, Size: inputBytes}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: b.total.NativeHandle(), Offset: 0, Size: 4}},
		},
	})
	if err != nil {
		return b, fmt.Errorf("create bind group: %w", err)
	}
	return b, nil
}

func (d *dispatcher) destroyBuffers(b *launchBuffers) {
	if b.bind != nil {
		d.device.DestroyBindGroup(b.bind)
	}
	for _, buf := range []hal.Buffer{b.params, b.input, b.total, b.staging} {
		if buf != nil {
			d.device.DestroyBuffer(buf)
		}
	}
}

// run sums input on the device. Chunks are uploaded and dispatched one
// submission at a time, all adding into the same device accumulator; the
// accumulator is copied out with the last chunk and read back once.
// The returned duration is the summed submit-to-fence time of the chunks.
func (d *dispatcher) run(p *reducePipeline, input []int32) (int32, time.Duration, error) {
	groupSize := p.key.groupSize
	chunks := planChunks(len(input), groupSize, maxBindingBytes)
	if len(chunks) == 0 {
		return 0, 0, nil
	}

	slogger().Debug("gpu-reduce: dispatch",
		"strategy", p.key.strategy, "n", len(input), "group", groupSize, "chunks", len(chunks))

	inputBytes := uint64(chunks[0].n) * 4
	bufs, err := d.createBuffers(inputBytes)
	defer d.destroyBuffers(bufs)
	if err != nil {
		return 0, 0, err
	}

	d.queue.WriteBuffer(bufs.total, 0, make([]byte, 4))

	var elapsed time.Duration
	packed := make([]byte, inputBytes)
	for i, c := range chunks {
		data := packed[:c.n*4]
		packInput(data, input[c.offset:c.offset+c.n])
		d.queue.WriteBuffer(bufs.input, 0, data)

		groups := c.n / groupSize
		x, y := dispatchDims(groups)
		d.queue.WriteBuffer(bufs.params, 0, packParams(uint32(groups), x)) //nolint:gosec // groups per chunk fits uint32

		last := i == len(chunks)-1
		took, err := d.submit(p, bufs, x, y, last)
		if err != nil {
			return 0, 0, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		elapsed += took
	}

	readback := make([]byte, 4)
	if err := d.queue.ReadBuffer(bufs.staging, 0, readback); err != nil {
		return 0, 0, fmt.Errorf("readback: %w", err)
	}
	return int32(binary.LittleEndian.Uint32(readback)), elapsed, nil //nolint:gosec // two's complement bit pattern
}

// encodingSession is the part of hal.CommandEncoder that opens a recording.
type encodingSession interface {
	BeginEncoding(label string) error
	DiscardEncoding()
}

// beginEncoding opens a recording on enc. A failed begin is discarded so
// the encoder does not stay in a half-open state.
func beginEncoding(enc encodingSession, label string) error {
	if err := enc.BeginEncoding(label); err != nil {
		enc.DiscardEncoding()
		return fmt.Errorf("begin encoding: %w", err)
	}
	return nil
}

// submit encodes one dispatch, optionally followed by the accumulator copy,
// and waits for it to finish. It returns the time from queue submission to
// fence signal.
func (d *dispatcher) submit(p *reducePipeline, bufs *launchBuffers, x, y uint32, copyTotal bool) (time.Duration, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "reduce_encoder"})
	if err != nil {
		return 0, fmt.Errorf("create command encoder: %w", err)
	}
	if err := beginEncoding(encoder, "reduce"); err != nil {
		return 0, err
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "reduce_pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bufs.bind, nil)
	pass.Dispatch(x, y, 1)
	pass.End()

	if copyTotal {
		encoder.CopyBufferToBuffer(bufs.total, bufs.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: 4},
		})
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return 0, fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return 0, fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	start := time.Now()
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return 0, fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("wait for GPU: timed out after %v", fenceTimeout)
	}
	return time.Since(start), nil
}

// close destroys every pipeline and the shared layouts.
func (d *dispatcher) close() {
	for key, p := range d.pipelines {
		d.device.DestroyComputePipeline(p.pipeline)
		d.device.DestroyShaderModule(p.shader)
		delete(d.pipelines, key)
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
}
