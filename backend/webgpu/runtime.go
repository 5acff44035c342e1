//go:build !nogpu

package webgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/matconv"
	"github.com/gogpu/matconv/kernels"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Runtime implements matconv.Runtime on a wgpu HAL device. Kernels are
// compiled from WGSL to SPIR-V with naga; compute pipelines are built once
// per kernel and shared by every Kernel created for it.
type Runtime struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string

	pipelines map[string]*pipeline
	hits      uint64
	misses    uint64

	timeout        time.Duration
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var _ matconv.Runtime = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithWaitTimeout sets how long Finish and Map wait for the GPU.
func WithWaitTimeout(d time.Duration) Option {
	return func(rt *Runtime) {
		rt.timeout = d
	}
}

func newRuntime(opts []Option) *Runtime {
	rt := &Runtime{
		pipelines: make(map[string]*pipeline),
		timeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// New opens a GPU device on the Vulkan backend, preferring discrete and
// integrated GPUs over software adapters.
func New(opts ...Option) (*Runtime, error) {
	rt := newRuntime(opts)

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrBackendUnavailable
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
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
		instance.Destroy()
		return nil, fmt.Errorf("webgpu: open device: %w", err)
	}

	rt.instance = instance
	rt.device = openDev.Device
	rt.queue = openDev.Queue
	rt.name = selected.Info.Name
	matconv.Logger().Info("webgpu: device opened", "adapter", rt.name)
	return rt, nil
}

// NewFromProvider creates a Runtime on a device shared by a host
// application. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. Close does not
// destroy a shared device.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Runtime, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALDevice)
	}

	rt := newRuntime(opts)
	rt.device = device
	rt.queue = queue
	rt.name = "shared"
	rt.externalDevice = true
	return rt, nil
}

// Name returns the adapter name.
func (rt *Runtime) Name() string { return rt.name }

// NewQueue returns a matconv.Queue that submits to the device queue.
func (rt *Runtime) NewQueue() matconv.Queue {
	return &Queue{rt: rt}
}

// CreateKernel returns kernel from program, building its compute pipeline
// on first use.
func (rt *Runtime) CreateKernel(program, kernel string) (matconv.Kernel, error) {
	sig, ok := kernels.Lookup(program, kernel)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownKernel, program, kernel)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.device == nil {
		return nil, ErrClosed
	}
	p, err := rt.pipelineFor(sig)
	if err != nil {
		return nil, err
	}
	return &computeKernel{
		rt:   rt,
		sig:  sig,
		pipe: p,
		args: make([]any, len(sig.Args)),
	}, nil
}

// CreateBuffer allocates a storage buffer of size bytes.
func (rt *Runtime) CreateBuffer(size uint64) (matconv.Memory, error) {
	return rt.createBuffer("matconv_buffer", size)
}

// CreateImage allocates a width x height image of RGBA float32 texels.
func (rt *Runtime) CreateImage(width, height int) (matconv.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("webgpu: invalid image size %dx%d", width, height)
	}
	b, err := rt.createBuffer("matconv_image", uint64(width)*uint64(height)*16) //nolint:gosec // positive
	if err != nil {
		return nil, err
	}
	return &image{buffer: b, width: width, height: height}, nil
}

func (rt *Runtime) createBuffer(label string, size uint64) (*buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("webgpu: zero-sized buffer")
	}
	padded := alignUp(size, storageAlign)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.device == nil {
		return nil, ErrClosed
	}
	buf, err := rt.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  padded,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create %s (%d bytes): %w", label, padded, err)
	}
	return &buffer{rt: rt, buf: buf, size: size, padded: padded}, nil
}

// PipelineStats returns pipeline cache hits and misses.
func (rt *Runtime) PipelineStats() (hits, misses uint64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.hits, rt.misses
}

// Close destroys the compiled pipelines and, unless the device is shared,
// the device and instance.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.device == nil {
		return nil
	}
	for key, p := range rt.pipelines {
		p.destroy(rt.device)
		delete(rt.pipelines, key)
	}
	if !rt.externalDevice {
		rt.device.Destroy()
		if rt.instance != nil {
			rt.instance.Destroy()
		}
	}
	rt.device = nil
	rt.queue = nil
	rt.instance = nil
	return nil
}
