package webgpu

import "errors"

var (
	// ErrBackendUnavailable is returned when the Vulkan HAL backend is not registered.
	ErrBackendUnavailable = errors.New("webgpu: vulkan backend not available")

	// ErrNoAdapter is returned when no GPU adapter is found.
	ErrNoAdapter = errors.New("webgpu: no GPU adapters found")

	// ErrNoHALDevice is returned when a device provider does not expose
	// a hal.Device and hal.Queue.
	ErrNoHALDevice = errors.New("webgpu: provider does not expose HAL device")

	// ErrUnknownKernel is returned for a program/kernel pair that is not registered.
	ErrUnknownKernel = errors.New("webgpu: unknown kernel")

	// ErrArgIndex is returned when SetArg is called with an index outside
	// the kernel signature.
	ErrArgIndex = errors.New("webgpu: argument index out of range")

	// ErrArgType is returned when an argument value does not match its declared kind.
	ErrArgType = errors.New("webgpu: argument type mismatch")

	// ErrArgsIncomplete is returned when a kernel is enqueued before all
	// of its arguments are set.
	ErrArgsIncomplete = errors.New("webgpu: kernel arguments not set")

	// ErrForeignMemory is returned for memory objects created by another runtime.
	ErrForeignMemory = errors.New("webgpu: memory not created by this runtime")

	// ErrWorkgroupSize is returned when a launch asks for a work-group size
	// the kernels were not compiled with.
	ErrWorkgroupSize = errors.New("webgpu: unsupported work-group size")

	// ErrTimeout is returned when the GPU does not signal a fence in time.
	ErrTimeout = errors.New("webgpu: timed out waiting for GPU")

	// ErrNotMapped is returned by Unmap for memory that is not mapped.
	ErrNotMapped = errors.New("webgpu: memory not mapped")

	// ErrClosed is returned when the runtime is used after Close.
	ErrClosed = errors.New("webgpu: runtime closed")
)
