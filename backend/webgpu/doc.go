// Package webgpu runs matconv kernels on a GPU through gogpu/wgpu's HAL.
//
// Images and buffers are HAL storage buffers; an image holds RGBA float32
// texels row-major over its width and height. Kernels from package kernels
// are compiled from WGSL to SPIR-V with naga and turned into compute
// pipelines once per runtime. Scalar kernel arguments are packed into a
// uniform block at binding 0 and memory arguments are bound as storage
// buffers at bindings 1, 2, ... in signature order.
//
// Mapping is emulated: Map drains the queue and returns a host copy,
// read back from the device for MapRead; Unmap of a MapWrite mapping
// uploads the copy with Queue.WriteBuffer.
//
// Build with -tags nogpu to exclude the HAL-backed runtime.
package webgpu
