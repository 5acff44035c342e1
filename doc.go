// Package matconv converts images and tensors between host memory and GPU
// images and transforms them on the GPU.
//
// # Overview
//
// A Mat is an N×C×H×W tensor or image that lives either in host memory or
// in a device image. Device images store tensors as 2D grids of RGBA
// float32 texels: channels are packed in groups of four along x and
// batches are stacked along y (see ImageFootprint).
//
// A Converter moves Mats across that boundary and runs kernels on device
// images:
//
//   - Copy: host to device or device to host, with layout packing
//   - Resize: bilinear resize of a device image
//   - Crop: rectangular crop of a device image
//   - WarpAffine: reserved, always ErrUnsupportedConversion
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/matconv"
//		"github.com/gogpu/matconv/backend/webgpu"
//	)
//
//	rt, err := webgpu.New()
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//
//	conv, _ := matconv.NewConverter(rt)
//	defer conv.Close()
//
//	q := rt.NewQueue()
//	dims := matconv.Dims{Batch: 1, Channel: 4, Height: h, Width: w}
//	host, _ := matconv.NewHostMat(matconv.N8UC4, dims, pixels)
//	dev, _ := matconv.AllocDeviceMat(rt, matconv.N8UC4, dims)
//	defer dev.Release()
//
//	err = conv.Copy(host, dev, q)
//
// # Runtimes
//
// The package talks to the device only through the Runtime, Queue, Kernel,
// Memory and Image interfaces. backend/webgpu implements them on
// gogpu/wgpu; tests use in-memory fakes.
//
// # Kernels
//
// Kernels are compiled lazily, once per operation, layout and direction,
// and cached for the lifetime of the Converter. Their sources and argument
// signatures live in package kernels.
//
// # Concurrency
//
// Converter methods serialize on a mutex. For parallel work create one
// Converter per worker on a shared Runtime.
//
// # Logging
//
// The package is silent by default. Use SetLogger to enable debug output
// for kernel compilation, staging growth and dispatches.
package matconv
