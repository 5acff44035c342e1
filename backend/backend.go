// Package backend keeps the registry of matconv device runtimes.
//
// Runtime packages register a factory from init(); callers pick one by
// name or take the best available:
//
//	import (
//		"github.com/gogpu/matconv/backend"
//		_ "github.com/gogpu/matconv/backend/webgpu"
//	)
//
//	dev, err := backend.OpenDefault()
package backend

import (
	"errors"

	"github.com/gogpu/matconv"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoBackend is returned by OpenDefault when no registered backend opens.
	ErrNoBackend = errors.New("backend: no backend could be opened")
)

// Backend names.
const (
	WebGPU = "webgpu"
)

// Device is an open device runtime.
type Device interface {
	matconv.Runtime

	// Name returns the adapter or device name.
	Name() string

	// NewQueue returns a new compute queue on the device.
	NewQueue() matconv.Queue

	// Close releases the device. Objects created by it must not be used afterwards.
	Close() error
}
