package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/matconv"
)

// Factory opens a device.
type Factory func() (Device, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for OpenDefault (first that opens wins).
	backendPriority = []string{WebGPU}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens the backend registered under name.
func Open(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory()
}

// OpenDefault opens the first backend in priority order that opens, then
// any other registered backend in name order. The errors of every failed
// attempt are joined to ErrNoBackend.
func OpenDefault() (Device, error) {
	names := Available()
	order := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range append(append([]string(nil), backendPriority...), names...) {
		if !seen[name] && IsRegistered(name) {
			seen[name] = true
			order = append(order, name)
		}
	}

	errs := []error{ErrNoBackend}
	for _, name := range order {
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		matconv.Logger().Warn("backend: open failed", "backend", name, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return nil, errors.Join(errs...)
}
