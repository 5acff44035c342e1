package matconv

import (
	"fmt"
	"sync"

	"github.com/gogpu/matconv/kernels"
)

// Converter moves Mats between host memory and device images and runs
// resize and crop kernels on device images.
//
// A Converter owns one staging buffer and a cache of compiled kernels. Its
// methods serialize on an internal mutex, so a Converter may be shared, but
// workers that convert in parallel should each own one.
type Converter struct {
	mu      sync.Mutex
	opts    options
	staging stagingBuffer
	cache   *unitCache
	closed  bool
}

// NewConverter creates a Converter that allocates and compiles through rt.
func NewConverter(rt Runtime, opts ...Option) (*Converter, error) {
	if rt == nil {
		return nil, fmt.Errorf("%w: nil runtime", ErrNullParameter)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Converter{
		opts:    o,
		staging: stagingBuffer{rt: rt},
		cache:   newUnitCache(rt),
	}
	if o.initialCapacity > 0 {
		if err := c.staging.reserve(o.initialCapacity); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Copy copies src into dst where exactly one of them is device-resident.
// Both must have the same layout and dims. A host-to-device copy uploads
// the host bytes through the staging buffer and then runs the unpack
// kernel; a device-to-host copy runs the pack kernel and then reads the
// staging buffer back into dst.
//
// Host-to-host and device-to-device copies are rejected with
// ErrUnsupportedConversion instead of being routed through the unpack
// kernel. Use Crop with the full rectangle to copy between device Mats.
func (c *Converter) Copy(src, dst *Mat, q Queue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	dir, err := validateCopy(src, dst, q)
	if err != nil {
		return err
	}
	if err := c.staging.ensure(src.Dims()); err != nil {
		return err
	}

	program, kernel, err := copyKernel(dst.Type(), dir)
	if err != nil {
		return err
	}
	u, err := c.cache.getOrCreate(unitKey{op: opCopy, layout: dst.Type(), dir: dir}, program, kernel, dst.Dims())
	if err != nil {
		return err
	}

	g, _ := ComputeDispatchGeometry(dst.Dims())
	if _, err := setGeometryArgs(u.Kernel, g); err != nil {
		return err
	}
	if err := bindCopyArgs(u.Kernel, u.ArgOffset, src, dst, dir, c.staging.buf); err != nil {
		return err
	}

	if dir == dirFromHost {
		if err := copyMatToStaging(src, &c.staging, q); err != nil {
			return err
		}
		return run(u, g, q, c.opts.blocking)
	}

	if err := run(u, g, q, c.opts.blocking); err != nil {
		return err
	}
	return copyStagingToMat(dst, &c.staging, q)
}

func validateCopy(src, dst *Mat, q Queue) (direction, error) {
	if q == nil {
		return dirNone, fmt.Errorf("%w: nil queue", ErrNullParameter)
	}
	if src == nil || dst == nil {
		return dirNone, fmt.Errorf("%w: nil mat", ErrNullParameter)
	}
	if src.Type() != dst.Type() {
		return dirNone, fmt.Errorf("%w: copy %s to %s", ErrUnsupportedConversion, src.Type(), dst.Type())
	}

	var dir direction
	switch {
	case !src.OnDevice() && dst.OnDevice():
		dir = dirFromHost
	case src.OnDevice() && !dst.OnDevice():
		dir = dirToHost
	default:
		return dirNone, fmt.Errorf("%w: copy needs exactly one device mat, got %s to %s",
			ErrUnsupportedConversion, src.Device(), dst.Device())
	}

	if src.Dims() != dst.Dims() {
		return dirNone, fmt.Errorf("%w: copy dims %v to %v", ErrInvalidParameter, src.Dims(), dst.Dims())
	}
	return dir, nil
}

// Resize bilinearly scales device image src into device image dst. Batch,
// channel and layout must match; the scales are src/dst along each axis.
func (c *Converter) Resize(src, dst *Mat, _ ResizeParam, q Queue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if err := validateDeviceOp("resize", src, dst, q); err != nil {
		return err
	}

	key := unitKey{op: opResize, layout: src.Type(), dir: dirNone}
	u, err := c.cache.getOrCreate(key, kernels.ProgramResize, kernels.Bilinear, dst.Dims())
	if err != nil {
		return err
	}

	g, _ := ComputeDispatchGeometry(dst.Dims())
	if _, err := setGeometryArgs(u.Kernel, g); err != nil {
		return err
	}
	if err := bindResizeArgs(u.Kernel, u.ArgOffset, src, dst); err != nil {
		return err
	}
	return run(u, g, q, c.opts.blocking)
}

// Crop copies the rectangle p of device image src into device image dst,
// whose height and width must equal the rectangle's.
func (c *Converter) Crop(src, dst *Mat, p CropParam, q Queue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if err := validateDeviceOp("crop", src, dst, q); err != nil {
		return err
	}
	if err := validateCrop(src, dst, p); err != nil {
		return err
	}

	key := unitKey{op: opCrop, layout: src.Type(), dir: dirNone}
	u, err := c.cache.getOrCreate(key, kernels.ProgramCopy, kernels.Crop, dst.Dims())
	if err != nil {
		return err
	}

	g, _ := ComputeDispatchGeometry(dst.Dims())
	if _, err := setGeometryArgs(u.Kernel, g); err != nil {
		return err
	}
	if err := bindCropArgs(u.Kernel, u.ArgOffset, src, dst, p); err != nil {
		return err
	}
	return run(u, g, q, c.opts.blocking)
}

// WarpAffine is not implemented on the device. It reports
// ErrUnsupportedConversion for any input once the queue is present.
func (c *Converter) WarpAffine(_, _ *Mat, _ WarpAffineParam, q Queue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if q == nil {
		return fmt.Errorf("%w: nil queue", ErrNullParameter)
	}
	return fmt.Errorf("%w: warp affine", ErrUnsupportedConversion)
}

func validateDeviceOp(op string, src, dst *Mat, q Queue) error {
	if q == nil {
		return fmt.Errorf("%w: nil queue", ErrNullParameter)
	}
	if src == nil || dst == nil {
		return fmt.Errorf("%w: nil mat", ErrNullParameter)
	}
	if !src.OnDevice() || !dst.OnDevice() {
		return fmt.Errorf("%w: %s %s to %s, both must be on the device",
			ErrUnsupportedConversion, op, src.Device(), dst.Device())
	}
	if src.Type() != dst.Type() {
		return fmt.Errorf("%w: %s %s to %s", ErrUnsupportedConversion, op, src.Type(), dst.Type())
	}
	if src.Batch() != dst.Batch() || src.Channel() != dst.Channel() {
		return fmt.Errorf("%w: %s %v to %v changes batch or channel",
			ErrInvalidParameter, op, src.Dims(), dst.Dims())
	}
	return nil
}

func validateCrop(src, dst *Mat, p CropParam) error {
	if p.TopLeftX < 0 || p.TopLeftY < 0 || p.Width <= 0 || p.Height <= 0 ||
		p.TopLeftX+p.Width > src.Width() || p.TopLeftY+p.Height > src.Height() {
		return fmt.Errorf("%w: crop %+v outside %dx%d source",
			ErrInvalidParameter, p, src.Width(), src.Height())
	}
	if dst.Width() != p.Width || dst.Height() != p.Height {
		return fmt.Errorf("%w: crop %dx%d into %dx%d destination",
			ErrInvalidParameter, p.Width, p.Height, dst.Width(), dst.Height())
	}
	return nil
}

// StagingCapacity returns the current staging buffer size in bytes.
func (c *Converter) StagingCapacity() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staging.capacity()
}

// CacheStats returns the kernel cache hits and misses and the number of
// compiled kernels.
func (c *Converter) CacheStats() (hits, misses uint64, units int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hits, misses = c.cache.Stats()
	return hits, misses, c.cache.Len()
}

// CacheHitRate returns the kernel cache hit rate (0.0 to 1.0).
func (c *Converter) CacheHitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.HitRate()
}

// Close releases the staging buffer and every compiled kernel. Later calls
// return ErrClosed. Close is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.staging.release()
	c.cache.release()
	return nil
}
