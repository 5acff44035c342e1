package matconv

import "fmt"

// opKind identifies a converter operation.
type opKind uint8

const (
	opCopy opKind = iota + 1
	opResize
	opCrop
	opWarpAffine
)

func (o opKind) String() string {
	switch o {
	case opCopy:
		return "Copy"
	case opResize:
		return "Resize"
	case opCrop:
		return "Crop"
	case opWarpAffine:
		return "WarpAffine"
	default:
		return fmt.Sprintf("opKind(%d)", int(o))
	}
}

// direction is the host/device direction of a Copy.
type direction uint8

const (
	dirNone direction = iota
	dirFromHost
	dirToHost
)

func (d direction) String() string {
	switch d {
	case dirFromHost:
		return "from-host"
	case dirToHost:
		return "to-host"
	default:
		return "device"
	}
}

// unitKey identifies one compiled kernel variant. Two keys are equal
// exactly when they need the same kernel with the same argument shape.
type unitKey struct {
	op     opKind
	layout MatType
	dir    direction
}

func (k unitKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.op, k.layout, k.dir)
}

// ExecuteUnit is a compiled kernel together with the dispatch geometry
// computed when it was built.
type ExecuteUnit struct {
	Kernel Kernel

	// Geometry records the dims of the call that compiled the unit only.
	// Every dispatch computes its own geometry from its destination dims.
	Geometry DispatchGeometry

	// ArgOffset is the index of the first operation-specific argument,
	// after the global size arguments.
	ArgOffset int
}

// unitCache maps kernel variants to execute units. Entries are built on
// first use and kept for the lifetime of the Converter.
type unitCache struct {
	rt     Runtime
	units  map[unitKey]*ExecuteUnit
	hits   uint64
	misses uint64
}

func newUnitCache(rt Runtime) *unitCache {
	return &unitCache{
		rt:    rt,
		units: make(map[unitKey]*ExecuteUnit),
	}
}

// getOrCreate returns the unit for key, compiling program/kernel on a miss.
// A failed compilation inserts nothing.
func (c *unitCache) getOrCreate(key unitKey, program, kernel string, d Dims) (*ExecuteUnit, error) {
	if u, ok := c.units[key]; ok {
		c.hits++
		return u, nil
	}

	k, err := c.rt.CreateKernel(program, kernel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %w", ErrKernelCompilation, program, kernel, err)
	}
	if k == nil {
		return nil, fmt.Errorf("%w: %s.%s: runtime returned no kernel", ErrKernelCompilation, program, kernel)
	}

	g, offset := ComputeDispatchGeometry(d)
	u := &ExecuteUnit{Kernel: k, Geometry: g, ArgOffset: offset}
	c.units[key] = u
	c.misses++
	Logger().Debug("matconv: kernel compiled", "key", key.String(), "program", program, "kernel", kernel)
	return u, nil
}

// Len returns the number of cached units.
func (c *unitCache) Len() int { return len(c.units) }

// Stats returns the number of cache hits and misses.
func (c *unitCache) Stats() (hits, misses uint64) { return c.hits, c.misses }

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (c *unitCache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0.0
	}
	return float64(c.hits) / float64(total)
}

func (c *unitCache) release() {
	for key, u := range c.units {
		u.Kernel.Release()
		delete(c.units, key)
	}
}
