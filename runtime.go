package matconv

// Memory is a device-visible linear memory object owned by a Runtime.
type Memory interface {
	// Size returns the capacity in bytes.
	Size() uint64

	// Release frees the device memory. The object must not be used afterwards.
	Release()
}

// Image is a device-resident 2D image. Texels are four float32 channels,
// stored row-major over the image footprint (see ImageFootprint).
type Image interface {
	Memory

	// Width returns the image width in texels.
	Width() int

	// Height returns the image height in texels.
	Height() int
}

// Kernel is a compiled compute kernel with positional arguments.
//
// Arguments are set by index in the order the kernel source declares them.
// Supported values are Memory (including Image), int32 and float32.
type Kernel interface {
	// Program returns the name of the program the kernel was built from.
	Program() string

	// Name returns the kernel entry point name.
	Name() string

	// SetArg binds value to the argument at index.
	SetArg(index int, value any) error

	// Release frees the compiled kernel.
	Release()
}

// MapMode selects the direction of a buffer mapping.
type MapMode uint8

const (
	// MapRead maps device memory for host reads.
	MapRead MapMode = iota + 1

	// MapWrite maps device memory for host writes.
	MapWrite
)

// String returns the map mode name.
func (m MapMode) String() string {
	switch m {
	case MapRead:
		return "read"
	case MapWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Queue is a single in-order compute queue.
//
// Map blocks until every command enqueued before it has completed, so a
// Map following Enqueue observes the kernel's writes without an explicit
// Finish.
type Queue interface {
	// Enqueue launches k over the global grid using the given work-group size.
	Enqueue(k Kernel, global, local [2]uint32) error

	// Finish blocks until all enqueued work has completed.
	Finish() error

	// Map makes the whole of m host-visible and returns the mapped bytes.
	Map(m Memory, mode MapMode) ([]byte, error)

	// Unmap ends a mapping returned by Map. For MapWrite mappings the
	// written bytes become visible to later device work.
	Unmap(m Memory, mapped []byte) error
}

// Runtime owns the device context and creates device objects.
type Runtime interface {
	// CreateKernel compiles (or loads) kernel from program.
	CreateKernel(program, kernel string) (Kernel, error)

	// CreateBuffer allocates a host-mappable device buffer of size bytes.
	CreateBuffer(size uint64) (Memory, error)

	// CreateImage allocates a device image of width x height texels.
	CreateImage(width, height int) (Image, error)
}
