package matconv

import "fmt"

// DefaultLocalSize is the work-group size every kernel is compiled with.
var DefaultLocalSize = [2]uint32{8, 8}

// geometryArgCount is the number of leading kernel arguments that carry
// the global work size.
const geometryArgCount = 2

// DispatchGeometry describes how a kernel is launched over a 2D grid.
type DispatchGeometry struct {
	// Global is the number of work items along x and y.
	Global [2]uint32

	// Local is the work-group size along x and y.
	Local [2]uint32
}

// Groups returns the number of work groups needed to cover Global.
func (g DispatchGeometry) Groups() [2]uint32 {
	var n [2]uint32
	for i := range n {
		if g.Local[i] == 0 {
			continue
		}
		n[i] = (g.Global[i] + g.Local[i] - 1) / g.Local[i]
	}
	return n
}

// ComputeDispatchGeometry returns the default geometry for a kernel that
// writes one footprint texel per work item of a tensor with the given
// dims, together with the index of the first kernel argument that follows
// the geometry arguments.
func ComputeDispatchGeometry(d Dims) (DispatchGeometry, int) {
	w, h := ImageFootprint(d)
	return DispatchGeometry{
		Global: [2]uint32{uint32(w), uint32(h)}, //nolint:gosec // footprint of validated dims
		Local:  DefaultLocalSize,
	}, geometryArgCount
}

// setGeometryArgs binds the global work size as the first two kernel
// arguments; kernels discard work items outside it. It returns the index
// of the next argument.
func setGeometryArgs(k Kernel, g DispatchGeometry) (int, error) {
	for i, v := range g.Global {
		if err := k.SetArg(i, int32(v)); err != nil { //nolint:gosec // grid sizes fit int32
			return 0, fmt.Errorf("%w: %s arg %d: %w", ErrBindFailure, k.Name(), i, err)
		}
	}
	return geometryArgCount, nil
}
