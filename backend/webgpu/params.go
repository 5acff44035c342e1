package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/matconv"
	"github.com/gogpu/matconv/kernels"
)

// workgroupSize is the @workgroup_size every kernel in package kernels declares.
var workgroupSize = [2]uint32{8, 8}

const (
	// uniformAlign is the size granularity of the parameter uniform block.
	uniformAlign = 16

	// storageAlign is the size granularity of storage buffers.
	storageAlign = 4
)

func alignUp(n, a uint64) uint64 {
	return (n + a - 1) / a * a
}

// checkArg reports whether value may be bound to argument index of sig.
// Memory arguments only need to be matconv.Memory here; the runtime
// resolves them to its own buffers.
func checkArg(sig kernels.Signature, index int, value any) error {
	if index < 0 || index >= len(sig.Args) {
		return fmt.Errorf("%w: %s has %d args, got index %d", ErrArgIndex, sig.Name, len(sig.Args), index)
	}
	a := sig.Args[index]
	var ok bool
	switch a.Kind {
	case kernels.ArgInt32:
		_, ok = value.(int32)
	case kernels.ArgFloat32:
		_, ok = value.(float32)
	case kernels.ArgReadMemory, kernels.ArgWriteMemory:
		_, ok = value.(matconv.Memory)
	}
	if !ok {
		return fmt.Errorf("%w: %s arg %d (%s) wants %s, got %T", ErrArgType, sig.Name, index, a.Name, a.Kind, value)
	}
	return nil
}

// packParams lays the scalar arguments out in signature order as
// little-endian 32-bit words, padded to a whole uniform block. It matches
// the Params struct of every kernel source.
func packParams(sig kernels.Signature, args []any) ([]byte, error) {
	if len(args) != len(sig.Args) {
		return nil, fmt.Errorf("%w: %s has %d args, got %d", ErrArgsIncomplete, sig.Name, len(sig.Args), len(args))
	}
	size := alignUp(uint64(sig.ScalarCount())*4, uniformAlign) //nolint:gosec // small
	if size == 0 {
		size = uniformAlign
	}
	out := make([]byte, size)
	off := 0
	for i, a := range sig.Args {
		switch a.Kind {
		case kernels.ArgInt32:
			v, ok := args[i].(int32)
			if !ok {
				return nil, fmt.Errorf("%w: %s arg %d (%s) is %T", ErrArgType, sig.Name, i, a.Name, args[i])
			}
			binary.LittleEndian.PutUint32(out[off:], uint32(v)) //nolint:gosec // bit pattern
			off += 4
		case kernels.ArgFloat32:
			v, ok := args[i].(float32)
			if !ok {
				return nil, fmt.Errorf("%w: %s arg %d (%s) is %T", ErrArgType, sig.Name, i, a.Name, args[i])
			}
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
			off += 4
		}
	}
	return out, nil
}

// layoutEntries returns the bind group layout of sig: the parameter
// uniform at binding 0, then one storage buffer per memory argument.
func layoutEntries(sig kernels.Signature) []gputypes.BindGroupLayoutEntry {
	entries := []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
	}
	binding := uint32(1)
	for _, a := range sig.Args {
		var typ gputypes.BufferBindingType
		switch a.Kind {
		case kernels.ArgReadMemory:
			typ = gputypes.BufferBindingTypeReadOnlyStorage
		case kernels.ArgWriteMemory:
			typ = gputypes.BufferBindingTypeStorage
		default:
			continue
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: typ},
		})
		binding++
	}
	return entries
}

// dispatchGroups returns the number of work groups covering global.
func dispatchGroups(global, local [2]uint32) ([2]uint32, error) {
	if local != workgroupSize && local != [2]uint32{} {
		return [2]uint32{}, fmt.Errorf("%w: %v, kernels use %v", ErrWorkgroupSize, local, workgroupSize)
	}
	return [2]uint32{
		(global[0] + workgroupSize[0] - 1) / workgroupSize[0],
		(global[1] + workgroupSize[1] - 1) / workgroupSize[1],
	}, nil
}

// compileToSPIRV compiles WGSL source with naga and returns SPIR-V words.
func compileToSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	return spirvWords(spirvBytes)
}

// spirvWords converts little-endian SPIR-V bytes to 32-bit words.
func spirvWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("spir-v length %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}
