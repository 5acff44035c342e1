// Package kernels holds the compute kernels used by matconv together with
// their argument signatures.
//
// Every kernel takes the global work size as its first two int32
// arguments, followed by the operation-specific arguments in the order
// listed in its Signature. Backends lay scalar arguments out in one uniform
// block (binding 0) in signature order and bind memory arguments as
// storage buffers at bindings 1, 2, ... in signature order; the WGSL
// sources follow that convention.
package kernels

import (
	_ "embed"
	"fmt"
	"sort"
)

// Program names.
const (
	ProgramConvertFromMat = "convert_from_mat"
	ProgramConvertToMat   = "convert_to_mat"
	ProgramResize         = "resize"
	ProgramCopy           = "copy"
)

// Kernel names.
const (
	CopyFromN8UC4     = "CopyFromN8UC4"
	CopyFromN8UC3     = "CopyFromN8UC3"
	CopyFromNGray     = "CopyFromNGray"
	CopyFromNCHWFloat = "CopyFromNCHWFloat"
	CopyToN8UC4       = "CopyToN8UC4"
	CopyToN8UC3       = "CopyToN8UC3"
	CopyToNGray       = "CopyToNGray"
	CopyToNCHWFloat   = "CopyToNCHWFloat"
	Bilinear          = "Bilinear"
	Crop              = "Crop"
)

// ArgKind is the type of a kernel argument.
type ArgKind uint8

const (
	// ArgInt32 is a 32-bit signed scalar.
	ArgInt32 ArgKind = iota + 1

	// ArgFloat32 is a 32-bit float scalar.
	ArgFloat32

	// ArgReadMemory is a buffer or image the kernel only reads.
	ArgReadMemory

	// ArgWriteMemory is a buffer or image the kernel writes.
	ArgWriteMemory
)

// String returns the argument kind name.
func (k ArgKind) String() string {
	switch k {
	case ArgInt32:
		return "i32"
	case ArgFloat32:
		return "f32"
	case ArgReadMemory:
		return "read"
	case ArgWriteMemory:
		return "write"
	default:
		return fmt.Sprintf("ArgKind(%d)", int(k))
	}
}

// IsMemory reports whether the argument is a buffer or image.
func (k ArgKind) IsMemory() bool {
	return k == ArgReadMemory || k == ArgWriteMemory
}

// Arg is one kernel argument.
type Arg struct {
	Name string
	Kind ArgKind
}

// Signature describes one kernel.
type Signature struct {
	Program string
	Name    string
	Args    []Arg

	// Source is the WGSL module defining the entry point Name.
	Source string
}

// ScalarCount returns the number of scalar arguments.
func (s Signature) ScalarCount() int {
	n := 0
	for _, a := range s.Args {
		if !a.Kind.IsMemory() {
			n++
		}
	}
	return n
}

// MemoryCount returns the number of memory arguments.
func (s Signature) MemoryCount() int {
	return len(s.Args) - s.ScalarCount()
}

//go:embed shaders/copy_from_n8uc4.wgsl
var copyFromN8UC4Source string

//go:embed shaders/copy_from_n8uc3.wgsl
var copyFromN8UC3Source string

//go:embed shaders/copy_from_ngray.wgsl
var copyFromNGraySource string

//go:embed shaders/copy_from_nchw_float.wgsl
var copyFromNCHWFloatSource string

//go:embed shaders/copy_to_n8uc4.wgsl
var copyToN8UC4Source string

//go:embed shaders/copy_to_n8uc3.wgsl
var copyToN8UC3Source string

//go:embed shaders/copy_to_ngray.wgsl
var copyToNGraySource string

//go:embed shaders/copy_to_nchw_float.wgsl
var copyToNCHWFloatSource string

//go:embed shaders/bilinear.wgsl
var bilinearSource string

//go:embed shaders/crop.wgsl
var cropSource string

func i32(name string) Arg   { return Arg{Name: name, Kind: ArgInt32} }
func f32(name string) Arg   { return Arg{Name: name, Kind: ArgFloat32} }
func read(name string) Arg  { return Arg{Name: name, Kind: ArgReadMemory} }
func write(name string) Arg { return Arg{Name: name, Kind: ArgWriteMemory} }

func geometry(args ...Arg) []Arg {
	return append([]Arg{i32("global_x"), i32("global_y")}, args...)
}

type sigKey struct{ program, name string }

var registry = map[sigKey]Signature{}

func register(s Signature) {
	registry[sigKey{s.Program, s.Name}] = s
}

func init() {
	fromArgs := geometry(write("dst"), read("staging"), i32("height"), i32("width"))
	toArgs := geometry(read("src"), write("staging"), i32("height"), i32("width"))

	register(Signature{Program: ProgramConvertFromMat, Name: CopyFromN8UC4, Args: fromArgs, Source: copyFromN8UC4Source})
	register(Signature{Program: ProgramConvertFromMat, Name: CopyFromN8UC3, Args: fromArgs, Source: copyFromN8UC3Source})
	register(Signature{Program: ProgramConvertFromMat, Name: CopyFromNGray, Args: fromArgs, Source: copyFromNGraySource})
	register(Signature{
		Program: ProgramConvertFromMat, Name: CopyFromNCHWFloat,
		Args:   geometry(write("dst"), read("staging"), i32("height"), i32("width"), i32("channel")),
		Source: copyFromNCHWFloatSource,
	})

	register(Signature{Program: ProgramConvertToMat, Name: CopyToN8UC4, Args: toArgs, Source: copyToN8UC4Source})
	register(Signature{Program: ProgramConvertToMat, Name: CopyToN8UC3, Args: toArgs, Source: copyToN8UC3Source})
	register(Signature{Program: ProgramConvertToMat, Name: CopyToNGray, Args: toArgs, Source: copyToNGraySource})
	register(Signature{
		Program: ProgramConvertToMat, Name: CopyToNCHWFloat,
		Args:   geometry(read("src"), write("staging"), i32("height"), i32("width"), i32("channel")),
		Source: copyToNCHWFloatSource,
	})

	register(Signature{
		Program: ProgramResize, Name: Bilinear,
		Args: geometry(read("src"), write("dst"),
			f32("w_scale"), f32("h_scale"),
			i32("src_w"), i32("src_h"),
			i32("dst_w"), i32("dst_h")),
		Source: bilinearSource,
	})

	register(Signature{
		Program: ProgramCopy, Name: Crop,
		Args: geometry(read("src"), write("dst"),
			i32("start_x"), i32("start_y"),
			i32("width"), i32("height"),
			i32("src_w"), i32("src_h")),
		Source: cropSource,
	})
}

// Lookup returns the kernel named name in program.
func Lookup(program, name string) (Signature, bool) {
	s, ok := registry[sigKey{program, name}]
	return s, ok
}

// All returns every registered kernel, sorted by program and name.
func All() []Signature {
	out := make([]Signature, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Program != out[j].Program {
			return out[i].Program < out[j].Program
		}
		return out[i].Name < out[j].Name
	})
	return out
}
