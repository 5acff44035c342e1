package matconv

import (
	"fmt"

	"github.com/gogpu/matconv/kernels"
)

// copyKernel returns the program and kernel implementing a Copy of layout t
// in direction dir.
func copyKernel(t MatType, dir direction) (program, kernel string, err error) {
	if dir == dirToHost {
		program = kernels.ProgramConvertToMat
		switch t {
		case N8UC4:
			kernel = kernels.CopyToN8UC4
		case N8UC3:
			kernel = kernels.CopyToN8UC3
		case NGray:
			kernel = kernels.CopyToNGray
		case NCHWFloat:
			kernel = kernels.CopyToNCHWFloat
		}
	} else {
		program = kernels.ProgramConvertFromMat
		switch t {
		case N8UC4:
			kernel = kernels.CopyFromN8UC4
		case N8UC3:
			kernel = kernels.CopyFromN8UC3
		case NGray:
			kernel = kernels.CopyFromNGray
		case NCHWFloat:
			kernel = kernels.CopyFromNCHWFloat
		}
	}
	if kernel == "" {
		return "", "", fmt.Errorf("%w: no copy kernel for %s", ErrUnsupportedConversion, t)
	}
	return program, kernel, nil
}

// argSetter binds consecutive kernel arguments and keeps the first error.
type argSetter struct {
	k   Kernel
	idx int
	err error
}

func (a *argSetter) set(v any) {
	if a.err != nil {
		return
	}
	if err := a.k.SetArg(a.idx, v); err != nil {
		a.err = fmt.Errorf("%w: %s arg %d: %w", ErrBindFailure, a.k.Name(), a.idx, err)
		return
	}
	a.idx++
}

func (a *argSetter) i32(v int) {
	a.set(int32(v)) //nolint:gosec // validated dims
}

// bindCopyArgs binds the Copy arguments after the geometry: the device
// image, the staging buffer, then dst height and width. NCHWFloat kernels
// also take the dst channel count.
func bindCopyArgs(k Kernel, offset int, src, dst *Mat, dir direction, staging Memory) error {
	img := dst.Image()
	if dir == dirToHost {
		img = src.Image()
	}
	a := argSetter{k: k, idx: offset}
	a.set(img)
	a.set(staging)
	a.i32(dst.Height())
	a.i32(dst.Width())
	if dst.Type() == NCHWFloat {
		a.i32(dst.Channel())
	}
	return a.err
}

// bindResizeArgs binds src and dst images, the float32 scales src/dst along
// x and y, the src size and the dst size.
func bindResizeArgs(k Kernel, offset int, src, dst *Mat) error {
	wScale := float32(src.Width()) / float32(dst.Width())
	hScale := float32(src.Height()) / float32(dst.Height())

	a := argSetter{k: k, idx: offset}
	a.set(src.Image())
	a.set(dst.Image())
	a.set(wScale)
	a.set(hScale)
	a.i32(src.Width())
	a.i32(src.Height())
	a.i32(dst.Width())
	a.i32(dst.Height())
	return a.err
}

// bindCropArgs binds src and dst images, the crop rectangle and the src
// size.
func bindCropArgs(k Kernel, offset int, src, dst *Mat, p CropParam) error {
	a := argSetter{k: k, idx: offset}
	a.set(src.Image())
	a.set(dst.Image())
	a.i32(p.TopLeftX)
	a.i32(p.TopLeftY)
	a.i32(p.Width)
	a.i32(p.Height)
	a.i32(src.Width())
	a.i32(src.Height())
	return a.err
}
