package matconv

import (
	"fmt"
)

// DeviceType tags where a Mat's data lives.
type DeviceType uint8

const (
	// DeviceHost marks a Mat backed by host memory.
	DeviceHost DeviceType = iota + 1

	// DeviceGPU marks a Mat backed by a device image.
	DeviceGPU
)

// String returns the device name.
func (d DeviceType) String() string {
	switch d {
	case DeviceHost:
		return "host"
	case DeviceGPU:
		return "gpu"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(d))
	}
}

// MatType is the pixel or tensor layout of a Mat.
type MatType uint8

const (
	// N8UC4 is interleaved 4-channel uint8 (RGBA/BGRA).
	N8UC4 MatType = iota + 1

	// N8UC3 is interleaved 3-channel uint8 (RGB/BGR).
	N8UC3

	// NGray is single-channel uint8.
	NGray

	// NCHWFloat is planar float32 in batch, channel, height, width order.
	NCHWFloat
)

// String returns the layout name.
func (t MatType) String() string {
	switch t {
	case N8UC4:
		return "N8UC4"
	case N8UC3:
		return "N8UC3"
	case NGray:
		return "NGray"
	case NCHWFloat:
		return "NCHWFloat"
	default:
		return fmt.Sprintf("MatType(%d)", int(t))
	}
}

// ElementSize returns the size in bytes of one element.
func (t MatType) ElementSize() int {
	if t == NCHWFloat {
		return 4
	}
	return 1
}

func (t MatType) valid() bool {
	return t >= N8UC4 && t <= NCHWFloat
}

// Dims holds the four tensor dimensions of a Mat.
type Dims struct {
	Batch   int
	Channel int
	Height  int
	Width   int
}

// Count returns the number of elements.
func (d Dims) Count() int {
	return d.Batch * d.Channel * d.Height * d.Width
}

// Valid reports whether every dimension is positive.
func (d Dims) Valid() bool {
	return d.Batch > 0 && d.Channel > 0 && d.Height > 0 && d.Width > 0
}

func (d Dims) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", d.Batch, d.Channel, d.Height, d.Width)
}

func upDiv(x, y int) int {
	return (x + y - 1) / y
}

// ImageFootprint returns the size of the 2D image that stores a tensor of
// the given dims. Channels are packed in groups of four along the
// horizontal axis and batches are stacked vertically.
func ImageFootprint(d Dims) (width, height int) {
	return upDiv(d.Channel, 4) * d.Width, d.Batch * d.Height
}

// texelBytes is the size of one RGBA float32 texel.
const texelBytes = 4 * 4

// StagingBytes returns the staging capacity needed for a tensor of the
// given dims: one float32 RGBA texel per footprint pixel, whatever the
// element type of the Mat.
func StagingBytes(d Dims) uint64 {
	w, h := ImageFootprint(d)
	return uint64(w) * uint64(h) * texelBytes
}

// HostBytes returns the number of host bytes a Mat of type t and dims d
// occupies. N8UC4 always carries exactly four interleaved channels per
// pixel, so its channel count is taken as 4 whatever d.Channel says.
func HostBytes(t MatType, d Dims) int {
	if t == N8UC4 {
		d.Channel = 4
	}
	return d.Count() * t.ElementSize()
}

// Mat is a tensor or image that lives either in host memory or in a
// device image. Mats are built with NewHostMat or NewDeviceMat; the
// residency, layout and dims never change afterwards.
type Mat struct {
	device  DeviceType
	matType MatType
	dims    Dims
	data    []byte
	image   Image
}

// NewHostMat wraps host bytes. data must hold at least HostBytes(t, dims)
// bytes and is used in place, not copied.
func NewHostMat(t MatType, dims Dims, data []byte) (*Mat, error) {
	if err := checkLayout(t, dims); err != nil {
		return nil, err
	}
	if need := HostBytes(t, dims); len(data) < need {
		return nil, fmt.Errorf("%w: host data has %d bytes, %s %v needs %d",
			ErrInvalidParameter, len(data), t, dims, need)
	}
	return &Mat{device: DeviceHost, matType: t, dims: dims, data: data}, nil
}

// NewDeviceMat wraps a device image. The image must cover the footprint
// of dims.
func NewDeviceMat(t MatType, dims Dims, img Image) (*Mat, error) {
	if err := checkLayout(t, dims); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("%w: nil device image", ErrNullParameter)
	}
	w, h := ImageFootprint(dims)
	if img.Width() < w || img.Height() < h {
		return nil, fmt.Errorf("%w: image %dx%d smaller than footprint %dx%d of %v",
			ErrInvalidParameter, img.Width(), img.Height(), w, h, dims)
	}
	return &Mat{device: DeviceGPU, matType: t, dims: dims, image: img}, nil
}

// AllocDeviceMat allocates a device image sized for dims and wraps it.
// The caller owns the image and releases it with Mat.Release.
func AllocDeviceMat(rt Runtime, t MatType, dims Dims) (*Mat, error) {
	if err := checkLayout(t, dims); err != nil {
		return nil, err
	}
	w, h := ImageFootprint(dims)
	img, err := rt.CreateImage(w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: image %dx%d: %w", ErrAllocationFailure, w, h, err)
	}
	return NewDeviceMat(t, dims, img)
}

func checkLayout(t MatType, dims Dims) error {
	if !t.valid() {
		return fmt.Errorf("%w: unknown mat type %s", ErrUnsupportedConversion, t)
	}
	if !dims.Valid() {
		return fmt.Errorf("%w: dims %v", ErrInvalidParameter, dims)
	}
	// Packed u8 layouts keep one pixel per texel.
	switch {
	case t == N8UC4 && dims.Channel > 4,
		t == N8UC3 && dims.Channel != 3,
		t == NGray && dims.Channel != 1:
		return fmt.Errorf("%w: %s cannot carry %d channels", ErrInvalidParameter, t, dims.Channel)
	}
	return nil
}

// Device returns where the Mat's data lives.
func (m *Mat) Device() DeviceType { return m.device }

// Type returns the layout of the Mat.
func (m *Mat) Type() MatType { return m.matType }

// Dims returns the Mat's dimensions.
func (m *Mat) Dims() Dims { return m.dims }

// Batch returns the batch dimension.
func (m *Mat) Batch() int { return m.dims.Batch }

// Channel returns the channel dimension.
func (m *Mat) Channel() int { return m.dims.Channel }

// Height returns the height dimension.
func (m *Mat) Height() int { return m.dims.Height }

// Width returns the width dimension.
func (m *Mat) Width() int { return m.dims.Width }

// Data returns the host bytes, or nil for a device Mat.
func (m *Mat) Data() []byte { return m.data }

// Image returns the device image, or nil for a host Mat.
func (m *Mat) Image() Image { return m.image }

// OnDevice reports whether the Mat is device-resident.
func (m *Mat) OnDevice() bool { return m.device == DeviceGPU }

// Release frees the device image of a device Mat. It is a no-op for host Mats.
func (m *Mat) Release() {
	if m.image != nil {
		m.image.Release()
		m.image = nil
	}
}
