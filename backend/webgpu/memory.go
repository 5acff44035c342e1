//go:build !nogpu

package webgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/matconv"
)

// buffer is a device storage buffer. The host copy (shadow) backs Map;
// it is allocated on first map and padded to the storage alignment.
type buffer struct {
	rt     *Runtime
	buf    hal.Buffer
	size   uint64
	padded uint64

	shadow  []byte
	mapped  bool
	mapMode matconv.MapMode
}

var _ matconv.Memory = (*buffer)(nil)

// Size returns the requested size in bytes.
func (b *buffer) Size() uint64 { return b.size }

// Release destroys the device buffer.
func (b *buffer) Release() {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if b.buf != nil && b.rt.device != nil {
		b.rt.device.DestroyBuffer(b.buf)
	}
	b.buf = nil
	b.shadow = nil
}

// binding returns the bind group resource covering the whole buffer.
func (b *buffer) binding() gputypes.BufferBinding {
	return gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: 0, Size: b.padded}
}

// image is a device image stored as a storage buffer of RGBA float32
// texels, row-major over width x height.
type image struct {
	*buffer
	width, height int
}

var _ matconv.Image = (*image)(nil)

func (i *image) Width() int  { return i.width }
func (i *image) Height() int { return i.height }

// resolveMemory returns the device buffer behind a matconv.Memory created
// by rt.
func (rt *Runtime) resolveMemory(m matconv.Memory) (*buffer, error) {
	var b *buffer
	switch v := m.(type) {
	case *buffer:
		b = v
	case *image:
		b = v.buffer
	default:
		return nil, ErrForeignMemory
	}
	if b.rt != rt {
		return nil, ErrForeignMemory
	}
	if b.buf == nil {
		return nil, ErrClosed
	}
	return b, nil
}
