package matconv

import (
	"errors"
	"fmt"
	"strings"
)

// fakeBuffer is an in-memory Memory.
type fakeBuffer struct {
	data     []byte
	released bool
}

func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }
func (b *fakeBuffer) Release()     { b.released = true }

// fakeImage is an in-memory Image.
type fakeImage struct {
	fakeBuffer
	width, height int
}

func (i *fakeImage) Width() int  { return i.width }
func (i *fakeImage) Height() int { return i.height }

// fakeKernel records its arguments.
type fakeKernel struct {
	program, name string
	args          map[int]any
	setArgErr     error
	released      bool
}

func (k *fakeKernel) Program() string { return k.program }
func (k *fakeKernel) Name() string    { return k.name }
func (k *fakeKernel) Release()        { k.released = true }

func (k *fakeKernel) SetArg(index int, value any) error {
	if k.setArgErr != nil {
		return k.setArgErr
	}
	k.args[index] = value
	return nil
}

// fakeRuntime counts compilations and allocations.
type fakeRuntime struct {
	compiled   map[string]int
	kernels    []*fakeKernel
	buffers    []*fakeBuffer
	images     []*fakeImage
	compileErr error
	nilKernel  bool
	bufferErr  error
	imageErr   error
	setArgErr  error
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{compiled: make(map[string]int)}
}

func (r *fakeRuntime) CreateKernel(program, kernel string) (Kernel, error) {
	if r.compileErr != nil {
		return nil, r.compileErr
	}
	if r.nilKernel {
		return nil, nil
	}
	r.compiled[program+"."+kernel]++
	k := &fakeKernel{program: program, name: kernel, args: make(map[int]any), setArgErr: r.setArgErr}
	r.kernels = append(r.kernels, k)
	return k, nil
}

func (r *fakeRuntime) CreateBuffer(size uint64) (Memory, error) {
	if r.bufferErr != nil {
		return nil, r.bufferErr
	}
	b := &fakeBuffer{data: make([]byte, size)}
	r.buffers = append(r.buffers, b)
	return b, nil
}

func (r *fakeRuntime) CreateImage(width, height int) (Image, error) {
	if r.imageErr != nil {
		return nil, r.imageErr
	}
	img := &fakeImage{
		fakeBuffer: fakeBuffer{data: make([]byte, width*height*texelBytes)},
		width:      width,
		height:     height,
	}
	r.images = append(r.images, img)
	return img, nil
}

// compileCount returns the total number of kernel compilations.
func (r *fakeRuntime) compileCount() int {
	n := 0
	for _, c := range r.compiled {
		n += c
	}
	return n
}

// enqueueCall is one recorded kernel launch.
type enqueueCall struct {
	kernel        *fakeKernel
	global, local [2]uint32
	args          map[int]any
}

// fakeQueue records every call in order.
type fakeQueue struct {
	events     []string
	calls      []enqueueCall
	enqueueErr error
	finishErr  error
	mapErr     error
	unmapErr   error

	// onEnqueue simulates the kernel's device writes.
	onEnqueue func(k *fakeKernel)
}

func (q *fakeQueue) Enqueue(k Kernel, global, local [2]uint32) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	fk := k.(*fakeKernel)
	args := make(map[int]any, len(fk.args))
	for i, v := range fk.args {
		args[i] = v
	}
	q.events = append(q.events, "enqueue "+fk.name)
	q.calls = append(q.calls, enqueueCall{kernel: fk, global: global, local: local, args: args})
	if q.onEnqueue != nil {
		q.onEnqueue(fk)
	}
	return nil
}

func (q *fakeQueue) Finish() error {
	if q.finishErr != nil {
		return q.finishErr
	}
	q.events = append(q.events, "finish")
	return nil
}

func (q *fakeQueue) Map(m Memory, mode MapMode) ([]byte, error) {
	if q.mapErr != nil {
		return nil, q.mapErr
	}
	q.events = append(q.events, "map "+mode.String())
	switch b := m.(type) {
	case *fakeBuffer:
		return b.data, nil
	case *sizedBuffer:
		return b.data, nil
	default:
		return nil, fmt.Errorf("cannot map %T", m)
	}
}

func (q *fakeQueue) Unmap(Memory, []byte) error {
	if q.unmapErr != nil {
		return q.unmapErr
	}
	q.events = append(q.events, "unmap")
	return nil
}

func (q *fakeQueue) trace() string { return strings.Join(q.events, ", ") }

var errFake = errors.New("fake failure")

// mustHost builds a host Mat filled with a byte ramp.
func mustHost(t MatType, d Dims) *Mat {
	data := make([]byte, HostBytes(t, d))
	for i := range data {
		data[i] = byte(i)
	}
	m, err := NewHostMat(t, d, data)
	if err != nil {
		panic(fmt.Sprintf("NewHostMat(%s, %v): %v", t, d, err))
	}
	return m
}

// mustDevice allocates a device Mat on rt.
func mustDevice(rt Runtime, t MatType, d Dims) *Mat {
	m, err := AllocDeviceMat(rt, t, d)
	if err != nil {
		panic(fmt.Sprintf("AllocDeviceMat(%s, %v): %v", t, d, err))
	}
	return m
}
