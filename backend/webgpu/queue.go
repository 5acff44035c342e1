//go:build !nogpu

package webgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/matconv"
)

// submission is one in-flight command buffer with the resources it uses.
type submission struct {
	label   string
	cmdBuf  hal.CommandBuffer
	fence   hal.Fence
	uniform hal.Buffer
	group   hal.BindGroup
}

// Queue implements matconv.Queue. Every Enqueue is submitted immediately
// with its own fence; Finish waits for all of them and frees their
// resources. Map drains the queue first, so mapped bytes reflect every
// kernel enqueued before it.
type Queue struct {
	rt      *Runtime
	pending []submission
}

var _ matconv.Queue = (*Queue)(nil)

// Enqueue records and submits one compute dispatch of k over global.
func (q *Queue) Enqueue(k matconv.Kernel, global, local [2]uint32) error {
	ck, ok := k.(*computeKernel)
	if !ok || ck.rt != q.rt {
		return fmt.Errorf("webgpu: kernel %T not created by this runtime", k)
	}
	groups, err := dispatchGroups(global, local)
	if err != nil {
		return err
	}
	params, err := packParams(ck.sig, ck.args)
	if err != nil {
		return err
	}
	mems, err := ck.memoryArgs()
	if err != nil {
		return err
	}

	rt := q.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.device == nil {
		return ErrClosed
	}

	s := submission{label: ck.sig.Name}
	s.uniform, err = rt.device.CreateBuffer(&hal.BufferDescriptor{
		Label: ck.sig.Name + "_params",
		Size:  uint64(len(params)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create params buffer: %w", err)
	}
	rt.queue.WriteBuffer(s.uniform, 0, params)

	entries := make([]gputypes.BindGroupEntry, 0, len(mems)+1)
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: s.uniform.NativeHandle(), Offset: 0, Size: uint64(len(params))},
	})
	for i, m := range mems {
		entries = append(entries, gputypes.BindGroupEntry{Binding: uint32(i + 1), Resource: m.binding()}) //nolint:gosec // few bindings
	}
	s.group, err = rt.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   ck.sig.Name + "_bind_group",
		Layout:  ck.pipe.bindLayout,
		Entries: entries,
	})
	if err != nil {
		rt.release(s)
		return fmt.Errorf("webgpu: create bind group: %w", err)
	}

	encoder, err := rt.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: ck.sig.Name + "_encoder"})
	if err != nil {
		rt.release(s)
		return fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(ck.sig.Name); err != nil {
		rt.release(s)
		return fmt.Errorf("webgpu: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: ck.sig.Name + "_pass"})
	pass.SetPipeline(ck.pipe.compute)
	pass.SetBindGroup(0, s.group, nil)
	pass.Dispatch(groups[0], groups[1], 1)
	pass.End()
	s.cmdBuf, err = encoder.EndEncoding()
	if err != nil {
		rt.release(s)
		return fmt.Errorf("webgpu: end encoding: %w", err)
	}

	if err := rt.submit(&s); err != nil {
		rt.release(s)
		return err
	}
	q.pending = append(q.pending, s)
	return nil
}

// Finish waits for every pending submission and frees its resources.
func (q *Queue) Finish() error {
	rt := q.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return q.drain()
}

// drain waits for pending work. rt.mu must be held.
func (q *Queue) drain() error {
	var errs []error
	for _, s := range q.pending {
		if rt := q.rt; rt.device != nil {
			if err := rt.wait(s); err != nil {
				errs = append(errs, err)
			}
			rt.release(s)
		}
	}
	q.pending = q.pending[:0]
	return errors.Join(errs...)
}

// Map drains the queue and returns a host copy of m. For MapRead the copy
// holds the current device contents; for MapWrite the bytes are written
// back to the device by Unmap.
func (q *Queue) Map(m matconv.Memory, mode matconv.MapMode) ([]byte, error) {
	rt := q.rt
	b, err := rt.resolveMemory(m)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.device == nil {
		return nil, ErrClosed
	}
	if err := q.drain(); err != nil {
		return nil, err
	}
	if b.shadow == nil {
		b.shadow = make([]byte, b.padded)
	}
	if mode == matconv.MapRead {
		if err := rt.readBack(b); err != nil {
			return nil, err
		}
	}
	b.mapped = true
	b.mapMode = mode
	return b.shadow[:b.size], nil
}

// Unmap ends a mapping. Bytes of a MapWrite mapping are uploaded to the
// device buffer before any later submission runs.
func (q *Queue) Unmap(m matconv.Memory, _ []byte) error {
	rt := q.rt
	b, err := rt.resolveMemory(m)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !b.mapped {
		return ErrNotMapped
	}
	b.mapped = false
	if b.mapMode == matconv.MapWrite {
		if rt.queue == nil {
			return ErrClosed
		}
		rt.queue.WriteBuffer(b.buf, 0, b.shadow)
	}
	return nil
}

// submit submits s with a fresh fence. rt.mu must be held.
func (rt *Runtime) submit(s *submission) error {
	fence, err := rt.device.CreateFence()
	if err != nil {
		return fmt.Errorf("webgpu: create fence: %w", err)
	}
	s.fence = fence
	if err := rt.queue.Submit([]hal.CommandBuffer{s.cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("webgpu: submit %s: %w", s.label, err)
	}
	return nil
}

// wait blocks until s has executed. rt.mu must be held.
func (rt *Runtime) wait(s submission) error {
	ok, err := rt.device.Wait(s.fence, 1, rt.timeout)
	if err != nil {
		return fmt.Errorf("webgpu: wait for %s: %w", s.label, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s after %v", ErrTimeout, s.label, rt.timeout)
	}
	return nil
}

// release frees the resources of s. rt.mu must be held.
func (rt *Runtime) release(s submission) {
	if s.cmdBuf != nil {
		rt.device.FreeCommandBuffer(s.cmdBuf)
	}
	if s.fence != nil {
		rt.device.DestroyFence(s.fence)
	}
	if s.group != nil {
		rt.device.DestroyBindGroup(s.group)
	}
	if s.uniform != nil {
		rt.device.DestroyBuffer(s.uniform)
	}
}

// readBack copies the device contents of b into its shadow through a
// MapRead staging buffer. rt.mu must be held.
func (rt *Runtime) readBack(b *buffer) error {
	staging, err := rt.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "matconv_readback",
		Size:  b.padded,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create readback buffer: %w", err)
	}
	defer rt.device.DestroyBuffer(staging)

	encoder, err := rt.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "matconv_readback_encoder"})
	if err != nil {
		return fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("matconv_readback"); err != nil {
		return fmt.Errorf("webgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: b.padded},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("webgpu: end encoding: %w", err)
	}

	s := submission{label: "readback", cmdBuf: cmdBuf}
	defer func() { rt.release(s) }()
	if err := rt.submit(&s); err != nil {
		return err
	}
	if err := rt.wait(s); err != nil {
		return err
	}
	if err := rt.queue.ReadBuffer(staging, 0, b.shadow); err != nil {
		return fmt.Errorf("webgpu: read back: %w", err)
	}
	return nil
}
