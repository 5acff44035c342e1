//go:build !nogpu

package webgpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/matconv"
	"github.com/gogpu/matconv/kernels"
)

// pipeline is the compiled form of one kernel, shared by every
// computeKernel created for it.
type pipeline struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	compute    hal.ComputePipeline
}

func (p *pipeline) destroy(device hal.Device) {
	if p.compute != nil {
		device.DestroyComputePipeline(p.compute)
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
	}
}

// pipelineFor returns the cached pipeline of sig, building it on a miss.
// rt.mu must be held.
func (rt *Runtime) pipelineFor(sig kernels.Signature) (*pipeline, error) {
	key := sig.Program + "." + sig.Name
	if p, ok := rt.pipelines[key]; ok {
		rt.hits++
		return p, nil
	}

	p, err := rt.buildPipeline(sig)
	if err != nil {
		return nil, fmt.Errorf("webgpu: build %s: %w", key, err)
	}
	rt.pipelines[key] = p
	rt.misses++
	matconv.Logger().Debug("webgpu: pipeline built", "kernel", key)
	return p, nil
}

func (rt *Runtime) buildPipeline(sig kernels.Signature) (*pipeline, error) {
	spirv, err := compileToSPIRV(sig.Source)
	if err != nil {
		return nil, err
	}

	p := &pipeline{}
	p.shader, err = rt.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  sig.Name,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	p.bindLayout, err = rt.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   sig.Name + "_bind_layout",
		Entries: layoutEntries(sig),
	})
	if err != nil {
		p.destroy(rt.device)
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	p.pipeLayout, err = rt.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: sig.Name + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.destroy(rt.device)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	p.compute, err = rt.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: sig.Name + "_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.shader, EntryPoint: sig.Name},
	})
	if err != nil {
		p.destroy(rt.device)
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}
	return p, nil
}

// computeKernel is a matconv.Kernel with its own argument slots over a
// shared pipeline.
type computeKernel struct {
	rt   *Runtime
	sig  kernels.Signature
	pipe *pipeline
	args []any
}

var _ matconv.Kernel = (*computeKernel)(nil)

func (k *computeKernel) Program() string { return k.sig.Program }
func (k *computeKernel) Name() string    { return k.sig.Name }

// SetArg checks value against the kernel signature and stores it until
// the next Enqueue.
func (k *computeKernel) SetArg(index int, value any) error {
	if err := checkArg(k.sig, index, value); err != nil {
		return err
	}
	if m, ok := value.(matconv.Memory); ok {
		if _, err := k.rt.resolveMemory(m); err != nil {
			return fmt.Errorf("%s arg %d: %w", k.sig.Name, index, err)
		}
	}
	k.args[index] = value
	return nil
}

// Release drops the argument references. The pipeline stays cached in the
// runtime until Close.
func (k *computeKernel) Release() {
	clear(k.args)
}

// memoryArgs returns the bound memory arguments in binding order.
func (k *computeKernel) memoryArgs() ([]*buffer, error) {
	var out []*buffer
	for i, a := range k.sig.Args {
		if !a.Kind.IsMemory() {
			continue
		}
		m, ok := k.args[i].(matconv.Memory)
		if !ok {
			return nil, fmt.Errorf("%w: %s arg %d (%s)", ErrArgsIncomplete, k.sig.Name, i, a.Name)
		}
		b, err := k.rt.resolveMemory(m)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
