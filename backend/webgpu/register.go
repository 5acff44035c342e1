//go:build !nogpu

package webgpu

import "github.com/gogpu/matconv/backend"

func init() {
	backend.Register(backend.WebGPU, func() (backend.Device, error) {
		rt, err := New()
		if err != nil {
			return nil, err
		}
		return rt, nil
	})
}

var _ backend.Device = (*Runtime)(nil)
