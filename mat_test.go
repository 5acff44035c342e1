package matconv

import (
	"errors"
	"testing"
)

func TestImageFootprint(t *testing.T) {
	tests := []struct {
		d         Dims
		wantW     int
		wantH     int
		wantBytes uint64
	}{
		{Dims{1, 1, 1, 1}, 1, 1, 16},
		{Dims{1, 4, 10, 20}, 20, 10, 20 * 10 * 16},
		{Dims{1, 5, 10, 20}, 40, 10, 40 * 10 * 16},
		{Dims{3, 8, 2, 7}, 14, 6, 14 * 6 * 16},
		{Dims{2, 3, 100, 200}, 200, 200, 200 * 200 * 16},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			w, h := ImageFootprint(tt.d)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ImageFootprint = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
			if got := StagingBytes(tt.d); got != tt.wantBytes {
				t.Errorf("StagingBytes = %d, want %d", got, tt.wantBytes)
			}
		})
	}
}

// Every channel block and batch must fit: w' = ceil(c/4)*w, h' = n*h.
func TestImageFootprintProperty(t *testing.T) {
	for n := 1; n <= 3; n++ {
		for c := 1; c <= 9; c++ {
			for _, w := range []int{1, 3, 8} {
				d := Dims{Batch: n, Channel: c, Height: 5, Width: w}
				fw, fh := ImageFootprint(d)
				if fw != (c+3)/4*w || fh != n*5 {
					t.Fatalf("ImageFootprint(%v) = %dx%d", d, fw, fh)
				}
				if uint64(HostBytes(NCHWFloat, d)) > StagingBytes(d) {
					t.Fatalf("NCHWFloat %v does not fit its staging size", d)
				}
			}
		}
	}
}

func TestHostBytes(t *testing.T) {
	tests := []struct {
		name string
		t    MatType
		d    Dims
		want int
	}{
		{"rgba", N8UC4, Dims{1, 4, 2, 3}, 24},
		{"rgba declared 3 channels", N8UC4, Dims{1, 3, 2, 3}, 24},
		{"rgb", N8UC3, Dims{1, 3, 2, 3}, 18},
		{"gray", NGray, Dims{2, 1, 2, 3}, 12},
		{"float", NCHWFloat, Dims{1, 3, 2, 3}, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HostBytes(tt.t, tt.d); got != tt.want {
				t.Errorf("HostBytes(%s, %v) = %d, want %d", tt.t, tt.d, got, tt.want)
			}
		})
	}
}

func TestNewHostMat(t *testing.T) {
	d := Dims{Batch: 1, Channel: 4, Height: 2, Width: 2}

	m, err := NewHostMat(N8UC4, d, make([]byte, 16))
	if err != nil {
		t.Fatalf("NewHostMat: %v", err)
	}
	if m.Device() != DeviceHost || m.OnDevice() || m.Image() != nil {
		t.Errorf("host mat reports device %s", m.Device())
	}
	if m.Dims() != d || m.Type() != N8UC4 || len(m.Data()) != 16 {
		t.Errorf("mat = %s %v with %d bytes", m.Type(), m.Dims(), len(m.Data()))
	}

	if _, err := NewHostMat(N8UC4, d, make([]byte, 15)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("short data: %v, want ErrInvalidParameter", err)
	}
}

func TestCheckLayout(t *testing.T) {
	tests := []struct {
		name string
		t    MatType
		d    Dims
		want error
	}{
		{"rgba", N8UC4, Dims{1, 4, 1, 1}, nil},
		{"rgba as 3 channels", N8UC4, Dims{1, 3, 1, 1}, nil},
		{"rgba too many channels", N8UC4, Dims{1, 5, 1, 1}, ErrInvalidParameter},
		{"rgb", N8UC3, Dims{1, 3, 1, 1}, nil},
		{"rgb as 4 channels", N8UC3, Dims{1, 4, 1, 1}, ErrInvalidParameter},
		{"gray as 3 channels", NGray, Dims{1, 3, 1, 1}, ErrInvalidParameter},
		{"float any channels", NCHWFloat, Dims{1, 17, 1, 1}, nil},
		{"zero width", NCHWFloat, Dims{1, 1, 1, 0}, ErrInvalidParameter},
		{"negative batch", NCHWFloat, Dims{-1, 1, 1, 1}, ErrInvalidParameter},
		{"unknown type", MatType(0), Dims{1, 1, 1, 1}, ErrUnsupportedConversion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkLayout(tt.t, tt.d)
			if tt.want == nil {
				if err != nil {
					t.Errorf("checkLayout = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("checkLayout = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewDeviceMat(t *testing.T) {
	d := Dims{Batch: 2, Channel: 5, Height: 3, Width: 4} // footprint 8x6

	if _, err := NewDeviceMat(NCHWFloat, d, nil); !errors.Is(err, ErrNullParameter) {
		t.Errorf("nil image: %v, want ErrNullParameter", err)
	}
	small := &fakeImage{width: 8, height: 5}
	if _, err := NewDeviceMat(NCHWFloat, d, small); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("small image: %v, want ErrInvalidParameter", err)
	}

	img := &fakeImage{width: 8, height: 6}
	m, err := NewDeviceMat(NCHWFloat, d, img)
	if err != nil {
		t.Fatalf("NewDeviceMat: %v", err)
	}
	if !m.OnDevice() || m.Data() != nil || m.Image() != Image(img) {
		t.Error("device mat does not wrap its image")
	}
	m.Release()
	if !img.released || m.Image() != nil {
		t.Error("Release did not free the image")
	}
	m.Release() // no-op
}

func TestAllocDeviceMat(t *testing.T) {
	rt := newFakeRuntime()
	d := Dims{Batch: 1, Channel: 3, Height: 10, Width: 20}

	m, err := AllocDeviceMat(rt, N8UC3, d)
	if err != nil {
		t.Fatalf("AllocDeviceMat: %v", err)
	}
	if img := rt.images[0]; img.width != 20 || img.height != 10 || m.Image() != Image(img) {
		t.Errorf("allocated %dx%d image", img.width, img.height)
	}

	rt.imageErr = errFake
	if _, err := AllocDeviceMat(rt, N8UC3, d); !errors.Is(err, ErrAllocationFailure) {
		t.Errorf("AllocDeviceMat = %v, want ErrAllocationFailure", err)
	}
}

func TestMatTypeString(t *testing.T) {
	for typ, want := range map[MatType]string{
		N8UC4: "N8UC4", N8UC3: "N8UC3", NGray: "NGray", NCHWFloat: "NCHWFloat", MatType(9): "MatType(9)",
	} {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
	if NCHWFloat.ElementSize() != 4 || N8UC3.ElementSize() != 1 {
		t.Error("unexpected element sizes")
	}
}
