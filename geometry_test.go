package matconv

import (
	"errors"
	"testing"
)

func TestComputeDispatchGeometry(t *testing.T) {
	g, offset := ComputeDispatchGeometry(Dims{Batch: 2, Channel: 6, Height: 10, Width: 7})
	if g.Global != [2]uint32{14, 20} {
		t.Errorf("Global = %v, want [14 20]", g.Global)
	}
	if g.Local != DefaultLocalSize {
		t.Errorf("Local = %v, want %v", g.Local, DefaultLocalSize)
	}
	if offset != 2 {
		t.Errorf("offset = %d, want 2", offset)
	}
	if got := g.Groups(); got != [2]uint32{2, 3} {
		t.Errorf("Groups = %v, want [2 3]", got)
	}
}

func TestGroups(t *testing.T) {
	tests := []struct {
		g    DispatchGeometry
		want [2]uint32
	}{
		{DispatchGeometry{Global: [2]uint32{8, 8}, Local: [2]uint32{8, 8}}, [2]uint32{1, 1}},
		{DispatchGeometry{Global: [2]uint32{9, 1}, Local: [2]uint32{8, 8}}, [2]uint32{2, 1}},
		{DispatchGeometry{Global: [2]uint32{0, 0}, Local: [2]uint32{8, 8}}, [2]uint32{0, 0}},
		{DispatchGeometry{Global: [2]uint32{5, 5}}, [2]uint32{0, 0}},
	}
	for _, tt := range tests {
		if got := tt.g.Groups(); got != tt.want {
			t.Errorf("%+v.Groups() = %v, want %v", tt.g, got, tt.want)
		}
	}
}

func TestSetGeometryArgs(t *testing.T) {
	k := &fakeKernel{name: "k", args: map[int]any{}}
	g := DispatchGeometry{Global: [2]uint32{30, 40}, Local: DefaultLocalSize}

	next, err := setGeometryArgs(k, g)
	if err != nil {
		t.Fatalf("setGeometryArgs: %v", err)
	}
	if next != 2 || k.args[0] != int32(30) || k.args[1] != int32(40) {
		t.Errorf("next = %d, args = %v", next, k.args)
	}

	k.setArgErr = errFake
	if _, err := setGeometryArgs(k, g); !errors.Is(err, ErrBindFailure) {
		t.Errorf("setGeometryArgs = %v, want ErrBindFailure", err)
	}
}
