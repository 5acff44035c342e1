package matconv

// ResizeParam configures Resize. Scales are derived from the source and
// destination dims, so it carries no fields yet.
type ResizeParam struct{}

// CropParam selects the source rectangle copied by Crop.
type CropParam struct {
	TopLeftX int
	TopLeftY int
	Width    int
	Height   int
}

// Interpolation selects the sampling filter of a warp.
type Interpolation uint8

// Interpolation filters.
const (
	InterpNearest Interpolation = iota
	InterpLinear
)

// BorderMode selects how a warp samples outside the source.
type BorderMode uint8

// Border modes.
const (
	BorderConstant BorderMode = iota
	BorderReflect
	BorderEdge
)

// WarpAffineParam configures WarpAffine. WarpAffine is not implemented on
// the device yet and ignores it.
type WarpAffineParam struct {
	Transform   [2][3]float32
	Interp      Interpolation
	Border      BorderMode
	BorderValue float32
}
