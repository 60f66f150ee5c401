package reliefmesh

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Sampler is a read-only copy of an image in 8-bit non-premultiplied RGBA.
type Sampler struct {
	W, H int
	Pix  []uint8 // Interleaved RGBA, len = W*H*4
}

// RGBA is a sample with every channel normalized to [0,1].
type RGBA struct {
	R, G, B, A float64
}

// Luminance uses the BT.709 weights directly on the normalized channels.
func (c RGBA) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Color drops alpha.
func (c RGBA) Color() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// Luminance of a palette color, with the same weights as RGBA.Luminance.
func Luminance(c colorful.Color) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func NewSampler(img image.Image) (*Sampler, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimension, "image is %dx%d", w, h)
	}
	s := &Sampler{
		W:   w,
		H:   h,
		Pix: make([]uint8, w*h*4),
	}
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			off := (y*w + x) * 4
			s.Pix[off] = c.R
			s.Pix[off+1] = c.G
			s.Pix[off+2] = c.B
			s.Pix[off+3] = c.A
		}
	}
	return s, nil
}

// Pixel returns the raw sample at integer coordinates.
func (s *Sampler) Pixel(x, y int) color.NRGBA {
	off := (y*s.W + x) * 4
	return color.NRGBA{R: s.Pix[off], G: s.Pix[off+1], B: s.Pix[off+2], A: s.Pix[off+3]}
}

// At bilinearly interpolates the image at (u,v). u runs along columns and
// v along rows with v=0 at the top row. Both are clamped to [0,1].
func (s *Sampler) At(u, v float64) RGBA {
	u = clamp01(u)
	v = clamp01(v)

	fx := u * float64(s.W-1)
	fy := v * float64(s.H-1)
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := min(x0+1, s.W-1)
	y1 := min(y0+1, s.H-1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	var out [4]float64
	o00 := (y0*s.W + x0) * 4
	o10 := (y0*s.W + x1) * 4
	o01 := (y1*s.W + x0) * 4
	o11 := (y1*s.W + x1) * 4
	for ch := range 4 {
		top := float64(s.Pix[o00+ch])*(1-tx) + float64(s.Pix[o10+ch])*tx
		bottom := float64(s.Pix[o01+ch])*(1-tx) + float64(s.Pix[o11+ch])*tx
		out[ch] = (top*(1-ty) + bottom*ty) / 255.0
	}
	return RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}

// ResampleAlpha builds a w×h grid (rows = h) of alpha values in [0,255]
// using nearest-neighbour lookup. Grid index i of N maps to source index
// floor(i/(N-1) * (srcN-1)).
func (s *Sampler) ResampleAlpha(w, h int) (*mat.Dense, error) {
	if err := firstError(
		gridDimension("source width", s.W),
		gridDimension("source height", s.H),
		gridDimension("target width", w),
		gridDimension("target height", h),
	); err != nil {
		return nil, err
	}
	grid := mat.NewDense(h, w, nil)
	for y := range h {
		sy := resampleIndex(y, h, s.H)
		for x := range w {
			sx := resampleIndex(x, w, s.W)
			grid.Set(y, x, float64(s.Pix[(sy*s.W+sx)*4+3]))
		}
	}
	return grid, nil
}

func resampleIndex(i, n, sourceN int) int {
	return int(math.Floor(float64(i) / float64(n-1) * float64(sourceN-1)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
