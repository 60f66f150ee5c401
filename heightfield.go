package reliefmesh

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

type HeightfieldOptions struct {
	// Resampled grid size in vertices. Each dimension must be >= 2.
	// Ideal start: 120-300 along the longer side. Higher values follow the
	// alpha edge more closely but grow the file quadratically.
	GridWidth, GridHeight int
	// Physical size of the slab along X in millimetres.
	TargetWidth float64
	// Physical size along Y in millimetres. Zero keeps square cells.
	TargetHeight float64
	// Thickness of the flat slab under the relief, in millimetres.
	// Ideal start: 1.5-3.
	BaseThickness float64
	// Height added where alpha is 255. Ideal start: 2-8.
	ReliefHeight float64
}

func DefaultHeightfieldOptions() HeightfieldOptions {
	return HeightfieldOptions{
		GridWidth:     200,
		GridHeight:    200,
		TargetWidth:   60,
		BaseThickness: 2,
		ReliefHeight:  6,
	}
}

func (o HeightfieldOptions) Validate() error {
	return firstError(
		gridDimension("GridWidth", o.GridWidth),
		gridDimension("GridHeight", o.GridHeight),
		positive("TargetWidth", o.TargetWidth),
		nonNegative("TargetHeight", o.TargetHeight),
		positive("BaseThickness", o.BaseThickness),
		positive("ReliefHeight", o.ReliefHeight),
	)
}

// BuildHeightfieldImage resamples the image alpha to the option grid and
// builds the slab from it.
func BuildHeightfieldImage(s *Sampler, opt HeightfieldOptions) (*Soup, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	alpha, err := s.ResampleAlpha(opt.GridWidth, opt.GridHeight)
	if err != nil {
		return nil, err
	}
	return BuildHeightfield(alpha, opt)
}

// BuildHeightfield builds a closed slab over an alpha grid (rows = Y,
// values in [0,255]). The grid size comes from alpha; GridWidth and
// GridHeight in opt are ignored.
//
// Triangles are emitted as: top surface, bottom surface, then the front
// (y=0), back, left (x=0) and right walls. Each wall walks its edge in a
// fixed direction; the winding is a convention and is not derived from the
// local surface.
func BuildHeightfield(alpha *mat.Dense, opt HeightfieldOptions) (*Soup, error) {
	h, w := alpha.Dims()
	if err := firstError(
		gridDimension("alpha grid width", w),
		gridDimension("alpha grid height", h),
		positive("TargetWidth", opt.TargetWidth),
		nonNegative("TargetHeight", opt.TargetHeight),
		positive("BaseThickness", opt.BaseThickness),
		positive("ReliefHeight", opt.ReliefHeight),
	); err != nil {
		return nil, err
	}
	for y := range h {
		for x := range w {
			if a := alpha.At(y, x); !(a >= 0 && a <= 255) {
				return nil, errors.Wrapf(ErrInvalidOption, "alpha at (%d,%d) is %v, want [0,255]", x, y, a)
			}
		}
	}

	widthMM := opt.TargetWidth
	dx := widthMM / float64(w-1)
	dy := dx
	heightMM := dy * float64(h-1)
	if opt.TargetHeight > 0 {
		heightMM = opt.TargetHeight
		dy = heightMM / float64(h-1)
	}

	pos := func(x, y int, z float64) r3.Vec {
		return r3.Vec{
			X: float64(x)*dx - widthMM/2,
			Y: float64(y)*dy - heightMM/2,
			Z: z,
		}
	}
	top := func(x, y int) r3.Vec {
		return pos(x, y, opt.BaseThickness+alpha.At(y, x)/255.0*opt.ReliefHeight)
	}
	bottom := func(x, y int) r3.Vec {
		return pos(x, y, 0)
	}

	cells := (w - 1) * (h - 1)
	soup := NewSoup(4*cells + 4*(w-1) + 4*(h-1))

	for y := range h - 1 {
		for x := range w - 1 {
			soup.AddQuad(top(x, y), top(x+1, y), top(x+1, y+1), top(x, y+1))
		}
	}
	for y := range h - 1 {
		for x := range w - 1 {
			a, b, c, d := bottom(x, y), bottom(x+1, y), bottom(x+1, y+1), bottom(x, y+1)
			soup.Add(a, c, b)
			soup.Add(a, d, c)
		}
	}

	// Front, walking +X.
	for x := range w - 1 {
		soup.AddQuad(bottom(x, 0), bottom(x+1, 0), top(x+1, 0), top(x, 0))
	}
	// Back, walking -X.
	for x := range w - 1 {
		soup.AddQuad(bottom(x+1, h-1), bottom(x, h-1), top(x, h-1), top(x+1, h-1))
	}
	// Left, walking -Y.
	for y := range h - 1 {
		soup.AddQuad(bottom(0, y+1), bottom(0, y), top(0, y), top(0, y+1))
	}
	// Right, walking +Y.
	for y := range h - 1 {
		soup.AddQuad(bottom(w-1, y), bottom(w-1, y+1), top(w-1, y+1), top(w-1, y))
	}
	return soup, nil
}
