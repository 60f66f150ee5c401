package reliefmesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

type CoinOptions struct {
	// Coin diameter in millimetres.
	Diameter float64
	// Flat disc thickness under relief and rim. Ideal start: 1.5-3.
	BaseThickness float64
	// Relief height for a fully opaque white pixel. Ideal start: 0.8-2.
	ReliefHeight float64
	// Exponent applied to luminance before scaling. 1 is linear; values
	// above 1 flatten mid-tones.
	Gamma float64
	// Relief floor for opaque pixels, so dark opaque areas still stand
	// out from the base. Ideal start: 0.2-0.4.
	MinRelief float64
	// Width of the flat rim band at the outer edge.
	RimWidth float64
	// Rim height above the base.
	RimHeight float64
	// Image size relative to the relief zone. 1 fits the image exactly
	// inside the zone; lower values enlarge it.
	ImageScale float64
	// Radial and angular tessellation. Ideal start: Rings 80-160,
	// Segments 192-360.
	Rings, Segments int
}

func DefaultCoinOptions() CoinOptions {
	return CoinOptions{
		Diameter:      60,
		BaseThickness: 2,
		ReliefHeight:  1.2,
		Gamma:         1,
		MinRelief:     0.25,
		RimWidth:      2.5,
		RimHeight:     1,
		ImageScale:    1,
		Rings:         120,
		Segments:      256,
	}
}

func (o CoinOptions) Validate() error {
	if o.Rings < 1 {
		return errors.Wrapf(ErrDegenerateGeometry, "Rings must be >= 1, got %d", o.Rings)
	}
	if o.Segments < 3 {
		return errors.Wrapf(ErrDegenerateGeometry, "Segments must be >= 3, got %d", o.Segments)
	}
	if err := firstError(
		positive("Diameter", o.Diameter),
		positive("BaseThickness", o.BaseThickness),
		positive("ReliefHeight", o.ReliefHeight),
		positive("Gamma", o.Gamma),
		nonNegative("MinRelief", o.MinRelief),
		positive("RimWidth", o.RimWidth),
		positive("RimHeight", o.RimHeight),
		positive("ImageScale", o.ImageScale),
	); err != nil {
		return err
	}
	if o.RimWidth >= o.Diameter/2 {
		return errors.Wrapf(ErrInvalidOption, "RimWidth %v leaves no relief zone inside radius %v", o.RimWidth, o.Diameter/2)
	}
	return nil
}

// InnerRadius is the radius of the relief zone.
func (o CoinOptions) InnerRadius() float64 {
	return o.Diameter/2 - o.RimWidth
}

// Coin is an indexed disc mesh. TopRings[i] and BottomRings[i] list the
// vertex indices of ring i in angular order; ring 0 is the single center
// vertex. Every top vertex has a UV at the same index.
type Coin struct {
	Mesh        *IndexedMesh
	TopRings    [][]int
	BottomRings [][]int
}

// BuildCoin builds a closed disc whose inner zone is embossed from the
// image and whose outer band is a flat rim.
//
// Faces are emitted as: top center fan, top ring strips (inner to outer),
// bottom fan and strips with reversed winding, then the outer wall.
func BuildCoin(s *Sampler, opt CoinOptions) (*Coin, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	radius := opt.Diameter / 2
	innerR := opt.InnerRadius()
	imageR := innerR * opt.ImageScale
	rimTop := opt.BaseThickness + opt.RimHeight

	dirs := make([]mgl64.Vec2, opt.Segments)
	for j := range dirs {
		theta := 2 * math.Pi * float64(j) / float64(opt.Segments)
		dirs[j] = mgl64.Rotate2D(theta).Mul2x1(mgl64.Vec2{1, 0})
	}

	nVerts := 1 + opt.Rings*opt.Segments
	mesh := &IndexedMesh{
		Vertices: make([]r3.Vec, 0, 2*nVerts),
		UVs:      make([]mgl64.Vec2, 0, nVerts),
	}
	coin := &Coin{
		Mesh:        mesh,
		TopRings:    make([][]int, opt.Rings+1),
		BottomRings: make([][]int, opt.Rings+1),
	}

	addTop := func(x, y, r float64) int {
		uv := mgl64.Vec2{
			clamp01(0.5 + x/(2*imageR)),
			clamp01(0.5 - y/(2*imageR)),
		}
		z := rimTop
		if r < innerR {
			z = opt.BaseThickness + coinRelief(s.At(uv.X(), uv.Y()), opt)
		}
		mesh.UVs = append(mesh.UVs, uv)
		return mesh.AddVertex(r3.Vec{X: x, Y: y, Z: z})
	}

	coin.TopRings[0] = []int{addTop(0, 0, 0)}
	for i := 1; i <= opt.Rings; i++ {
		r := radius * float64(i) / float64(opt.Rings)
		ring := make([]int, opt.Segments)
		for j, d := range dirs {
			ring[j] = addTop(r*d.X(), r*d.Y(), r)
		}
		coin.TopRings[i] = ring
	}
	for i, ring := range coin.TopRings {
		bottom := make([]int, len(ring))
		for j, id := range ring {
			v := mesh.Vertices[id]
			bottom[j] = mesh.AddVertex(r3.Vec{X: v.X, Y: v.Y, Z: 0})
		}
		coin.BottomRings[i] = bottom
	}

	seg := opt.Segments
	next := func(j int) int { return (j + 1) % seg }

	top := coin.TopRings
	for j := range seg {
		mesh.AddTexturedFace(top[0][0], top[1][j], top[1][next(j)])
	}
	for i := 1; i < opt.Rings; i++ {
		in, out := top[i], top[i+1]
		for j := range seg {
			a, b, c, d := in[j], out[j], out[next(j)], in[next(j)]
			mesh.AddTexturedFace(a, b, c)
			mesh.AddTexturedFace(a, c, d)
		}
	}

	bot := coin.BottomRings
	for j := range seg {
		mesh.AddFace(bot[0][0], bot[1][next(j)], bot[1][j])
	}
	for i := 1; i < opt.Rings; i++ {
		in, out := bot[i], bot[i+1]
		for j := range seg {
			a, b, c, d := in[j], out[j], out[next(j)], in[next(j)]
			mesh.AddFace(a, c, b)
			mesh.AddFace(a, d, c)
		}
	}

	rimT, rimB := top[opt.Rings], bot[opt.Rings]
	for j := range seg {
		mesh.AddFace(rimB[j], rimB[next(j)], rimT[next(j)])
		mesh.AddFace(rimB[j], rimT[next(j)], rimT[j])
	}
	return coin, nil
}

// coinRelief is alpha * max(MinRelief, luminance^Gamma * ReliefHeight).
func coinRelief(c RGBA, opt CoinOptions) float64 {
	if c.A == 0 {
		return 0
	}
	return c.A * math.Max(opt.MinRelief, math.Pow(c.Luminance(), opt.Gamma)*opt.ReliefHeight)
}
