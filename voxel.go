package reliefmesh

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

type PartOptions struct {
	// Cells across the coin diameter. Ideal start: 160-320; a cell should
	// stay above the nozzle width (Diameter/GridSize >= ~0.2mm).
	GridSize int
	// Coin geometry the parts are aligned to. These should match the
	// CoinOptions used for the base, see PartOptionsForCoin.
	Diameter   float64
	RimWidth   float64
	ImageScale float64
	// Fraction of the relief-zone radius that parts may occupy.
	// Ideal start: 0.95-1.
	FootprintFraction float64
	// Minimum sampled alpha, in [0,1), for a cell to belong to any part.
	AlphaThreshold float64
	// Bottom and top of every part in millimetres.
	BaseZ, TopZ float64
}

func DefaultPartOptions() PartOptions {
	return PartOptionsForCoin(DefaultCoinOptions())
}

// PartOptionsForCoin returns part options that sit on top of the coin
// base and cover the same image area as its relief zone.
func PartOptionsForCoin(c CoinOptions) PartOptions {
	return PartOptions{
		GridSize:          240,
		Diameter:          c.Diameter,
		RimWidth:          c.RimWidth,
		ImageScale:        c.ImageScale,
		FootprintFraction: 0.98,
		AlphaThreshold:    0.5,
		BaseZ:             c.BaseThickness,
		TopZ:              c.BaseThickness + c.RimHeight,
	}
}

func (o PartOptions) Validate() error {
	if err := firstError(
		gridDimension("GridSize", o.GridSize),
		positive("Diameter", o.Diameter),
		nonNegative("RimWidth", o.RimWidth),
		positive("ImageScale", o.ImageScale),
		positive("FootprintFraction", o.FootprintFraction),
		nonNegative("AlphaThreshold", o.AlphaThreshold),
	); err != nil {
		return err
	}
	if o.RimWidth >= o.Diameter/2 {
		return errors.Wrapf(ErrInvalidOption, "RimWidth %v leaves no footprint inside radius %v", o.RimWidth, o.Diameter/2)
	}
	if o.FootprintFraction > 1 {
		return errors.Wrapf(ErrInvalidOption, "FootprintFraction must be <= 1, got %v", o.FootprintFraction)
	}
	if o.AlphaThreshold >= 1 {
		return errors.Wrapf(ErrInvalidOption, "AlphaThreshold must be < 1, got %v", o.AlphaThreshold)
	}
	if !(o.TopZ > o.BaseZ) {
		return errors.Wrapf(ErrInvalidOption, "TopZ %v must be above BaseZ %v", o.TopZ, o.BaseZ)
	}
	return nil
}

func (o PartOptions) cellSize() float64 {
	return o.Diameter / float64(o.GridSize)
}

// VoxelMask is a footprint to be extruded. Cells is row major, row 0 is
// the top of the image. Heights holds the top of each cell in millimetres
// (rows = H, cols = W).
//
// A mask has a single owner; the repair functions return new masks and
// never modify their argument.
type VoxelMask struct {
	W, H    int
	Cells   []bool
	Heights *mat.Dense
}

func NewVoxelMask(w, h int, cells []bool, heights *mat.Dense) (*VoxelMask, error) {
	if w < 1 || h < 1 {
		return nil, errors.Wrapf(ErrInvalidDimension, "mask is %dx%d", w, h)
	}
	if len(cells) != w*h {
		return nil, errors.Wrapf(ErrSizeMismatch, "mask %dx%d has %d cells", w, h, len(cells))
	}
	if heights == nil {
		return nil, errors.Wrap(ErrSizeMismatch, "mask has no height grid")
	}
	if r, c := heights.Dims(); r != h || c != w {
		return nil, errors.Wrapf(ErrSizeMismatch, "mask is %dx%d but heights are %dx%d", w, h, c, r)
	}
	return &VoxelMask{W: w, H: h, Cells: cells, Heights: heights}, nil
}

// At reports whether (x,y) is included. Cells outside the grid are not.
func (m *VoxelMask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Cells[y*m.W+x]
}

func (m *VoxelMask) Set(x, y int, v bool) {
	m.Cells[y*m.W+x] = v
}

// Count returns the number of included cells.
func (m *VoxelMask) Count() int {
	n := 0
	for _, c := range m.Cells {
		if c {
			n++
		}
	}
	return n
}

func (m *VoxelMask) Clone() *VoxelMask {
	cells := make([]bool, len(m.Cells))
	copy(cells, m.Cells)
	return &VoxelMask{
		W:       m.W,
		H:       m.H,
		Cells:   cells,
		Heights: mat.DenseCopyOf(m.Heights),
	}
}

// Equal compares included cells only.
func (m *VoxelMask) Equal(other *VoxelMask) bool {
	if m.W != other.W || m.H != other.H {
		return false
	}
	for i := range m.Cells {
		if m.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}

// BreakDiagonalContacts removes cells that touch another cell only at a
// corner. Blocks are scanned in row-major order; for the pattern
// {top-left, bottom-right} the bottom-right cell is cleared, for
// {top-right, bottom-left} the bottom-left one.
func BreakDiagonalContacts(m *VoxelMask) *VoxelMask {
	out := m.Clone()
	for y := range out.H - 1 {
		for x := range out.W - 1 {
			tl, tr := out.At(x, y), out.At(x+1, y)
			bl, br := out.At(x, y+1), out.At(x+1, y+1)
			switch {
			case tl && br && !tr && !bl:
				out.Set(x+1, y+1, false)
			case tr && bl && !tl && !br:
				out.Set(x, y+1, false)
			}
		}
	}
	return out
}

// RemoveIsolatedCells clears cells with no 4-connected included neighbour.
func RemoveIsolatedCells(m *VoxelMask) *VoxelMask {
	out := m.Clone()
	for y := range m.H {
		for x := range m.W {
			if !m.At(x, y) {
				continue
			}
			if !m.At(x-1, y) && !m.At(x+1, y) && !m.At(x, y-1) && !m.At(x, y+1) {
				out.Set(x, y, false)
			}
		}
	}
	return out
}

// Repair breaks diagonal contacts, then removes isolated cells.
func Repair(m *VoxelMask) *VoxelMask {
	return RemoveIsolatedCells(BreakDiagonalContacts(m))
}

// NearestCenter returns the index of the center closest to c by squared
// RGB distance. Ties go to the lowest index.
func NearestCenter(c colorful.Color, centers []colorful.Color) int {
	p := clusters.Coordinates{c.R, c.G, c.B}
	best := 0
	bestD := math.Inf(1)
	for i, cc := range centers {
		d := p.Distance(clusters.Coordinates{cc.R, cc.G, cc.B})
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

// ExtractMasks samples the image on a GridSize×GridSize grid over the coin
// and builds one mask per center. A cell joins class k when it lies inside
// the footprint, its alpha exceeds the threshold and center k is its
// nearest center. Masks are returned unrepaired.
func ExtractMasks(s *Sampler, centers []colorful.Color, opt PartOptions) ([]*VoxelMask, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if len(centers) == 0 {
		return nil, errors.Wrap(ErrEmptyInput, "no palette centers")
	}

	n := opt.GridSize
	radius := opt.Diameter / 2
	innerR := radius - opt.RimWidth
	imageR := innerR * opt.ImageScale
	footprint := innerR * opt.FootprintFraction
	cell := opt.cellSize()

	masks := make([]*VoxelMask, len(centers))
	for k := range masks {
		heights := mat.NewDense(n, n, nil)
		for y := range n {
			for x := range n {
				heights.Set(y, x, opt.TopZ)
			}
		}
		masks[k] = &VoxelMask{W: n, H: n, Cells: make([]bool, n*n), Heights: heights}
	}

	for y := range n {
		cy := radius - (float64(y)+0.5)*cell
		for x := range n {
			cx := -radius + (float64(x)+0.5)*cell
			if math.Hypot(cx, cy) > footprint {
				continue
			}
			c := s.At(0.5+cx/(2*imageR), 0.5-cy/(2*imageR))
			if c.A <= opt.AlphaThreshold {
				continue
			}
			masks[NearestCenter(c.Color(), centers)].Set(x, y, true)
		}
	}
	return masks, nil
}

// ExtrudePart extrudes m on the coin grid described by opt, bottom at
// opt.BaseZ. The mask is used as given; run Repair first.
func ExtrudePart(m *VoxelMask, opt PartOptions) (*Soup, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if m.W != opt.GridSize || m.H != opt.GridSize {
		return nil, errors.Wrapf(ErrSizeMismatch, "mask is %dx%d, grid is %d", m.W, m.H, opt.GridSize)
	}
	radius := opt.Diameter / 2
	return m.Extrude(opt.cellSize(), -radius, radius, opt.BaseZ)
}

// Extrude turns every included cell into a box from baseZ to the cell's
// height. (originX, originY) is the top-left corner of cell (0,0); rows
// grow towards -Y. Side quads are only emitted towards cells that are not
// included. Each quad gets its own vertices.
//
// Per cell the order is top, bottom, then the +Y, -Y, -X and +X sides.
func (m *VoxelMask) Extrude(cellSize, originX, originY, baseZ float64) (*Soup, error) {
	if err := positive("cellSize", cellSize); err != nil {
		return nil, err
	}
	if r, c := m.Heights.Dims(); r != m.H || c != m.W || len(m.Cells) != m.W*m.H {
		return nil, errors.Wrapf(ErrSizeMismatch, "mask is %dx%d but heights are %dx%d", m.W, m.H, c, r)
	}

	edgeX := func(i int) float64 { return originX + float64(i)*cellSize }
	edgeY := func(j int) float64 { return originY - float64(j)*cellSize }

	soup := NewSoup(m.Count() * 4)
	for y := range m.H {
		for x := range m.W {
			if !m.At(x, y) {
				continue
			}
			top := m.Heights.At(y, x)
			if !(top > baseZ) {
				return nil, errors.Wrapf(ErrInvalidOption, "cell (%d,%d) top %v is not above base %v", x, y, top, baseZ)
			}
			x0, x1 := edgeX(x), edgeX(x+1)
			yHi, yLo := edgeY(y), edgeY(y+1)

			corner := func(cx, cy, z float64) r3.Vec { return r3.Vec{X: cx, Y: cy, Z: z} }

			// Corners a,b,c,d run counter-clockwise seen from above.
			soup.AddQuad(corner(x0, yLo, top), corner(x1, yLo, top), corner(x1, yHi, top), corner(x0, yHi, top))
			a, b, c, d := corner(x0, yLo, baseZ), corner(x1, yLo, baseZ), corner(x1, yHi, baseZ), corner(x0, yHi, baseZ)
			soup.Add(a, c, b)
			soup.Add(a, d, c)

			if !m.At(x, y-1) {
				soup.AddQuad(corner(x1, yHi, baseZ), corner(x0, yHi, baseZ), corner(x0, yHi, top), corner(x1, yHi, top))
			}
			if !m.At(x, y+1) {
				soup.AddQuad(corner(x0, yLo, baseZ), corner(x1, yLo, baseZ), corner(x1, yLo, top), corner(x0, yLo, top))
			}
			if !m.At(x-1, y) {
				soup.AddQuad(corner(x0, yHi, baseZ), corner(x0, yLo, baseZ), corner(x0, yLo, top), corner(x0, yHi, top))
			}
			if !m.At(x+1, y) {
				soup.AddQuad(corner(x1, yLo, baseZ), corner(x1, yHi, baseZ), corner(x1, yHi, top), corner(x1, yLo, top))
			}
		}
	}
	return soup, nil
}
