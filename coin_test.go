package reliefmesh

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func smallCoinOptions() CoinOptions {
	opt := DefaultCoinOptions()
	opt.Rings = 12
	opt.Segments = 24
	return opt
}

func TestBuildCoin_Transparent(t *testing.T) {
	s := mustSampler(t, uniformImage(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 0}))
	opt := smallCoinOptions()
	coin, err := BuildCoin(s, opt)
	if err != nil {
		t.Fatalf("BuildCoin() failed: %v", err)
	}
	radius := opt.Diameter / 2
	innerR := opt.InnerRadius()

	for i, ring := range coin.TopRings {
		r := radius * float64(i) / float64(opt.Rings)
		want := opt.BaseThickness
		if r >= innerR {
			want = opt.BaseThickness + opt.RimHeight
		}
		for _, id := range ring {
			if z := coin.Mesh.Vertices[id].Z; z != want {
				t.Fatalf("ring %d (r=%v) top z = %v, want %v", i, r, z, want)
			}
		}
	}
	for i, ring := range coin.BottomRings {
		for _, id := range ring {
			if z := coin.Mesh.Vertices[id].Z; z != 0 {
				t.Fatalf("bottom ring %d z = %v, want 0", i, z)
			}
		}
	}

	maxR := 0.0
	for _, v := range coin.Mesh.Vertices {
		maxR = math.Max(maxR, math.Hypot(v.X, v.Y))
	}
	if math.Abs(maxR-radius) > 1e-9 {
		t.Errorf("max vertex radius = %v, want %v", maxR, radius)
	}
}

func TestBuildCoin_Topology(t *testing.T) {
	s := mustSampler(t, uniformImage(4, 4, color.NRGBA{R: 200, G: 30, B: 90, A: 255}))
	opt := smallCoinOptions()
	coin, err := BuildCoin(s, opt)
	if err != nil {
		t.Fatalf("BuildCoin() failed: %v", err)
	}
	m := coin.Mesh

	topVerts := 1 + opt.Rings*opt.Segments
	if got := len(m.Vertices); got != 2*topVerts {
		t.Errorf("len(Vertices) = %d, want %d", got, 2*topVerts)
	}
	if got := len(m.UVs); got != topVerts {
		t.Errorf("len(UVs) = %d, want %d", got, topVerts)
	}
	perSide := opt.Segments + 2*opt.Segments*(opt.Rings-1)
	if got, want := len(m.Faces), 2*perSide+2*opt.Segments; got != want {
		t.Errorf("len(Faces) = %d, want %d", got, want)
	}
	if len(coin.TopRings) != opt.Rings+1 || len(coin.TopRings[0]) != 1 || len(coin.TopRings[1]) != opt.Segments {
		t.Errorf("ring table has unexpected shape")
	}

	for i, f := range m.Faces {
		textured := i < perSide
		for c := range 3 {
			if textured && f.UV[c] != f.V[c] {
				t.Fatalf("top face %d corner %d UV = %d, want %d", i, c, f.UV[c], f.V[c])
			}
			if !textured && f.UV[c] != NoUV {
				t.Fatalf("face %d corner %d UV = %d, want NoUV", i, c, f.UV[c])
			}
		}
	}

	if open := m.OpenEdges(); open != 0 {
		t.Errorf("IndexedMesh.OpenEdges() = %d, want 0", open)
	}
	soup := m.Soup()
	if open := soup.OpenEdges(); open != 0 {
		t.Errorf("Soup.OpenEdges() = %d, want 0", open)
	}
	checkUnitNormals(t, soup)

	for i, tri := range soup.Triangles[:perSide] {
		if tri.Normal.Z <= 0 {
			t.Fatalf("top triangle %d normal %+v points down", i, tri.Normal)
		}
	}
	for i, tri := range soup.Triangles[perSide : 2*perSide] {
		if tri.Normal.Z >= 0 {
			t.Fatalf("bottom triangle %d normal %+v points up", i, tri.Normal)
		}
	}
}

func TestBuildCoin_OpaqueWhiteRelief(t *testing.T) {
	s := mustSampler(t, uniformImage(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	opt := smallCoinOptions()
	coin, err := BuildCoin(s, opt)
	if err != nil {
		t.Fatalf("BuildCoin() failed: %v", err)
	}
	center := coin.Mesh.Vertices[coin.TopRings[0][0]]
	if want := opt.BaseThickness + opt.ReliefHeight; !almostEqual(center.Z, want) {
		t.Errorf("center z = %v, want %v", center.Z, want)
	}
	if uv := coin.Mesh.UVs[coin.TopRings[0][0]]; uv.X() != 0.5 || uv.Y() != 0.5 {
		t.Errorf("center UV = %v, want (0.5, 0.5)", uv)
	}
}

func TestBuildCoin_MinReliefFloor(t *testing.T) {
	s := mustSampler(t, uniformImage(4, 4, color.NRGBA{A: 255}))
	opt := smallCoinOptions()
	coin, err := BuildCoin(s, opt)
	if err != nil {
		t.Fatalf("BuildCoin() failed: %v", err)
	}
	center := coin.Mesh.Vertices[coin.TopRings[0][0]]
	if want := opt.BaseThickness + opt.MinRelief; !almostEqual(center.Z, want) {
		t.Errorf("black opaque center z = %v, want %v", center.Z, want)
	}
}

func TestBuildCoin_UVMapping(t *testing.T) {
	s := mustSampler(t, uniformImage(4, 4, color.NRGBA{A: 255}))
	opt := smallCoinOptions()
	opt.ImageScale = 0.5
	coin, err := BuildCoin(s, opt)
	if err != nil {
		t.Fatalf("BuildCoin() failed: %v", err)
	}
	imageR := opt.InnerRadius() * opt.ImageScale
	for id, uv := range coin.Mesh.UVs {
		v := coin.Mesh.Vertices[id]
		wantU := clamp01(0.5 + v.X/(2*imageR))
		wantV := clamp01(0.5 - v.Y/(2*imageR))
		if !almostEqual(uv.X(), wantU) || !almostEqual(uv.Y(), wantV) {
			t.Fatalf("vertex %d UV = %v, want (%v, %v)", id, uv, wantU, wantV)
		}
	}
}

func TestBuildCoin_Deterministic(t *testing.T) {
	img := uniformImage(5, 3, color.NRGBA{R: 10, G: 200, B: 40, A: 180})
	img.SetNRGBA(2, 1, color.NRGBA{R: 255, A: 40})
	s := mustSampler(t, img)
	a, err := BuildCoin(s, smallCoinOptions())
	if err != nil {
		t.Fatalf("BuildCoin() failed: %v", err)
	}
	b, _ := BuildCoin(s, smallCoinOptions())
	for i := range a.Mesh.Vertices {
		if a.Mesh.Vertices[i] != b.Mesh.Vertices[i] {
			t.Fatalf("vertex %d differs between runs", i)
		}
	}
}

func TestBuildCoin_EnclosesVolume(t *testing.T) {
	s := mustSampler(t, uniformImage(4, 4, color.NRGBA{R: 128, G: 128, B: 128, A: 255}))
	coin, err := BuildCoin(s, smallCoinOptions())
	if err != nil {
		t.Fatalf("BuildCoin() failed: %v", err)
	}
	soup := coin.Mesh.Soup()
	dir := r3.Vec{X: 0.0731, Y: 0.1379, Z: 1}
	if n := rayParity(soup, r3.Vec{X: 3.3, Y: -2.1, Z: 1}, dir); n%2 != 1 {
		t.Errorf("interior point crossed %d surfaces, want odd", n)
	}
	if n := rayParity(soup, r3.Vec{X: 3.3, Y: -2.1, Z: -1}, dir); n%2 != 0 {
		t.Errorf("point below crossed %d surfaces, want even", n)
	}
}

func TestCoinOptions_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*CoinOptions)
		want   error
	}{
		{"no rings", func(o *CoinOptions) { o.Rings = 0 }, ErrDegenerateGeometry},
		{"two segments", func(o *CoinOptions) { o.Segments = 2 }, ErrDegenerateGeometry},
		{"zero diameter", func(o *CoinOptions) { o.Diameter = 0 }, ErrInvalidOption},
		{"zero gamma", func(o *CoinOptions) { o.Gamma = 0 }, ErrInvalidOption},
		{"negative min relief", func(o *CoinOptions) { o.MinRelief = -1 }, ErrInvalidOption},
		{"rim covers disc", func(o *CoinOptions) { o.RimWidth = o.Diameter }, ErrInvalidOption},
		{"nan scale", func(o *CoinOptions) { o.ImageScale = math.NaN() }, ErrInvalidOption},
	}
	s := mustSampler(t, uniformImage(2, 2, color.NRGBA{A: 255}))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opt := DefaultCoinOptions()
			tc.modify(&opt)
			if err := opt.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
			if coin, err := BuildCoin(s, opt); coin != nil || !errors.Is(err, tc.want) {
				t.Errorf("BuildCoin() = %v, %v; want nil, %v", coin, err, tc.want)
			}
		})
	}
}
