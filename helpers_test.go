package reliefmesh

import (
	"image"
	"image/color"
	"math"
	"sort"
	"testing"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/spatial/r3"
)

const float64EqualityThreshold = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= float64EqualityThreshold
}

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func mustSampler(t *testing.T, img image.Image) *Sampler {
	t.Helper()
	s, err := NewSampler(img)
	if err != nil {
		t.Fatalf("NewSampler() failed: %v", err)
	}
	return s
}

func checkUnitNormals(t *testing.T, soup *Soup) {
	t.Helper()
	for i, tri := range soup.Triangles {
		if l := r3.Norm(tri.Normal); math.Abs(l-1) > 1e-4 {
			t.Fatalf("triangle %d normal length = %v, want 1", i, l)
		}
	}
}

// rayParity counts distinct surface crossings of a ray through the soup,
// treating near-duplicate hits (shared edges) as one.
func rayParity(soup *Soup, origin, direction r3.Vec) int {
	tris := make([]*model3d.Triangle, 0, len(soup.Triangles))
	for _, t := range soup.Triangles {
		tri := &model3d.Triangle{}
		for i, v := range t.V {
			tri[i] = model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
		}
		tris = append(tris, tri)
	}
	collider := model3d.MeshToCollider(model3d.NewMeshTriangles(tris))

	var scales []float64
	collider.RayCollisions(&model3d.Ray{
		Origin:    model3d.Coord3D{X: origin.X, Y: origin.Y, Z: origin.Z},
		Direction: model3d.Coord3D{X: direction.X, Y: direction.Y, Z: direction.Z},
	}, func(rc model3d.RayCollision) {
		scales = append(scales, rc.Scale)
	})
	sort.Float64s(scales)

	unique := 0
	last := math.Inf(-1)
	for _, s := range scales {
		if s-last > 1e-8 {
			unique++
		}
		last = s
	}
	return unique
}
