package reliefmesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// FallbackNormal is stored for triangles whose edges are collinear.
var FallbackNormal = r3.Vec{X: 0, Y: 0, Z: 1}

// FaceNormal is the unit cross product of (b-a) and (c-a), or
// FallbackNormal when that product has zero length.
func FaceNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return FallbackNormal
	}
	return r3.Scale(1/l, n)
}

// Triangle is a triangle-soup entry. V is ordered counter-clockwise when
// seen from outside the solid.
type Triangle struct {
	Normal r3.Vec
	V      [3]r3.Vec
}

// Soup is a mesh without a shared vertex buffer. The binary codec consumes
// it directly.
type Soup struct {
	Triangles []Triangle
}

func NewSoup(capacity int) *Soup {
	return &Soup{Triangles: make([]Triangle, 0, capacity)}
}

func (s *Soup) Add(a, b, c r3.Vec) {
	s.Triangles = append(s.Triangles, Triangle{
		Normal: FaceNormal(a, b, c),
		V:      [3]r3.Vec{a, b, c},
	})
}

// AddQuad adds (a,b,c) and (a,c,d).
func (s *Soup) AddQuad(a, b, c, d r3.Vec) {
	s.Add(a, b, c)
	s.Add(a, c, d)
}

func (s *Soup) Len() int {
	return len(s.Triangles)
}

// Bounds returns the axis-aligned bounding box of every vertex. An empty
// soup has a zero box.
func (s *Soup) Bounds() r3.Box {
	if len(s.Triangles) == 0 {
		return r3.Box{}
	}
	box := r3.Box{Min: s.Triangles[0].V[0], Max: s.Triangles[0].V[0]}
	for _, t := range s.Triangles {
		for _, v := range t.V {
			box = extendBox(box, v)
		}
	}
	return box
}

// OpenEdges counts directed edges that are not matched by the same edge in
// the opposite direction. A closed, consistently wound solid has none.
// Vertices are matched by exact coordinates.
func (s *Soup) OpenEdges() int {
	type edge [2]r3.Vec
	counts := make(map[edge]int, len(s.Triangles)*3)
	for _, t := range s.Triangles {
		for i := range 3 {
			counts[edge{t.V[i], t.V[(i+1)%3]}]++
		}
	}
	open := 0
	for e, n := range counts {
		if rev := counts[edge{e[1], e[0]}]; rev != n {
			open += max(n-rev, 0)
		}
	}
	return open
}

func (s *Soup) Append(other *Soup) {
	s.Triangles = append(s.Triangles, other.Triangles...)
}

// NoUV marks a face corner without a texture coordinate.
const NoUV = -1

// Face indexes into IndexedMesh.Vertices and IndexedMesh.UVs.
type Face struct {
	V  [3]int
	UV [3]int
}

// IndexedMesh shares vertices between faces. UVs is either empty or has one
// entry per UV-carrying vertex.
type IndexedMesh struct {
	Vertices []r3.Vec
	UVs      []mgl64.Vec2
	Faces    []Face
}

// AddVertex appends a vertex and returns its index.
func (m *IndexedMesh) AddVertex(v r3.Vec) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddFace adds a face without texture coordinates.
func (m *IndexedMesh) AddFace(a, b, c int) {
	m.Faces = append(m.Faces, Face{V: [3]int{a, b, c}, UV: [3]int{NoUV, NoUV, NoUV}})
}

// AddTexturedFace adds a face whose UV indices equal its vertex indices.
func (m *IndexedMesh) AddTexturedFace(a, b, c int) {
	m.Faces = append(m.Faces, Face{V: [3]int{a, b, c}, UV: [3]int{a, b, c}})
}

// Soup expands the mesh face by face, keeping face order.
func (m *IndexedMesh) Soup() *Soup {
	s := NewSoup(len(m.Faces))
	for _, f := range m.Faces {
		s.Add(m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]])
	}
	return s
}

// OpenEdges counts directed edges, by vertex index, without a reversed
// partner.
func (m *IndexedMesh) OpenEdges() int {
	counts := make(map[[2]int]int, len(m.Faces)*3)
	for _, f := range m.Faces {
		for i := range 3 {
			counts[[2]int{f.V[i], f.V[(i+1)%3]}]++
		}
	}
	open := 0
	for e, n := range counts {
		if rev := counts[[2]int{e[1], e[0]}]; rev != n {
			open += max(n-rev, 0)
		}
	}
	return open
}

func (m *IndexedMesh) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	box := r3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices {
		box = extendBox(box, v)
	}
	return box
}

// Weld merges soup vertices that agree after rounding each coordinate to
// the given number of decimals. The first occurrence keeps its position and
// index; face order follows triangle order.
func Weld(s *Soup, decimals int) *IndexedMesh {
	scale := math.Pow(10, float64(decimals))
	key := func(v r3.Vec) [3]float64 {
		return [3]float64{
			math.Round(v.X*scale) / scale,
			math.Round(v.Y*scale) / scale,
			math.Round(v.Z*scale) / scale,
		}
	}

	out := &IndexedMesh{Faces: make([]Face, 0, len(s.Triangles))}
	index := make(map[[3]float64]int, len(s.Triangles))
	for _, t := range s.Triangles {
		var ids [3]int
		for i, v := range t.V {
			k := key(v)
			id, ok := index[k]
			if !ok {
				id = out.AddVertex(v)
				index[k] = id
			}
			ids[i] = id
		}
		out.AddFace(ids[0], ids[1], ids[2])
	}
	return out
}

func extendBox(b r3.Box, v r3.Vec) r3.Box {
	b.Min.X = math.Min(b.Min.X, v.X)
	b.Min.Y = math.Min(b.Min.Y, v.Y)
	b.Min.Z = math.Min(b.Min.Z, v.Z)
	b.Max.X = math.Max(b.Max.X, v.X)
	b.Max.Y = math.Max(b.Max.Y, v.Y)
	b.Max.Z = math.Max(b.Max.Z, v.Z)
	return b
}
