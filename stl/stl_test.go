package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/setanarut/reliefmesh"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func tetra() []reliefmesh.Triangle {
	s := reliefmesh.NewSoup(4)
	o := r3.Vec{}
	x := r3.Vec{X: 1}
	y := r3.Vec{Y: 1}
	z := r3.Vec{Z: 1}
	s.Add(o, y, x)
	s.Add(o, x, z)
	s.Add(o, z, y)
	s.Add(x, y, z)
	return s.Triangles
}

func TestEncode_Size(t *testing.T) {
	for _, n := range []int{0, 1, 4, 37} {
		tris := make([]reliefmesh.Triangle, n)
		data := Encode(tris, "size")
		if len(data) != 84+50*n {
			t.Errorf("Encode(%d) = %d bytes, want %d", n, len(data), 84+50*n)
		}
		if got := binary.LittleEndian.Uint32(data[80:]); int(got) != n {
			t.Errorf("count = %d, want %d", got, n)
		}
	}
}

func TestEncode_Header(t *testing.T) {
	long := string(bytes.Repeat([]byte("h"), 100))
	data := Encode(nil, long)
	if len(data) != 84 {
		t.Fatalf("len = %d, want 84", len(data))
	}
	info, err := Read(bytes.NewReader(Encode(nil, "relief")))
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if info.Header != "relief" || info.Count != 0 {
		t.Errorf("Read() = %+v, want header relief and no triangles", info)
	}
}

func TestRoundTrip(t *testing.T) {
	in := tetra()
	var buf bytes.Buffer
	if err := Write(&buf, in, "tetra"); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	out, err := ReadTriangles(&buf)
	if err != nil {
		t.Fatalf("ReadTriangles() failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d triangles, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i].V != out[i].V {
			t.Errorf("triangle %d vertices = %v, want %v", i, out[i].V, in[i].V)
		}
		if d := r3.Norm(r3.Sub(in[i].Normal, out[i].Normal)); d > 1e-6 {
			t.Errorf("triangle %d normal = %v, want %v", i, out[i].Normal, in[i].Normal)
		}
	}
}

func TestEncode_RecomputesNormals(t *testing.T) {
	tris := []reliefmesh.Triangle{
		// Zero normal on a real face.
		{V: [3]r3.Vec{{}, {X: 1}, {Y: 1}}},
		// Degenerate face.
		{V: [3]r3.Vec{{}, {X: 1}, {X: 2}}},
	}
	out, err := ReadTriangles(bytes.NewReader(Encode(tris, "")))
	if err != nil {
		t.Fatalf("ReadTriangles() failed: %v", err)
	}
	for i, tri := range out {
		if tri.Normal != (r3.Vec{Z: 1}) {
			t.Errorf("triangle %d normal = %v, want (0,0,1)", i, tri.Normal)
		}
	}
}

func TestRead_Bounds(t *testing.T) {
	tris := tetra()
	tris[3].V[2] = r3.Vec{X: -2, Y: 0.5, Z: 3}
	info, err := Read(bytes.NewReader(Encode(tris, "")))
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	want := r3.Box{Min: r3.Vec{X: -2}, Max: r3.Vec{X: 1, Y: 1, Z: 3}}
	if info.Bounds != want {
		t.Errorf("Bounds = %v, want %v", info.Bounds, want)
	}
	if info.Count != 4 {
		t.Errorf("Count = %d, want 4", info.Count)
	}
}

func TestVerify(t *testing.T) {
	data := Encode(tetra(), "")
	if _, err := Verify(data); err != nil {
		t.Errorf("Verify() failed on valid data: %v", err)
	}
	testCases := map[string][]byte{
		"short header": data[:40],
		"truncated":    data[:len(data)-1],
		"trailing":     append(bytes.Clone(data), 0),
	}
	for name, d := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := Verify(d); err == nil {
				t.Errorf("Verify() accepted %d bytes", len(d))
			}
		})
	}
}

func TestRead_Truncated(t *testing.T) {
	data := Encode(tetra(), "")
	if _, err := Read(bytes.NewReader(data[:len(data)-10])); err == nil {
		t.Errorf("Read() accepted a truncated triangle")
	}
}

func TestHeightfield_Encoded(t *testing.T) {
	alpha := mat.NewDense(4, 4, nil)
	for y := range 4 {
		for x := range 4 {
			alpha.Set(y, x, 255)
		}
	}
	opt := reliefmesh.DefaultHeightfieldOptions()
	opt.GridWidth, opt.GridHeight = 4, 4
	soup, err := reliefmesh.BuildHeightfield(alpha, opt)
	if err != nil {
		t.Fatalf("BuildHeightfield() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, soup.Triangles, "relief"); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if buf.Len() != Size(soup.Len()) {
		t.Errorf("encoded %d bytes, want %d", buf.Len(), Size(soup.Len()))
	}
	data := bytes.Clone(buf.Bytes())
	info, err := Verify(data)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	want := r3.Box{Min: r3.Vec{X: -30, Y: -30}, Max: r3.Vec{X: 30, Y: 30, Z: 8}}
	if info.Bounds != want {
		t.Errorf("Bounds = %v, want %v", info.Bounds, want)
	}

	tris, err := ReadTriangles(&buf)
	if err != nil {
		t.Fatalf("ReadTriangles() failed: %v", err)
	}
	for i, tri := range tris {
		if n := r3.Norm(tri.Normal); math.Abs(n-1) > 1e-4 {
			t.Errorf("triangle %d normal length = %v", i, n)
		}
	}
}
