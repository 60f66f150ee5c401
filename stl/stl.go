// Package stl encodes and decodes binary STL.
//
// Layout, little endian: an 80 byte header, a uint32 triangle count, then
// per triangle a float32 normal, three float32 vertices and a 2 byte
// attribute word that is always zero.
package stl

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/setanarut/reliefmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	HeaderSize   = 80
	TriangleSize = 50
	prefixSize   = HeaderSize + 4
)

// Size is the exact encoded size of n triangles.
func Size(n int) int {
	return prefixSize + TriangleSize*n
}

// Info is what Read recovers without keeping the triangles.
type Info struct {
	Header string
	Count  int
	Bounds r3.Box
}

// Encode serializes tris. A header longer than HeaderSize is cut. A
// triangle's own normal is kept when it has unit length; otherwise it is
// recomputed from the vertices.
func Encode(tris []reliefmesh.Triangle, header string) []byte {
	buf := make([]byte, Size(len(tris)))
	copy(buf[:HeaderSize], header)
	binary.LittleEndian.PutUint32(buf[HeaderSize:], uint32(len(tris)))

	off := prefixSize
	for _, t := range tris {
		n := t.Normal
		if math.Abs(r3.Norm(n)-1) > 1e-6 {
			n = reliefmesh.FaceNormal(t.V[0], t.V[1], t.V[2])
		}
		off = putVec(buf, off, n)
		for _, v := range t.V {
			off = putVec(buf, off, v)
		}
		off += 2
	}
	return buf
}

// Write encodes the whole mesh before writing, so an encoding problem never
// leaves a partial file behind.
func Write(w io.Writer, tris []reliefmesh.Triangle, header string) error {
	if uint64(len(tris)) > math.MaxUint32 {
		return errors.Errorf("write stl: %d triangles exceed the format limit", len(tris))
	}
	if _, err := w.Write(Encode(tris, header)); err != nil {
		return errors.Wrap(err, "write stl")
	}
	return nil
}

// Read scans a binary STL and returns its triangle count and bounding box.
func Read(r io.Reader) (*Info, error) {
	info := &Info{}
	err := scan(r, info, func(reliefmesh.Triangle) {})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ReadTriangles decodes every triangle, normals included.
func ReadTriangles(r io.Reader) ([]reliefmesh.Triangle, error) {
	var info Info
	var tris []reliefmesh.Triangle
	err := scan(r, &info, func(t reliefmesh.Triangle) {
		tris = append(tris, t)
	})
	if err != nil {
		return nil, err
	}
	return tris, nil
}

// Verify reads data and also checks that its length is exactly
// Size(count).
func Verify(data []byte) (*Info, error) {
	if len(data) < prefixSize {
		return nil, errors.Errorf("verify stl: %d bytes is shorter than the header", len(data))
	}
	count := int(binary.LittleEndian.Uint32(data[HeaderSize:]))
	if want := Size(count); len(data) != want {
		return nil, errors.Errorf("verify stl: %d triangles need %d bytes, got %d", count, want, len(data))
	}
	return Read(bytes.NewReader(data))
}

func scan(r io.Reader, info *Info, f func(reliefmesh.Triangle)) error {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return errors.Wrap(err, "read stl header")
	}
	info.Header = string(bytes.TrimRight(prefix[:HeaderSize], "\x00 "))
	info.Count = int(binary.LittleEndian.Uint32(prefix[HeaderSize:]))

	buf := make([]byte, TriangleSize)
	for i := 0; i < info.Count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return errors.Wrapf(err, "read stl triangle %d of %d", i, info.Count)
		}
		var t reliefmesh.Triangle
		t.Normal = getVec(buf, 0)
		for v := range t.V {
			t.V[v] = getVec(buf, 12*(v+1))
			if i == 0 && v == 0 {
				info.Bounds = r3.Box{Min: t.V[v], Max: t.V[v]}
			}
			info.Bounds = extend(info.Bounds, t.V[v])
		}
		f(t)
	}
	return nil
}

func putVec(buf []byte, off int, v r3.Vec) int {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(float32(v.Z)))
	return off + 12
}

func getVec(buf []byte, off int) r3.Vec {
	return r3.Vec{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:]))),
	}
}

func extend(b r3.Box, v r3.Vec) r3.Box {
	b.Min = r3.Vec{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
	b.Max = r3.Vec{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
	return b
}
