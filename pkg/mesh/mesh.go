// Package mesh groups a flat vertex stream into triangles.
//
// The stream layout is the one every producer in this repository emits
// (STL decoder, kernel tessellation, frontend bindings): nine floats per
// triangle, three vertices of x, y, z each, with no index buffer.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/provel/pkg/geom"
)

// FloatsPerTriangle is the number of stream values consumed per triangle.
const FloatsPerTriangle = 9

// ErrMalformedVertexStream is returned when the stream length is not a
// multiple of FloatsPerTriangle or a coordinate is NaN or infinite.
var ErrMalformedVertexStream = errors.New("malformed vertex stream")

// Mesh is an ordered triangle soup. It is built fresh per request and
// never shared between scans.
type Mesh struct {
	Triangles []geom.Triangle
}

// Build groups every nine consecutive floats into one triangle. The
// length is checked before any element is read, and every value must be
// finite.
func Build(stream []float64) (*Mesh, error) {
	if len(stream)%FloatsPerTriangle != 0 {
		return nil, fmt.Errorf("mesh: %w: length %d is not a multiple of %d",
			ErrMalformedVertexStream, len(stream), FloatsPerTriangle)
	}
	for i, v := range stream {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("mesh: %w: value %d (triangle %d) is %v",
				ErrMalformedVertexStream, i, i/FloatsPerTriangle, v)
		}
	}

	tris := make([]geom.Triangle, 0, len(stream)/FloatsPerTriangle)
	for i := 0; i < len(stream); i += FloatsPerTriangle {
		tris = append(tris, geom.Triangle{
			P1: geom.Point3{X: stream[i], Y: stream[i+1], Z: stream[i+2]},
			P2: geom.Point3{X: stream[i+3], Y: stream[i+4], Z: stream[i+5]},
			P3: geom.Point3{X: stream[i+6], Y: stream[i+7], Z: stream[i+8]},
		})
	}
	return &Mesh{Triangles: tris}, nil
}

// BuildFloat32 is Build for single-precision streams such as those
// produced by STL files and the geometry kernel.
func BuildFloat32(stream []float32) (*Mesh, error) {
	if len(stream)%FloatsPerTriangle != 0 {
		return nil, fmt.Errorf("mesh: %w: length %d is not a multiple of %d",
			ErrMalformedVertexStream, len(stream), FloatsPerTriangle)
	}
	wide := make([]float64, len(stream))
	for i, v := range stream {
		wide[i] = float64(v)
	}
	return Build(wide)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Bounds returns the axis-aligned bounding box of the mesh. An empty
// mesh reports a zero box.
func (m *Mesh) Bounds() (lo, hi geom.Point3) {
	if m.IsEmpty() {
		return geom.Point3{}, geom.Point3{}
	}
	lo = geom.Point3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = geom.Point3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, t := range m.Triangles {
		tlo, thi := t.Bounds()
		lo = geom.Point3{X: math.Min(lo.X, tlo.X), Y: math.Min(lo.Y, tlo.Y), Z: math.Min(lo.Z, tlo.Z)}
		hi = geom.Point3{X: math.Max(hi.X, thi.X), Y: math.Max(hi.Y, thi.Y), Z: math.Max(hi.Z, thi.Z)}
	}
	return lo, hi
}

// HeightRange returns the lowest and highest coordinate of the mesh
// along a.
func (m *Mesh) HeightRange(a geom.Axis) (lo, hi float64) {
	blo, bhi := m.Bounds()
	return a.Height(blo), a.Height(bhi)
}

// Center returns the centre of the bounding box.
func (m *Mesh) Center() geom.Point3 {
	lo, hi := m.Bounds()
	return lo.Add(hi).Scale(0.5)
}
