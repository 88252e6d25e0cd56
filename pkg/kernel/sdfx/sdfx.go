// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/provel/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells is the marching cubes resolution along the longest
// side of a solid's bounding box.
const DefaultMeshCells = 200

type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a kernel tessellating at DefaultMeshCells.
func New() *SdfxKernel {
	return NewWithCells(DefaultMeshCells)
}

// NewWithCells returns a kernel tessellating at the given resolution.
// Values below 8 are raised to 8.
func NewWithCells(cells int) *SdfxKernel {
	return &SdfxKernel{cells: max(cells, 8)}
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// upright turns a solid built along Z and centred on the origin into one
// standing on y = 0 along Y.
func upright(s sdf.SDF3, height float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{Y: height / 2}).Mul(sdf.RotateX(-math.Pi / 2))
	return wrap(sdf.Transform3D(s, m))
}

// Box creates a box centred on the Y axis with its base on y = 0.
func (k *SdfxKernel) Box(width, height, depth float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: width, Y: height, Z: depth}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{Y: height / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Cylinder creates an upright cylinder.
func (k *SdfxKernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	return upright(s, height), nil
}

// Cone creates an upright truncated cone with radius bottom at y = 0 and
// radius top at y = height.
func (k *SdfxKernel) Cone(height, bottom, top float64) (kernel.Solid, error) {
	s, err := sdf.Cone3D(height, bottom, top, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cone: %w", err)
	}
	return upright(s, height), nil
}

// Tube creates an upright hollow cylinder. An inner radius of zero gives
// a solid cylinder.
func (k *SdfxKernel) Tube(height, outer, inner float64) (kernel.Solid, error) {
	if inner >= outer {
		return nil, fmt.Errorf("sdfx: tube: inner radius %v must be less than outer radius %v", inner, outer)
	}
	wall, err := sdf.Cylinder3D(height, outer, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: tube: %w", err)
	}
	if inner <= 0 {
		return upright(wall, height), nil
	}
	bore, err := sdf.Cylinder3D(height, inner, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: tube: %w", err)
	}
	return upright(sdf.Difference3D(wall, bore), height), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, then Y, then Z.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	m := sdf.RotateZ(rad(z)).Mul(sdf.RotateY(rad(y))).Mul(sdf.RotateX(rad(x)))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes. Every
// triangle gets its own three vertices carrying the face normal.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(unwrap(s), renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
