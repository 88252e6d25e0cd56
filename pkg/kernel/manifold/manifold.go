//go:build manifold

// Package manifold implements kernel.Kernel on the Manifold library
// (https://github.com/elalish/manifold), which keeps every boolean result
// a closed manifold mesh. Round primitives are polygonal with a fixed
// number of sides.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/provel/pkg/kernel"
)

var (
	_ kernel.Kernel = (*ManifoldKernel)(nil)
	_ kernel.Solid  = (*manifoldSolid)(nil)
)

type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	bbox := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(bbox)

	min = [3]float64{
		float64(C.manifold_box_min_x(bbox)),
		float64(C.manifold_box_min_y(bbox)),
		float64(C.manifold_box_min_z(bbox)),
	}
	max = [3]float64{
		float64(C.manifold_box_max_x(bbox)),
		float64(C.manifold_box_max_y(bbox)),
		float64(C.manifold_box_max_z(bbox)),
	}
	return min, max
}

// newSolid takes ownership of ptr; the finalizer frees it.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *C.ManifoldManifold {
	return s.(*manifoldSolid).ptr
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct {
	sides int
}

// New returns a kernel whose round primitives have DefaultSides sides.
func New() (kernel.Kernel, error) {
	return NewWithSides(DefaultSides)
}

// NewWithSides returns a kernel whose round primitives have the given
// number of sides, at least 3.
func NewWithSides(sides int) (kernel.Kernel, error) {
	if sides < 3 {
		return nil, fmt.Errorf("manifold: %d sides, need at least 3", sides)
	}
	return &ManifoldKernel{sides: sides}, nil
}

// frustum builds an upright frustum standing on y = 0. Manifold extrudes
// along +Z from z = 0, so the result is tipped onto Y.
func (k *ManifoldKernel) frustum(height, bottom, top float64) *manifoldSolid {
	ptr := C.manifold_cylinder(C.manifold_alloc_manifold(),
		C.double(height), C.double(bottom), C.double(top),
		C.int(k.sides), C.int(0))
	defer C.manifold_delete_manifold(ptr)
	return newSolid(C.manifold_rotate(C.manifold_alloc_manifold(), ptr,
		C.double(-90), C.double(0), C.double(0)))
}

func positive(form string, vs ...float64) error {
	for _, v := range vs {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("manifold: %s: dimension %v must be positive", form, v)
		}
	}
	return nil
}

// Box creates a box centred on the Y axis with its base on y = 0.
func (k *ManifoldKernel) Box(width, height, depth float64) (kernel.Solid, error) {
	if err := positive("box", width, height, depth); err != nil {
		return nil, err
	}
	ptr := C.manifold_cube(C.manifold_alloc_manifold(),
		C.double(width), C.double(height), C.double(depth), C.int(1))
	defer C.manifold_delete_manifold(ptr)
	return newSolid(C.manifold_translate(C.manifold_alloc_manifold(), ptr,
		C.double(0), C.double(height/2), C.double(0))), nil
}

// Cylinder creates an upright cylinder.
func (k *ManifoldKernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	if err := positive("cylinder", height, radius); err != nil {
		return nil, err
	}
	return k.frustum(height, radius, radius), nil
}

// Cone creates an upright truncated cone. One of the radii may be zero.
func (k *ManifoldKernel) Cone(height, bottom, top float64) (kernel.Solid, error) {
	if err := positive("cone", height, max(bottom, top)); err != nil {
		return nil, err
	}
	if bottom < 0 || top < 0 {
		return nil, fmt.Errorf("manifold: cone: negative radius")
	}
	return k.frustum(height, bottom, top), nil
}

// Tube creates an upright hollow cylinder. An inner radius of zero gives
// a solid cylinder.
func (k *ManifoldKernel) Tube(height, outer, inner float64) (kernel.Solid, error) {
	if err := positive("tube", height, outer); err != nil {
		return nil, err
	}
	if inner >= outer {
		return nil, fmt.Errorf("manifold: tube: inner radius %v must be less than outer radius %v", inner, outer)
	}
	wall := k.frustum(height, outer, outer)
	if inner <= 0 {
		return wall, nil
	}
	bore := k.frustum(height, inner, inner)
	return k.Difference(wall, bore), nil
}

// Union returns the boolean union of two solids.
func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_union(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Difference returns the boolean difference (a minus b).
func (k *ManifoldKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_difference(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Intersection returns the boolean intersection of two solids.
func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_intersection(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Translate moves the solid by (x, y, z).
func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return newSolid(C.manifold_translate(C.manifold_alloc_manifold(), unwrap(s),
		C.double(x), C.double(y), C.double(z)))
}

// Rotate rotates the solid by Euler angles (in degrees) around the X, Y, Z axes.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return newSolid(C.manifold_rotate(C.manifold_alloc_manifold(), unwrap(s),
		C.double(x), C.double(y), C.double(z)))
}

// ToMesh extracts a triangle mesh from the solid using Manifold's MeshGL
// format. Positions come first in each vertex's property run; normals, if
// present, follow at offsets 3 to 5.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	meshGL := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s))
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}
	numProp := int(C.manifold_meshgl_num_prop(meshGL))

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), meshGL)

	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), meshGL)

	vertices := make([]float32, numVert*3)
	hasNormals := numProp >= 6
	var normals []float32
	if hasNormals {
		normals = make([]float32, numVert*3)
	}
	for i := range numVert {
		base := i * numProp
		copy(vertices[i*3:i*3+3], props[base:base+3])
		if hasNormals {
			copy(normals[i*3:i*3+3], props[base+3:base+6])
		}
	}
	if !hasNormals {
		normals = vertexNormals(vertices, indices)
	}

	m := &kernel.Mesh{Vertices: vertices, Normals: normals, Indices: indices}
	if m.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			m.VertexCount(), numVert)
	}
	return m, nil
}
