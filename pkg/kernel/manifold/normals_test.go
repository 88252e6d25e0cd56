package manifold

import (
	"math"
	"testing"
)

func TestVertexNormals(t *testing.T) {
	// two triangles of a unit square in the XZ plane, wound to face +Y
	vertices := []float32{
		0, 0, 0,
		0, 0, 1,
		1, 0, 1,
		1, 0, 0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	normals := vertexNormals(vertices, indices)
	if len(normals) != len(vertices) {
		t.Fatalf("got %d normal components, want %d", len(normals), len(vertices))
	}
	for i := 0; i < len(normals); i += 3 {
		x, y, z := normals[i], normals[i+1], normals[i+2]
		if math.Abs(float64(x)) > 1e-6 || math.Abs(float64(y)-1) > 1e-6 || math.Abs(float64(z)) > 1e-6 {
			t.Errorf("vertex %d normal = (%v, %v, %v), want (0, 1, 0)", i/3, x, y, z)
		}
	}
}

func TestVertexNormalsDegenerate(t *testing.T) {
	vertices := []float32{0, 0, 0, 1, 1, 1, 2, 2, 2}
	normals := vertexNormals(vertices, []uint32{0, 1, 2})
	for i, n := range normals {
		if n != 0 {
			t.Errorf("normal component %d = %v, want 0 for a degenerate triangle", i, n)
		}
	}
}
