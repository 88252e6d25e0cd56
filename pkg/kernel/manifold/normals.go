package manifold

import "github.com/chazu/provel/pkg/geom"

// DefaultSides is the number of sides of round primitives.
const DefaultSides = 96

// vertexNormals averages the face normals of the triangles around each
// vertex. Larger faces weigh more.
func vertexNormals(vertices []float32, indices []uint32) []float32 {
	at := func(i uint32) geom.Point3 {
		return geom.Point3{
			X: float64(vertices[i*3]),
			Y: float64(vertices[i*3+1]),
			Z: float64(vertices[i*3+2]),
		}
	}

	acc := make([]geom.Point3, len(vertices)/3)
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		a := at(i0)
		n := at(i1).Sub(a).Cross(at(i2).Sub(a))
		for _, i := range [3]uint32{i0, i1, i2} {
			acc[i] = acc[i].Add(n)
		}
	}

	normals := make([]float32, len(vertices))
	for i, n := range acc {
		if l := n.Length(); l > 1e-12 {
			n = n.Scale(1 / l)
			normals[i*3], normals[i*3+1], normals[i*3+2] = float32(n.X), float32(n.Y), float32(n.Z)
		}
	}
	return normals
}
