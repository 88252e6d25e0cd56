package kernel

// Mesh is an indexed triangle mesh. All arrays are flat: vertices has 3
// floats per vertex, normals has 3 floats per vertex and indices has 3
// entries per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"` // print object this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Soup expands the index buffer into the flat nine-floats-per-triangle
// stream consumed by the slicer. Indices that point past the vertex
// buffer are skipped along with their triangle.
func (m *Mesh) Soup() []float32 {
	n := m.VertexCount()
	out := make([]float32, 0, len(m.Indices)/3*9)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		if int(a) >= n || int(b) >= n || int(c) >= n {
			continue
		}
		out = append(out, m.Vertices[3*a:3*a+3]...)
		out = append(out, m.Vertices[3*b:3*b+3]...)
		out = append(out, m.Vertices[3*c:3*c+3]...)
	}
	return out
}

// Soup concatenates the triangle streams of every mesh.
func Soup(meshes []*Mesh) []float32 {
	var out []float32
	for _, m := range meshes {
		out = append(out, m.Soup()...)
	}
	return out
}
