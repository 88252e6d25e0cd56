// Package kernel defines the abstract geometry kernel used to turn print
// objects into triangle meshes. Primitives are built upright: they stand
// on the plane y = 0 and are centred on the Y axis, which is the axis the
// slicer scans around by default.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Width runs along X, height along Y and depth along Z.
	Box(width, height, depth float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Cone(height, bottom, top float64) (Solid, error)
	Tube(height, outer, inner float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
