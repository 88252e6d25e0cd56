package geom

import "math"

// Epsilon is the tolerance of the intersection test, both for the
// parallel-ray determinant check and for hits too close to the ray origin.
const Epsilon = 1e-6

// Ray is a half-line starting at Origin heading along Direction.
// Direction does not need to be normalized; the returned hit distance
// is measured in units of Direction.
type Ray struct {
	Origin    Point3
	Direction Point3
}

// At returns the point Origin + Direction*t.
func (r Ray) At(t float64) Point3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Triangle is three vertices. The winding (P1, P2, P3) fixes the sign of
// the determinant in Intersect, but both windings are hit.
type Triangle struct {
	P1 Point3 `json:"p1"`
	P2 Point3 `json:"p2"`
	P3 Point3 `json:"p3"`
}

// Intersect runs the Möller–Trumbore test of r against t. It reports the
// hit point and the ray parameter of the hit. Rays parallel to the
// triangle plane and hits at or behind the origin report false.
//
// The determinant is compared by magnitude so a sweep around a closed
// surface hits triangles of either winding.
func (t Triangle) Intersect(r Ray) (Point3, float64, bool) {
	edge1 := t.P2.Sub(t.P1)
	edge2 := t.P3.Sub(t.P1)

	h := r.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if math.Abs(det) < Epsilon {
		return Point3{}, 0, false
	}

	inv := 1.0 / det
	s := r.Origin.Sub(t.P1)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return Point3{}, 0, false
	}

	q := s.Cross(edge1)
	v := inv * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return Point3{}, 0, false
	}

	dist := inv * edge2.Dot(q)
	if dist <= Epsilon {
		return Point3{}, 0, false
	}
	return r.At(dist), dist, true
}

// Extent returns the minimum and maximum coordinate of t along a.
func (t Triangle) Extent(a Axis) (lo, hi float64) {
	h1, h2, h3 := a.Height(t.P1), a.Height(t.P2), a.Height(t.P3)
	return math.Min(h1, math.Min(h2, h3)), math.Max(h1, math.Max(h2, h3))
}

// Bounds returns the axis-aligned bounding box of t.
func (t Triangle) Bounds() (lo, hi Point3) {
	lo = Point3{
		X: math.Min(t.P1.X, math.Min(t.P2.X, t.P3.X)),
		Y: math.Min(t.P1.Y, math.Min(t.P2.Y, t.P3.Y)),
		Z: math.Min(t.P1.Z, math.Min(t.P2.Z, t.P3.Z)),
	}
	hi = Point3{
		X: math.Max(t.P1.X, math.Max(t.P2.X, t.P3.X)),
		Y: math.Max(t.P1.Y, math.Max(t.P2.Y, t.P3.Y)),
		Z: math.Max(t.P1.Z, math.Max(t.P2.Z, t.P3.Z)),
	}
	return lo, hi
}
