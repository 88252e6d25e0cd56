package slicer

import (
	"math"

	"github.com/chazu/provel/pkg/geom"
)

// lattice is the global helical sample grid shared by every triangle's
// sweep. Sample k sits in layer k/segments at slot k%segments; its angle
// is slot*2π/segments and its height is min + (k+½)*step, so one full
// revolution climbs exactly one layer height.
type lattice struct {
	segments int
	min, max float64
	step     float64 // height gained per sample
	dtheta   float64 // angle turned per sample
}

func newLattice(c Config) lattice {
	return lattice{
		segments: c.Segments,
		min:      c.HeightRange.Min,
		max:      c.HeightRange.Max,
		step:     c.LayerHeight / float64(c.Segments),
		dtheta:   2 * math.Pi / float64(c.Segments),
	}
}

func (l lattice) height(k int) float64 {
	return l.min + (float64(k)+0.5)*l.step
}

func (l lattice) angle(k int) float64 {
	return float64(k%l.segments) * l.dtheta
}

// first returns the index of the lowest sample at or above h.
func (l lattice) first(h float64) int {
	k := int(math.Ceil((h-l.min)/l.step - 0.5))
	if k < 0 {
		return 0
	}
	return k
}

// layerCount returns the number of layers whose first sample lies within
// the configured range.
func (l lattice) layerCount() int {
	n := int(math.Max(0, math.Floor((l.max-l.min)/(l.step*float64(l.segments)))))
	for l.height(n*l.segments) <= l.max {
		n++
	}
	for n > 0 && l.height((n-1)*l.segments) > l.max {
		n--
	}
	return n
}

// ScanRay is the ray swept around the vertical axis. It starts at the
// centre and points horizontally; Advance turns it by one angular step
// and lifts it by one height step. A ScanRay belongs to a single sweep.
type ScanRay struct {
	Origin    geom.Point3
	Direction geom.Point3

	axis   geom.Axis
	center geom.Point3
	grid   lattice
	k      int
}

func newScanRay(axis geom.Axis, center geom.Point3, grid lattice, k int) *ScanRay {
	r := &ScanRay{axis: axis, center: center, grid: grid, k: k}
	r.sync()
	return r
}

// Advance rotates the ray by 2π/segments and raises it by
// layerHeight/segments. Angle and height are recomputed from the sample
// index so long sweeps do not accumulate rounding drift.
func (r *ScanRay) Advance() {
	r.k++
	r.sync()
}

func (r *ScanRay) sync() {
	r.Origin = r.axis.WithHeight(r.center, r.grid.height(r.k))
	r.Direction = r.axis.Direction(r.grid.angle(r.k))
}

// Height returns the ray's current height along the vertical axis.
func (r *ScanRay) Height() float64 {
	return r.grid.height(r.k)
}

// Angle returns the ray's current sweep angle in radians, in [0, 2π).
func (r *ScanRay) Angle() float64 {
	return r.grid.angle(r.k)
}

// Sample returns the lattice index of the ray's current position.
func (r *ScanRay) Sample() int {
	return r.k
}

// Ray returns the current ray.
func (r *ScanRay) Ray() geom.Ray {
	return geom.Ray{Origin: r.Origin, Direction: r.Direction}
}
