// Package model defines the sliced representation shared by every stage
// after the scanner: a Model is a stack of Layers ordered by height, and
// each Layer is a ring of Samples keyed by angular slot.
//
// Slot j of one layer corresponds to slot j of every other layer in the
// same Model. Compensation, blending, print-time estimation and G-code
// emission all rely on that correspondence, so Validate checks it before
// any of them runs.
package model

import (
	"errors"
	"fmt"

	"github.com/chazu/provel/pkg/geom"
)

var (
	// ErrLayerMismatch is returned when layers disagree on length or slot keys.
	ErrLayerMismatch = errors.New("layer mismatch")

	// ErrMalformedLayer is returned when a wire layer is not a sequence of triples.
	ErrMalformedLayer = errors.New("malformed layer")

	// ErrInvalidCenter is returned when a center vector does not have exactly
	// three components.
	ErrInvalidCenter = errors.New("invalid center")
)

// Sample is one angular sample of a layer.
type Sample struct {
	Slot  int         `json:"slot" cbor:"1,keyasint"`
	Point geom.Point3 `json:"point" cbor:"2,keyasint"`
}

// Layer is one ring of the stack. Samples are ordered by Slot and slot j
// sits at position j.
type Layer struct {
	Index   int      `json:"index" cbor:"1,keyasint"`
	Height  float64  `json:"height" cbor:"2,keyasint"`
	Samples []Sample `json:"samples" cbor:"3,keyasint"`

	// Resampled lists slots whose points were interpolated from their
	// neighbours, or clamped to the top of the scan range, rather than
	// hit by a ray.
	Resampled []int `json:"resampled,omitempty" cbor:"4,keyasint,omitempty"`
}

// Len returns the number of samples.
func (l Layer) Len() int {
	return len(l.Samples)
}

// Points returns the layer's points in slot order.
func (l Layer) Points() []geom.Point3 {
	pts := make([]geom.Point3, len(l.Samples))
	for i, s := range l.Samples {
		pts[i] = s.Point
	}
	return pts
}

// Clone returns a deep copy of l.
func (l Layer) Clone() Layer {
	c := l
	c.Samples = append([]Sample(nil), l.Samples...)
	if l.Resampled != nil {
		c.Resampled = append([]int(nil), l.Resampled...)
	}
	return c
}

// WithPoints returns a copy of l whose sample points are replaced by pts,
// keeping slots, index, height and flags. len(pts) must equal l.Len().
func (l Layer) WithPoints(pts []geom.Point3) Layer {
	c := l.Clone()
	for i := range c.Samples {
		c.Samples[i].Point = pts[i]
	}
	return c
}

// NewLayer builds a layer whose slots are the positions of pts.
func NewLayer(index int, height float64, pts []geom.Point3) Layer {
	samples := make([]Sample, len(pts))
	for i, p := range pts {
		samples[i] = Sample{Slot: i, Point: p}
	}
	return Layer{Index: index, Height: height, Samples: samples}
}

// Model is the ordered stack of layers produced by one slicing request.
// Values are treated as immutable; every correction returns a new Model.
type Model struct {
	Axis     geom.Axis `json:"axis" cbor:"1,keyasint"`
	Segments int       `json:"segments" cbor:"2,keyasint"`
	Layers   []Layer   `json:"layers" cbor:"3,keyasint"`
}

// LayerCount returns the number of layers.
func (m *Model) LayerCount() int {
	return len(m.Layers)
}

// IsEmpty returns true if the model has no layers.
func (m *Model) IsEmpty() bool {
	return len(m.Layers) == 0
}

// Clone returns a deep copy of m.
func (m *Model) Clone() *Model {
	c := &Model{Axis: m.Axis, Segments: m.Segments, Layers: make([]Layer, len(m.Layers))}
	for i, l := range m.Layers {
		c.Layers[i] = l.Clone()
	}
	return c
}

// Validate checks the positional correspondence invariant: every layer
// has Segments samples and sample j carries slot j.
func (m *Model) Validate() error {
	if !m.Axis.Valid() {
		return fmt.Errorf("model: %w %d", geom.ErrInvalidAxis, int(m.Axis))
	}
	for i, l := range m.Layers {
		if len(l.Samples) != m.Segments {
			return fmt.Errorf("model: %w: layer %d has %d samples, want %d",
				ErrLayerMismatch, i, len(l.Samples), m.Segments)
		}
		for j, s := range l.Samples {
			if s.Slot != j {
				return fmt.Errorf("model: %w: layer %d position %d carries slot %d",
					ErrLayerMismatch, i, j, s.Slot)
			}
		}
	}
	return nil
}

// Center converts a three-component vector into a point.
func Center(v []float64) (geom.Point3, error) {
	if len(v) != 3 {
		return geom.Point3{}, fmt.Errorf("model: %w: got %d components, want 3", ErrInvalidCenter, len(v))
	}
	return geom.Point3{X: v[0], Y: v[1], Z: v[2]}, nil
}
