package model

import (
	"fmt"

	"github.com/chazu/provel/pkg/geom"
	"github.com/samber/lo"
)

// Wire is the nested form exchanged with the frontend: one flat
// x, y, z, x, y, z, ... slice per layer.
type Wire [][]float64

// ToWire flattens m into its wire form. Slot keys are implied by position.
func (m *Model) ToWire() Wire {
	return lo.Map(m.Layers, func(l Layer, _ int) []float64 {
		flat := make([]float64, 0, l.Len()*3)
		for _, p := range l.Points() {
			flat = append(flat, p.X, p.Y, p.Z)
		}
		return flat
	})
}

// FromWire rebuilds a Model from its wire form, keying each point by its
// position in the layer. Layers must be whole triples and all of the same
// length. Height is read from the first point of each layer.
func FromWire(w Wire, axis geom.Axis) (*Model, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("model: %w %d", geom.ErrInvalidAxis, int(axis))
	}

	m := &Model{Axis: axis, Layers: make([]Layer, 0, len(w))}
	for i, flat := range w {
		if len(flat)%3 != 0 {
			return nil, fmt.Errorf("model: %w: layer %d has %d values, not a multiple of 3",
				ErrMalformedLayer, i, len(flat))
		}
		n := len(flat) / 3
		if i == 0 {
			m.Segments = n
		} else if n != m.Segments {
			return nil, fmt.Errorf("model: %w: layer %d has %d points, layer 0 has %d",
				ErrLayerMismatch, i, n, m.Segments)
		}

		pts := make([]geom.Point3, n)
		for j := range pts {
			pts[j] = geom.Point3{X: flat[3*j], Y: flat[3*j+1], Z: flat[3*j+2]}
		}
		var height float64
		if n > 0 {
			height = axis.Height(pts[0])
		}
		m.Layers = append(m.Layers, NewLayer(i, height, pts))
	}
	return m, nil
}
