// Package blend limits how far a layer may step inward under the layer
// above it, so the nozzle does not collide with material it already laid.
package blend

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
)

// ErrInvalidTolerance is returned for a tolerance that is not a positive
// finite number.
var ErrInvalidTolerance = errors.New("invalid overlap tolerance")

// Merge walks the stack from the top layer down. Wherever a point sits
// more than tolerance farther from the vertical axis through the origin
// than the point of the same slot one layer below, the lower point is
// moved to tolerance/2 from the upper point, along the horizontal line
// between them, at its own height. Because each corrected layer is then
// compared with the one below it, corrections cascade downward. The top
// layer is never modified.
//
// The result is a new Model and is a fixed point: merging it again with
// the same tolerance changes nothing.
func Merge(m *model.Model, tolerance float64) (*model.Model, error) {
	if !(tolerance > 0) || math.IsInf(tolerance, 0) {
		return nil, fmt.Errorf("blend: %w: %v", ErrInvalidTolerance, tolerance)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("blend: %w", err)
	}

	out := m.Clone()
	axis := out.Axis
	for i := len(out.Layers) - 1; i > 0; i-- {
		upper := out.Layers[i].Samples
		lower := out.Layers[i-1].Samples
		for j := range upper {
			hi, lo := upper[j].Point, lower[j].Point
			if axis.Radius(hi, geom.Point3{})-axis.Radius(lo, geom.Point3{}) > tolerance {
				lower[j].Point = pull(axis, hi, lo, tolerance/2)
			}
		}
	}
	return out, nil
}

// pull returns the point d away from hi toward lo in the horizontal plane,
// at lo's height. Points stacked directly above each other leave lo as is.
func pull(axis geom.Axis, hi, lo geom.Point3, d float64) geom.Point3 {
	hu, hv := axis.Horizontal(hi)
	lu, lv := axis.Horizontal(lo)
	du, dv := hu-lu, hv-lv
	dist := math.Hypot(du, dv)
	if dist == 0 {
		return lo
	}
	return axis.Compose(axis.Height(lo), hu-d*du/dist, hv-d*dv/dist)
}
