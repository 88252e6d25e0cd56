// Package printtime estimates how long a sliced Model takes to print.
package printtime

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/provel/pkg/model"
)

// DefaultAverageSpeed is the travel speed, in distance units per time
// unit, used when the settings do not override it.
const DefaultAverageSpeed = 20.0

// ErrInvalidSpeed is returned for a speed that is not a positive finite number.
var ErrInvalidSpeed = errors.New("invalid average speed")

// tooShort is reported for models with fewer than two layers. Its format
// differs from the normal "<h>h <m>m" and client code matches on it.
const tooShort = "0h 0m 0s"

// Estimate is a print-time estimate.
type Estimate struct {
	Distance float64 // summed travel between corresponding slots
	Units    int     // ceil(Distance / speed)
	Layers   int
}

// Hours returns the whole hours of the estimate.
func (e Estimate) Hours() int {
	return e.Units / 60
}

// Minutes returns the minutes left after Hours.
func (e Estimate) Minutes() int {
	return e.Units % 60
}

func (e Estimate) String() string {
	if e.Layers < 2 {
		return tooShort
	}
	return fmt.Sprintf("%dh %dm", e.Hours(), e.Minutes())
}

// Calculate sums the distance from every point to the point of the same
// slot in the layer above and divides it by averageSpeed, rounding up.
func Calculate(m *model.Model, averageSpeed float64) (Estimate, error) {
	if !(averageSpeed > 0) || math.IsInf(averageSpeed, 0) {
		return Estimate{}, fmt.Errorf("printtime: %w: %v", ErrInvalidSpeed, averageSpeed)
	}
	if err := m.Validate(); err != nil {
		return Estimate{}, fmt.Errorf("printtime: %w", err)
	}

	e := Estimate{Layers: m.LayerCount()}
	if e.Layers < 2 {
		return e, nil
	}
	for i := 1; i < len(m.Layers); i++ {
		below, above := m.Layers[i-1].Samples, m.Layers[i].Samples
		for j := range above {
			e.Distance += above[j].Point.Dist(below[j].Point)
		}
	}
	e.Units = int(math.Ceil(e.Distance / averageSpeed))
	return e, nil
}
