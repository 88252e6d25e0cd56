// Package compensate corrects a sliced Model for nozzle width and material
// shrinkage by rescaling every point radially about a center line.
package compensate

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/provider"
)

// Factors are the two inputs of the correction.
type Factors struct {
	NozzleDiameter float64
	ShrinkFactor   float64 // percent
}

// Identity reports whether f leaves every point where it is.
func (f Factors) Identity() bool {
	return f.NozzleDiameter == 0 || f.ShrinkFactor == 0
}

// Radius returns the corrected radius for a point r away from the center.
func (f Factors) Radius(r float64) float64 {
	return (r + f.NozzleDiameter/2) * (1 - f.ShrinkFactor/100)
}

// Load reads the printer config and the active material profile, one
// call each.
func Load(ctx context.Context, p provider.ConfigurationProvider) (Factors, error) {
	pc, err := p.PrinterConfig(ctx)
	if err != nil {
		return Factors{}, provider.Wrap("printer config", err)
	}
	mp, err := p.ActiveMaterialProfile(ctx)
	if err != nil {
		return Factors{}, provider.Wrap("material profile", err)
	}
	return Factors{NozzleDiameter: pc.NozzleDiameter, ShrinkFactor: mp.ShrinkFactor}, nil
}

// Apply reads the correction factors from p once and applies them to every
// point of m. The result is a new Model; m is not modified. When either
// factor is zero the result is an exact copy of m.
func Apply(ctx context.Context, m *model.Model, center geom.Point3, p provider.ConfigurationProvider) (*model.Model, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("compensate: %w", err)
	}
	f, err := Load(ctx, p)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().
		Float64("nozzle", f.NozzleDiameter).
		Float64("shrink", f.ShrinkFactor).
		Int("layers", m.LayerCount()).
		Msg("compensating")
	return With(m, center, f), nil
}

// With applies f to a copy of m. Heights are never changed; only the
// in-plane distance from center is rescaled, keeping each point's angle.
func With(m *model.Model, center geom.Point3, f Factors) *model.Model {
	out := m.Clone()
	if f.Identity() {
		return out
	}
	axis := m.Axis
	cu, cv := axis.Horizontal(center)
	for i := range out.Layers {
		samples := out.Layers[i].Samples
		for j := range samples {
			p := samples[j].Point
			u, v := axis.Horizontal(p)
			du, dv := u-cu, v-cv
			r := math.Hypot(du, dv)
			theta := math.Atan2(dv, du)
			ar := f.Radius(r)
			samples[j].Point = axis.Compose(axis.Height(p), cu+ar*math.Cos(theta), cv+ar*math.Sin(theta))
		}
	}
	return out
}
