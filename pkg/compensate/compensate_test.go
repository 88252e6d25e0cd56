package compensate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/provel/pkg/compensate"
	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/provider"
)

func ring(axis geom.Axis, r float64, n, layers int) *model.Model {
	m := &model.Model{Axis: axis, Segments: n}
	for i := 0; i < layers; i++ {
		pts := make([]geom.Point3, n)
		for j := range pts {
			theta := float64(j) * 2 * math.Pi / float64(n)
			pts[j] = axis.Compose(float64(i)+float64(j)/float64(n), 1+r*math.Cos(theta), 2+r*math.Sin(theta))
		}
		m.Layers = append(m.Layers, model.NewLayer(i, float64(i), pts))
	}
	return m
}

// countingProvider records how often each lookup runs.
type countingProvider struct {
	provider.Static
	printer, material int
}

func (c *countingProvider) PrinterConfig(ctx context.Context) (provider.PrinterConfig, error) {
	c.printer++
	return c.Static.PrinterConfig(ctx)
}

func (c *countingProvider) ActiveMaterialProfile(ctx context.Context) (provider.MaterialProfile, error) {
	c.material++
	return c.Static.ActiveMaterialProfile(ctx)
}

func TestApplyFormula(t *testing.T) {
	for _, axis := range []geom.Axis{geom.AxisX, geom.AxisY, geom.AxisZ} {
		t.Run(axis.String(), func(t *testing.T) {
			m := ring(axis, 10, 16, 3)
			center := axis.Compose(0, 1, 2)
			p := &countingProvider{Static: provider.Static{
				Printer:  provider.PrinterConfig{NozzleDiameter: 4},
				Material: provider.MaterialProfile{ShrinkFactor: 2.5},
			}}

			out, err := compensate.Apply(context.Background(), m, center, p)
			require.NoError(t, err)
			assert.Equal(t, 1, p.printer)
			assert.Equal(t, 1, p.material)

			want := (10 + 4.0/2) * (1 - 2.5/100)
			for i, l := range out.Layers {
				for j, s := range l.Samples {
					orig := m.Layers[i].Samples[j].Point
					assert.InDelta(t, want, axis.Radius(s.Point, center), 1e-9)
					assert.Equal(t, axis.Height(orig), axis.Height(s.Point))
					assert.Equal(t, j, s.Slot)
				}
			}
		})
	}
}

func TestApplyIdentity(t *testing.T) {
	m := ring(geom.AxisY, 7.3, 12, 2)
	tests := []struct {
		name string
		f    compensate.Factors
	}{
		{"no nozzle", compensate.Factors{ShrinkFactor: 3}},
		{"no shrink", compensate.Factors{NozzleDiameter: 2}},
		{"neither", compensate.Factors{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := provider.Static{
				Printer:  provider.PrinterConfig{NozzleDiameter: tt.f.NozzleDiameter},
				Material: provider.MaterialProfile{ShrinkFactor: tt.f.ShrinkFactor},
			}
			out, err := compensate.Apply(context.Background(), m, geom.Point3{X: 1, Z: 2}, p)
			require.NoError(t, err)
			assert.Equal(t, m, out)
			assert.NotSame(t, m, out)
		})
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	m := ring(geom.AxisY, 5, 8, 2)
	before := m.Clone()
	_, err := compensate.Apply(context.Background(), m, geom.Point3{}, provider.Static{
		Printer:  provider.PrinterConfig{NozzleDiameter: 1},
		Material: provider.MaterialProfile{ShrinkFactor: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, before, m)
}

func TestApplyProviderFailure(t *testing.T) {
	boom := errors.New("database locked")
	p := provider.Func{
		Printer: func(context.Context) (provider.PrinterConfig, error) {
			return provider.PrinterConfig{NozzleDiameter: 1}, nil
		},
		Material: func(context.Context) (provider.MaterialProfile, error) {
			return provider.MaterialProfile{}, boom
		},
	}
	_, err := compensate.Apply(context.Background(), ring(geom.AxisY, 5, 8, 2), geom.Point3{}, p)
	assert.ErrorIs(t, err, provider.ErrProvider)
	assert.ErrorIs(t, err, boom)
}

func TestApplyRejectsMismatchedLayers(t *testing.T) {
	m := ring(geom.AxisY, 5, 8, 2)
	m.Layers[1].Samples = m.Layers[1].Samples[:7]
	_, err := compensate.Apply(context.Background(), m, geom.Point3{}, provider.Static{})
	assert.ErrorIs(t, err, model.ErrLayerMismatch)
}
