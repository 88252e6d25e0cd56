package printtime_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/printtime"
)

// column builds layers of n points each, one unit above the last.
func column(layers, n int) *model.Model {
	m := &model.Model{Axis: geom.AxisY, Segments: n}
	for i := 0; i < layers; i++ {
		pts := make([]geom.Point3, n)
		for j := range pts {
			pts[j] = geom.Point3{X: float64(j), Y: float64(i)}
		}
		m.Layers = append(m.Layers, model.NewLayer(i, float64(i), pts))
	}
	return m
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name   string
		layers int
		points int
		speed  float64
		units  int
		want   string
	}{
		{"empty", 0, 4, 20, 0, "0h 0m 0s"},
		{"single layer", 1, 4, 20, 0, "0h 0m 0s"},
		{"rounds up", 2, 30, 20, 2, "0h 2m"},
		{"exact", 2, 40, 20, 2, "0h 2m"},
		{"hours", 11, 130, 20, 65, "1h 5m"},
		{"slow", 3, 60, 1, 120, "2h 0m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := printtime.Calculate(column(tt.layers, tt.points), tt.speed)
			require.NoError(t, err)
			assert.Equal(t, tt.units, e.Units)
			assert.Equal(t, tt.want, e.String())
			assert.GreaterOrEqual(t, e.Hours(), 0)
			assert.GreaterOrEqual(t, e.Minutes(), 0)
		})
	}
}

func TestCalculateDistance(t *testing.T) {
	m := &model.Model{Axis: geom.AxisY, Segments: 1, Layers: []model.Layer{
		model.NewLayer(0, 0, []geom.Point3{{}}),
		model.NewLayer(1, 4, []geom.Point3{{X: 3, Y: 4}}),
	}}
	e, err := printtime.Calculate(m, printtime.DefaultAverageSpeed)
	require.NoError(t, err)
	assert.Equal(t, 5.0, e.Distance)
	assert.Equal(t, 1, e.Units)
}

func TestCalculateInvalid(t *testing.T) {
	for _, s := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		_, err := printtime.Calculate(column(2, 2), s)
		assert.ErrorIs(t, err, printtime.ErrInvalidSpeed)
	}

	m := column(2, 3)
	m.Layers[1].Samples = m.Layers[1].Samples[:2]
	_, err := printtime.Calculate(m, 20)
	assert.ErrorIs(t, err, model.ErrLayerMismatch)
}
