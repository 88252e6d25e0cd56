package gcode

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/provider"
)

func params() Params {
	return Params{
		Material:            provider.DefaultMaterial(),
		NozzleDiameter:      5,
		LayerHeight:         1,
		LineWidth:           5,
		ExtrusionAdjustment: 1,
		SecondsPerLayer:     8,
		EstimatedTime:       "0h 3m",
		Version:             "test",
		Generated:           time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func square(axis geom.Axis, layers int) *model.Model {
	m := &model.Model{Axis: axis, Segments: 4}
	for i := 0; i < layers; i++ {
		h := float64(i)
		pts := []geom.Point3{
			axis.Compose(h, 10, 0),
			axis.Compose(h, 0, 10),
			axis.Compose(h, -10, 0),
			axis.Compose(h, 0, -10),
		}
		m.Layers = append(m.Layers, model.NewLayer(i, h, pts))
	}
	return m
}

func TestNum(t *testing.T) {
	assert.Equal(t, "1.5", num(1.5, 2))
	assert.Equal(t, "2", num(2.0001, 2))
	assert.Equal(t, "0", num(-0.0001, 2))
	assert.Equal(t, "-3.25", num(-3.25, 4))
	assert.Equal(t, "200", num(200, 0))
}

func TestPerimeterAndFeedrate(t *testing.T) {
	l := square(geom.AxisY, 1).Layers[0]
	side := 10 * math.Sqrt2
	assert.InDelta(t, 3*side*5/4, Perimeter(l, 4), 1e-9)

	p := params()
	assert.Equal(t, int(math.Round(3*side*5/4*60/8)), p.Feedrate(Perimeter(l, 4)))

	p.Material.Feedrate = 1234.4
	assert.Equal(t, 1234, p.Feedrate(99))
}

func TestExtrusion(t *testing.T) {
	p := params()
	p.LayerHeight = 0.5
	p.LineWidth = 4
	p.ExtrusionAdjustment = 2
	p.Material.OutputFactor = 1.5
	assert.InDelta(t, 10*0.5*4/2*1.5, p.Extrusion(10), 1e-12)
}

func TestWrite(t *testing.T) {
	out, err := String(square(geom.AxisY, 2), params())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, ";generated by provel test on Fri, 02 Jan 2026 03:04:05 UTC", lines[0])
	assert.Contains(t, out, ";estimated printing time (normal mode)=0h 3m\n")
	assert.Contains(t, out, ";customInfo material=\"cp1\"\n")
	assert.Contains(t, out, "M568 P0 S200 ; set barrel temperature\n")
	assert.Contains(t, out, "M140 P1 S190 ; set cup heater temperature\n")

	var moves []string
	for _, l := range lines {
		if strings.HasPrefix(l, "G0 ") || strings.HasPrefix(l, "G1 ") {
			moves = append(moves, l)
		}
	}
	require.Len(t, moves, 8)
	assert.True(t, strings.HasPrefix(moves[0], "G0 X10 Y0 Z0 F"), moves[0])
	// AxisY maps model Z to machine Y and model Y to machine Z
	assert.True(t, strings.HasPrefix(moves[5], "G1 X0 Y10 Z1 E"), moves[5])
	assert.Equal(t, ";END", lines[len(lines)-4])
}

func TestWriteFirstRingRamp(t *testing.T) {
	p := params()
	out, err := String(square(geom.AxisZ, 1), p)
	require.NoError(t, err)
	// second point of the first ring: full move scaled by 2/4
	e := num(p.Extrusion(10*math.Sqrt2)*2/4, 4)
	assert.Contains(t, out, "G1 X0 Y10 Z0 E"+e+" F")
}

func TestWriteInvalid(t *testing.T) {
	p := params()
	p.LayerHeight = 0
	_, err := String(square(geom.AxisY, 1), p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p = params()
	p.SecondsPerLayer = 0
	_, err = String(square(geom.AxisY, 1), p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p.Material.Feedrate = 900
	_, err = String(square(geom.AxisY, 1), p)
	assert.NoError(t, err)

	m := square(geom.AxisY, 2)
	m.Layers[1].Samples = m.Layers[1].Samples[:3]
	_, err = String(m, params())
	assert.ErrorIs(t, err, model.ErrLayerMismatch)
}
