// Package gcode emits a spiral toolpath for a sliced Model.
//
// Machine coordinates are X and Y in the horizontal plane and Z along the
// Model's vertical axis, whatever axis the mesh was sliced around.
package gcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/provider"
)

// ErrInvalidParams is returned when Params cannot produce a toolpath.
var ErrInvalidParams = errors.New("invalid gcode parameters")

// Params carries everything the writer needs besides the Model.
type Params struct {
	Material            provider.MaterialProfile
	NozzleDiameter      float64
	LayerHeight         float64
	LineWidth           float64
	ExtrusionAdjustment float64
	SecondsPerLayer     float64 // used when the material has no fixed feedrate
	EstimatedTime       string
	Version             string
	Generated           time.Time
}

func (p Params) validate() error {
	switch {
	case !(p.LayerHeight > 0):
		return fmt.Errorf("%w: layer height %v", ErrInvalidParams, p.LayerHeight)
	case !(p.LineWidth > 0):
		return fmt.Errorf("%w: line width %v", ErrInvalidParams, p.LineWidth)
	case !(p.ExtrusionAdjustment > 0):
		return fmt.Errorf("%w: extrusion adjustment %v", ErrInvalidParams, p.ExtrusionAdjustment)
	case p.Material.Feedrate <= 0 && !(p.SecondsPerLayer > 0):
		return fmt.Errorf("%w: seconds per layer %v", ErrInvalidParams, p.SecondsPerLayer)
	}
	return nil
}

// Extrusion returns the filament to push for a move of length distance.
func (p Params) Extrusion(distance float64) float64 {
	return distance * p.LayerHeight * p.LineWidth / p.ExtrusionAdjustment * p.Material.OutputFactor
}

// Feedrate returns the feed in distance units per minute that completes a
// ring of the given perimeter in SecondsPerLayer. A fixed material
// feedrate takes precedence.
func (p Params) Feedrate(perimeter float64) int {
	if p.Material.Feedrate > 0 {
		return int(math.Round(p.Material.Feedrate))
	}
	return int(math.Round(perimeter * 60 / p.SecondsPerLayer))
}

// Perimeter returns the length of the open ring through l's points,
// scaled by (segments+1)/len to account for the closing move of a full
// revolution.
func Perimeter(l model.Layer, segments int) float64 {
	n := l.Len()
	if n < 2 {
		return 0
	}
	d := 0.0
	for j := 1; j < n; j++ {
		d += l.Samples[j].Point.Dist(l.Samples[j-1].Point)
	}
	return d * float64(segments+1) / float64(n)
}

// Write emits the toolpath for m to w.
func Write(w io.Writer, m *model.Model, p Params) error {
	if err := p.validate(); err != nil {
		return fmt.Errorf("gcode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("gcode: %w", err)
	}

	bw := bufio.NewWriter(w)
	out := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
		bw.WriteByte('\n')
	}

	generated := p.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	out(";generated by provel %s on %s", p.Version, generated.UTC().Format(time.RFC1123))
	out(";TYPE:Custom")
	out(";estimated printing time (normal mode)=%s", p.EstimatedTime)
	out(";customInfo material=%q", p.Material.Name)
	out(";customInfo nozzleSize=\"%smm\"", num(p.NozzleDiameter, 2))
	out(";customInfo nozzleTemp=\"%sC\"", num(p.Material.NozzleTemp, 0))
	out(";customInfo layers=\"%d\"", m.LayerCount())
	out("G21 ; set units to millimeters")
	out("G90 ; use absolute positioning")
	out("M83 ; use relative distances for extrusion")
	out("M568 P0 S%s ; set barrel temperature", num(p.Material.NozzleTemp, 0))
	out("M140 P1 S%s ; set cup heater temperature", num(p.Material.CupTemp, 0))
	out("M116 S10 ; wait for temperatures")

	axis := m.Axis
	var prev geom.Point3
	for i, l := range m.Layers {
		feed := p.Feedrate(Perimeter(l, m.Segments))
		out(";LAYER:%d height=%s", i, num(l.Height, 3))
		if i == 1 {
			out("M106 P2 S0.5 ; set fan speed")
		}
		for j, s := range l.Samples {
			x, y := axis.Horizontal(s.Point)
			z := axis.Height(s.Point)
			if i == 0 && j == 0 {
				out("G0 X%s Y%s Z%s F%d", num(x, 2), num(y, 2), num(z, 2), feed)
				prev = s.Point
				continue
			}
			e := p.Extrusion(s.Point.Dist(prev))
			if i == 0 {
				// ramp flow up across the first ring
				e *= float64(j+1) / float64(l.Len())
			}
			out("G1 X%s Y%s Z%s E%s F%d", num(x, 2), num(y, 2), num(z, 2), num(e, 4), feed)
			prev = s.Point
		}
	}

	out(";END")
	out("M107 ; fan off")
	out("M140 S0 ; cup heater off")
	out("M568 P0 S0 ; barrel off")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("gcode: %w", err)
	}
	return nil
}

// String returns the toolpath for m as a string.
func String(m *model.Model, p Params) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, m, p); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// num formats v with at most prec decimals and no trailing zeros.
func num(v float64, prec int) string {
	s := fmt.Sprintf("%.*f", prec, v)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
