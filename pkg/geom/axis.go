package geom

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidAxis is returned when an axis selector is not one of x, y or z.
var ErrInvalidAxis = errors.New("invalid axis")

// Axis selects the coordinate interpreted as "height" while scanning.
// The other two coordinates span the horizontal plane.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Valid reports whether a is one of the three known axes.
func (a Axis) Valid() bool {
	return a == AxisX || a == AxisY || a == AxisZ
}

// ParseAxis converts "x", "y" or "z" (any case) to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("%w %q, expected x, y, or z", ErrInvalidAxis, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Axis) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w %d", ErrInvalidAxis, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Axis) UnmarshalText(b []byte) error {
	v, err := ParseAxis(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Height returns the coordinate of p along a.
func (a Axis) Height(p Point3) float64 {
	switch a {
	case AxisX:
		return p.X
	case AxisZ:
		return p.Z
	default:
		return p.Y
	}
}

// Horizontal returns the two in-plane coordinates of p.
// For AxisY these are (X, Z), for AxisZ (X, Y) and for AxisX (Y, Z).
func (a Axis) Horizontal(p Point3) (u, v float64) {
	switch a {
	case AxisX:
		return p.Y, p.Z
	case AxisZ:
		return p.X, p.Y
	default:
		return p.X, p.Z
	}
}

// Compose builds a point from a height and the two in-plane coordinates.
// It is the inverse of Height and Horizontal.
func (a Axis) Compose(h, u, v float64) Point3 {
	switch a {
	case AxisX:
		return Point3{X: h, Y: u, Z: v}
	case AxisZ:
		return Point3{X: u, Y: v, Z: h}
	default:
		return Point3{X: u, Y: h, Z: v}
	}
}

// WithHeight returns p with its coordinate along a replaced by h.
func (a Axis) WithHeight(p Point3, h float64) Point3 {
	u, v := a.Horizontal(p)
	return a.Compose(h, u, v)
}

// Direction returns the horizontal unit vector at angle theta, measured
// from the first in-plane coordinate toward the second.
func (a Axis) Direction(theta float64) Point3 {
	return a.Compose(0, math.Cos(theta), math.Sin(theta))
}

// Radius returns the horizontal distance of p from the vertical line
// through c.
func (a Axis) Radius(p, c Point3) float64 {
	pu, pv := a.Horizontal(p)
	cu, cv := a.Horizontal(c)
	return math.Hypot(pu-cu, pv-cv)
}
