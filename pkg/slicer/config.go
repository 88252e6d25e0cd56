package slicer

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/mesh"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid slicer config")

// GapPolicy decides what happens to a layer that did not collect a hit in
// every angular slot.
type GapPolicy int

const (
	// GapDrop treats every incomplete layer as unusable.
	GapDrop GapPolicy = iota

	// GapResample fills missing slots by interpolating between the nearest
	// hits of the same layer, provided the layer is covered well enough.
	GapResample
)

func (p GapPolicy) String() string {
	switch p {
	case GapDrop:
		return "drop"
	case GapResample:
		return "resample"
	default:
		return fmt.Sprintf("GapPolicy(%d)", int(p))
	}
}

// ParseGapPolicy converts "drop" or "resample" to a GapPolicy.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch s {
	case "drop":
		return GapDrop, nil
	case "resample":
		return GapResample, nil
	}
	return 0, fmt.Errorf("%w: unknown gap policy %q", ErrInvalidConfig, s)
}

// Strategy selects how candidate triangles are found for each ray.
// Both strategies produce identical models.
type Strategy int

const (
	// StrategyPerTriangle sweeps a ray through the height band of each
	// triangle in turn.
	StrategyPerTriangle Strategy = iota

	// StrategyIndexed walks the sample lattice once and looks candidate
	// triangles up in an R-tree.
	StrategyIndexed
)

func (s Strategy) String() string {
	switch s {
	case StrategyPerTriangle:
		return "per-triangle"
	case StrategyIndexed:
		return "indexed"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts "per-triangle" or "indexed" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "per-triangle":
		return StrategyPerTriangle, nil
	case "indexed":
		return StrategyIndexed, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
}

// Range is a closed height interval.
type Range struct {
	Min float64
	Max float64
}

// RangeOf returns the extent of m along axis.
func RangeOf(m *mesh.Mesh, axis geom.Axis) Range {
	lo, hi := m.HeightRange(axis)
	return Range{Min: lo, Max: hi}
}

// Config holds every slicing parameter. There are no implicit defaults;
// callers build a Config from their settings source.
type Config struct {
	Segments     int       // angular samples per layer
	LayerHeight  float64   // height gained per full revolution
	HeightRange  Range     // lattice origin and upper bound
	Axis         geom.Axis // vertical axis
	HeightOffset float64   // added to the vertical coordinate of every hit
	Gaps         GapPolicy
	MinCoverage  float64 // fraction of slots a layer needs before resampling
	MaxGap       int     // longest run of missing slots resampling will bridge
	Workers      int     // concurrent scan workers
	Strategy     Strategy
}

// Validate rejects configurations the scanner cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Segments < 3:
		return fmt.Errorf("%w: segments %d, need at least 3", ErrInvalidConfig, c.Segments)
	case !(c.LayerHeight > 0) || math.IsInf(c.LayerHeight, 0):
		return fmt.Errorf("%w: layer height %v must be positive", ErrInvalidConfig, c.LayerHeight)
	case !finite(c.HeightRange.Min) || !finite(c.HeightRange.Max) || c.HeightRange.Max < c.HeightRange.Min:
		return fmt.Errorf("%w: height range [%v, %v]", ErrInvalidConfig, c.HeightRange.Min, c.HeightRange.Max)
	case !c.Axis.Valid():
		return fmt.Errorf("%w: %w %d", ErrInvalidConfig, geom.ErrInvalidAxis, int(c.Axis))
	case c.Gaps != GapDrop && c.Gaps != GapResample:
		return fmt.Errorf("%w: gap policy %d", ErrInvalidConfig, int(c.Gaps))
	case c.Gaps == GapResample && !(c.MinCoverage > 0 && c.MinCoverage <= 1):
		return fmt.Errorf("%w: min coverage %v must be in (0, 1]", ErrInvalidConfig, c.MinCoverage)
	case c.MaxGap < 0:
		return fmt.Errorf("%w: max gap %d", ErrInvalidConfig, c.MaxGap)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d, need at least 1", ErrInvalidConfig, c.Workers)
	case c.Strategy != StrategyPerTriangle && c.Strategy != StrategyIndexed:
		return fmt.Errorf("%w: strategy %d", ErrInvalidConfig, int(c.Strategy))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
