// Package settings loads the application settings file. Values come from
// built-in defaults, then an optional YAML file, then PROVEL_* environment
// variables, and are validated before use.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/chazu/provel/pkg/gcode"
	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/kernel"
	"github.com/chazu/provel/pkg/kernel/manifold"
	"github.com/chazu/provel/pkg/kernel/sdfx"
	"github.com/chazu/provel/pkg/mesh"
	"github.com/chazu/provel/pkg/printtime"
	"github.com/chazu/provel/pkg/provider"
	"github.com/chazu/provel/pkg/slicer"
)

// ErrInvalid is returned when settings fail validation.
var ErrInvalid = errors.New("invalid settings")

// Segment count bounds. Out-of-range requests are clamped; unusable ones
// fall back to DefaultSegments.
const (
	MinSegments     = 3
	MaxSegments     = 512
	DefaultSegments = 128
)

// Settings is the root of the settings file.
type Settings struct {
	Slicer   Slicer                   `yaml:"slicer"`
	Printer  Printer                  `yaml:"printer"`
	Material provider.MaterialProfile `yaml:"material"`
	SQLite   SQLite                   `yaml:"sqlite"`
	Geometry Geometry                 `yaml:"geometry"`
}

// Slicer holds the scan parameters.
type Slicer struct {
	Segments     int     `yaml:"segments" validate:"gte=3,lte=512"`
	LayerHeight  float64 `yaml:"layer_height" validate:"gt=0"`
	Axis         string  `yaml:"axis" validate:"oneof=x y z"`
	HeightOffset float64 `yaml:"height_offset"`
	Gaps         string  `yaml:"gaps" validate:"oneof=drop resample"`
	MinCoverage  float64 `yaml:"min_coverage" validate:"gt=0,lte=1"`
	MaxGap       int     `yaml:"max_gap" validate:"gte=0"`
	Workers      int     `yaml:"workers" validate:"gte=0"` // 0 uses every CPU
	Strategy     string  `yaml:"strategy" validate:"oneof=per-triangle indexed"`
}

// Printer holds the machine settings.
type Printer struct {
	NozzleDiameter      float64 `yaml:"nozzle_diameter" validate:"gte=0"`
	AverageSpeed        float64 `yaml:"average_speed" validate:"gt=0"`
	SecondsPerLayer     float64 `yaml:"seconds_per_layer" validate:"gt=0"`
	LineWidth           float64 `yaml:"line_width" validate:"gt=0"`
	ExtrusionAdjustment float64 `yaml:"extrusion_adjustment" validate:"gt=0"`
}

// SQLite points at the profile database. An empty path disables it and
// the material section is used instead.
type SQLite struct {
	Path string `yaml:"path"`
	Seed bool   `yaml:"seed"` // insert the material section when the database is empty
}

// Geometry selects the kernel that turns print objects into meshes.
type Geometry struct {
	Kernel     string `yaml:"kernel" validate:"oneof=sdfx manifold"`
	Resolution int    `yaml:"resolution" validate:"gte=8"` // marching cubes cells, or sides of round primitives
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Slicer: Slicer{
			Segments:    DefaultSegments,
			LayerHeight: 1,
			Axis:        "y",
			Gaps:        "drop",
			MinCoverage: 0.95,
			MaxGap:      3,
			Strategy:    "per-triangle",
		},
		Printer: Printer{
			NozzleDiameter:      5,
			AverageSpeed:        printtime.DefaultAverageSpeed,
			SecondsPerLayer:     8,
			LineWidth:           5,
			ExtrusionAdjustment: 1,
		},
		Material: provider.DefaultMaterial(),
		Geometry: Geometry{
			Kernel:     "sdfx",
			Resolution: sdfx.DefaultMeshCells,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Settings{}, fmt.Errorf("settings: read %s: %w", path, err)
		default:
			if s, err = Parse(data); err != nil {
				return Settings{}, fmt.Errorf("settings: %s: %w", path, err)
			}
		}
	}
	s.ApplyEnv(NewEnv().Prefix("PROVEL_"))
	s.Slicer.Segments = ClampSegments(s.Slicer.Segments)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Settings, error) {
	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("parse: %w", err)
	}
	return s, nil
}

// Marshal encodes s as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// ApplyEnv overrides fields from environment variables under e, for
// example PROVEL_SLICER_SEGMENTS or PROVEL_PRINTER_NOZZLE_DIAMETER.
func (s *Settings) ApplyEnv(e Env) {
	sl := e.Prefix("SLICER_")
	s.Slicer.Segments = sl.MayInt("SEGMENTS", s.Slicer.Segments)
	s.Slicer.LayerHeight = sl.MayFloat64("LAYER_HEIGHT", s.Slicer.LayerHeight)
	s.Slicer.Axis = sl.MayString("AXIS", s.Slicer.Axis)
	s.Slicer.HeightOffset = sl.MayFloat64("HEIGHT_OFFSET", s.Slicer.HeightOffset)
	s.Slicer.Gaps = sl.MayString("GAPS", s.Slicer.Gaps)
	s.Slicer.MinCoverage = sl.MayFloat64("MIN_COVERAGE", s.Slicer.MinCoverage)
	s.Slicer.MaxGap = sl.MayInt("MAX_GAP", s.Slicer.MaxGap)
	s.Slicer.Workers = sl.MayInt("WORKERS", s.Slicer.Workers)
	s.Slicer.Strategy = sl.MayString("STRATEGY", s.Slicer.Strategy)

	pr := e.Prefix("PRINTER_")
	s.Printer.NozzleDiameter = pr.MayFloat64("NOZZLE_DIAMETER", s.Printer.NozzleDiameter)
	s.Printer.AverageSpeed = pr.MayFloat64("AVERAGE_SPEED", s.Printer.AverageSpeed)
	s.Printer.SecondsPerLayer = pr.MayFloat64("SECONDS_PER_LAYER", s.Printer.SecondsPerLayer)
	s.Printer.LineWidth = pr.MayFloat64("LINE_WIDTH", s.Printer.LineWidth)
	s.Printer.ExtrusionAdjustment = pr.MayFloat64("EXTRUSION_ADJUSTMENT", s.Printer.ExtrusionAdjustment)

	ma := e.Prefix("MATERIAL_")
	s.Material.Name = ma.MayString("NAME", s.Material.Name)
	s.Material.ShrinkFactor = ma.MayFloat64("SHRINK_FACTOR", s.Material.ShrinkFactor)
	s.Material.OutputFactor = ma.MayFloat64("OUTPUT_FACTOR", s.Material.OutputFactor)
	s.Material.NozzleTemp = ma.MayFloat64("NOZZLE_TEMP", s.Material.NozzleTemp)

	ge := e.Prefix("GEOMETRY_")
	s.Geometry.Kernel = ge.MayString("KERNEL", s.Geometry.Kernel)
	s.Geometry.Resolution = ge.MayInt("RESOLUTION", s.Geometry.Resolution)

	db := e.Prefix("SQLITE_")
	s.SQLite.Path = db.MayString("PATH", s.SQLite.Path)
	s.SQLite.Seed = db.MayBool("SEED", s.SQLite.Seed)
}

// ClampSegments limits n to [MinSegments, MaxSegments]. Values below
// MinSegments are treated as unset and replaced by DefaultSegments.
func ClampSegments(n int) int {
	switch {
	case n < MinSegments:
		return DefaultSegments
	case n > MaxSegments:
		return MaxSegments
	}
	return n
}

// SlicerConfig builds the scan configuration for m. The height range is
// taken from the mesh extent along the configured axis.
func (s Settings) SlicerConfig(m *mesh.Mesh) (slicer.Config, error) {
	axis, err := geom.ParseAxis(s.Slicer.Axis)
	if err != nil {
		return slicer.Config{}, fmt.Errorf("settings: %w", err)
	}
	gaps, err := slicer.ParseGapPolicy(s.Slicer.Gaps)
	if err != nil {
		return slicer.Config{}, fmt.Errorf("settings: %w", err)
	}
	strategy, err := slicer.ParseStrategy(s.Slicer.Strategy)
	if err != nil {
		return slicer.Config{}, fmt.Errorf("settings: %w", err)
	}
	workers := s.Slicer.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return slicer.Config{
		Segments:     ClampSegments(s.Slicer.Segments),
		LayerHeight:  s.Slicer.LayerHeight,
		HeightRange:  slicer.RangeOf(m, axis),
		Axis:         axis,
		HeightOffset: s.Slicer.HeightOffset,
		Gaps:         gaps,
		MinCoverage:  s.Slicer.MinCoverage,
		MaxGap:       s.Slicer.MaxGap,
		Workers:      workers,
		Strategy:     strategy,
	}, nil
}

// Axis returns the parsed vertical axis.
func (s Settings) Axis() (geom.Axis, error) {
	return geom.ParseAxis(s.Slicer.Axis)
}

// Provider serves the printer and material sections as a
// provider.ConfigurationProvider.
func (s Settings) Provider() provider.Static {
	return provider.Static{
		Printer:  provider.PrinterConfig{NozzleDiameter: s.Printer.NozzleDiameter},
		Material: s.Material,
	}
}

// GCodeParams builds the toolpath parameters for material. The estimated
// time and generation stamp are left for the caller.
func (s Settings) GCodeParams(material provider.MaterialProfile) gcode.Params {
	return gcode.Params{
		Material:            material,
		NozzleDiameter:      s.Printer.NozzleDiameter,
		LayerHeight:         s.Slicer.LayerHeight,
		LineWidth:           s.Printer.LineWidth,
		ExtrusionAdjustment: s.Printer.ExtrusionAdjustment,
		SecondsPerLayer:     s.Printer.SecondsPerLayer,
	}
}

// NewKernel builds the configured geometry kernel. The manifold kernel is
// only available in builds with the manifold tag.
func (s Settings) NewKernel() (kernel.Kernel, error) {
	switch s.Geometry.Kernel {
	case "", "sdfx":
		return sdfx.NewWithCells(s.Geometry.Resolution), nil
	case "manifold":
		k, err := manifold.NewWithSides(s.Geometry.Resolution)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		return k, nil
	}
	return nil, fmt.Errorf("settings: %w: unknown kernel %q", ErrInvalid, s.Geometry.Kernel)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
