package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/provel/pkg/blend"
	"github.com/chazu/provel/pkg/compensate"
	"github.com/chazu/provel/pkg/engine"
	"github.com/chazu/provel/pkg/gcode"
	"github.com/chazu/provel/pkg/kernel"
	"github.com/chazu/provel/pkg/kernel/sdfx"
	"github.com/chazu/provel/pkg/logger"
	"github.com/chazu/provel/pkg/mesh"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/printtime"
	"github.com/chazu/provel/pkg/provider"
	"github.com/chazu/provel/pkg/settings"
	"github.com/chazu/provel/pkg/slicer"
	"github.com/chazu/provel/pkg/tessellate"
)

// version is stamped into generated G-code.
var version = "dev"

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx      context.Context
	log      *logger.Logger
	settings settings.Settings
	provider provider.ConfigurationProvider
	engine   *engine.Engine
	kernel   kernel.Kernel
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend. Positions is the
// triangle soup of every part, ready to hand back to Slice.
type EvalResult struct {
	Meshes    []MeshData      `json:"meshes"`
	Positions []float32       `json:"positions"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []EvalErrorData `json:"warnings"`
}

// NewApp creates an App over s that reads printer and material settings
// from p and meshes print objects with k. A nil p serves the settings file
// itself and a nil k uses the sdfx kernel.
func NewApp(s settings.Settings, p provider.ConfigurationProvider, k kernel.Kernel) *App {
	if p == nil {
		p = s.Provider()
	}
	if k == nil {
		k = sdfx.New()
	}
	return &App{
		ctx:      context.Background(),
		log:      logger.Named("app"),
		settings: s,
		provider: p,
		engine:   engine.NewEngine(),
		kernel:   k,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info().Str("version", version).Msg("startup")
}

func (a *App) shutdown(context.Context) {
	a.log.Info().Msg("shutdown")
}

// request returns a context carrying a logger tagged with a fresh request
// id, plus that logger.
func (a *App) request(op string) (context.Context, *logger.Logger) {
	ctx := logger.WithRequest(a.ctx, a.log, uuid.NewString())
	l := logger.C(ctx).With().Str("op", op).Logger()
	return l.WithContext(ctx), &l
}

// fail logs err and returns it.
func fail(l *logger.Logger, err error) error {
	l.Error().Err(err).Msg("request failed")
	return err
}

// Slice scans a triangle soup around center and returns the layer rings.
func (a *App) Slice(positions []float64, center []float64) (model.Wire, error) {
	ctx, l := a.request("slice")
	start := time.Now()

	m, err := mesh.Build(positions)
	if err != nil {
		return nil, fail(l, err)
	}
	c, err := model.Center(center)
	if err != nil {
		return nil, fail(l, err)
	}
	cfg, err := a.settings.SlicerConfig(m)
	if err != nil {
		return nil, fail(l, err)
	}
	out, err := slicer.Slice(ctx, m, c, cfg)
	if err != nil {
		return nil, fail(l, err)
	}

	l.Info().
		Int("triangles", m.TriangleCount()).
		Int("layers", out.LayerCount()).
		Dur("elapsed", time.Since(start)).
		Msg("sliced")
	return out.ToWire(), nil
}

// AdjustForShrinkAndOffset scales every ring about center to undo the
// active material's shrinkage and the nozzle offset.
func (a *App) AdjustForShrinkAndOffset(points model.Wire, center []float64) (model.Wire, error) {
	ctx, l := a.request("compensate")

	m, err := a.fromWire(points)
	if err != nil {
		return nil, fail(l, err)
	}
	c, err := model.Center(center)
	if err != nil {
		return nil, fail(l, err)
	}
	out, err := compensate.Apply(ctx, m, c, a.provider)
	if err != nil {
		return nil, fail(l, err)
	}
	return out.ToWire(), nil
}

// BlendMerge moves a lower point to tolerance/2 from the point above it
// wherever the upper layer's radius exceeds the lower one's by more than
// tolerance.
func (a *App) BlendMerge(points model.Wire, tolerance float64) (model.Wire, error) {
	_, l := a.request("blend")

	m, err := a.fromWire(points)
	if err != nil {
		return nil, fail(l, err)
	}
	out, err := blend.Merge(m, tolerance)
	if err != nil {
		return nil, fail(l, err)
	}
	return out.ToWire(), nil
}

// CalculatePrintTime estimates how long the rings take to print.
func (a *App) CalculatePrintTime(levels model.Wire) (string, error) {
	_, l := a.request("printtime")

	m, err := a.fromWire(levels)
	if err != nil {
		return "", fail(l, err)
	}
	est, err := printtime.Calculate(m, a.settings.Printer.AverageSpeed)
	if err != nil {
		return "", fail(l, err)
	}
	return est.String(), nil
}

// GenerateGCode turns the rings into a spiral toolpath for the active
// material.
func (a *App) GenerateGCode(points model.Wire) (string, error) {
	ctx, l := a.request("gcode")

	m, err := a.fromWire(points)
	if err != nil {
		return "", fail(l, err)
	}
	material, err := a.provider.ActiveMaterialProfile(ctx)
	if err != nil {
		return "", fail(l, err)
	}
	est, err := printtime.Calculate(m, a.settings.Printer.AverageSpeed)
	if err != nil {
		return "", fail(l, err)
	}

	p := a.settings.GCodeParams(material)
	p.EstimatedTime = est.String()
	p.Version = version
	p.Generated = time.Now()
	out, err := gcode.String(m, p)
	if err != nil {
		return "", fail(l, err)
	}
	l.Info().Int("layers", m.LayerCount()).Str("material", material.Name).Msg("gcode generated")
	return out, nil
}

func (a *App) fromWire(w model.Wire) (*model.Model, error) {
	axis, err := a.settings.Axis()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return model.FromWire(w, axis)
}

// EvaluatePrintObject takes DSL source and returns mesh data + errors.
// This is the primary binding called by the frontend editor.
func (a *App) EvaluatePrintObject(source string) EvalResult {
	result := EvalResult{
		Meshes:    []MeshData{},
		Positions: []float32{},
		Errors:    []EvalErrorData{},
		Warnings:  []EvalErrorData{},
	}
	ctx, l := a.request("evaluate")

	// Step 1: Evaluate the source into a shape graph.
	res, err := a.engine.Evaluate(ctx, source)
	if err != nil {
		// Fatal error (panic, timeout, superseded, etc.)
		l.Warn().Err(err).Msg("evaluation aborted")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, toErrorData(w))
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, toErrorData(e))
		}
		return result
	}

	// Step 3: Tessellate the print objects into triangle meshes.
	meshes, err := tessellate.Tessellate(ctx, res.Graph, a.kernel)
	if err != nil {
		l.Error().Err(err).Msg("tessellation failed")
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel meshes to the frontend MeshData format.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	if soup := kernel.Soup(meshes); soup != nil {
		result.Positions = soup
	}

	return result
}

func toErrorData(e engine.EvalError) EvalErrorData {
	return EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
}
