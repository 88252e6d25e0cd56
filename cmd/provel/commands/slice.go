package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chazu/provel/pkg/blend"
	"github.com/chazu/provel/pkg/compensate"
	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/printtime"
	"github.com/chazu/provel/pkg/provider"
	"github.com/chazu/provel/pkg/settings"
	"github.com/chazu/provel/pkg/slicer"
)

// SliceOptions controls RunSlice.
type SliceOptions struct {
	Input  string    // .stl or DSL source
	Output string    // .json or snapshot; empty skips writing the model
	GCode  string    // G-code path; empty skips the toolpath
	Center []float64 // scan center; nil uses the mesh bounding box center
	Shrink bool      // apply shrink and nozzle compensation
	Blend  float64   // blend tolerance; 0 disables blending
}

// RunSlice slices opts.Input, optionally corrects the result, and writes
// the requested outputs. A summary goes to w.
func RunSlice(ctx context.Context, s settings.Settings, p provider.ConfigurationProvider, opts SliceOptions, w io.Writer) error {
	start := time.Now()
	msh, err := loadMesh(ctx, s, opts.Input)
	if err != nil {
		return err
	}

	var center geom.Point3
	if opts.Center == nil {
		center = msh.Center()
	} else if center, err = model.Center(opts.Center); err != nil {
		return err
	}

	cfg, err := s.SlicerConfig(msh)
	if err != nil {
		return err
	}
	m, err := slicer.Slice(ctx, msh, center, cfg)
	if err != nil {
		return err
	}
	if opts.Shrink {
		if m, err = compensate.Apply(ctx, m, center, p); err != nil {
			return err
		}
	}
	if opts.Blend > 0 {
		if m, err = blend.Merge(m, opts.Blend); err != nil {
			return err
		}
	}

	est, err := printtime.Calculate(m, s.Printer.AverageSpeed)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Sliced %s\n", opts.Input)
	fmt.Fprintf(w, "  Triangles:  %d\n", msh.TriangleCount())
	fmt.Fprintf(w, "  Layers:     %d x %d segments\n", m.LayerCount(), m.Segments)
	fmt.Fprintf(w, "  Print time: %s\n", est)
	fmt.Fprintf(w, "  Elapsed:    %s\n", time.Since(start).Round(time.Millisecond))

	if opts.Output != "" {
		if err := saveModel(opts.Output, m, opts.Input); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", opts.Output)
	}
	if opts.GCode != "" {
		if err := writeGCode(ctx, s, p, m, est, opts.GCode); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", opts.GCode)
	}
	return nil
}

// RunPrintTime prints the estimate for a saved model.
func RunPrintTime(s settings.Settings, path string, w io.Writer) error {
	m, err := loadModel(s, path)
	if err != nil {
		return err
	}
	est, err := printtime.Calculate(m, s.Printer.AverageSpeed)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, est)
	return nil
}

// RunGCode writes the toolpath for a saved model to out.
func RunGCode(ctx context.Context, s settings.Settings, p provider.ConfigurationProvider, in, out string, w io.Writer) error {
	m, err := loadModel(s, in)
	if err != nil {
		return err
	}
	est, err := printtime.Calculate(m, s.Printer.AverageSpeed)
	if err != nil {
		return err
	}
	if err := writeGCode(ctx, s, p, m, est, out); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s (%d layers, %s)\n", out, m.LayerCount(), est)
	return nil
}
