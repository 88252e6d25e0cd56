// Package commands implements the provel subcommands. Each Run function
// writes its report to w and returns an error instead of exiting, so the
// commands can be driven from tests.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/provel/pkg/engine"
	"github.com/chazu/provel/pkg/mesh"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/settings"
	"github.com/chazu/provel/pkg/shape"
	"github.com/chazu/provel/pkg/snapshot"
	"github.com/chazu/provel/pkg/stl"
	"github.com/chazu/provel/pkg/tessellate"
)

// ErrUnsupported is returned for files whose extension no command reads
// or writes.
var ErrUnsupported = errors.New("unsupported file type")

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// isSource reports whether path holds print-object DSL source.
func isSource(path string) bool {
	switch ext(path) {
	case ".provel", ".lisp", ".zy":
		return true
	}
	return false
}

// evalFile evaluates the DSL source at path.
func evalFile(ctx context.Context, path string) (*shape.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := engine.NewEngine().Evaluate(ctx, string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(res.Errors) > 0 {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = fmt.Errorf("%s: %w", path, e)
		}
		return nil, errors.Join(errs...)
	}
	return res.Graph, nil
}

// loadMesh reads an STL file, or evaluates and tessellates DSL source.
func loadMesh(ctx context.Context, s settings.Settings, path string) (*mesh.Mesh, error) {
	var (
		soup []float32
		err  error
	)
	switch {
	case ext(path) == ".stl":
		soup, err = stl.ReadFile(path)
	case isSource(path):
		soup, err = render(ctx, s, path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	if err != nil {
		return nil, err
	}
	return mesh.BuildFloat32(soup)
}

func render(ctx context.Context, s settings.Settings, path string) ([]float32, error) {
	g, err := evalFile(ctx, path)
	if err != nil {
		return nil, err
	}
	k, err := s.NewKernel()
	if err != nil {
		return nil, err
	}
	return tessellate.Stream(ctx, g, k)
}

// loadModel reads a snapshot, or a JSON wire file sliced around axis.
func loadModel(s settings.Settings, path string) (*model.Model, error) {
	if ext(path) != ".json" {
		f, err := snapshot.Load(path)
		if err != nil {
			return nil, err
		}
		return f.Model, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w model.Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	axis, err := s.Axis()
	if err != nil {
		return nil, err
	}
	return model.FromWire(w, axis)
}

// saveModel writes m as JSON wire data or as a snapshot, by extension.
func saveModel(path string, m *model.Model, source string) error {
	switch ext(path) {
	case ".json":
		data, err := json.Marshal(m.ToWire())
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case snapshot.Ext:
		_, err := snapshot.Save(path, m, source)
		return err
	}
	return fmt.Errorf("%s: %w", path, ErrUnsupported)
}
