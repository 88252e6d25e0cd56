// Package slicer converts a triangle mesh into a stack of radial layers by
// sweeping a horizontal ray around a vertical axis through a center point.
//
// The ray climbs one layer height per revolution, so consecutive samples
// form a helix. Every sample belongs to a single global lattice: sample k
// lies in layer k/Segments at angular slot k%Segments. This keeps slot j
// of one layer aligned with slot j of the next, which the later stages
// depend on.
package slicer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/mesh"
	"github.com/chazu/provel/pkg/model"
)

// Slice scans m around the vertical line through center and returns the
// resulting Model. An empty mesh yields an empty Model. If ctx is
// cancelled mid-scan, Slice returns ctx.Err() and no partial result.
func Slice(ctx context.Context, m *mesh.Mesh, center geom.Point3, cfg Config) (*model.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("slicer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := sweep{axis: cfg.Axis, center: center, grid: newLattice(cfg)}
	if m == nil || m.IsEmpty() {
		return &model.Model{Axis: cfg.Axis, Segments: cfg.Segments}, nil
	}

	var (
		hs  hits
		err error
	)
	switch cfg.Strategy {
	case StrategyIndexed:
		hs, err = s.scanIndexed(ctx, m.Triangles, cfg.Workers)
	default:
		hs, err = s.scanPerTriangle(ctx, m.Triangles, cfg.Workers)
	}
	if err != nil {
		return nil, err
	}

	out, st := s.assemble(hs, cfg)
	zerolog.Ctx(ctx).Debug().
		Int("triangles", m.TriangleCount()).
		Int("hits", len(hs)).
		Int("layers", out.LayerCount()).
		Int("skipped", st.skipped).
		Int("resampled", st.resampled).
		Bool("truncated", st.truncated).
		Str("strategy", cfg.Strategy.String()).
		Msg("slice complete")
	return out, nil
}
