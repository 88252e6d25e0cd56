package slicer_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/mesh"
	"github.com/chazu/provel/pkg/slicer"
)

const facets = 2048

// wall returns the side wall of a cylinder about the Y axis. Facet i is
// centred on angle i*2π/n, so rays fired at lattice angles land on facet
// centres when n is a multiple of the segment count.
func wall(r, y0, y1 float64, n int, skip ...int) []geom.Triangle {
	omit := make(map[int]bool)
	for _, s := range skip {
		omit[s] = true
	}
	step := 2 * math.Pi / float64(n)
	var tris []geom.Triangle
	for i := 0; i < n; i++ {
		if omit[i] {
			continue
		}
		a0 := (float64(i) - 0.5) * step
		a1 := (float64(i) + 0.5) * step
		p00 := geom.Point3{X: r * math.Cos(a0), Y: y0, Z: r * math.Sin(a0)}
		p01 := geom.Point3{X: r * math.Cos(a0), Y: y1, Z: r * math.Sin(a0)}
		p10 := geom.Point3{X: r * math.Cos(a1), Y: y0, Z: r * math.Sin(a1)}
		p11 := geom.Point3{X: r * math.Cos(a1), Y: y1, Z: r * math.Sin(a1)}
		tris = append(tris,
			geom.Triangle{P1: p00, P2: p10, P3: p11},
			geom.Triangle{P1: p00, P2: p11, P3: p01},
		)
	}
	return tris
}

func config() slicer.Config {
	return slicer.Config{
		Segments:    64,
		LayerHeight: 0.5,
		HeightRange: slicer.Range{Min: 0, Max: 10},
		Axis:        geom.AxisY,
		Gaps:        slicer.GapDrop,
		MinCoverage: 0.95,
		MaxGap:      3,
		Workers:     4,
	}
}

func TestSliceCylinder(t *testing.T) {
	m := &mesh.Mesh{Triangles: wall(10, 0, 10, facets)}
	cfg := config()

	out, err := slicer.Slice(context.Background(), m, geom.Point3{}, cfg)
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	require.Equal(t, 20, out.LayerCount())
	assert.Equal(t, geom.AxisY, out.Axis)
	assert.Equal(t, 64, out.Segments)

	step := cfg.LayerHeight / float64(cfg.Segments)
	for i, l := range out.Layers {
		assert.Equal(t, i, l.Index)
		assert.Empty(t, l.Resampled)
		for j, s := range l.Samples {
			k := i*cfg.Segments + j
			assert.InDelta(t, 10, geom.AxisY.Radius(s.Point, geom.Point3{}), 1e-4, "layer %d slot %d", i, j)
			assert.InDelta(t, (float64(k)+0.5)*step, s.Point.Y, 1e-9)

			theta := float64(j) * 2 * math.Pi / float64(cfg.Segments)
			assert.InDelta(t, math.Cos(theta), s.Point.X/10, 1e-4)
			assert.InDelta(t, math.Sin(theta), s.Point.Z/10, 1e-4)
		}
		assert.InDelta(t, l.Samples[0].Point.Y, l.Height, 1e-12)
	}
}

func TestSliceHeightOffset(t *testing.T) {
	m := &mesh.Mesh{Triangles: wall(10, 0, 10, facets)}
	cfg := config()
	base, err := slicer.Slice(context.Background(), m, geom.Point3{}, cfg)
	require.NoError(t, err)

	cfg.HeightOffset = 1.25
	shifted, err := slicer.Slice(context.Background(), m, geom.Point3{}, cfg)
	require.NoError(t, err)
	require.Equal(t, base.LayerCount(), shifted.LayerCount())

	for i := range base.Layers {
		assert.InDelta(t, base.Layers[i].Height+1.25, shifted.Layers[i].Height, 1e-12)
		for j := range base.Layers[i].Samples {
			b, s := base.Layers[i].Samples[j].Point, shifted.Layers[i].Samples[j].Point
			assert.InDelta(t, b.Y+1.25, s.Y, 1e-12)
			assert.Equal(t, b.X, s.X)
			assert.Equal(t, b.Z, s.Z)
		}
	}
}

func TestSliceFarthestSurfaceWins(t *testing.T) {
	tris := append(wall(5, 0, 10, facets), wall(10, 0, 10, facets)...)
	out, err := slicer.Slice(context.Background(), &mesh.Mesh{Triangles: tris}, geom.Point3{}, config())
	require.NoError(t, err)
	require.Equal(t, 20, out.LayerCount())
	for _, l := range out.Layers {
		for _, s := range l.Samples {
			assert.InDelta(t, 10, geom.AxisY.Radius(s.Point, geom.Point3{}), 1e-4)
		}
	}
}

func TestSliceEmptyMesh(t *testing.T) {
	out, err := slicer.Slice(context.Background(), &mesh.Mesh{}, geom.Point3{}, config())
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
	assert.Equal(t, 64, out.Segments)
}

func TestSliceLeadingLayersSkipped(t *testing.T) {
	m := &mesh.Mesh{Triangles: wall(10, 2, 10, facets)}
	out, err := slicer.Slice(context.Background(), m, geom.Point3{}, config())
	require.NoError(t, err)
	require.Equal(t, 16, out.LayerCount())
	assert.Equal(t, 0, out.Layers[0].Index)
	assert.Greater(t, out.Layers[0].Samples[0].Point.Y, 2.0)
}

func TestSliceStopsAtFirstGap(t *testing.T) {
	tris := append(wall(10, 0, 4, facets), wall(10, 6, 10, facets)...)
	out, err := slicer.Slice(context.Background(), &mesh.Mesh{Triangles: tris}, geom.Point3{}, config())
	require.NoError(t, err)
	assert.Equal(t, 8, out.LayerCount())
}

func TestSlicePartialTopLayer(t *testing.T) {
	// H = 10 and L = 3: the fourth revolution starts at 9 and leaves the
	// wall after slot 20.
	m := &mesh.Mesh{Triangles: wall(10, 0, 10, facets)}
	cut := make([]int, 0, 43)
	for j := 21; j < 64; j++ {
		cut = append(cut, j)
	}

	for _, gaps := range []slicer.GapPolicy{slicer.GapDrop, slicer.GapResample} {
		t.Run(gaps.String(), func(t *testing.T) {
			cfg := config()
			cfg.LayerHeight = 3
			cfg.Gaps = gaps
			out, err := slicer.Slice(context.Background(), m, geom.Point3{}, cfg)
			require.NoError(t, err)
			require.NoError(t, out.Validate())
			require.Equal(t, int(math.Ceil(10.0/3)), out.LayerCount())

			for _, l := range out.Layers[:3] {
				assert.Empty(t, l.Resampled)
			}
			top := out.Layers[3]
			assert.Equal(t, cut, top.Resampled)
			assert.Less(t, top.Samples[20].Point.Y, 10.0)
			for _, j := range cut {
				p := top.Samples[j].Point
				assert.InDelta(t, 10, p.Y, 1e-12, "slot %d", j)
				assert.InDelta(t, 10, geom.AxisY.Radius(p, geom.Point3{}), 1e-4, "slot %d", j)
				below := out.Layers[2].Samples[j].Point
				assert.Equal(t, below.X, p.X)
				assert.Equal(t, below.Z, p.Z)
			}

			cfg.Strategy = slicer.StrategyIndexed
			indexed, err := slicer.Slice(context.Background(), m, geom.Point3{}, cfg)
			require.NoError(t, err)
			assert.Equal(t, out, indexed)
		})
	}

	t.Run("single layer", func(t *testing.T) {
		cfg := config()
		cfg.LayerHeight = 3
		cfg.HeightRange = slicer.Range{Min: 0, Max: 1}
		short := &mesh.Mesh{Triangles: wall(10, 0, 1, facets)}
		out, err := slicer.Slice(context.Background(), short, geom.Point3{}, cfg)
		require.NoError(t, err)
		require.Equal(t, 1, out.LayerCount())

		l := out.Layers[0]
		assert.Equal(t, cut, l.Resampled)
		for _, j := range cut {
			p := l.Samples[j].Point
			assert.InDelta(t, 1, p.Y, 1e-12)
			assert.InDelta(t, 10, geom.AxisY.Radius(p, geom.Point3{}), 1e-4)
			theta := float64(j) * 2 * math.Pi / 64
			assert.InDelta(t, math.Cos(theta), p.X/10, 1e-4)
		}
	})
}

func TestSliceGapPolicy(t *testing.T) {
	// Facet 160 is the one slot 5 hits in every layer.
	m := &mesh.Mesh{Triangles: wall(10, 0, 10, facets, 160)}

	t.Run("drop", func(t *testing.T) {
		out, err := slicer.Slice(context.Background(), m, geom.Point3{}, config())
		require.NoError(t, err)
		assert.True(t, out.IsEmpty())
	})

	t.Run("resample", func(t *testing.T) {
		cfg := config()
		cfg.Gaps = slicer.GapResample
		out, err := slicer.Slice(context.Background(), m, geom.Point3{}, cfg)
		require.NoError(t, err)
		require.NoError(t, out.Validate())
		require.Equal(t, 20, out.LayerCount())
		for _, l := range out.Layers {
			assert.Equal(t, []int{5}, l.Resampled)
			p := l.Samples[5].Point
			assert.InDelta(t, 10, geom.AxisY.Radius(p, geom.Point3{}), 1e-4)
			assert.Greater(t, p.Y, l.Samples[4].Point.Y)
			assert.Less(t, p.Y, l.Samples[6].Point.Y)
		}
	})

	t.Run("gap too wide", func(t *testing.T) {
		cfg := config()
		cfg.Gaps = slicer.GapResample
		cfg.MaxGap = 1
		// Slots 5 and 6 missing make a run of two.
		m := &mesh.Mesh{Triangles: wall(10, 0, 10, facets, 160, 192)}
		out, err := slicer.Slice(context.Background(), m, geom.Point3{}, cfg)
		require.NoError(t, err)
		assert.True(t, out.IsEmpty())
	})
}

func TestSliceStrategiesAgree(t *testing.T) {
	var tris []geom.Triangle
	for _, tri := range wall(8, 0, 10, 512) {
		// Lean the wall so the radius changes with height.
		for _, p := range []*geom.Point3{&tri.P1, &tri.P2, &tri.P3} {
			f := 1 - p.Y/40
			p.X *= f
			p.Z *= f
		}
		tris = append(tris, tri)
	}
	m := &mesh.Mesh{Triangles: tris}
	center := geom.Point3{X: 0.3, Z: -0.2}

	cfg := config()
	cfg.Gaps = slicer.GapResample
	cfg.Workers = 1
	want, err := slicer.Slice(context.Background(), m, center, cfg)
	require.NoError(t, err)
	require.False(t, want.IsEmpty())

	for _, tc := range []struct {
		name     string
		strategy slicer.Strategy
		workers  int
	}{
		{"per-triangle parallel", slicer.StrategyPerTriangle, 8},
		{"indexed serial", slicer.StrategyIndexed, 1},
		{"indexed parallel", slicer.StrategyIndexed, 8},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := cfg
			c.Strategy = tc.strategy
			c.Workers = tc.workers
			got, err := slicer.Slice(context.Background(), m, center, c)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSliceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &mesh.Mesh{Triangles: wall(10, 0, 10, 64)}
	for _, s := range []slicer.Strategy{slicer.StrategyPerTriangle, slicer.StrategyIndexed} {
		cfg := config()
		cfg.Strategy = s
		_, err := slicer.Slice(ctx, m, geom.Point3{}, cfg)
		assert.ErrorIs(t, err, context.Canceled, s.String())
	}
}

func TestSliceInfiniteVertexRange(t *testing.T) {
	tris := wall(10, 0, 10, 64)
	tris = append(tris, geom.Triangle{
		P1: geom.Point3{X: 10},
		P2: geom.Point3{X: 10, Y: math.Inf(1)},
		P3: geom.Point3{X: 10, Z: 1},
	})
	m := &mesh.Mesh{Triangles: tris}

	for _, s := range []slicer.Strategy{slicer.StrategyPerTriangle, slicer.StrategyIndexed} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cfg := config()
		cfg.Strategy = s
		cfg.HeightRange = slicer.RangeOf(m, geom.AxisY)
		_, err := slicer.Slice(ctx, m, geom.Point3{}, cfg)
		cancel()
		assert.ErrorIs(t, err, slicer.ErrInvalidConfig, s.String())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*slicer.Config)
	}{
		{"segments", func(c *slicer.Config) { c.Segments = 2 }},
		{"layer height zero", func(c *slicer.Config) { c.LayerHeight = 0 }},
		{"layer height nan", func(c *slicer.Config) { c.LayerHeight = math.NaN() }},
		{"inverted range", func(c *slicer.Config) { c.HeightRange = slicer.Range{Min: 5, Max: 1} }},
		{"range max inf", func(c *slicer.Config) { c.HeightRange.Max = math.Inf(1) }},
		{"range min -inf", func(c *slicer.Config) { c.HeightRange.Min = math.Inf(-1) }},
		{"range nan", func(c *slicer.Config) { c.HeightRange.Max = math.NaN() }},
		{"axis", func(c *slicer.Config) { c.Axis = geom.Axis(7) }},
		{"gap policy", func(c *slicer.Config) { c.Gaps = slicer.GapPolicy(9) }},
		{"coverage", func(c *slicer.Config) { c.Gaps = slicer.GapResample; c.MinCoverage = 1.5 }},
		{"max gap", func(c *slicer.Config) { c.MaxGap = -1 }},
		{"workers", func(c *slicer.Config) { c.Workers = 0 }},
		{"strategy", func(c *slicer.Config) { c.Strategy = slicer.Strategy(3) }},
	}
	require.NoError(t, config().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config()
			tt.modify(&c)
			err := c.Validate()
			assert.True(t, errors.Is(err, slicer.ErrInvalidConfig), "got %v", err)

			_, err = slicer.Slice(context.Background(), &mesh.Mesh{}, geom.Point3{}, c)
			assert.ErrorIs(t, err, slicer.ErrInvalidConfig)
		})
	}
}

func TestParse(t *testing.T) {
	p, err := slicer.ParseGapPolicy("resample")
	require.NoError(t, err)
	assert.Equal(t, slicer.GapResample, p)
	_, err = slicer.ParseGapPolicy("fill")
	assert.ErrorIs(t, err, slicer.ErrInvalidConfig)

	s, err := slicer.ParseStrategy("indexed")
	require.NoError(t, err)
	assert.Equal(t, slicer.StrategyIndexed, s)
	_, err = slicer.ParseStrategy("octree")
	assert.ErrorIs(t, err, slicer.ErrInvalidConfig)
}
