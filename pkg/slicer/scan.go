package slicer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/provel/pkg/geom"
)

// hit is the best intersection found for one lattice sample.
type hit struct {
	tri   int
	dist  float64
	point geom.Point3
}

// better reports whether h should replace cur for the same sample: the
// farther surface wins, ties go to the lower triangle index.
func (h hit) better(cur hit) bool {
	if h.dist != cur.dist {
		return h.dist > cur.dist
	}
	return h.tri < cur.tri
}

// hits maps lattice sample index to the winning intersection.
type hits map[int]hit

func (hs hits) offer(k int, h hit) {
	if cur, ok := hs[k]; !ok || h.better(cur) {
		hs[k] = h
	}
}

func (hs hits) merge(other hits) {
	for k, h := range other {
		hs.offer(k, h)
	}
}

// sweep holds what every scan strategy needs to fire rays.
type sweep struct {
	axis   geom.Axis
	center geom.Point3
	grid   lattice
}

// covers reports whether sample k falls inside the height band [lo, hi]
// of a triangle. Both strategies use this predicate so they visit the
// same (triangle, sample) pairs.
func (s sweep) covers(k int, lo, hi float64) bool {
	if k < s.grid.first(lo) {
		return false
	}
	h := s.grid.height(k)
	return h <= hi && h <= s.grid.max
}

// scanTriangle sweeps a ray through the height band of one triangle and
// records every intersection into out.
func (s sweep) scanTriangle(idx int, tri geom.Triangle, out hits) {
	lo, hi := tri.Extent(s.axis)
	ray := newScanRay(s.axis, s.center, s.grid, s.grid.first(lo))
	for {
		h := ray.Height()
		if h > hi || h > s.grid.max {
			return
		}
		if p, t, ok := tri.Intersect(ray.Ray()); ok {
			out.offer(ray.Sample(), hit{tri: idx, dist: t, point: p})
		}
		ray.Advance()
	}
}

// scanPerTriangle partitions the triangles into contiguous chunks, one per
// worker. Each chunk produces its own hit map; maps are merged in chunk
// order once all workers finish, and since the winner rule is a total
// order the result does not depend on scheduling.
func (s sweep) scanPerTriangle(ctx context.Context, tris []geom.Triangle, workers int) (hits, error) {
	if workers > len(tris) {
		workers = len(tris)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(tris) + workers - 1) / workers
	parts := make([]hits, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(tris))
		out := make(hits)
		parts[w] = out
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				s.scanTriangle(i, tris[i], out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make(hits)
	for _, p := range parts {
		all.merge(p)
	}
	return all, nil
}
