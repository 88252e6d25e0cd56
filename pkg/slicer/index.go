package slicer

import (
	"context"
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/provel/pkg/geom"
)

// R-tree branching factors.
const (
	treeMinChildren = 4
	treeMaxChildren = 16
)

// boxed is a triangle stored in the R-tree.
type boxed struct {
	idx    int
	tri    geom.Triangle
	lo, hi float64 // height band
	rect   rtreego.Rect
}

func (b *boxed) Bounds() rtreego.Rect {
	return b.rect
}

// rect builds an R-tree rectangle from two corners, padded so that flat
// boxes keep a positive size in every dimension.
func rect(lo, hi geom.Point3, pad float64) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{lo.X - pad, lo.Y - pad, lo.Z - pad},
		[]float64{hi.X - lo.X + 2*pad, hi.Y - lo.Y + 2*pad, hi.Z - lo.Z + 2*pad},
	)
}

// triangleIndex is an R-tree over triangle bounding boxes.
type triangleIndex struct {
	tree  *rtreego.Rtree
	pad   float64
	reach float64 // ray length that clears every triangle
}

func newTriangleIndex(tris []geom.Triangle, axis geom.Axis, center geom.Point3) (*triangleIndex, error) {
	lo, hi := bounds(tris)
	size := hi.Sub(lo).Length()
	pad := geom.Epsilon * (1 + size)

	objs := make([]rtreego.Spatial, len(tris))
	for i, t := range tris {
		tlo, thi := t.Bounds()
		r, err := rect(tlo, thi, pad)
		if err != nil {
			return nil, fmt.Errorf("slicer: index triangle %d: %w", i, err)
		}
		blo, bhi := t.Extent(axis)
		objs[i] = &boxed{idx: i, tri: t, lo: blo, hi: bhi, rect: r}
	}

	reach := 0.0
	for _, c := range corners(lo, hi) {
		reach = math.Max(reach, axis.Radius(c, center))
	}
	return &triangleIndex{
		tree:  rtreego.NewTree(3, treeMinChildren, treeMaxChildren, objs...),
		pad:   pad,
		reach: reach + 1,
	}, nil
}

// candidates returns the triangles whose boxes meet the segment swept by r.
func (ix *triangleIndex) candidates(r geom.Ray) ([]rtreego.Spatial, error) {
	a, b := r.Origin, r.At(ix.reach)
	lo := geom.Point3{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
	hi := geom.Point3{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
	q, err := rect(lo, hi, ix.pad)
	if err != nil {
		return nil, err
	}
	return ix.tree.SearchIntersect(q), nil
}

// scanIndexed walks every lattice sample inside the mesh's height band
// once, asking the R-tree for candidate triangles. Layers are handed out
// to workers; each layer's samples are owned by exactly one worker.
func (s sweep) scanIndexed(ctx context.Context, tris []geom.Triangle, workers int) (hits, error) {
	ix, err := newTriangleIndex(tris, s.axis, s.center)
	if err != nil {
		return nil, err
	}
	meshLo, meshHi := tris[0].Extent(s.axis)
	for _, t := range tris[1:] {
		lo, hi := t.Extent(s.axis)
		meshLo, meshHi = math.Min(meshLo, lo), math.Max(meshHi, hi)
	}

	segs := s.grid.segments
	firstLayer := s.grid.first(meshLo) / segs
	lastLayer := s.grid.layerCount() - 1
	if top := s.grid.first(meshHi) / segs; top < lastLayer {
		lastLayer = top
	}
	if lastLayer < firstLayer {
		return hits{}, nil
	}

	layers := lastLayer - firstLayer + 1
	parts := make([]hits, layers)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < layers; i++ {
		layer := firstLayer + i
		out := make(hits)
		parts[i] = out
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.scanLayer(ix, layer, out)
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

func (s sweep) scanLayer(ix *triangleIndex, layer int, out hits) error {
	segs := s.grid.segments
	ray := newScanRay(s.axis, s.center, s.grid, layer*segs)
	for j := 0; j < segs; j++ {
		k := ray.Sample()
		r := ray.Ray()
		cands, err := ix.candidates(r)
		if err != nil {
			return fmt.Errorf("slicer: query sample %d: %w", k, err)
		}
		for _, c := range cands {
			b := c.(*boxed)
			if !s.covers(k, b.lo, b.hi) {
				continue
			}
			if p, t, ok := b.tri.Intersect(r); ok {
				out.offer(k, hit{tri: b.idx, dist: t, point: p})
			}
		}
		ray.Advance()
	}
	return nil
}

func bounds(tris []geom.Triangle) (lo, hi geom.Point3) {
	lo, hi = tris[0].Bounds()
	for _, t := range tris[1:] {
		tlo, thi := t.Bounds()
		lo = geom.Point3{X: math.Min(lo.X, tlo.X), Y: math.Min(lo.Y, tlo.Y), Z: math.Min(lo.Z, tlo.Z)}
		hi = geom.Point3{X: math.Max(hi.X, thi.X), Y: math.Max(hi.Y, thi.Y), Z: math.Max(hi.Z, thi.Z)}
	}
	return lo, hi
}

func corners(lo, hi geom.Point3) []geom.Point3 {
	out := make([]geom.Point3, 0, 8)
	for _, x := range []float64{lo.X, hi.X} {
		for _, y := range []float64{lo.Y, hi.Y} {
			for _, z := range []float64{lo.Z, hi.Z} {
				out = append(out, geom.Point3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}
