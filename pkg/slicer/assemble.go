package slicer

import (
	"math"
	"sort"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/model"
)

// ring is one lattice layer before gap handling. Missing slots are nil.
type ring struct {
	layer  int
	points []*geom.Point3
}

func (r ring) present() int {
	n := 0
	for _, p := range r.points {
		if p != nil {
			n++
		}
	}
	return n
}

// longestGap returns the longest circular run of missing slots.
func (r ring) longestGap() int {
	n := len(r.points)
	if r.present() == 0 {
		return n
	}
	// Start counting just after a present slot so wrap-around runs are
	// measured in one piece.
	start := 0
	for r.points[start] == nil {
		start++
	}
	longest, run := 0, 0
	for i := 1; i <= n; i++ {
		if r.points[(start+i)%n] == nil {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

// rings groups hits by lattice layer. Only layers that received at least
// one hit are returned, in increasing layer order.
func (s sweep) rings(hs hits, offset float64) []ring {
	byLayer := make(map[int]*ring)
	segs := s.grid.segments
	for k, h := range hs {
		layer := k / segs
		r, ok := byLayer[layer]
		if !ok {
			r = &ring{layer: layer, points: make([]*geom.Point3, segs)}
			byLayer[layer] = r
		}
		p := s.axis.WithHeight(h.point, s.axis.Height(h.point)+offset)
		r.points[k%segs] = &p
	}

	layers := make([]int, 0, len(byLayer))
	for l := range byLayer {
		layers = append(layers, l)
	}
	sort.Ints(layers)

	out := make([]ring, 0, len(layers))
	for _, l := range layers {
		out = append(out, *byLayer[l])
	}
	return out
}

// resample fills the missing slots of r by interpolating radius and
// height between the nearest present neighbours on either side, walking
// around the ring. It returns the filled slots in increasing order.
func (s sweep) resample(r ring, offset float64) []int {
	n := len(r.points)
	cu, cv := s.axis.Horizontal(s.center)
	var filled []int
	for j := 0; j < n; j++ {
		if r.points[j] != nil {
			continue
		}
		back, fwd := 1, 1
		for r.points[(j-back+n)%n] == nil {
			back++
		}
		for r.points[(j+fwd)%n] == nil {
			fwd++
		}
		prev := *r.points[(j-back+n)%n]
		next := *r.points[(j+fwd)%n]
		f := float64(back) / float64(back+fwd)

		radius := lerp(s.axis.Radius(prev, s.center), s.axis.Radius(next, s.center), f)
		height := lerp(s.axis.Height(prev), s.axis.Height(next), f)
		theta := float64(j) * s.grid.dtheta
		p := s.axis.Compose(height, cu+radius*math.Cos(theta), cv+radius*math.Sin(theta))
		r.points[j] = &p
		filled = append(filled, j)
	}
	return filled
}

func lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

// cutOff reports whether every missing slot of r lies above the top of
// the scan range, which is how the last ring of a height that is not a
// whole number of layers looks.
func (s sweep) cutOff(r ring) bool {
	if r.present() == 0 {
		return false
	}
	base := r.layer * s.grid.segments
	for j, p := range r.points {
		if p == nil && s.grid.height(base+j) <= s.grid.max {
			return false
		}
	}
	return true
}

// clamp fills the slots of a cut-off ring at the top of the range. Each
// filled point keeps the horizontal position of the same slot one layer
// below, or the radius of the last hit in r when there is no such layer.
// It returns the filled slots in increasing order.
func (s sweep) clamp(r ring, below *model.Layer, offset float64) []int {
	top := s.grid.max + offset
	cu, cv := s.axis.Horizontal(s.center)
	var (
		filled []int
		radius float64
	)
	for j, p := range r.points {
		if p != nil {
			radius = s.axis.Radius(*p, s.center)
			continue
		}
		var q geom.Point3
		if below != nil {
			q = s.axis.WithHeight(below.Samples[j].Point, top)
		} else {
			theta := float64(j) * s.grid.dtheta
			q = s.axis.Compose(top, cu+radius*math.Cos(theta), cv+radius*math.Sin(theta))
		}
		r.points[j] = &q
		filled = append(filled, j)
	}
	return filled
}

// usable decides whether r can join the stack under the configured gap
// policy, filling gaps when resampling applies. A ring cut off by the top
// of the range is clamped under either policy.
func (s sweep) usable(r ring, below *model.Layer, c Config) (resampled []int, ok bool) {
	segs := len(r.points)
	have := r.present()
	if have == segs {
		return nil, true
	}
	if s.cutOff(r) {
		return s.clamp(r, below, c.HeightOffset), true
	}
	if c.Gaps != GapResample || have == 0 {
		return nil, false
	}
	if have < int(math.Floor(float64(segs)*c.MinCoverage)) || r.longestGap() > c.MaxGap {
		return nil, false
	}
	return s.resample(r, c.HeightOffset), true
}

// assemble turns the hit map into a Model. Unusable layers below the
// first usable one are skipped; the stack ends at the first unusable
// layer above it, and a layer with no hits at all counts as unusable.
// Every revolution whose first sample lies in the range becomes a layer,
// so a complete wall of height H gives ceil(H/LayerHeight) layers unless
// the last revolution is shorter than half a sample.
func (s sweep) assemble(hs hits, c Config) (*model.Model, stats) {
	m := &model.Model{Axis: s.axis, Segments: s.grid.segments}
	var st stats
	prev := -1
	for _, r := range s.rings(hs, c.HeightOffset) {
		if len(m.Layers) > 0 && r.layer != prev+1 {
			st.truncated = true
			break
		}
		var below *model.Layer
		if n := len(m.Layers); n > 0 {
			below = &m.Layers[n-1]
		}
		resampled, ok := s.usable(r, below, c)
		if !ok {
			if len(m.Layers) > 0 {
				st.truncated = true
				break
			}
			st.skipped++
			continue
		}
		prev = r.layer

		pts := make([]geom.Point3, len(r.points))
		for j, p := range r.points {
			pts[j] = *p
		}
		height := s.grid.height(r.layer*s.grid.segments) + c.HeightOffset
		l := model.NewLayer(len(m.Layers), height, pts)
		l.Resampled = resampled
		st.resampled += len(resampled)
		m.Layers = append(m.Layers, l)
	}
	return m, st
}

type stats struct {
	skipped   int
	resampled int
	truncated bool
}
