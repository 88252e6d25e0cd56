package shape

import (
	"fmt"
	"math"
	"sort"
)

// ValidationError describes a single problem found in a graph.
type ValidationError struct {
	NodeID  NodeID // zero for graph-level findings
	Seq     int    // creation order of the node
	Message string
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("node %s: %s", e.NodeID.Short(), e.Message)
}

// Validate runs every structural and dimensional check on g. An empty
// result means the graph can be tessellated. Findings are ordered by the
// creation order of their nodes. g is never mutated.
func Validate(g *Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateArity(g)...)
	errs = append(errs, validateDimensions(g)...)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Seq < errs[j].Seq })
	return errs
}

// sortedIDs returns the node IDs in a fixed order so that findings are
// reported deterministically.
func sortedIDs(g *Graph) []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func finding(n *Node, format string, args ...any) ValidationError {
	return ValidationError{NodeID: n.ID, Seq: n.Seq, Message: fmt.Sprintf(format, args...)}
}

// validateDAG reports the first cycle found by a three-colour DFS.
func validateDAG(g *Graph) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	color := make(map[NodeID]int)

	var visit func(id NodeID) *ValidationError
	visit = func(id NodeID) *ValidationError {
		switch color[id] {
		case black:
			return nil
		case gray:
			e := finding(g.Nodes[id], "cycle detected through node %s", id.Short())
			return &e
		}
		color[id] = gray
		if n, ok := g.Nodes[id]; ok {
			for _, c := range n.Children {
				if _, ok := g.Nodes[c]; !ok {
					continue
				}
				if e := visit(c); e != nil {
					return e
				}
			}
		}
		color[id] = black
		return nil
	}

	for _, id := range sortedIDs(g) {
		if color[id] == white {
			if e := visit(id); e != nil {
				return []ValidationError{*e}
			}
		}
	}
	return nil
}

// validateReferences checks that every child reference resolves.
func validateReferences(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(g) {
		n := g.Nodes[id]
		for _, c := range n.Children {
			if _, ok := g.Nodes[c]; !ok {
				errs = append(errs, finding(n, "child reference %s does not exist", c.Short()))
			}
		}
	}
	return errs
}

// validateRoots checks that every root is an existing, uniquely named
// print object.
func validateRoots(g *Graph) []ValidationError {
	var errs []ValidationError
	names := make(map[string]int)
	for _, rid := range g.Roots {
		n, ok := g.Nodes[rid]
		if !ok {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("root reference %s does not exist", rid.Short())})
			continue
		}
		if n.Kind != NodeObject {
			errs = append(errs, finding(n, "root is a %s, want a print object", n.Kind))
			continue
		}
		if n.Name == "" {
			errs = append(errs, finding(n, "print object has no name"))
			continue
		}
		names[n.Name]++
		if names[n.Name] == 2 {
			errs = append(errs, finding(n, "duplicate print object name %q", n.Name))
		}
	}
	return errs
}

// validateArity checks child counts per kind.
func validateArity(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(g) {
		n := g.Nodes[id]
		switch n.Kind {
		case NodePrimitive:
			if len(n.Children) != 0 {
				errs = append(errs, finding(n, "primitive has %d children, want none", len(n.Children)))
			}
		case NodeTransform:
			if len(n.Children) != 1 {
				errs = append(errs, finding(n, "place has %d children, want 1", len(n.Children)))
			}
		case NodeBoolean:
			d, _ := n.Data.(BooleanData)
			want := 1
			if d.Op != OpUnion {
				want = 2
			}
			if len(n.Children) < want {
				errs = append(errs, finding(n, "%s has %d operands, want at least %d", d.Op, len(n.Children), want))
			}
		case NodeObject:
			if len(n.Children) == 0 {
				errs = append(errs, finding(n, "print object %q has no shape", n.Name))
			}
		}
	}
	return errs
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func finiteVec(v *Vec3) bool {
	if v == nil {
		return true
	}
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// validateDimensions checks that primitive dimensions describe a solid
// and that payloads match their node kind.
func validateDimensions(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(g) {
		n := g.Nodes[id]
		switch d := n.Data.(type) {
		case CylinderData:
			if !positive(d.Radius) || !positive(d.Height) {
				errs = append(errs, finding(n, "cylinder needs positive radius and height, got %v and %v", d.Radius, d.Height))
			}
		case ConeData:
			switch {
			case !positive(d.Height):
				errs = append(errs, finding(n, "cone needs a positive height, got %v", d.Height))
			case !nonNegative(d.Bottom) || !nonNegative(d.Top):
				errs = append(errs, finding(n, "cone radii must be non-negative, got %v and %v", d.Bottom, d.Top))
			case d.Bottom == 0 && d.Top == 0:
				errs = append(errs, finding(n, "cone needs at least one non-zero radius"))
			}
		case TubeData:
			switch {
			case !positive(d.Outer) || !positive(d.Height):
				errs = append(errs, finding(n, "tube needs positive outer radius and height, got %v and %v", d.Outer, d.Height))
			case !nonNegative(d.Inner):
				errs = append(errs, finding(n, "tube inner radius must be non-negative, got %v", d.Inner))
			case d.Inner >= d.Outer:
				errs = append(errs, finding(n, "tube inner radius %v must be less than outer radius %v", d.Inner, d.Outer))
			}
		case BoxData:
			if !positive(d.Width) || !positive(d.Depth) || !positive(d.Height) {
				errs = append(errs, finding(n, "box needs positive dimensions, got %vx%vx%v", d.Width, d.Depth, d.Height))
			}
		case TransformData:
			if !finiteVec(d.Translation) || !finiteVec(d.Rotation) {
				errs = append(errs, finding(n, "place offsets must be finite"))
			}
		case nil:
			errs = append(errs, finding(n, "%s node has no data", n.Kind))
		}
		if n.Kind == NodePrimitive && !isPrimitive(n.Data) {
			errs = append(errs, finding(n, "primitive node carries %T", n.Data))
		}
	}
	return errs
}

func isPrimitive(d NodeData) bool {
	switch d.(type) {
	case CylinderData, ConeData, TubeData, BoxData:
		return true
	}
	return false
}
