// Package tessellate turns a print-object graph into triangle meshes using
// a geometry kernel. One mesh is produced per print object.
package tessellate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chazu/provel/pkg/kernel"
	"github.com/chazu/provel/pkg/shape"
)

// ErrInvalidGraph is returned when the graph fails shape.Validate.
var ErrInvalidGraph = errors.New("invalid shape graph")

// builder resolves nodes to solids, sharing the result of nodes reached
// through more than one parent.
type builder struct {
	g      *shape.Graph
	k      kernel.Kernel
	solids map[shape.NodeID]kernel.Solid
}

// Tessellate validates g and produces one mesh per print object, in root
// order, named after the object. A nil graph yields no meshes.
func Tessellate(ctx context.Context, g *shape.Graph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}
	if errs := shape.Validate(g); len(errs) > 0 {
		return nil, fmt.Errorf("tessellate: %w: %w", ErrInvalidGraph, errs[0])
	}

	b := &builder{g: g, k: k, solids: make(map[shape.NodeID]kernel.Solid)}
	log := zerolog.Ctx(ctx)

	meshes := make([]*kernel.Mesh, 0, len(g.Roots))
	for _, obj := range g.Objects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := b.solid(obj)
		if err != nil {
			return nil, fmt.Errorf("tessellate: object %q: %w", obj.Name, err)
		}
		m, err := k.ToMesh(s)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for object %q: %w", obj.Name, err)
		}
		m.PartName = obj.Name
		log.Debug().Str("object", obj.Name).Int("triangles", m.TriangleCount()).Msg("tessellated")
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Stream tessellates g and concatenates every object's triangles into the
// flat stream accepted by mesh.BuildFloat32.
func Stream(ctx context.Context, g *shape.Graph, k kernel.Kernel) ([]float32, error) {
	meshes, err := Tessellate(ctx, g, k)
	if err != nil {
		return nil, err
	}
	return kernel.Soup(meshes), nil
}

func (b *builder) solid(n *shape.Node) (kernel.Solid, error) {
	if s, ok := b.solids[n.ID]; ok {
		return s, nil
	}

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case shape.NodePrimitive:
		s, err = b.primitive(n)
	case shape.NodeTransform:
		s, err = b.transform(n)
	case shape.NodeBoolean:
		s, err = b.boolean(n)
	case shape.NodeObject:
		s, err = b.fold(n, b.k.Union)
	default:
		err = fmt.Errorf("unknown node kind: %v", n.Kind)
	}
	if err != nil {
		return nil, err
	}
	b.solids[n.ID] = s
	return s, nil
}

func (b *builder) primitive(n *shape.Node) (kernel.Solid, error) {
	switch d := n.Data.(type) {
	case shape.CylinderData:
		return b.k.Cylinder(d.Height, d.Radius)
	case shape.ConeData:
		return b.k.Cone(d.Height, d.Bottom, d.Top)
	case shape.TubeData:
		return b.k.Tube(d.Height, d.Outer, d.Inner)
	case shape.BoxData:
		return b.k.Box(d.Width, d.Height, d.Depth)
	}
	return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
}

// transform applies the rotation first, then the translation.
func (b *builder) transform(n *shape.Node) (kernel.Solid, error) {
	td, ok := n.Data.(shape.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	s, err := b.fold(n, b.k.Union)
	if err != nil {
		return nil, err
	}
	if r := td.Rotation; r != nil && (r.X != 0 || r.Y != 0 || r.Z != 0) {
		s = b.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && (t.X != 0 || t.Y != 0 || t.Z != 0) {
		s = b.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s, nil
}

func (b *builder) boolean(n *shape.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(shape.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	switch bd.Op {
	case shape.OpUnion:
		return b.fold(n, b.k.Union)
	case shape.OpDifference:
		return b.fold(n, b.k.Difference)
	case shape.OpIntersection:
		return b.fold(n, b.k.Intersection)
	}
	return nil, fmt.Errorf("boolean node %s has unknown op %v", n.ID.Short(), bd.Op)
}

// fold combines the children of n left to right with op.
func (b *builder) fold(n *shape.Node, op func(a, b kernel.Solid) kernel.Solid) (kernel.Solid, error) {
	var acc kernel.Solid
	for _, c := range b.g.Children(n) {
		s, err := b.solid(c)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = s
			continue
		}
		acc = op(acc, s)
	}
	if acc == nil {
		return nil, fmt.Errorf("node %s has no children", n.ID.Short())
	}
	return acc, nil
}
