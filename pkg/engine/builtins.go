package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/provel/pkg/shape"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites DSL source into syntax zygomys accepts:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols and cannot clash with user variables.
//  2. kebab-case identifiers become snake_case (print-object becomes
//     print_object) because zygomys reads a hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied unchanged.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	for i := 0; i < len(source); {
		c := source[i]
		switch {
		case c == '"' || c == '`':
			j := skipString(source, i)
			out.WriteString(source[i:j])
			i = j

		case c == ';':
			out.WriteString("//")
			for i < len(source) && source[i] == ';' {
				i++
			}
			j := strings.IndexByte(source[i:], '\n')
			if j < 0 {
				j = len(source) - i
			}
			out.WriteString(source[i : i+j])
			i += j

		case c == ':' && i+1 < len(source) && source[i+1] == '=':
			out.WriteString(":=")
			i += 2

		case c == ':' && i+1 < len(source) && isLetter(source[i+1]):
			j := i + 1
			for j < len(source) && isKWChar(source[j]) {
				j++
			}
			out.WriteString(`"` + kwPrefix + source[i+1:j] + `"`)
			i = j

		case c == '-' && i > 0 && i+1 < len(source) &&
			isIdentChar(source[i-1]) && isLetter(source[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// skipString returns the index just past the string literal starting at
// i. Backslash escapes are honoured inside double quotes only.
func skipString(s string, i int) int {
	q := s[i]
	j := i + 1
	for j < len(s) && s[j] != q {
		if q == '"' && s[j] == '\\' {
			j++
		}
		j++
	}
	return min(j+1, len(s))
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNode refers to a node already added to the graph.
type sexpNode struct {
	id   shape.NodeID
	kind shape.NodeKind
	form string
	name string
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(%s %q)", n.form, n.name)
	}
	return fmt.Sprintf("(%s %s)", n.form, n.id.Short())
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a shape.Vec3.
type sexpVec3 struct {
	vec shape.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// keyword at the end of the list gets a null value.
func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if _, seen := pa.kw[name]; !seen {
			pa.order = append(pa.order, name)
		}
		if i+1 < len(args) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = zygo.SexpNull
		}
	}
	return pa
}

// only rejects keywords outside allowed.
func (pa kwArgs) only(form string, allowed ...string) error {
	for _, name := range pa.order {
		known := false
		for _, a := range allowed {
			if a == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%s: unknown keyword :%s", form, name)
		}
	}
	return nil
}

// numbers reads the required numeric keywords names, in order, from a
// keyword-only argument list.
func numbers(form string, args []zygo.Sexp, names ...string) ([]float64, error) {
	pa := parseArgs(args)
	if len(pa.positional) > 0 {
		return nil, fmt.Errorf("%s: unexpected argument %s", form, pa.positional[0].SexpString(nil))
	}
	if err := pa.only(form, names...); err != nil {
		return nil, err
	}
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := pa.kw[name]
		if !ok {
			return nil, fmt.Errorf("%s: missing :%s", form, name)
		}
		f, err := toFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", form, name, err)
		}
		out[i] = f
	}
	return out, nil
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", s.SexpString(nil))
}

// toShape extracts a shape reference. Print objects are roots and cannot
// be nested.
func toShape(s zygo.Sexp) (*sexpNode, error) {
	n, ok := s.(*sexpNode)
	if !ok {
		return nil, fmt.Errorf("expected shape, got %s", s.SexpString(nil))
	}
	if n.kind == shape.NodeObject {
		return nil, fmt.Errorf("print-object %q cannot be used as a shape", n.name)
	}
	return n, nil
}

// toShapes extracts every element of args as a shape reference.
func toShapes(form string, args []zygo.Sexp) ([]shape.NodeID, error) {
	ids := make([]shape.NodeID, 0, len(args))
	for i, a := range args {
		n, err := toShape(a)
		if err != nil {
			return nil, fmt.Errorf("%s: operand %d: %w", form, i+1, err)
		}
		ids = append(ids, n.id)
	}
	return ids, nil
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (shape.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return shape.Vec3{}, fmt.Errorf("expected vec3, got %s", s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Graph building
// ---------------------------------------------------------------------------

// builder accumulates the nodes created by one program.
type builder struct {
	g   *shape.Graph
	seq int
}

func newBuilder() *builder {
	return &builder{g: shape.New()}
}

// add creates a node. Anonymous nodes are keyed by creation order, named
// ones by name, so the same program always yields the same IDs.
func (b *builder) add(kind shape.NodeKind, form, name string, data shape.NodeData, children ...shape.NodeID) *sexpNode {
	b.seq++
	path := fmt.Sprintf("%s/%d", form, b.seq)
	if name != "" {
		path = form + "/" + name
	}
	n := &shape.Node{
		ID:       shape.NewNodeID(path),
		Kind:     kind,
		Name:     name,
		Seq:      b.seq,
		Children: children,
		Data:     data,
	}
	b.g.AddNode(n)
	return &sexpNode{id: n.ID, kind: kind, form: form, name: name}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the DSL forms into env. Source must be passed
// through preprocessSource first so that keywords are recognisable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// (cylinder :radius 40 :height 80)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := numbers("cylinder", args, "radius", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add(shape.NodePrimitive, "cylinder", "", shape.CylinderData{Radius: v[0], Height: v[1]}), nil
	})

	// (cone :bottom 40 :top 30 :height 80)
	env.AddFunction("cone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := numbers("cone", args, "bottom", "top", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add(shape.NodePrimitive, "cone", "", shape.ConeData{Bottom: v[0], Top: v[1], Height: v[2]}), nil
	})

	// (tube :outer 40 :inner 36 :height 80)
	env.AddFunction("tube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := numbers("tube", args, "outer", "inner", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add(shape.NodePrimitive, "tube", "", shape.TubeData{Outer: v[0], Inner: v[1], Height: v[2]}), nil
	})

	// (box :width 20 :depth 10 :height 5)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := numbers("box", args, "width", "depth", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add(shape.NodePrimitive, "box", "", shape.BoxData{Width: v[0], Depth: v[1], Height: v[2]}), nil
	})

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: shape.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// (place SHAPE :at (vec3 0 3 0) :rotate (vec3 0 0 90))
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires exactly one shape, got %d", len(pa.positional))
		}
		if err := pa.only("place", "at", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		child, err := toShape(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		td := shape.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}
		return b.add(shape.NodeTransform, "place", "", td, child.id), nil
	})

	// (union A B ...), (difference A B ...), (intersection A B ...)
	for _, op := range []shape.BoolOp{shape.OpUnion, shape.OpDifference, shape.OpIntersection} {
		form := op.String()
		want := 2
		if op == shape.OpUnion {
			want = 1
		}
		env.AddFunction(form, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < want {
				return zygo.SexpNull, fmt.Errorf("%s requires at least %d shapes, got %d", form, want, len(args))
			}
			ids, err := toShapes(form, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return b.add(shape.NodeBoolean, form, "", shape.BooleanData{Op: op}, ids...), nil
		})
	}

	// (print-object "cup" SHAPE ...)
	//
	// Registered as print_object; the preprocessor rewrites the hyphen.
	env.AddFunction("print_object", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("print-object requires a name and at least one shape")
		}
		objName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("print-object: name: %w", err)
		}
		if objName == "" {
			return zygo.SexpNull, fmt.Errorf("print-object: name must not be empty")
		}
		if n := b.g.Lookup(objName); n != nil {
			return zygo.SexpNull, fmt.Errorf("print-object: %q is already defined", objName)
		}
		ids, err := toShapes("print-object", args[1:])
		if err != nil {
			return zygo.SexpNull, err
		}
		ref := b.add(shape.NodeObject, "print-object", objName, shape.ObjectData{}, ids...)
		b.g.AddRoot(ref.id)
		return ref, nil
	})
}
