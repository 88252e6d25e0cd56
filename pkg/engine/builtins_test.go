package engine

import (
	"strings"
	"testing"

	"github.com/chazu/provel/pkg/shape"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(cylinder :radius 40)`, `(cylinder "__kw_radius" 40)`},
		{"multiple keywords", `(box :width 4 :depth 2)`, `(box "__kw_width" 4 "__kw_depth" 2)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"a \" :b" :c`, `"a \" :b" "__kw_c"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(print-object "cup")`, `(print_object "cup")`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative number preserved", `(vec3 0 -3 0)`, `(vec3 0 -3 0)`},
		{"comment converted to // style", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", "; simple comment\n(+ 1 2)", "// simple comment\n(+ 1 2)"},
		{"hyphen in keyword preserved", `:wall-height`, `"__kw_wall-height"`},
		{"unterminated string", `"open`, `"open`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Primitive tests
// ---------------------------------------------------------------------------

// only returns the single node of the given kind.
func only(t *testing.T, g *shape.Graph, kind shape.NodeKind) *shape.Node {
	t.Helper()
	var found *shape.Node
	for _, n := range g.Nodes {
		if n.Kind != kind {
			continue
		}
		if found != nil {
			t.Fatalf("more than one %s node", kind)
		}
		found = n
	}
	if found == nil {
		t.Fatalf("no %s node", kind)
	}
	return found
}

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   shape.NodeData
	}{
		{"cylinder", `(cylinder :radius 40 :height 80)`, shape.CylinderData{Radius: 40, Height: 80}},
		{"cone", `(cone :bottom 40 :top 30.5 :height 80)`, shape.ConeData{Bottom: 40, Top: 30.5, Height: 80}},
		{"tube", `(tube :outer 40 :inner 36 :height 80)`, shape.TubeData{Outer: 40, Inner: 36, Height: 80}},
		{"box", `(box :width 20 :depth 10 :height 5)`, shape.BoxData{Width: 20, Depth: 10, Height: 5}},
		{"keyword order", `(cylinder :height 80 :radius 40)`, shape.CylinderData{Radius: 40, Height: 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evalOK(t, `(print-object "p" `+tt.source+`)`)
			n := only(t, res.Graph, shape.NodePrimitive)
			if n.Data != tt.want {
				t.Errorf("data = %#v, want %#v", n.Data, tt.want)
			}
		})
	}
}

func TestVariableReference(t *testing.T) {
	res := evalOK(t, `
(def wall 3)
(def rim 40)
(print-object "cup"
  (tube :outer rim :inner (- rim wall) :height 80))
`)
	n := only(t, res.Graph, shape.NodePrimitive)
	if d := n.Data.(shape.TubeData); d.Inner != 37 || d.Outer != 40 {
		t.Errorf("tube = %+v, want outer 40 inner 37", d)
	}
}

// ---------------------------------------------------------------------------
// Composition tests
// ---------------------------------------------------------------------------

func TestPlace(t *testing.T) {
	res := evalOK(t, `
(print-object "peg"
  (place (cylinder :radius 5 :height 10) :at (vec3 1 2 3) :rotate (vec3 0 0 90)))
`)
	p := only(t, res.Graph, shape.NodeTransform)
	td := p.Data.(shape.TransformData)
	if td.Translation == nil || *td.Translation != (shape.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("translation = %v, want (1,2,3)", td.Translation)
	}
	if td.Rotation == nil || *td.Rotation != (shape.Vec3{Z: 90}) {
		t.Errorf("rotation = %v, want (0,0,90)", td.Rotation)
	}
	if len(p.Children) != 1 || res.Graph.Get(p.Children[0]).Kind != shape.NodePrimitive {
		t.Errorf("place children = %v, want the cylinder", p.Children)
	}
}

func TestCupWithFloor(t *testing.T) {
	res := evalOK(t, `
;; a cup: outer wall minus a bore that stops above the floor
(def cup
  (difference
    (cylinder :radius 40 :height 80)
    (place (cylinder :radius 36 :height 80) :at (vec3 0 3 0))))
(print-object "cup" cup)
`)
	g := res.Graph
	if g.NodeCount() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.NodeCount())
	}
	if len(g.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(g.Roots))
	}
	obj := g.Lookup("cup")
	if obj == nil || obj.Kind != shape.NodeObject {
		t.Fatalf("expected print object cup, got %v", obj)
	}
	diff := only(t, g, shape.NodeBoolean)
	if diff.Data.(shape.BooleanData).Op != shape.OpDifference {
		t.Errorf("op = %v, want difference", diff.Data)
	}
	if len(diff.Children) != 2 {
		t.Fatalf("difference has %d operands, want 2", len(diff.Children))
	}
	if first := g.Get(diff.Children[0]); first.Kind != shape.NodePrimitive {
		t.Errorf("first operand is %s, want the outer cylinder", first.Kind)
	}
	if obj.Children[0] != diff.ID {
		t.Error("print object does not reference the difference")
	}
}

func TestBooleanOps(t *testing.T) {
	for _, op := range []shape.BoolOp{shape.OpUnion, shape.OpDifference, shape.OpIntersection} {
		t.Run(op.String(), func(t *testing.T) {
			res := evalOK(t, `(print-object "p" (`+op.String()+` (box :width 2 :depth 2 :height 2) (cylinder :radius 1 :height 3)))`)
			n := only(t, res.Graph, shape.NodeBoolean)
			if n.Data.(shape.BooleanData).Op != op {
				t.Errorf("op = %v, want %v", n.Data, op)
			}
		})
	}
}

func TestMultipleObjectsKeepOrder(t *testing.T) {
	res := evalOK(t, `
(print-object "b" (box :width 1 :depth 1 :height 1))
(print-object "a" (cylinder :radius 1 :height 1))
`)
	objs := res.Graph.Objects()
	if len(objs) != 2 || objs[0].Name != "b" || objs[1].Name != "a" {
		t.Fatalf("objects = %v, want [b a]", objs)
	}
}

func TestShapesWithoutObjectWarn(t *testing.T) {
	res := evalOK(t, `(cylinder :radius 1 :height 1)`)
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "no print-object") {
		t.Errorf("warnings = %v, want a missing print-object warning", res.Warnings)
	}
}

// ---------------------------------------------------------------------------
// Error tests
// ---------------------------------------------------------------------------

func TestFormErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"missing keyword", `(cylinder :radius 4)`, "missing :height"},
		{"unknown keyword", `(cylinder :radius 4 :height 2 :colour 3)`, "unknown keyword :colour"},
		{"non-number", `(box :width "w" :depth 1 :height 1)`, "expected number"},
		{"stray positional", `(cone 1 :bottom 1 :top 1 :height 1)`, "unexpected argument"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"place needs shape", `(place 5)`, "expected shape"},
		{"place bad offset", `(place (box :width 1 :depth 1 :height 1) :at 3)`, "expected vec3"},
		{"difference needs two", `(difference (box :width 1 :depth 1 :height 1))`, "at least 2 shapes"},
		{"duplicate object", `(print-object "x" (box :width 1 :depth 1 :height 1)) (print-object "x" (box :width 1 :depth 1 :height 1))`, "already defined"},
		{"nested object", `(union (print-object "x" (box :width 1 :depth 1 :height 1)))`, "cannot be used as a shape"},
		{"object without shape", `(print-object "x")`, "at least one shape"},
		{"object without name", `(print-object 3 (box :width 1 :depth 1 :height 1))`, "expected string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evalFails(t, tt.source)
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.want)
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	errs := evalFails(t, `(print-object "cup" (tube :outer 30 :inner 36 :height 80))`)
	if !strings.Contains(errs[0].Message, "must be less than outer") {
		t.Errorf("message = %q", errs[0].Message)
	}
	if errs[0].NodeID.IsZero() {
		t.Error("validation error should name the offending node")
	}
}
