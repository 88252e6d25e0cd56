package shape

import "github.com/chazu/provel/pkg/geom"

// NodeKind enumerates the types of nodes in the graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // cylinder, cone, tube, box
	NodeTransform                 // place
	NodeBoolean                   // union, difference, intersection
	NodeObject                    // print-object
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Node is one element of the graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Seq      int      `json:"seq"` // creation order within one evaluation
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData()
}

// Vec3 is a triple used for placement offsets and rotations.
type Vec3 = geom.Point3
