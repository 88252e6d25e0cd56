package shape

import "github.com/google/uuid"

// NodeID identifies a node. IDs are derived from a node's path in the
// program so that the same source always yields the same IDs.
type NodeID string

// ZeroID is the unset NodeID.
const ZeroID NodeID = ""

var namespace = uuid.MustParse("6f1c7a3e-2b8d-4c5e-9a1f-0d3e5b7c9a21")

// NewNodeID derives a stable ID from path.
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)).String())
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Short returns the first eight characters of id for messages.
func (id NodeID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}
