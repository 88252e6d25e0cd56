package shape

// Primitives stand on the plane y = 0 and are centred on the Y axis.

// CylinderData is a solid cylinder.
type CylinderData struct {
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}

func (CylinderData) nodeData() {}

// ConeData is a truncated cone. Either radius may be zero but not both.
type ConeData struct {
	Bottom float64 `json:"bottom"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

func (ConeData) nodeData() {}

// TubeData is a hollow cylinder with Inner < Outer.
type TubeData struct {
	Outer  float64 `json:"outer"`
	Inner  float64 `json:"inner"`
	Height float64 `json:"height"`
}

func (TubeData) nodeData() {}

// BoxData is a box with Width along X, Height along Y and Depth along Z.
type BoxData struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

func (BoxData) nodeData() {}

// TransformData places its single child. Rotation is applied first, in
// degrees about X, Y then Z.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"`
}

func (TransformData) nodeData() {}

// BoolOp selects how a boolean node combines its children.
type BoolOp int

const (
	OpUnion BoolOp = iota
	OpDifference
	OpIntersection
)

func (op BoolOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// BooleanData folds the children left to right with Op. A difference
// subtracts every later child from the first.
type BooleanData struct {
	Op BoolOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ObjectData marks a named print object. Its children are unioned.
type ObjectData struct{}

func (ObjectData) nodeData() {}
