package mesh_test

import (
	"math"
	"testing"

	"github.com/chazu/provel/pkg/geom"
	"github.com/chazu/provel/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGroupsByNine(t *testing.T) {
	stream := []float64{
		0, 0, 0, 1, 0, 0, 0, 1, 0,
		0, 0, 1, 1, 0, 1, 0, 1, 1,
	}
	m, err := mesh.Build(stream)
	require.NoError(t, err)
	require.Equal(t, 2, m.TriangleCount())

	assert.Equal(t, geom.Triangle{
		P1: geom.Point3{X: 0, Y: 0, Z: 1},
		P2: geom.Point3{X: 1, Y: 0, Z: 1},
		P3: geom.Point3{X: 0, Y: 1, Z: 1},
	}, m.Triangles[1])
}

func TestBuildRejectsMalformedLength(t *testing.T) {
	for _, n := range []int{1, 3, 8, 10, 17, 19} {
		_, err := mesh.Build(make([]float64, n))
		assert.ErrorIs(t, err, mesh.ErrMalformedVertexStream, "length %d", n)

		_, err = mesh.BuildFloat32(make([]float32, n))
		assert.ErrorIs(t, err, mesh.ErrMalformedVertexStream, "length %d", n)
	}
}

func TestBuildRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		stream := make([]float64, 18)
		stream[13] = v
		_, err := mesh.Build(stream)
		require.ErrorIs(t, err, mesh.ErrMalformedVertexStream, "value %v", v)
		assert.Contains(t, err.Error(), "triangle 1")

		wide := make([]float32, 9)
		wide[4] = float32(v)
		_, err = mesh.BuildFloat32(wide)
		assert.ErrorIs(t, err, mesh.ErrMalformedVertexStream, "value %v", v)
	}
}

func TestBuildEmpty(t *testing.T) {
	m, err := mesh.Build(nil)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())

	lo, hi := m.Bounds()
	assert.Equal(t, geom.Point3{}, lo)
	assert.Equal(t, geom.Point3{}, hi)
}

func TestBuildFloat32(t *testing.T) {
	m, err := mesh.BuildFloat32([]float32{0, 0, 0, 2, 0, 0, 0, 4, 0})
	require.NoError(t, err)
	require.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, 4.0, m.Triangles[0].P3.Y)
}

func TestBoundsAndHeightRange(t *testing.T) {
	m, err := mesh.Build([]float64{
		-1, 0, 2, 3, 5, 2, 0, 1, -4,
		0, -2, 0, 1, 1, 1, 2, 2, 9,
	})
	require.NoError(t, err)

	lo, hi := m.Bounds()
	assert.Equal(t, geom.Point3{X: -1, Y: -2, Z: -4}, lo)
	assert.Equal(t, geom.Point3{X: 3, Y: 5, Z: 9}, hi)

	ylo, yhi := m.HeightRange(geom.AxisY)
	assert.Equal(t, -2.0, ylo)
	assert.Equal(t, 5.0, yhi)

	assert.Equal(t, geom.Point3{X: 1, Y: 1.5, Z: 2.5}, m.Center())
}
