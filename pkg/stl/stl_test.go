package stl_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/provel/pkg/stl"
)

var tri = []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}

func TestASCII(t *testing.T) {
	src := `solid test
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 1 1 1
      vertex 2 1 1
      vertex 1 2 1.5e0
    endloop
  endfacet
endsolid test
`
	got, err := stl.Decode(bytes.NewReader([]byte(src)))
	require.NoError(t, err)
	assert.Equal(t, append(append([]float32{}, tri...), 1, 1, 1, 2, 1, 1, 1, 2, 1.5), got)
}

func TestASCIIErrors(t *testing.T) {
	tests := map[string]string{
		"stray vertex":   "solid x\nvertex 0 0 0\nendsolid\n",
		"two vertices":   "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid\n",
		"bad number":     "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 q 0\n",
		"unterminated":   "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\n",
		"not stl at all": "hello",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := stl.Decode(bytes.NewReader([]byte(src)))
			assert.ErrorIs(t, err, stl.ErrFormat)
		})
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	stream := append(append([]float32{}, tri...), 0, 0, 5, 3, 0, 5, 0, 3, 5)
	var buf bytes.Buffer
	require.NoError(t, stl.Encode(&buf, stream))
	assert.Equal(t, 84+2*50, buf.Len())

	got, err := stl.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, stream, got)
}

func TestBinaryHeaderStartingWithSolid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, stl.Encode(&buf, tri))
	raw := buf.Bytes()
	copy(raw, "solid but actually binary")

	got, err := stl.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, tri, got)
}

func TestEncodeRejectsPartialTriangle(t *testing.T) {
	assert.ErrorIs(t, stl.Encode(&bytes.Buffer{}, tri[:8]), stl.ErrFormat)
}

func TestFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, stl.WriteFile(path, tri))
	got, err := stl.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tri, got)

	_, err = stl.ReadFile(filepath.Join(t.TempDir(), "missing.stl"))
	assert.Error(t, err)
}
