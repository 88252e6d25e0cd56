// Package stl reads and writes STL files as flat vertex streams, nine
// floats per triangle.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrFormat is returned for input that is neither valid binary nor ASCII STL.
var ErrFormat = errors.New("malformed stl")

const (
	headerSize = 80
	recordSize = 50 // normal, three vertices, attribute count
)

// ReadFile decodes the STL file at path.
func ReadFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads binary or ASCII STL from r. Binary is recognised by its
// triangle count matching the input length, so binary files whose header
// happens to start with "solid" still decode correctly.
func Decode(r io.Reader) ([]float32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	if len(data) >= headerSize+4 {
		n := binary.LittleEndian.Uint32(data[headerSize:])
		if uint64(len(data)) == headerSize+4+uint64(n)*recordSize {
			return decodeBinary(data[headerSize+4:], int(n)), nil
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return decodeASCII(data)
	}
	return nil, fmt.Errorf("stl: %w: %d bytes, neither binary nor ascii", ErrFormat, len(data))
}

func decodeBinary(data []byte, n int) []float32 {
	out := make([]float32, 0, n*9)
	for i := 0; i < n; i++ {
		rec := data[i*recordSize:]
		// skip the 12-byte facet normal
		for j := 0; j < 9; j++ {
			bits := binary.LittleEndian.Uint32(rec[12+4*j:])
			out = append(out, math.Float32frombits(bits))
		}
	}
	return out
}

func decodeASCII(data []byte) ([]float32, error) {
	var out []float32
	sc := bufio.NewScanner(bytes.NewReader(data))
	line, inFacet, verts := 0, false, 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "facet":
			inFacet, verts = true, 0
		case "vertex":
			if !inFacet || len(fields) != 4 {
				return nil, fmt.Errorf("stl: %w: line %d: stray vertex", ErrFormat, line)
			}
			for _, f := range fields[1:] {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, fmt.Errorf("stl: %w: line %d: %w", ErrFormat, line, err)
				}
				out = append(out, float32(v))
			}
			verts++
		case "endfacet":
			if verts != 3 {
				return nil, fmt.Errorf("stl: %w: line %d: facet has %d vertices", ErrFormat, line, verts)
			}
			inFacet = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	if inFacet {
		return nil, fmt.Errorf("stl: %w: unterminated facet", ErrFormat)
	}
	return out, nil
}

// Encode writes stream as binary STL. Facet normals are computed from the
// vertex winding.
func Encode(w io.Writer, stream []float32) error {
	if len(stream)%9 != 0 {
		return fmt.Errorf("stl: %w: stream length %d is not a multiple of 9", ErrFormat, len(stream))
	}
	n := len(stream) / 9
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], "provel")
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(n)); err != nil {
		return fmt.Errorf("stl: %w", err)
	}

	var rec [recordSize]byte
	for i := 0; i < n; i++ {
		t := stream[i*9 : i*9+9]
		nx, ny, nz := normal(t)
		for j, v := range append([]float32{nx, ny, nz}, t...) {
			binary.LittleEndian.PutUint32(rec[4*j:], math.Float32bits(v))
		}
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("stl: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	return nil
}

// WriteFile encodes stream to path.
func WriteFile(path string, stream []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	if err := Encode(f, stream); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func normal(t []float32) (x, y, z float32) {
	ax, ay, az := t[3]-t[0], t[4]-t[1], t[5]-t[2]
	bx, by, bz := t[6]-t[0], t[7]-t[1], t[8]-t[2]
	x, y, z = ay*bz-az*by, az*bx-ax*bz, ax*by-ay*bx
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if l == 0 {
		return 0, 0, 0
	}
	return x / l, y / l, z / l
}
