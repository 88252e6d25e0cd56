// Package snapshot saves sliced Models to disk in a compact CBOR file so
// they can be estimated, blended or turned into G-code later without
// reslicing.
package snapshot

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chazu/provel/pkg/model"
)

const (
	// Version is the current file format version.
	Version = 1

	// Ext is the conventional file extension.
	Ext = ".prvl"
)

var magic = []byte("PRVL")

// ErrFormat is returned for files that are not snapshots or use an
// unsupported version.
var ErrFormat = errors.New("not a provel snapshot")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: cbor decoder: %v", err))
	}
}

// Header describes a snapshot.
type Header struct {
	Version  int       `cbor:"1,keyasint"`
	ID       string    `cbor:"2,keyasint"`
	Created  time.Time `cbor:"3,keyasint"`
	Source   string    `cbor:"4,keyasint,omitempty"` // input file or object name
	Layers   int       `cbor:"5,keyasint"`
	Segments int       `cbor:"6,keyasint"`
}

// File is a decoded snapshot.
type File struct {
	Header Header       `cbor:"1,keyasint"`
	Model  *model.Model `cbor:"2,keyasint"`
}

// New wraps m in a File with a fresh header.
func New(m *model.Model, source string) *File {
	return &File{
		Header: Header{
			Version:  Version,
			ID:       uuid.NewString(),
			Created:  time.Now().UTC(),
			Source:   source,
			Layers:   m.LayerCount(),
			Segments: m.Segments,
		},
		Model: m,
	}
}

// Write encodes f to w.
func (f *File) Write(w io.Writer) error {
	if err := f.Model.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := encMode.NewEncoder(bw).Encode(f); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// Read decodes a snapshot from r and validates its Model.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil || !bytes.Equal(head, magic) {
		return nil, fmt.Errorf("snapshot: %w: bad magic", ErrFormat)
	}

	var f File
	if err := decMode.NewDecoder(br).Decode(&f); err != nil {
		return nil, fmt.Errorf("snapshot: %w: %w", ErrFormat, err)
	}
	switch {
	case f.Header.Version != Version:
		return nil, fmt.Errorf("snapshot: %w: version %d", ErrFormat, f.Header.Version)
	case f.Model == nil:
		return nil, fmt.Errorf("snapshot: %w: no model", ErrFormat)
	}
	if _, err := uuid.Parse(f.Header.ID); err != nil {
		return nil, fmt.Errorf("snapshot: %w: id: %w", ErrFormat, err)
	}
	if err := f.Model.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if f.Header.Layers != f.Model.LayerCount() || f.Header.Segments != f.Model.Segments {
		return nil, fmt.Errorf("snapshot: %w: header does not match model", ErrFormat)
	}
	return &f, nil
}

// Save writes m to path as a new snapshot.
func Save(path string, m *model.Model, source string) (*File, error) {
	f := New(m, source)
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return f, nil
}

// Load reads the snapshot at path.
func Load(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer in.Close()
	return Read(in)
}
