//go:build !manifold

// Package manifold implements kernel.Kernel on the Manifold library. When
// the "manifold" build tag is not set, this stub is compiled instead and
// the constructors report that the kernel is unavailable.
//
// Build with: go build -tags=manifold
package manifold

import (
	"errors"

	"github.com/chazu/provel/pkg/kernel"
)

// ErrUnavailable is returned by the constructors in builds without the
// manifold tag.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// New returns ErrUnavailable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}

// NewWithSides returns ErrUnavailable.
func NewWithSides(int) (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
