package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/chazu/provel/pkg/settings"
	"github.com/chazu/provel/pkg/stl"
)

// RunRender evaluates DSL source and writes every print object to one
// binary STL file.
func RunRender(ctx context.Context, s settings.Settings, in, out string, w io.Writer) error {
	if !isSource(in) {
		return fmt.Errorf("%s: %w", in, ErrUnsupported)
	}
	soup, err := render(ctx, s, in)
	if err != nil {
		return err
	}
	if err := stl.WriteFile(out, soup); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s (%d triangles)\n", out, len(soup)/9)
	return nil
}
