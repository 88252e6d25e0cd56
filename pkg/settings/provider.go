package settings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chazu/provel/pkg/provider"
	"github.com/chazu/provel/pkg/provider/sqlite"
)

// OpenProvider returns the configuration provider the settings select:
// the SQLite store when a path is set, the settings file otherwise. The
// close function returned with a nil error is never nil.
func (s Settings) OpenProvider(ctx context.Context) (provider.ConfigurationProvider, func() error, error) {
	if s.SQLite.Path == "" {
		return s.Provider(), func() error { return nil }, nil
	}

	store, err := sqlite.Open(s.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("settings: %w", err)
	}
	if s.SQLite.Seed {
		printer := provider.PrinterConfig{NozzleDiameter: s.Printer.NozzleDiameter}
		seeded, err := store.Seed(ctx, s.Material, printer)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("settings: %w", err)
		}
		if seeded {
			zerolog.Ctx(ctx).Info().
				Str("path", s.SQLite.Path).
				Str("material", s.Material.Name).
				Msg("seeded profile database")
		}
	}
	return store, store.Close, nil
}
