// Package sqlite serves printer and material settings from a SQLite
// database shared with the desktop client.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chazu/provel/pkg/provider"
)

// ErrNotFound is returned when a setting or profile row is missing.
var ErrNotFound = errors.New("not found")

// Setting keys.
const (
	KeyActiveMaterialProfile = "active_material_profile"
	KeyNozzleSize            = "nozzle_size"
)

// Store is a read-only ConfigurationProvider over a SQLite database.
type Store struct {
	db *sql.DB
}

var _ provider.ConfigurationProvider = (*Store)(nil)

// Open opens or creates the database at path and brings its schema up to
// date. Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS material_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		nozzle_temp REAL NOT NULL DEFAULT 0,
		cup_temp REAL NOT NULL DEFAULT 0,
		shrink_factor REAL NOT NULL DEFAULT 0,
		output_factor REAL NOT NULL DEFAULT 1,
		feedrate REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PrinterConfig reads the nozzle size setting.
func (s *Store) PrinterConfig(ctx context.Context) (provider.PrinterConfig, error) {
	v, err := s.setting(ctx, KeyNozzleSize)
	if err != nil {
		return provider.PrinterConfig{}, provider.Wrap("printer config", err)
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return provider.PrinterConfig{}, provider.Wrap("printer config",
			fmt.Errorf("sqlite: %s %q: %w", KeyNozzleSize, v, err))
	}
	return provider.PrinterConfig{NozzleDiameter: n}, nil
}

// ActiveMaterialProfile reads the profile named by the
// active_material_profile setting.
func (s *Store) ActiveMaterialProfile(ctx context.Context) (provider.MaterialProfile, error) {
	name, err := s.setting(ctx, KeyActiveMaterialProfile)
	if err != nil {
		return provider.MaterialProfile{}, provider.Wrap("material profile", err)
	}
	p, err := s.Profile(ctx, name)
	return p, provider.Wrap("material profile", err)
}

// Profile returns the material profile called name.
func (s *Store) Profile(ctx context.Context, name string) (provider.MaterialProfile, error) {
	var p provider.MaterialProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT name, nozzle_temp, cup_temp, shrink_factor, output_factor, feedrate
		FROM material_profiles WHERE name = ?
	`, name).Scan(&p.Name, &p.NozzleTemp, &p.CupTemp, &p.ShrinkFactor, &p.OutputFactor, &p.Feedrate)
	if errors.Is(err, sql.ErrNoRows) {
		return provider.MaterialProfile{}, fmt.Errorf("sqlite: material profile %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return provider.MaterialProfile{}, fmt.Errorf("sqlite: material profile %q: %w", name, err)
	}
	return p, nil
}

// Profiles lists every material profile ordered by name.
func (s *Store) Profiles(ctx context.Context) ([]provider.MaterialProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, nozzle_temp, cup_temp, shrink_factor, output_factor, feedrate
		FROM material_profiles ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list profiles: %w", err)
	}
	defer rows.Close()

	var out []provider.MaterialProfile
	for rows.Next() {
		var p provider.MaterialProfile
		if err := rows.Scan(&p.Name, &p.NozzleTemp, &p.CupTemp, &p.ShrinkFactor, &p.OutputFactor, &p.Feedrate); err != nil {
			return nil, fmt.Errorf("sqlite: list profiles: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) setting(ctx context.Context, name string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sqlite: setting %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: setting %q: %w", name, err)
	}
	return v, nil
}

// Seed makes profile the active material and sets the nozzle size, unless
// the database already names an active profile. It reports whether
// anything was written.
func (s *Store) Seed(ctx context.Context, profile provider.MaterialProfile, printer provider.PrinterConfig) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: seed: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settings WHERE name = ?`, KeyActiveMaterialProfile).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlite: seed: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO material_profiles (name, nozzle_temp, cup_temp, shrink_factor, output_factor, feedrate)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, profile.Name, profile.NozzleTemp, profile.CupTemp, profile.ShrinkFactor, profile.OutputFactor, profile.Feedrate); err != nil {
		return false, fmt.Errorf("sqlite: seed profile: %w", err)
	}
	for name, value := range map[string]string{
		KeyActiveMaterialProfile: profile.Name,
		KeyNozzleSize:            strconv.FormatFloat(printer.NozzleDiameter, 'f', -1, 64),
	} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (name, value) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value
		`, name, value); err != nil {
			return false, fmt.Errorf("sqlite: seed %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: seed: %w", err)
	}
	return true, nil
}
