// Package provider supplies the printer and material settings the
// compensator reads. The slicing core never owns these values; it asks a
// ConfigurationProvider once per request.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrProvider marks every failure to obtain configuration. Callers test
// for it with errors.Is to tell provider outages from geometry errors.
var ErrProvider = errors.New("configuration provider failure")

// MaterialProfile describes one printable material.
type MaterialProfile struct {
	Name         string  `json:"name" yaml:"name" validate:"required"`
	NozzleTemp   float64 `json:"nozzle_temp" yaml:"nozzle_temp" validate:"gte=0"`
	CupTemp      float64 `json:"cup_temp" yaml:"cup_temp" validate:"gte=0"`
	ShrinkFactor float64 `json:"shrink_factor" yaml:"shrink_factor" validate:"gte=0,lt=100"` // percent
	OutputFactor float64 `json:"output_factor" yaml:"output_factor" validate:"gt=0"`
	Feedrate     float64 `json:"feedrate" yaml:"feedrate" validate:"gte=0"` // fixed feedrate, 0 derives it per layer
}

// PrinterConfig describes the printer hardware.
type PrinterConfig struct {
	NozzleDiameter float64 `json:"nozzle_diameter" yaml:"nozzle_diameter" validate:"gte=0"`
}

// ConfigurationProvider is the read-only source of printer and material
// settings. Implementations may block on I/O and must honour ctx.
type ConfigurationProvider interface {
	PrinterConfig(ctx context.Context) (PrinterConfig, error)
	ActiveMaterialProfile(ctx context.Context) (MaterialProfile, error)
}

// Wrap marks err as a provider failure. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrProvider) {
		return err
	}
	return fmt.Errorf("provider: %s: %w: %w", op, ErrProvider, err)
}

// Static serves fixed values, typically taken from the settings file.
type Static struct {
	Printer  PrinterConfig
	Material MaterialProfile
}

var _ ConfigurationProvider = Static{}

// PrinterConfig returns s.Printer.
func (s Static) PrinterConfig(ctx context.Context) (PrinterConfig, error) {
	if err := ctx.Err(); err != nil {
		return PrinterConfig{}, Wrap("printer config", err)
	}
	return s.Printer, nil
}

// ActiveMaterialProfile returns s.Material.
func (s Static) ActiveMaterialProfile(ctx context.Context) (MaterialProfile, error) {
	if err := ctx.Err(); err != nil {
		return MaterialProfile{}, Wrap("material profile", err)
	}
	return s.Material, nil
}

// Func adapts two functions to a ConfigurationProvider.
type Func struct {
	Printer  func(ctx context.Context) (PrinterConfig, error)
	Material func(ctx context.Context) (MaterialProfile, error)
}

var _ ConfigurationProvider = Func{}

func (f Func) PrinterConfig(ctx context.Context) (PrinterConfig, error) {
	c, err := f.Printer(ctx)
	return c, Wrap("printer config", err)
}

func (f Func) ActiveMaterialProfile(ctx context.Context) (MaterialProfile, error) {
	p, err := f.Material(ctx)
	return p, Wrap("material profile", err)
}

// DefaultMaterial is the profile seeded on first run.
func DefaultMaterial() MaterialProfile {
	return MaterialProfile{
		Name:         "cp1",
		NozzleTemp:   200,
		CupTemp:      190,
		ShrinkFactor: 2.6,
		OutputFactor: 1,
	}
}
