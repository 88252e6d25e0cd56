package settings

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	vOnce sync.Once
	vld   *validator.Validate
	trans ut.Translator
)

func validate() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ = uni.GetTranslator("en")

		vld = validator.New(validator.WithRequiredStructEnabled())

		// report yaml keys, not Go field names
		vld.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("yaml")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(vld, trans)
	})
	return vld, trans
}

// Validate checks every field against its constraints. All violations are
// reported together.
func (s Settings) Validate() error {
	v, tr := validate()
	err := v.Struct(s)
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		msgs := make([]string, len(fields))
		for i, fe := range fields {
			msgs[i] = fmt.Sprintf("%s: %s", fe.Namespace(), fe.Translate(tr))
		}
		return fmt.Errorf("settings: %w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	if err != nil {
		return fmt.Errorf("settings: %w: %w", ErrInvalid, err)
	}
	for name, f := range map[string]float64{
		"slicer.layer_height":          s.Slicer.LayerHeight,
		"slicer.height_offset":         s.Slicer.HeightOffset,
		"printer.nozzle_diameter":      s.Printer.NozzleDiameter,
		"printer.average_speed":        s.Printer.AverageSpeed,
		"printer.seconds_per_layer":    s.Printer.SecondsPerLayer,
		"printer.line_width":           s.Printer.LineWidth,
		"printer.extrusion_adjustment": s.Printer.ExtrusionAdjustment,
	} {
		if !finite(f) {
			return fmt.Errorf("settings: %w: %s must be finite", ErrInvalid, name)
		}
	}
	return nil
}
