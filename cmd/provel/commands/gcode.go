package commands

import (
	"context"
	"os"
	"time"

	"github.com/chazu/provel/pkg/gcode"
	"github.com/chazu/provel/pkg/model"
	"github.com/chazu/provel/pkg/printtime"
	"github.com/chazu/provel/pkg/provider"
	"github.com/chazu/provel/pkg/settings"
)

// Version is stamped into generated G-code.
var Version = "dev"

func writeGCode(ctx context.Context, s settings.Settings, p provider.ConfigurationProvider, m *model.Model, est printtime.Estimate, path string) error {
	material, err := p.ActiveMaterialProfile(ctx)
	if err != nil {
		return err
	}
	params := s.GCodeParams(material)
	params.EstimatedTime = est.String()
	params.Version = Version
	params.Generated = time.Now()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gcode.Write(f, m, params); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
