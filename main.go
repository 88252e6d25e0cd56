package main

import (
	"context"
	"embed"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/provel/pkg/logger"
	"github.com/chazu/provel/pkg/settings"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("main")

	path := os.Getenv("PROVEL_SETTINGS")
	if path == "" {
		path = "provel.yaml"
	}
	s, err := settings.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("load settings")
	}

	ctx := log.WithContext(context.Background())
	p, closeProvider, err := s.OpenProvider(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("open configuration provider")
	}
	defer closeProvider()

	k, err := s.NewKernel()
	if err != nil {
		log.Fatal().Err(err).Msg("geometry kernel")
	}

	app := NewApp(s, p, k)
	err = wails.Run(&options.App{
		Title:  "provel",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 30, G: 30, B: 30, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("wails")
	}
}
