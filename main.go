package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"go.uber.org/zap"
)

//go:embed frontend/*
var assets embed.FS

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalf("Fatal error: %v", err)
	}

	if err := wails.Run(windowOptions(app)); err != nil {
		app.logger.Fatal("desktop window failed", zap.Error(err))
	}
}

// windowOptions describes the desktop window. The window only shows a
// loading page until startup points the webview at the embedded server.
func windowOptions(app *App) *options.App {
	return &options.App{
		Title:            "EcoNavix",
		Width:            1200,
		Height:           860,
		MinWidth:         720,
		MinHeight:        560,
		BackgroundColour: options.NewRGB(245, 247, 244),
		AssetServer:      &assetserver.Options{Assets: assets},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind:             []any{app},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   "EcoNavix",
				Message: "Eco-friendly route planning",
			},
		},
		Linux: &linux.Options{
			ProgramName:      "EcoNavix",
			WebviewGpuPolicy: linux.WebviewGpuPolicyAlways,
		},
	}
}
