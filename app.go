package main

import (
	"context"
	"fmt"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"econavix/internal/config"
	"econavix/internal/logging"
	"econavix/internal/server"
)

// App struct holds the Wails application state
type App struct {
	ctx    context.Context
	server *server.Server
	logger *zap.Logger
	url    string
}

// NewApp loads the configuration and starts the embedded HTTP server
// before the window opens.
func NewApp() (*App, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig("")
	if err != nil {
		return nil, err
	}
	// The webview is the only client, so listen on a random local port.
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.OpenBrowser = false

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", zap.Error(err))
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	addr, err := srv.Start()
	if err != nil {
		logger.Error("failed to start server", zap.Error(err))
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	app := &App{server: srv, logger: logger, url: fmt.Sprintf("http://%s", addr)}
	logger.Info("internal HTTP server running", zap.String("url", app.url))
	return app, nil
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// Navigate the WebView to the internal server immediately
	go func() {
		runtime.WindowExecJS(ctx, fmt.Sprintf(`window.location.href = "%s"`, a.url))
	}()
}

// shutdown is called when the app closes
func (a *App) shutdown(ctx context.Context) {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("error shutting down server", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
