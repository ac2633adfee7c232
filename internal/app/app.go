package app

import (
	"io"
	"log/slog"

	"github.com/vk/metabake/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and the
// built-in toolset registry.
func New(outW io.Writer, cfg *Config) *App {
	return &App{
		outW:     outW,
		logger:   newLogger(cfg.LogLevel, cfg.LogFormat, outW, cfg.LogFile),
		registry: registry.Builtin(),
		config:   cfg,
	}
}

// Registry returns the application's toolset registry. This is primarily
// for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
