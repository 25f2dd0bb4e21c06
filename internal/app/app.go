package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/factory"
	"github.com/vk/regionfactory/internal/registry"
)

// Option adjusts the factory options an App is built with.
type Option func(*factory.Options)

// WithModules replaces the built-in modules.
func WithModules(modules ...registry.Module) Option {
	return func(o *factory.Options) { o.Modules = modules }
}

// WithBridge replaces the process-wide foreign runtime bridge.
func WithBridge(fn factory.BridgeFunc) Option {
	return func(o *factory.Options) { o.Bridge = fn }
}

// App encapsulates the application's dependencies and configuration.
type App struct {
	logger  *slog.Logger
	config  *Config
	factory *factory.Factory
}

// NewApp is the constructor for the main application. Logs go to logW.
func NewApp(logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg, logW)
	logger.Debug("Logger configured successfully.")

	fo := factory.Options{
		Bridge:  factory.ProcessBridge(cfg.BridgeOptions()),
		Modules: factory.Builtins(),
	}
	for _, opt := range opts {
		opt(&fo)
	}
	f := factory.New(fo)
	for _, ns := range cfg.Namespaces {
		f.RegisterNamespace(ns)
	}
	logger.Debug("Region factory configured.", "namespaces", f.Namespaces(), "bridge_root", cfg.BridgeRoot)

	return &App{logger: logger, config: cfg, factory: f}
}

// Context returns ctx carrying the App's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Factory returns the application's factory.
func (a *App) Factory() *factory.Factory {
	return a.factory
}

// Config returns the validated configuration.
func (a *App) Config() *Config {
	return a.config
}

// Close releases cached specs and providers. The foreign runtime, if it was
// started, keeps running until the process exits.
func (a *App) Close(ctx context.Context) {
	a.factory.Cleanup(a.Context(ctx))
}
