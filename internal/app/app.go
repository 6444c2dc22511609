// Package app assembles the bot: configuration, infrastructure, domain
// services, and the Telegram runtime options consumed by the shared runner.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hardwaylabs/partnerbot/core/bootstrap"
	"github.com/hardwaylabs/partnerbot/core/config"
	coredatabase "github.com/hardwaylabs/partnerbot/core/database"
	coretelegram "github.com/hardwaylabs/partnerbot/core/telegram"
	"github.com/hardwaylabs/partnerbot/core/telegram/router"
	tgsender "github.com/hardwaylabs/partnerbot/core/telegram/sender"
	"github.com/hardwaylabs/partnerbot/core/telegram/state"
	"github.com/hardwaylabs/partnerbot/internal/conversation"
	"github.com/hardwaylabs/partnerbot/internal/handlers"
	"github.com/hardwaylabs/partnerbot/internal/notify"
	"github.com/hardwaylabs/partnerbot/internal/store"
)

// Config carries the loaded core configuration.
type Config struct {
	core *config.Config
}

// LoadConfig reads and validates the YAML/env configuration.
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &Config{core: cfg}, nil
}

// CoreConfig satisfies the runner's config carrier contract.
func (c *Config) CoreConfig() *config.Config { return c.core }

// App owns the assembled services and exposes the Telegram run options.
type App struct {
	cfg      *config.Config
	store    *store.Store
	sessions state.Manager
	engine   *conversation.Engine
	notifier *notify.Notifier
	handlers *handlers.Handlers
	queue    *tgsender.Dispatcher
}

// Bootstrap initializes logging, storage, and every domain service.
func Bootstrap(cfg *Config) (*App, error) {
	core := cfg.CoreConfig()
	if core == nil {
		return nil, fmt.Errorf("app: missing core configuration")
	}

	dbCfg, err := coredatabase.LoadConfig()
	if err != nil {
		return nil, err
	}

	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   core,
		Database: dbCfg,
	})
	if err != nil {
		return nil, err
	}

	st := store.New(infra.DB)
	sessions := state.NewMemoryManager()
	queue := tgsender.NewDispatcher(tgsender.Options{})
	notifier := notify.New(nil, queue, 10*time.Second)
	engine := conversation.New(st, sessions, notifier, core.Limits)

	return &App{
		cfg:      core,
		store:    st,
		sessions: sessions,
		engine:   engine,
		notifier: notifier,
		handlers: handlers.New(st, engine, notifier, core),
		queue:    queue,
	}, nil
}

// TelegramRunOptions wires the registry, routers, and middlewares into the
// shared Telegram runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.handlers.Register(reg)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs: a.cfg.Review.AdminIDs,
	})
	routes = append(routes, router.TextRoutes(a.sessions, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Dispatcher:  a.queue,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.notifier.SetSender(rt.Bot)
			return nil
		},
	}, nil
}
