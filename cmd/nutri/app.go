package main

import (
	"context"
	"errors"
	"sync/atomic"

	"nutriplan/internal/config"
	"nutriplan/internal/logging"
	"nutriplan/internal/mealplan"
	"nutriplan/internal/recommend"
	"nutriplan/internal/store"
)

// app is the wired application: storage, plan state and recommendations.
type app struct {
	cfg  atomic.Pointer[config.Config]
	repo *store.Repository
	plan *mealplan.Plan
	rec  *recommend.Service
	keys *recommend.Keys
}

// open returns the application, opening it on first use.
func (c *cli) open(ctx context.Context) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := newApp(ctx, c.cfg, c.ephemeral)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func newApp(ctx context.Context, cfg *config.Config, ephemeral bool) (*app, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "open app")
	defer timer.Stop()

	var kv store.KV
	if ephemeral {
		kv = store.NewMemoryStore()
	} else {
		sqlite, err := store.NewSQLiteStore(cfg.Storage.DatabasePath, store.SQLiteOptions{
			Driver:      cfg.Storage.Driver,
			BusyTimeout: cfg.GetBusyTimeout(),
		})
		if err != nil {
			return nil, err
		}
		kv = sqlite
	}

	a := &app{repo: store.NewRepository(kv)}
	a.cfg.Store(cfg)
	a.plan = mealplan.NewPlan(a.repo)
	a.plan.Load(ctx)
	a.rec = recommend.NewService(a.clientFactory)
	a.keys = recommend.NewKeys(a.rec, a.repo, func() string { return a.cfg.Load().LLM.APIKey })
	a.activateKey(ctx)
	return a, nil
}

// clientFactory builds Gemini clients from whatever config is current, so a
// reloaded config takes effect on the next key activation.
func (a *app) clientFactory(ctx context.Context, apiKey string) (recommend.LLMClient, error) {
	cfg := a.cfg.Load()
	gc := recommend.DefaultGeminiConfig(apiKey)
	gc.Model = cfg.LLM.Model
	gc.BaseURL = cfg.LLM.BaseURL
	gc.Timeout = cfg.GetLLMTimeout()
	gc.Temperature = cfg.LLM.Temperature
	client, err := recommend.NewGeminiClient(ctx, gc)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// activateKey enables live recommendations with the configured key, or the
// stored one when the config has none. Failures are logged by Keys.
func (a *app) activateKey(ctx context.Context) {
	_, _ = a.keys.Activate(ctx)
}

// reload swaps in a changed config and re-activates the key.
func (a *app) reload(ctx context.Context, cfg *config.Config) {
	a.cfg.Store(cfg)
	a.activateKey(ctx)
	logging.Config("Config reloaded (model %s, live=%v)", cfg.LLM.Model, a.rec.HasAPIKey())
}

// Close flushes pending meal writes and closes storage.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.plan.Close(ctx), a.repo.Close())
}
