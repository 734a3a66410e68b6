// Package server exposes the meal plan, profile, recommendations and storage
// maintenance over a local JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"nutriplan/internal/config"
	"nutriplan/internal/logging"
	"nutriplan/internal/mealplan"
	"nutriplan/internal/recommend"
	"nutriplan/internal/store"
)

// Recommender is the recommendation surface the API needs.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Result, error)
	HasAPIKey() bool
}

// KeyManager applies the API key precedence rule; *recommend.Keys implements
// it.
type KeyManager interface {
	Activate(ctx context.Context) (recommend.KeySource, error)
	Source() recommend.KeySource
	Save(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Options configures the listener.
type Options struct {
	Addr            string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Version         string
}

// OptionsFromConfig reads the server section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:            cfg.Server.Addr,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ReadTimeout:     cfg.GetReadTimeout(),
		WriteTimeout:    cfg.GetWriteTimeout(),
		ShutdownTimeout: cfg.GetShutdownTimeout(),
		Version:         cfg.Version,
	}
}

// Server is the HTTP API over one Plan.
type Server struct {
	plan   *mealplan.Plan
	repo   *store.Repository
	rec    Recommender
	keys   KeyManager
	opts   Options
	router chi.Router
	log    *logging.Logger
}

// New wires the routes. repo is used for bulk operations and keys for API
// key settings; the plan must already be loaded.
func New(plan *mealplan.Plan, repo *store.Repository, rec Recommender, keys KeyManager, opts Options) *Server {
	s := &Server{
		plan: plan,
		repo: repo,
		rec:  rec,
		keys: keys,
		opts: opts,
		log:  logging.Get(logging.CategoryServer),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/meals", func(r chi.Router) {
		r.Get("/", s.listMeals)
		r.Delete("/", s.clearMeals)
		r.Put("/{slot}", s.attachFood)
		r.Delete("/{slot}", s.detachFood)
		r.Post("/{slot}/custom", s.addCustomFood)
	})

	r.Get("/nutrition", s.nutritionSummary)

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", s.getProfile)
		r.Put("/", s.saveProfile)
		r.Delete("/", s.clearProfile)
	})

	r.Post("/recommendations/{slot}", s.recommend)

	r.Route("/settings/api-key", func(r chi.Router) {
		r.Get("/", s.apiKeyStatus)
		r.Put("/", s.saveAPIKey)
		r.Delete("/", s.clearAPIKey)
	})

	r.Get("/stats", s.stats)
	r.Get("/export", s.export)
	r.Post("/import", s.importData)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
