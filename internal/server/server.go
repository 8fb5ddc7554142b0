// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: New builds every dependency once,
// from the store up to the handlers, and setupRoutes decides which URL
// reaches which handler behind which middleware.
//
//	config → sqlite.DB ─┬→ services → handlers → chi routes
//	         cache.Store ┘     ↑
//	         storage.Media ────┘
//
// Handlers never see the database and services never see HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/blogfeed/internal/auth"
	"github.com/sakif/blogfeed/internal/cache"
	"github.com/sakif/blogfeed/internal/config"
	"github.com/sakif/blogfeed/internal/handler"
	"github.com/sakif/blogfeed/internal/middleware"
	"github.com/sakif/blogfeed/internal/render"
	sqliteRepo "github.com/sakif/blogfeed/internal/repository/sqlite"
	"github.com/sakif/blogfeed/internal/service"
	"github.com/sakif/blogfeed/internal/storage"
	"github.com/sakif/blogfeed/web"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database and the cache store; both are closed by
// Close, which Start calls during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger

	db         *sqliteRepo.DB
	cacheStore cache.Store
	feedCache  *cache.Slot
	media      *storage.Media
	renderer   *render.Renderer
	tokens     *auth.TokenService // nil when auth is disabled
	github     *auth.GitHubProvider
}

// New opens the store, cache backend and media directory described by cfg
// and wires the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if err := ensureDir(cfg.DB.Path); err != nil {
		return nil, err
	}
	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	cfg := s.config

	store, err := openCacheStore(cfg.Cache)
	if err != nil {
		return err
	}
	s.cacheStore = store
	s.feedCache = cache.New(store, cfg.Cache.Window, s.logger)

	if s.media, err = storage.NewMedia(cfg.Media.Dir, cfg.Media.MaxUploadBytes); err != nil {
		return fmt.Errorf("opening media directory: %w", err)
	}

	if s.renderer, err = render.New(web.Templates()); err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	if cfg.AuthEnabled() {
		if s.tokens, err = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL); err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		if cfg.GitHubEnabled() {
			s.github = auth.NewGitHubProvider(cfg.Auth.GitHubClientID, cfg.Auth.GitHubClientSecret, cfg.Auth.GitHubCallbackURL)
		}
	} else {
		s.logger.Warn("auth.jwt_secret not set: login is disabled and every visitor is anonymous")
	}

	s.setupRoutes()
	return nil
}

func openCacheStore(cfg config.CacheConfig) (cache.Store, error) {
	if cfg.Backend != config.CacheBadger {
		return cache.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(cfg.BadgerPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	store, err := cache.OpenBadgerStore(cfg.BadgerPath, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("opening cache store: %w", err)
	}
	return store, nil
}

// ensureDir creates the directory holding a database file.
func ensureDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
//
//	GET       /                               global feed (cached fragment)
//	GET       /group/{slug}/                  group feed
//	GET       /profile/{username}/            author feed
//	GET       /posts/{id}/                    post detail
//	GET       /static/*, /media/*, /metrics, /healthz
//
//	login required:
//	GET,POST  /create/
//	GET,POST  /posts/{id}/edit/
//	POST      /posts/{id}/comment
//	GET       /follow/
//	GET       /profile/{username}/follow, /unfollow
//
//	when auth is enabled:
//	GET,POST  /auth/login/, /auth/signup/
//	GET       /auth/logout/, /auth/github/login, /auth/github/callback
//
// MIDDLEWARE ORDER:
// RequestID first so the logger can print it; Recoverer inside Logger so
// a panic is logged as the 500 it becomes; Identify last so every handler
// sees the current user (or nil).
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(auth.Identify(s.tokens, s.db))

	pages := handler.NewPages(s.renderer, s.logger)
	r.NotFound(pages.NotFound)

	// === Static files ===
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(s.media.Root()))))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)

	// === Services ===
	relations := service.NewRelationshipService(s.db, s.db, s.logger)
	feeds := service.NewFeedService(s.db, s.db, s.db, relations, s.logger)
	posts := service.NewPostService(s.db, s.db, s.db, s.media, s.logger)

	// === Handlers ===
	feedHandler := handler.NewFeedHandler(feeds, s.feedCache, s.renderer, pages, s.logger)
	postHandler := handler.NewPostHandler(posts, pages, s.logger)
	followHandler := handler.NewFollowHandler(relations, pages)

	r.Get("/", feedHandler.HandleIndex)
	r.Get("/group/{slug}/", feedHandler.HandleGroup)
	r.Get("/profile/{username}/", feedHandler.HandleProfile)
	r.Get("/posts/{id}/", postHandler.HandleDetail)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(handler.LoginPath))

		r.Get("/create/", postHandler.HandleCreateForm)
		r.Post("/create/", postHandler.HandleCreate)
		r.Get("/posts/{id}/edit/", postHandler.HandleEditForm)
		r.Post("/posts/{id}/edit/", postHandler.HandleEdit)
		r.Post("/posts/{id}/comment", postHandler.HandleComment)

		r.Get("/follow/", feedHandler.HandleFollowIndex)
		r.Get("/profile/{username}/follow", followHandler.HandleFollow)
		r.Get("/profile/{username}/unfollow", followHandler.HandleUnfollow)
	})

	if s.tokens == nil {
		return
	}

	accounts := service.NewAuthService(s.db, s.tokens, auth.NewPasswordService(), s.logger)
	authHandler := handler.NewAuthHandler(accounts, s.github, s.tokens.TTL(), pages, s.logger)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login/", authHandler.HandleLoginForm)
		r.Post("/login/", authHandler.HandleLogin)
		r.Get("/signup/", authHandler.HandleSignupForm)
		r.Post("/signup/", authHandler.HandleSignup)
		r.Get("/logout/", authHandler.HandleLogout)
		if s.github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})
}

// handleHealth answers 200 while the database is reachable, 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "unavailable\n")
		return
	}
	io.WriteString(w, "ok\n")
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// FlushFeedCache empties the global feed cache slot. The slot logs the
// outcome.
func (s *Server) FlushFeedCache(ctx context.Context) {
	s.feedCache.Flush(ctx)
}

// Close releases the cache store and the database.
func (s *Server) Close() error {
	var errs []error
	if c, ok := s.cacheStore.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache store: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	return errors.Join(errs...)
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close the cache store and the database
//
// SIGHUP flushes the feed cache and keeps serving.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(quit)
	defer signal.Stop(hup)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", s.config.Server.BaseURL),
			slog.String("database", s.config.DB.Path),
			slog.String("cache", s.config.Cache.Backend),
			slog.Duration("cacheWindow", s.feedCache.Window()),
			slog.Bool("auth", s.tokens != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	for {
		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-hup:
			s.FlushFeedCache(context.Background())

		case sig := <-quit:
			s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			s.logger.Info("server stopped gracefully")
			return nil
		}
	}
}
