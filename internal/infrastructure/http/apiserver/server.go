// Package apiserver wires handlers into the HTTP server.
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/application/ingredient"
	"github.com/lllll081030/SmartFridge/internal/application/kitchen"
	"github.com/lllll081030/SmartFridge/internal/application/search"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/config"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/http/handlers"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/http/middleware"
)

// Server owns the HTTP listener and its routes.
type Server struct {
	httpServer *http.Server
	cfg        config.ServerConfig
	logger     *zap.Logger
}

// Deps bundles the services the API exposes.
type Deps struct {
	Kitchen  *kitchen.Service
	Search   *search.Service
	Resolver *ingredient.Resolver
}

// New builds the router and the server around it.
func New(cfg config.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	router := NewRouter(deps, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// NewRouter mounts every handler group under /api plus the health and
// metrics endpoints.
func NewRouter(deps Deps, logger *zap.Logger) chi.Router {
	recipes := handlers.NewRecipeAPI(deps.Kitchen, logger)
	fridge := handlers.NewFridgeAPI(deps.Kitchen, logger)
	searchAPI := handlers.NewSearchAPI(deps.Search, logger)
	ingredients := handlers.NewIngredientAPI(deps.Resolver, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(120 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/recipes", func(rr chi.Router) {
			rr.Get("/", recipes.List)
			rr.Post("/", recipes.Create)
			// Static routes are registered before the {name} wildcard so
			// chi matches them first.
			rr.Get("/search", searchAPI.Search)
			rr.Post("/hybrid-search", searchAPI.HybridSearch)
			rr.Get("/almost-cookable", recipes.AlmostCookable)
			rr.Get("/{name}", recipes.Get)
			rr.Delete("/{name}", recipes.Delete)
			rr.Get("/{name}/missing", recipes.Missing)
			rr.Get("/{name}/substitutions", recipes.Substitutions)
		})

		api.Get("/cuisines", recipes.Cuisines)

		api.Route("/fridge", func(fr chi.Router) {
			fr.Get("/", fridge.List)
			fr.Put("/", fridge.Replace)
			fr.Put("/order", fridge.Reorder)
			fr.Post("/{item}", fridge.Add)
			fr.Put("/{item}", fridge.SetCount)
			fr.Delete("/{item}", fridge.Remove)
		})

		api.Get("/generate", recipes.Cookable)
		api.Post("/generate", recipes.CookableFrom)

		api.Route("/search", func(sr chi.Router) {
			sr.Post("/index-all", searchAPI.IndexAll)
			sr.Get("/stats", searchAPI.Stats)
		})

		api.Route("/ingredients", func(ir chi.Router) {
			ir.Post("/seed-aliases", ingredients.SeedAliases)
			ir.Get("/{name}/resolve", ingredients.Resolve)
			ir.Get("/{name}/aliases", ingredients.Aliases)
			ir.Post("/{name}/aliases", ingredients.AddAlias)
			ir.Post("/{name}/generate-aliases", ingredients.GenerateAliases)
		})
	})

	return r
}

// Start blocks serving requests until the listener fails or closes.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
