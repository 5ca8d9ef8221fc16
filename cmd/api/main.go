// Command api runs the recipe retrieval HTTP service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/application/ingredient"
	"github.com/lllll081030/SmartFridge/internal/application/kitchen"
	"github.com/lllll081030/SmartFridge/internal/application/search"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/ai/ollama"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/cache"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/config"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/http/apiserver"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/monitoring"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/persistence/postgres"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/search/qdrant"
	"github.com/lllll081030/SmartFridge/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		return err
	}

	redisClient := cache.NewClient(ctx, cfg.Redis, log)
	defer redisClient.Close()

	metrics := monitoring.NewMetrics()
	vectorCache := cache.NewVectorCache(redisClient, cfg.Redis.CacheTTL, log, metrics)

	ollamaClient := ollama.NewClient(cfg.Ollama, log)
	if !ollamaClient.Available(ctx) {
		log.Warn("ollama unreachable, search falls back to exact matching",
			zap.String("base_url", cfg.Ollama.BaseURL))
	}

	qdrantClient := qdrant.NewClient(cfg.Qdrant.BaseURL(), cfg.Ollama.Dimension, log)
	if err := qdrantClient.EnsureCollection(ctx); err != nil {
		log.Warn("qdrant collection unavailable, search falls back to exact matching",
			zap.Error(err))
	}

	recipeRepo := postgres.NewRecipeRepository(pool, log)
	pantryRepo := postgres.NewPantryRepository(pool, log)
	aliasRepo := postgres.NewAliasRepository(pool, log)

	resolver := ingredient.NewResolver(aliasRepo, ollamaClient, log)
	if err := resolver.SeedCommonAliases(ctx); err != nil {
		log.Warn("failed to seed ingredient aliases", zap.Error(err))
	}

	searchSvc := search.NewService(ollamaClient, qdrantClient, vectorCache, recipeRepo, resolver, log, metrics)
	kitchenSvc := kitchen.NewService(recipeRepo, pantryRepo, resolver, searchSvc, ollamaClient, log)

	server := apiserver.New(cfg.Server, apiserver.Deps{
		Kitchen:  kitchenSvc,
		Search:   searchSvc,
		Resolver: resolver,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	return server.Shutdown(ctx)
}
