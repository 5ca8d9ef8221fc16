package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// schema lists idempotent DDL statements applied at startup. The extra
// position column on recipe_dependencies keeps ingredient order stable
// across reads.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS food_items (
		name TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS recipe_dependencies (
		recipe_name     TEXT NOT NULL,
		ingredient_name TEXT NOT NULL,
		is_seasoning    INT  NOT NULL DEFAULT 0,
		position        INT  NOT NULL DEFAULT 0,
		PRIMARY KEY (recipe_name, ingredient_name)
	)`,
	`CREATE TABLE IF NOT EXISTS recipe_details (
		recipe_name  TEXT PRIMARY KEY,
		cuisine_type TEXT NOT NULL DEFAULT 'OTHER',
		instructions TEXT,
		image_url    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS supplies (
		name       TEXT PRIMARY KEY,
		quantity   INT NOT NULL DEFAULT 1,
		sort_order INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS ingredient_aliases (
		id             BIGSERIAL PRIMARY KEY,
		canonical_name TEXT NOT NULL,
		alias          TEXT NOT NULL,
		confidence     DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		source         TEXT NOT NULL DEFAULT 'manual',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (canonical_name, alias)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_recipe ON recipe_dependencies (recipe_name)`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_ingredient ON recipe_dependencies (ingredient_name)`,
	`CREATE INDEX IF NOT EXISTS idx_aliases_canonical ON ingredient_aliases (canonical_name)`,
	`CREATE INDEX IF NOT EXISTS idx_aliases_alias ON ingredient_aliases (alias)`,
}

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	logger.Info("database schema ready", zap.Int("statements", len(schema)))
	return nil
}
