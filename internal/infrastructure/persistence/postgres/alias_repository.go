package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
)

// AliasRepository persists ingredient alias records.
type AliasRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewAliasRepository creates an alias repository.
func NewAliasRepository(pool *pgxpool.Pool, logger *zap.Logger) *AliasRepository {
	return &AliasRepository{pool: pool, logger: logger}
}

// Canonical checks whether token is itself a known canonical name.
func (r *AliasRepository) Canonical(ctx context.Context, token string) (string, bool, error) {
	var canonical string
	err := r.pool.QueryRow(ctx,
		`SELECT canonical_name FROM ingredient_aliases WHERE canonical_name = $1 LIMIT 1`,
		token).Scan(&canonical)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(err, "failed to query canonical")
	}
	return canonical, true, nil
}

// ByAlias resolves token as an alias. Highest confidence wins, with the
// newest record breaking ties.
func (r *AliasRepository) ByAlias(ctx context.Context, token string) (string, bool, error) {
	var canonical string
	err := r.pool.QueryRow(ctx,
		`SELECT canonical_name FROM ingredient_aliases WHERE alias = $1
		 ORDER BY confidence DESC, created_at DESC LIMIT 1`,
		token).Scan(&canonical)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(err, "failed to query alias")
	}
	return canonical, true, nil
}

// AliasesFor lists all alias records of a canonical name.
func (r *AliasRepository) AliasesFor(ctx context.Context, canonical string) ([]recipe.AliasRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT canonical_name, alias, confidence, source, created_at
		 FROM ingredient_aliases WHERE canonical_name = $1
		 ORDER BY confidence DESC, created_at DESC`, canonical)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query aliases")
	}
	defer rows.Close()

	records := []recipe.AliasRecord{}
	for rows.Next() {
		var rec recipe.AliasRecord
		if err := rows.Scan(&rec.Canonical, &rec.Alias, &rec.Confidence, &rec.Source, &rec.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan alias row")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Upsert inserts or refreshes an alias record on (canonical, alias).
func (r *AliasRepository) Upsert(ctx context.Context, rec recipe.AliasRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ingredient_aliases (canonical_name, alias, confidence, source)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (canonical_name, alias) DO UPDATE SET
		   confidence = EXCLUDED.confidence,
		   source     = EXCLUDED.source`,
		rec.Canonical, rec.Alias, rec.Confidence, rec.Source)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert alias")
	}
	return nil
}
