package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
)

// PantryRepository persists fridge contents in the supplies table.
type PantryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPantryRepository creates a pantry repository.
func NewPantryRepository(pool *pgxpool.Pool, logger *zap.Logger) *PantryRepository {
	return &PantryRepository{pool: pool, logger: logger}
}

// Items returns all pantry entries in user order.
func (r *PantryRepository) Items(ctx context.Context) ([]recipe.PantryItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, quantity, sort_order FROM supplies ORDER BY sort_order, name`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query supplies")
	}
	defer rows.Close()

	items := []recipe.PantryItem{}
	for rows.Next() {
		var item recipe.PantryItem
		if err := rows.Scan(&item.Name, &item.Quantity, &item.SortOrder); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan supply row")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Names returns just the pantry item names in user order.
func (r *PantryRepository) Names(ctx context.Context) ([]string, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names, nil
}

// Add inserts an item or accumulates quantity onto an existing one.
func (r *PantryRepository) Add(ctx context.Context, name string, count int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO supplies (name, quantity) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET quantity = supplies.quantity + EXCLUDED.quantity`,
		name, count)
	if err != nil {
		return apperrors.Wrap(err, "failed to add supply")
	}
	return nil
}

// SetCount overwrites the quantity of an item, creating it if absent.
func (r *PantryRepository) SetCount(ctx context.Context, name string, count int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO supplies (name, quantity) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET quantity = EXCLUDED.quantity`,
		name, count)
	if err != nil {
		return apperrors.Wrap(err, "failed to set supply count")
	}
	return nil
}

// Replace swaps the full pantry for the given names, each at quantity 1.
func (r *PantryRepository) Replace(ctx context.Context, names []string) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM supplies`); err != nil {
		return apperrors.Wrap(err, "failed to clear supplies")
	}
	for i, name := range names {
		if _, err := tx.Exec(ctx,
			`INSERT INTO supplies (name, quantity, sort_order) VALUES ($1, 1, $2)
			 ON CONFLICT (name) DO NOTHING`, name, i); err != nil {
			return apperrors.Wrap(err, "failed to insert supply")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, "failed to commit supplies")
	}
	return nil
}

// Reorder rewrites sort_order to match the given sequence. Items not
// listed keep their old position values.
func (r *PantryRepository) Reorder(ctx context.Context, names []string) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	for i, name := range names {
		if _, err := tx.Exec(ctx,
			`UPDATE supplies SET sort_order = $1 WHERE name = $2`, i, name); err != nil {
			return apperrors.Wrap(err, "failed to update sort order")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, "failed to commit sort order")
	}
	return nil
}

// Remove deletes one pantry item.
func (r *PantryRepository) Remove(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM supplies WHERE name = $1`, name)
	if err != nil {
		return apperrors.Wrap(err, "failed to remove supply")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound(fmt.Sprintf("supply %q", name))
	}
	return nil
}
