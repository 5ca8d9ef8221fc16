package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
)

// RecipeRepository persists recipes across food_items, recipe_dependencies
// and recipe_details.
type RecipeRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRecipeRepository creates a recipe repository.
func NewRecipeRepository(pool *pgxpool.Pool, logger *zap.Logger) *RecipeRepository {
	return &RecipeRepository{pool: pool, logger: logger}
}

// Save upserts a recipe in one transaction: food tokens, dependency edges
// and the detail row. Edges are re-established atomically so a re-add
// replaces the previous ingredient set.
func (r *RecipeRepository) Save(ctx context.Context, rec *recipe.Recipe) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	tokens := make([]string, 0, 1+len(rec.Ingredients)+len(rec.Seasonings))
	tokens = append(tokens, rec.Name)
	tokens = append(tokens, rec.Ingredients...)
	tokens = append(tokens, rec.Seasonings...)
	for _, tok := range tokens {
		if _, err := tx.Exec(ctx,
			`INSERT INTO food_items (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			tok); err != nil {
			return apperrors.Wrap(err, "failed to insert food item")
		}
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM recipe_dependencies WHERE recipe_name = $1`, rec.Name); err != nil {
		return apperrors.Wrap(err, "failed to clear recipe dependencies")
	}

	pos := 0
	insertEdge := func(ingredient string, seasoning int) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO recipe_dependencies (recipe_name, ingredient_name, is_seasoning, position)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (recipe_name, ingredient_name) DO NOTHING`,
			rec.Name, ingredient, seasoning, pos)
		pos++
		return err
	}
	for _, ing := range rec.Ingredients {
		if err := insertEdge(ing, 0); err != nil {
			return apperrors.Wrap(err, "failed to insert ingredient edge")
		}
	}
	for _, s := range rec.Seasonings {
		if err := insertEdge(s, 1); err != nil {
			return apperrors.Wrap(err, "failed to insert seasoning edge")
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO recipe_details (recipe_name, cuisine_type, instructions, image_url)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (recipe_name) DO UPDATE SET
		   cuisine_type = EXCLUDED.cuisine_type,
		   instructions = EXCLUDED.instructions,
		   image_url    = EXCLUDED.image_url`,
		rec.Name, string(rec.Cuisine), rec.Instructions, rec.ImageURL); err != nil {
		return apperrors.Wrap(err, "failed to upsert recipe details")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, "failed to commit recipe")
	}
	return nil
}

// Delete removes the detail row and all dependency edges.
func (r *RecipeRepository) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM recipe_dependencies WHERE recipe_name = $1`, name); err != nil {
		return apperrors.Wrap(err, "failed to delete recipe dependencies")
	}
	tag, err := tx.Exec(ctx,
		`DELETE FROM recipe_details WHERE recipe_name = $1`, name)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete recipe details")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound(fmt.Sprintf("recipe %q", name))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, "failed to commit recipe delete")
	}
	return nil
}

// Get loads one recipe with its ordered ingredients and seasonings.
func (r *RecipeRepository) Get(ctx context.Context, name string) (*recipe.Recipe, error) {
	rec := &recipe.Recipe{Name: name, Ingredients: []string{}, Seasonings: []string{}}

	var instructions, imageURL *string
	var cuisine string
	err := r.pool.QueryRow(ctx,
		`SELECT cuisine_type, instructions, image_url FROM recipe_details WHERE recipe_name = $1`,
		name).Scan(&cuisine, &instructions, &imageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound(fmt.Sprintf("recipe %q", name))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load recipe details")
	}
	rec.Cuisine = recipe.ParseCuisine(cuisine)
	if instructions != nil {
		rec.Instructions = *instructions
	}
	if imageURL != nil {
		rec.ImageURL = *imageURL
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ingredient_name, is_seasoning FROM recipe_dependencies
		 WHERE recipe_name = $1 ORDER BY position`, name)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load recipe dependencies")
	}
	defer rows.Close()

	for rows.Next() {
		var ingredient string
		var seasoning int
		if err := rows.Scan(&ingredient, &seasoning); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan recipe dependency")
		}
		if seasoning != 0 {
			rec.Seasonings = append(rec.Seasonings, ingredient)
		} else {
			rec.Ingredients = append(rec.Ingredients, ingredient)
		}
	}
	return rec, rows.Err()
}

// All loads every recipe, for bulk indexing.
func (r *RecipeRepository) All(ctx context.Context) ([]recipe.Recipe, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT d.recipe_name, d.cuisine_type, COALESCE(d.instructions, ''), COALESCE(d.image_url, ''),
		        e.ingredient_name, e.is_seasoning
		 FROM recipe_details d
		 LEFT JOIN recipe_dependencies e ON e.recipe_name = d.recipe_name
		 ORDER BY d.recipe_name, e.position`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query recipes")
	}
	defer rows.Close()

	var out []recipe.Recipe
	index := make(map[string]int)
	for rows.Next() {
		var name, cuisine, instructions, imageURL string
		var ingredient *string
		var seasoning *int
		if err := rows.Scan(&name, &cuisine, &instructions, &imageURL, &ingredient, &seasoning); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan recipe row")
		}
		i, ok := index[name]
		if !ok {
			index[name] = len(out)
			out = append(out, recipe.Recipe{
				Name:         name,
				Cuisine:      recipe.ParseCuisine(cuisine),
				Instructions: instructions,
				ImageURL:     imageURL,
				Ingredients:  []string{},
				Seasonings:   []string{},
			})
			i = len(out) - 1
		}
		if ingredient == nil {
			continue
		}
		if seasoning != nil && *seasoning != 0 {
			out[i].Seasonings = append(out[i].Seasonings, *ingredient)
		} else {
			out[i].Ingredients = append(out[i].Ingredients, *ingredient)
		}
	}
	return out, rows.Err()
}

// GroupedByCuisine returns recipe summaries keyed by cuisine name.
func (r *RecipeRepository) GroupedByCuisine(ctx context.Context) (map[string][]recipe.Summary, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]recipe.Summary)
	for _, rec := range all {
		key := string(rec.Cuisine)
		grouped[key] = append(grouped[key], recipe.Summary{
			Name:        rec.Name,
			Ingredients: rec.Ingredients,
			Seasonings:  rec.Seasonings,
		})
	}
	return grouped, nil
}

// Requirements returns every recipe's non-seasoning ingredient list.
func (r *RecipeRepository) Requirements(ctx context.Context) ([]recipe.Requirement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT recipe_name, ingredient_name FROM recipe_dependencies
		 WHERE is_seasoning = 0 ORDER BY recipe_name, position`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query recipe requirements")
	}
	defer rows.Close()

	var reqs []recipe.Requirement
	index := make(map[string]int)
	for rows.Next() {
		var name, ingredient string
		if err := rows.Scan(&name, &ingredient); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan requirement row")
		}
		i, ok := index[name]
		if !ok {
			index[name] = len(reqs)
			reqs = append(reqs, recipe.Requirement{Name: name})
			i = len(reqs) - 1
		}
		reqs[i].Ingredients = append(reqs[i].Ingredients, ingredient)
	}
	return reqs, rows.Err()
}
