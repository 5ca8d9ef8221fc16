package kitchen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
)

type fakeRecipeRepo struct {
	recipes map[string]*recipe.Recipe
	order   []string
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: make(map[string]*recipe.Recipe)}
}

func (f *fakeRecipeRepo) Save(_ context.Context, r *recipe.Recipe) error {
	if _, exists := f.recipes[r.Name]; !exists {
		f.order = append(f.order, r.Name)
	}
	clone := *r
	f.recipes[r.Name] = &clone
	return nil
}

func (f *fakeRecipeRepo) Delete(_ context.Context, name string) error {
	if _, ok := f.recipes[name]; !ok {
		return apperrors.NewNotFound("recipe")
	}
	delete(f.recipes, name)
	return nil
}

func (f *fakeRecipeRepo) Get(_ context.Context, name string) (*recipe.Recipe, error) {
	r, ok := f.recipes[name]
	if !ok {
		return nil, apperrors.NewNotFound("recipe")
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRecipeRepo) All(_ context.Context) ([]recipe.Recipe, error) {
	out := make([]recipe.Recipe, 0, len(f.order))
	for _, name := range f.order {
		if r, ok := f.recipes[name]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRecipeRepo) GroupedByCuisine(ctx context.Context) (map[string][]recipe.Summary, error) {
	all, _ := f.All(ctx)
	grouped := make(map[string][]recipe.Summary)
	for _, r := range all {
		grouped[string(r.Cuisine)] = append(grouped[string(r.Cuisine)], recipe.Summary{
			Name: r.Name, Ingredients: r.Ingredients, Seasonings: r.Seasonings,
		})
	}
	return grouped, nil
}

func (f *fakeRecipeRepo) Requirements(ctx context.Context) ([]recipe.Requirement, error) {
	all, _ := f.All(ctx)
	reqs := make([]recipe.Requirement, 0, len(all))
	for _, r := range all {
		reqs = append(reqs, recipe.Requirement{Name: r.Name, Ingredients: r.Ingredients})
	}
	return reqs, nil
}

type fakePantry struct {
	items []recipe.PantryItem
}

func (f *fakePantry) Items(_ context.Context) ([]recipe.PantryItem, error) {
	return append([]recipe.PantryItem(nil), f.items...), nil
}

func (f *fakePantry) Names(_ context.Context) ([]string, error) {
	names := make([]string, len(f.items))
	for i, item := range f.items {
		names[i] = item.Name
	}
	return names, nil
}

func (f *fakePantry) Add(_ context.Context, name string, count int) error {
	for i := range f.items {
		if f.items[i].Name == name {
			f.items[i].Quantity += count
			return nil
		}
	}
	f.items = append(f.items, recipe.PantryItem{Name: name, Quantity: count})
	return nil
}

func (f *fakePantry) SetCount(_ context.Context, name string, count int) error {
	for i := range f.items {
		if f.items[i].Name == name {
			f.items[i].Quantity = count
			return nil
		}
	}
	f.items = append(f.items, recipe.PantryItem{Name: name, Quantity: count})
	return nil
}

func (f *fakePantry) Replace(_ context.Context, names []string) error {
	f.items = f.items[:0]
	for i, name := range names {
		f.items = append(f.items, recipe.PantryItem{Name: name, Quantity: 1, SortOrder: i})
	}
	return nil
}

func (f *fakePantry) Reorder(_ context.Context, names []string) error {
	for i, name := range names {
		for j := range f.items {
			if f.items[j].Name == name {
				f.items[j].SortOrder = i
			}
		}
	}
	return nil
}

func (f *fakePantry) Remove(_ context.Context, name string) error {
	for i := range f.items {
		if f.items[i].Name == name {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFound("supply")
}

type aliasResolver struct {
	aliases map[string]string
}

func (r aliasResolver) Resolve(_ context.Context, token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if canonical, ok := r.aliases[token]; ok {
		return canonical
	}
	return token
}

func (r aliasResolver) ResolveAll(ctx context.Context, tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = r.Resolve(ctx, tok)
	}
	return out
}

func (r aliasResolver) ResolveToSet(ctx context.Context, tokens []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		set[strings.ToLower(strings.TrimSpace(tok))] = struct{}{}
		set[r.Resolve(ctx, tok)] = struct{}{}
	}
	return set
}

type fakeIndexer struct {
	indexed chan string
	removed []string
	err     error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: make(chan string, 8)}
}

func (f *fakeIndexer) IndexRecipe(_ context.Context, rec *recipe.Recipe) error {
	if f.err != nil {
		return f.err
	}
	f.indexed <- rec.Name
	return nil
}

func (f *fakeIndexer) RemoveRecipe(_ context.Context, name string) error {
	f.removed = append(f.removed, name)
	return f.err
}

type fakeChat struct {
	response string
	err      error
}

func (f *fakeChat) GenerateJSON(_ context.Context, _ string) (string, error) {
	return f.response, f.err
}

type deps struct {
	repo    *fakeRecipeRepo
	pantry  *fakePantry
	indexer *fakeIndexer
	chat    *fakeChat
}

func newTestService(aliases map[string]string) (*Service, *deps) {
	d := &deps{
		repo:    newFakeRecipeRepo(),
		pantry:  &fakePantry{},
		indexer: newFakeIndexer(),
		chat:    &fakeChat{},
	}
	svc := NewService(d.repo, d.pantry, aliasResolver{aliases: aliases}, d.indexer, d.chat, zap.NewNop())
	return svc, d
}

func addRecipe(t *testing.T, svc *Service, d *deps, name string, ingredients, seasonings []string) {
	t.Helper()
	_, err := svc.AddRecipe(context.Background(), AddRecipeInput{
		Name: name, Ingredients: ingredients, Seasonings: seasonings,
	})
	require.NoError(t, err)
	select {
	case <-d.indexer.indexed:
	case <-time.After(time.Second):
		t.Fatalf("recipe %q was not indexed", name)
	}
}

func TestAddRecipe_Validation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	_, err := svc.AddRecipe(ctx, AddRecipeInput{Ingredients: []string{"egg"}})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument))

	_, err = svc.AddRecipe(ctx, AddRecipeInput{Name: "omelette"})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument))

	_, err = svc.AddRecipe(ctx, AddRecipeInput{
		Name: "omelette", Ingredients: []string{"egg"}, Seasonings: []string{"egg"},
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument))
}

func TestAddRecipe_PersistsAndIndexes(t *testing.T) {
	svc, d := newTestService(nil)

	rec, err := svc.AddRecipe(context.Background(), AddRecipeInput{
		Name:        "Carbonara ",
		Ingredients: []string{"Pasta", "egg", "pancetta", "egg"},
		Seasonings:  []string{"salt", "pepper"},
		CuisineType: "italian",
	})
	require.NoError(t, err)

	assert.Equal(t, "carbonara", rec.Name)
	assert.Equal(t, []string{"pasta", "egg", "pancetta"}, rec.Ingredients)
	assert.Equal(t, []string{"salt", "pepper"}, rec.Seasonings)
	assert.Equal(t, recipe.CuisineItalian, rec.Cuisine)

	select {
	case name := <-d.indexer.indexed:
		assert.Equal(t, "carbonara", name)
	case <-time.After(time.Second):
		t.Fatal("recipe was not indexed in the background")
	}

	stored, err := d.repo.Get(context.Background(), "carbonara")
	require.NoError(t, err)
	assert.Equal(t, rec.Ingredients, stored.Ingredients)
	assert.Equal(t, rec.Seasonings, stored.Seasonings)
}

func TestAddRecipe_IndexFailureDoesNotFailWrite(t *testing.T) {
	svc, d := newTestService(nil)
	d.indexer.err = errors.New("index offline")

	_, err := svc.AddRecipe(context.Background(), AddRecipeInput{
		Name: "toast", Ingredients: []string{"bread"},
	})
	require.NoError(t, err)

	_, getErr := d.repo.Get(context.Background(), "toast")
	assert.NoError(t, getErr)
}

func TestDeleteRecipe(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "toast", []string{"bread"}, nil)

	require.NoError(t, svc.DeleteRecipe(context.Background(), "toast"))

	assert.Equal(t, []string{"toast"}, d.indexer.removed)
	_, err := svc.GetRecipe(context.Background(), "toast")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestDeleteRecipe_NotFound(t *testing.T) {
	svc, _ := newTestService(nil)

	err := svc.DeleteRecipe(context.Background(), "ghost")

	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestCookableFromFridge_Chain(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "sandwich", []string{"bread", "ham"}, nil)
	addRecipe(t, svc, d, "burger", []string{"bread", "meat", "sandwich"}, nil)
	d.pantry.items = []recipe.PantryItem{
		{Name: "bread", Quantity: 1}, {Name: "ham", Quantity: 1}, {Name: "meat", Quantity: 1},
	}

	made, err := svc.CookableFromFridge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"sandwich", "burger"}, made)
}

func TestCookableFromFridge_SeasoningsExcluded(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "carbonara",
		[]string{"pasta", "egg", "pancetta"}, []string{"salt", "pepper"})
	d.pantry.items = []recipe.PantryItem{
		{Name: "pasta"}, {Name: "egg"}, {Name: "pancetta"},
	}

	made, err := svc.CookableFromFridge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"carbonara"}, made)
}

func TestCookableFromFridge_AliasResolution(t *testing.T) {
	svc, d := newTestService(map[string]string{"roma tomato": "tomato"})
	addRecipe(t, svc, d, "salad", []string{"tomato", "lettuce"}, nil)
	d.pantry.items = []recipe.PantryItem{
		{Name: "roma tomato"}, {Name: "lettuce"},
	}

	made, err := svc.CookableFromFridge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"salad"}, made)
}

func TestCookableFrom_Validation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  GenerateRequest
		msg  string
	}{
		{"no recipes", GenerateRequest{Ingredients: [][]string{{"a"}}, Supplies: []string{"a"}},
			"Recipes list is required and cannot be empty"},
		{"no ingredients", GenerateRequest{Recipes: []string{"r"}, Supplies: []string{"a"}},
			"Ingredients list is required and cannot be empty"},
		{"no supplies", GenerateRequest{Recipes: []string{"r"}, Ingredients: [][]string{{"a"}}},
			"Supplies list is required and cannot be empty"},
		{"size mismatch", GenerateRequest{
			Recipes: []string{"r", "s"}, Ingredients: [][]string{{"a"}}, Supplies: []string{"a"}},
			"Recipes and ingredients lists must have the same size"},
		{"empty sublist", GenerateRequest{
			Recipes: []string{"r"}, Ingredients: [][]string{{}}, Supplies: []string{"a"}},
			"Ingredients list at index 0 cannot be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CookableFrom(ctx, tc.req)
			require.Error(t, err)
			appErr := err.(*apperrors.AppError)
			assert.Equal(t, tc.msg, appErr.Message)
		})
	}
}

func TestCookableFrom_AdHocChain(t *testing.T) {
	svc, _ := newTestService(nil)

	made, err := svc.CookableFrom(context.Background(), GenerateRequest{
		Recipes:     []string{"sandwich", "burger"},
		Ingredients: [][]string{{"bread", "ham"}, {"bread", "meat", "sandwich"}},
		Supplies:    []string{"bread", "ham", "meat"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sandwich", "burger"}, made)
}

func TestAlmostCookable_Bounds(t *testing.T) {
	svc, _ := newTestService(nil)

	for _, bad := range []int{0, -1, 6} {
		_, err := svc.AlmostCookable(context.Background(), bad)
		assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument), "maxMissing=%d", bad)
	}
}

func TestAlmostCookable(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "omelette", []string{"egg", "milk"}, nil)
	addRecipe(t, svc, d, "cake", []string{"egg", "flour", "sugar", "butter"}, nil)
	d.pantry.items = []recipe.PantryItem{{Name: "egg"}}

	got, err := svc.AlmostCookable(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"omelette": {"milk"}}, got)
}

func TestMissingIngredients(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "omelette", []string{"egg", "milk"}, nil)
	d.pantry.items = []recipe.PantryItem{{Name: "egg"}}

	report, err := svc.MissingIngredients(context.Background(), "omelette")
	require.NoError(t, err)

	assert.Equal(t, "omelette", report.RecipeName)
	assert.Equal(t, []string{"milk"}, report.MissingIngredients)
	assert.Equal(t, 2, report.TotalRequired)
	assert.InDelta(t, 50.0, report.CoveragePercent, 1e-9)
}

func TestMissingIngredients_FullCoverage(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "toast", []string{"bread"}, nil)
	d.pantry.items = []recipe.PantryItem{{Name: "bread"}}

	report, err := svc.MissingIngredients(context.Background(), "toast")
	require.NoError(t, err)

	assert.Empty(t, report.MissingIngredients)
	assert.InDelta(t, 100.0, report.CoveragePercent, 1e-9)
}

func TestSubstitutions(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "carbonara", []string{"pasta", "egg", "pancetta"}, nil)
	d.pantry.items = []recipe.PantryItem{{Name: "pasta"}, {Name: "egg"}, {Name: "bacon"}}
	d.chat.response = `{"substitutes": [
		{"ingredient": "Bacon", "confidence": 0.9, "reasoning": "similar cured pork"},
		{"ingredient": "ham", "confidence": 1.4, "reasoning": "milder flavor"},
		{"ingredient": "", "confidence": 0.5}
	]}`

	subs, err := svc.Substitutions(context.Background(), "carbonara")
	require.NoError(t, err)

	require.Contains(t, subs, "pancetta")
	suggestions := subs["pancetta"]
	require.Len(t, suggestions, 2)
	assert.Equal(t, "bacon", suggestions[0].Ingredient)
	assert.True(t, suggestions[0].InFridge)
	assert.Equal(t, "ham", suggestions[1].Ingredient)
	assert.False(t, suggestions[1].InFridge)
	// Confidence values clamp to [0,1].
	assert.InDelta(t, 1.0, suggestions[1].Confidence, 1e-9)
}

func TestSubstitutions_NoMissingReturnsEmptyMap(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "toast", []string{"bread"}, nil)
	d.pantry.items = []recipe.PantryItem{{Name: "bread"}}

	subs, err := svc.Substitutions(context.Background(), "toast")
	require.NoError(t, err)

	assert.Empty(t, subs)
}

func TestSubstitutions_LLMFailureYieldsEmptyLists(t *testing.T) {
	svc, d := newTestService(nil)
	addRecipe(t, svc, d, "omelette", []string{"egg", "milk"}, nil)
	d.pantry.items = []recipe.PantryItem{{Name: "egg"}}
	d.chat.err = errors.New("model offline")

	subs, err := svc.Substitutions(context.Background(), "omelette")
	require.NoError(t, err)

	assert.Equal(t, map[string][]recipe.SubstitutionSuggestion{"milk": {}}, subs)
}

func TestSupplyOperations(t *testing.T) {
	svc, d := newTestService(nil)
	ctx := context.Background()

	require.NoError(t, svc.AddSupply(ctx, "Egg ", 2))
	require.NoError(t, svc.AddSupply(ctx, "egg", 3))

	items, err := svc.FridgeItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "egg", items[0].Name)
	assert.Equal(t, 5, items[0].Quantity)

	require.NoError(t, svc.SetSupplyCount(ctx, "egg", 1))
	items, _ = svc.FridgeItems(ctx)
	assert.Equal(t, 1, items[0].Quantity)

	assert.True(t, apperrors.Is(svc.AddSupply(ctx, "", 1), apperrors.CodeInvalidArgument))
	assert.True(t, apperrors.Is(svc.AddSupply(ctx, "egg", 0), apperrors.CodeInvalidArgument))

	require.NoError(t, svc.RemoveSupply(ctx, "egg"))
	assert.Empty(t, d.pantry.items)
}
