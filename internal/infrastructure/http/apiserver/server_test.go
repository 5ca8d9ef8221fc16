package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/application/ingredient"
	"github.com/lllll081030/SmartFridge/internal/application/kitchen"
	"github.com/lllll081030/SmartFridge/internal/application/search"
	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/monitoring"
	"github.com/lllll081030/SmartFridge/internal/ports/outbound"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"
)

type memRecipeRepo struct {
	order   []string
	recipes map[string]recipe.Recipe
}

func newMemRecipeRepo() *memRecipeRepo {
	return &memRecipeRepo{recipes: map[string]recipe.Recipe{}}
}

func (m *memRecipeRepo) Save(_ context.Context, r *recipe.Recipe) error {
	if _, ok := m.recipes[r.Name]; !ok {
		m.order = append(m.order, r.Name)
	}
	m.recipes[r.Name] = *r
	return nil
}

func (m *memRecipeRepo) Delete(_ context.Context, name string) error {
	if _, ok := m.recipes[name]; !ok {
		return errNotFound(name)
	}
	delete(m.recipes, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memRecipeRepo) Get(_ context.Context, name string) (*recipe.Recipe, error) {
	r, ok := m.recipes[name]
	if !ok {
		return nil, errNotFound(name)
	}
	return &r, nil
}

func (m *memRecipeRepo) All(_ context.Context) ([]recipe.Recipe, error) {
	out := make([]recipe.Recipe, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.recipes[name])
	}
	return out, nil
}

func (m *memRecipeRepo) GroupedByCuisine(ctx context.Context) (map[string][]recipe.Summary, error) {
	all, _ := m.All(ctx)
	grouped := map[string][]recipe.Summary{}
	for _, r := range all {
		key := r.Cuisine.DisplayName()
		grouped[key] = append(grouped[key], recipe.Summary{
			Name:        r.Name,
			Ingredients: r.Ingredients,
			Seasonings:  r.Seasonings,
		})
	}
	return grouped, nil
}

func (m *memRecipeRepo) Requirements(ctx context.Context) ([]recipe.Requirement, error) {
	all, _ := m.All(ctx)
	out := make([]recipe.Requirement, 0, len(all))
	for _, r := range all {
		out = append(out, recipe.Requirement{Name: r.Name, Ingredients: r.Ingredients})
	}
	return out, nil
}

type memPantry struct {
	order  []string
	counts map[string]int
}

func newMemPantry() *memPantry {
	return &memPantry{counts: map[string]int{}}
}

func (m *memPantry) Items(_ context.Context) ([]recipe.PantryItem, error) {
	out := make([]recipe.PantryItem, 0, len(m.order))
	for i, name := range m.order {
		out = append(out, recipe.PantryItem{Name: name, Quantity: m.counts[name], SortOrder: i})
	}
	return out, nil
}

func (m *memPantry) Names(_ context.Context) ([]string, error) {
	return append([]string(nil), m.order...), nil
}

func (m *memPantry) Add(_ context.Context, name string, count int) error {
	if _, ok := m.counts[name]; !ok {
		m.order = append(m.order, name)
	}
	m.counts[name] += count
	return nil
}

func (m *memPantry) SetCount(_ context.Context, name string, count int) error {
	if _, ok := m.counts[name]; !ok {
		m.order = append(m.order, name)
	}
	m.counts[name] = count
	return nil
}

func (m *memPantry) Replace(_ context.Context, names []string) error {
	m.order = nil
	m.counts = map[string]int{}
	for _, n := range names {
		if _, ok := m.counts[n]; !ok {
			m.order = append(m.order, n)
			m.counts[n] = 1
		}
	}
	return nil
}

func (m *memPantry) Reorder(_ context.Context, names []string) error {
	m.order = append([]string(nil), names...)
	return nil
}

func (m *memPantry) Remove(_ context.Context, name string) error {
	if _, ok := m.counts[name]; !ok {
		return errNotFound(name)
	}
	delete(m.counts, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type memAliasRepo struct {
	records []recipe.AliasRecord
}

func (m *memAliasRepo) Canonical(_ context.Context, token string) (string, bool, error) {
	for _, r := range m.records {
		if r.Canonical == token && r.Alias == token {
			return r.Canonical, true, nil
		}
	}
	return "", false, nil
}

func (m *memAliasRepo) ByAlias(_ context.Context, token string) (string, bool, error) {
	best := -1
	for i, r := range m.records {
		if r.Alias != token {
			continue
		}
		if best == -1 || r.Confidence > m.records[best].Confidence {
			best = i
		}
	}
	if best == -1 {
		return "", false, nil
	}
	return m.records[best].Canonical, true, nil
}

func (m *memAliasRepo) AliasesFor(_ context.Context, canonical string) ([]recipe.AliasRecord, error) {
	var out []recipe.AliasRecord
	for _, r := range m.records {
		if r.Canonical == canonical {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAliasRepo) Upsert(_ context.Context, rec recipe.AliasRecord) error {
	for i, r := range m.records {
		if r.Canonical == rec.Canonical && r.Alias == rec.Alias {
			m.records[i] = rec
			return nil
		}
	}
	m.records = append(m.records, rec)
	return nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}
func (stubEmbedder) Available(context.Context) bool { return true }
func (stubEmbedder) ModelVersion() string           { return "nomic-embed-text" }

type stubIndex struct {
	hybrid  []recipe.SearchResult
	upserts []string
}

func (s *stubIndex) EnsureCollection(context.Context) error { return nil }
func (s *stubIndex) UpsertRecipe(_ context.Context, name string, _ []float32, _ outbound.SparseVector, _ map[string]interface{}) error {
	s.upserts = append(s.upserts, name)
	return nil
}
func (s *stubIndex) DeletePoint(context.Context, string) error { return nil }
func (s *stubIndex) Search(context.Context, []float32, int, float64) ([]recipe.SearchResult, error) {
	return s.hybrid, nil
}
func (s *stubIndex) HybridQuery(context.Context, []outbound.Prefetch, int) ([]recipe.SearchResult, error) {
	return s.hybrid, nil
}
func (s *stubIndex) Stats(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"points_count": len(s.upserts)}, nil
}
func (s *stubIndex) Available() bool { return true }

type stubCache struct{}

func (stubCache) GetEmbedding(context.Context, string) ([]float32, bool) { return nil, false }
func (stubCache) SetEmbedding(context.Context, string, []float32)       {}
func (stubCache) GetSearchResults(context.Context, string) ([]recipe.SearchResult, bool) {
	return nil, false
}
func (stubCache) SetSearchResults(context.Context, string, []recipe.SearchResult) {}
func (stubCache) Available() bool                                                 { return false }

type stubChat struct{}

func (stubChat) GenerateJSON(context.Context, string) (string, error) {
	return `{"substitutes":[]}`, nil
}

func errNotFound(name string) error {
	return apperrors.NewNotFound(name)
}

func newTestServer(t *testing.T) (*httptest.Server, *stubIndex) {
	t.Helper()

	logger := zap.NewNop()
	recipes := newMemRecipeRepo()
	pantry := newMemPantry()
	aliases := &memAliasRepo{}
	index := &stubIndex{}

	resolver := ingredient.NewResolver(aliases, stubChat{}, logger)
	searchSvc := search.NewService(stubEmbedder{}, index, stubCache{}, recipes, resolver, logger, monitoring.NopMetrics())
	kitchenSvc := kitchen.NewService(recipes, pantry, resolver, searchSvc, stubChat{}, logger)

	router := NewRouter(Deps{
		Kitchen:  kitchenSvc,
		Search:   searchSvc,
		Resolver: resolver,
	}, logger)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, index
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateRecipeValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/recipes", map[string]interface{}{
		"ingredients": []string{"bread"},
	})
	body := decodeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Recipe name is required", body["error"])
}

func TestCreateAndFetchRecipe(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/recipes", map[string]interface{}{
		"name":        "Sandwich",
		"ingredients": []string{"bread", "ham"},
		"seasonings":  []string{"salt"},
		"cuisineType": "AMERICAN",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got, err := http.Get(srv.URL + "/api/recipes/sandwich")
	require.NoError(t, err)
	body := decodeBody(t, got)

	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "sandwich", body["name"])
	assert.Equal(t, "AMERICAN", body["cuisineType"])
}

func TestGetUnknownRecipeReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/recipes/nothing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFridgeAndGenerateFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/recipes", map[string]interface{}{
		"name":        "toast",
		"ingredients": []string{"bread"},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/fridge/bread", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := http.Get(srv.URL + "/api/generate")
	require.NoError(t, err)
	body := decodeBody(t, got)

	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, []interface{}{"toast"}, body["made"])
}

func TestNonNumericQueryParamsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/recipes/almost-cookable?maxMissing=abc")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "maxMissing must be an integer", body["error"])

	resp, err = http.Get(srv.URL + "/api/recipes/search?query=soup&limit=many")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "limit must be an integer", body["error"])

	resp = postJSON(t, srv.URL+"/api/fridge/bread?count=two", nil)
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "count must be an integer", body["error"])
}

func TestSearchRequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/recipes/search")
	require.NoError(t, err)
	body := decodeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "query parameter is required", body["error"])
}

func TestHybridSearchReturnsFusedResults(t *testing.T) {
	srv, index := newTestServer(t)
	index.hybrid = []recipe.SearchResult{
		{RecipeName: "tomato soup", Score: 0.9, CuisineType: "Italian", MatchType: recipe.MatchHybridRRF},
	}

	resp := postJSON(t, srv.URL+"/api/recipes/hybrid-search", map[string]interface{}{
		"ingredients": []string{"tomato"},
		"limit":       5,
	})
	body := decodeBody(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "tomato soup", first["recipeName"])
	assert.Equal(t, recipe.MatchHybridRRF, first["matchType"])
}

func TestHybridSearchRejectsEmptyRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/recipes/hybrid-search", map[string]interface{}{})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAliasRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/ingredients/tomato/aliases", map[string]string{
		"alias": "roma tomato",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got, err := http.Get(srv.URL + "/api/ingredients/roma%20tomato/resolve")
	require.NoError(t, err)
	body := decodeBody(t, got)

	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "tomato", body["canonical"])
}

func TestCuisineListing(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/cuisines")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, out)
	assert.Equal(t, "CHINESE", out[0]["name"])
}
