package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and splits", "Chicken Noodle-Soup", []string{"chicken", "noodle", "soup"}},
		{"drops short tokens", "a I pork", []string{"pork"}},
		{"drops stop words", "chicken with rice and beans", []string{"chicken", "rice", "beans"}},
		{"keeps digits", "7up cake", []string{"7up", "cake"}},
		{"retains cjk", "番茄炒蛋 tomato", []string{"番茄炒蛋", "tomato"}},
		{"empty input", "", []string{}},
		{"punctuation only", "!!! ...", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromIngredients(t *testing.T) {
	vec := FromIngredients([]string{"chicken", "rice"})

	assert.Len(t, vec.Indices, 2)
	assert.Len(t, vec.Values, 2)
	for _, idx := range vec.Indices {
		assert.Less(t, idx, uint32(VocabularySize))
	}
	for _, val := range vec.Values {
		assert.InDelta(t, 1.0, val, 1e-6)
	}
}

func TestFromIngredients_DuplicatesAccumulate(t *testing.T) {
	vec := FromIngredients([]string{"chicken", "chicken"})

	assert.Len(t, vec.Indices, 1)
	assert.InDelta(t, 2.0, vec.Values[0], 1e-6)
}

func TestFromRecipe_FieldWeights(t *testing.T) {
	vec := FromRecipe("carbonara", nil, "italian")

	byIndex := make(map[uint32]float32)
	for i, idx := range vec.Indices {
		byIndex[idx] = vec.Values[i]
	}
	assert.InDelta(t, 2.0, byIndex[bucket("carbonara")], 1e-6)
	assert.InDelta(t, 1.5, byIndex[bucket("italian")], 1e-6)
}

func TestFromRecipe_NameIngredientOverlapAccumulates(t *testing.T) {
	vec := FromRecipe("chicken", []string{"chicken"}, "")

	assert.Len(t, vec.Indices, 1)
	assert.InDelta(t, 3.0, vec.Values[0], 1e-6)
}

func TestFromIngredients_EmptyIsEmpty(t *testing.T) {
	assert.True(t, FromIngredients(nil).Empty())
	assert.True(t, FromIngredients([]string{"a", "!"}).Empty())
}
