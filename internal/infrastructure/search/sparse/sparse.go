// Package sparse builds hash-bucketed sparse vectors for keyword-level
// retrieval. The encoder is purely local and stateless.
package sparse

import (
	"hash/fnv"
	"strings"

	"github.com/lllll081030/SmartFridge/internal/ports/outbound"
)

// VocabularySize bounds all hashed indices.
const VocabularySize = 100000

// Field weights when composing a recipe vector.
const (
	nameWeight       = 2.0
	cuisineWeight    = 1.5
	ingredientWeight = 1.0
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "were": {}, "will": {}, "with": {},
}

// IsStopWord reports whether token is in the fixed stop-word set.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Tokenize lowercases text and splits on runs of non-alphanumeric
// characters, retaining CJK ideographs. Tokens shorter than two runes
// and stop words are dropped.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		if r >= '0' && r <= '9' {
			return false
		}
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 0x4E00 && r <= 0x9FFF {
			return false
		}
		return true
	})

	tokens := fields[:0]
	for _, tok := range fields {
		if len([]rune(tok)) < 2 {
			continue
		}
		if IsStopWord(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// bucket hashes a token into the vocabulary.
func bucket(token string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(token))
	return h.Sum32() % VocabularySize
}

func accumulate(weights map[uint32]float32, text string, weight float32) {
	for _, tok := range Tokenize(text) {
		weights[bucket(tok)] += weight
	}
}

func toVector(weights map[uint32]float32) outbound.SparseVector {
	vec := outbound.SparseVector{
		Indices: make([]uint32, 0, len(weights)),
		Values:  make([]float32, 0, len(weights)),
	}
	for idx, val := range weights {
		vec.Indices = append(vec.Indices, idx)
		vec.Values = append(vec.Values, val)
	}
	return vec
}

// FromIngredients encodes a query-side ingredient list at unit weight.
func FromIngredients(ingredients []string) outbound.SparseVector {
	weights := make(map[uint32]float32)
	for _, ing := range ingredients {
		accumulate(weights, ing, ingredientWeight)
	}
	return toVector(weights)
}

// FromRecipe encodes a recipe for indexing, weighting name tokens above
// cuisine above ingredients. Duplicate tokens accumulate.
func FromRecipe(name string, ingredients []string, cuisine string) outbound.SparseVector {
	weights := make(map[uint32]float32)
	accumulate(weights, name, nameWeight)
	accumulate(weights, cuisine, cuisineWeight)
	for _, ing := range ingredients {
		accumulate(weights, ing, ingredientWeight)
	}
	return toVector(weights)
}
