// Package ingredient normalizes ingredient vocabulary through the alias
// table, with optional LLM-backed alias generation.
package ingredient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/ports/outbound"
)

// Resolver maps ingredient spellings to canonical tokens. Unknown tokens
// resolve to themselves, so the pantry vocabulary is always total.
type Resolver struct {
	aliases outbound.AliasRepository
	chat    outbound.ChatService
	logger  *zap.Logger
}

// NewResolver creates an ingredient resolver.
func NewResolver(aliases outbound.AliasRepository, chat outbound.ChatService, logger *zap.Logger) *Resolver {
	return &Resolver{aliases: aliases, chat: chat, logger: logger}
}

// Resolve returns the canonical form of a token. Precedence: the token is
// itself a known canonical, then the best alias match, then the
// normalized input. Lookup failures degrade to the normalized input.
func (r *Resolver) Resolve(ctx context.Context, token string) string {
	if strings.TrimSpace(token) == "" {
		return token
	}
	normalized := strings.ToLower(strings.TrimSpace(token))

	if canonical, ok, err := r.aliases.Canonical(ctx, normalized); err == nil && ok {
		return canonical
	} else if err != nil {
		r.logger.Warn("canonical lookup failed", zap.String("token", normalized), zap.Error(err))
		return normalized
	}

	if canonical, ok, err := r.aliases.ByAlias(ctx, normalized); err == nil && ok {
		return canonical
	} else if err != nil {
		r.logger.Warn("alias lookup failed", zap.String("token", normalized), zap.Error(err))
	}
	return normalized
}

// ResolveAll resolves a list in order.
func (r *Resolver) ResolveAll(ctx context.Context, tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = r.Resolve(ctx, tok)
	}
	return out
}

// ResolveToSet returns the deduplicated canonical set, merged with the
// normalized originals so pre-resolution exact matches stay matchable.
func (r *Resolver) ResolveToSet(ctx context.Context, tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens)*2)
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		set[strings.ToLower(strings.TrimSpace(tok))] = struct{}{}
		set[r.Resolve(ctx, tok)] = struct{}{}
	}
	return set
}

// AddAlias records a manual alias at full confidence.
func (r *Resolver) AddAlias(ctx context.Context, canonical, alias string) error {
	canonical = strings.ToLower(strings.TrimSpace(canonical))
	alias = strings.ToLower(strings.TrimSpace(alias))
	if canonical == "" || alias == "" {
		return fmt.Errorf("canonical and alias must be non-empty")
	}
	return r.aliases.Upsert(ctx, recipe.AliasRecord{
		Canonical:  canonical,
		Alias:      alias,
		Confidence: 1.0,
		Source:     recipe.AliasSourceManual,
	})
}

// Aliases lists known alias records for a canonical name.
func (r *Resolver) Aliases(ctx context.Context, canonical string) ([]recipe.AliasRecord, error) {
	return r.aliases.AliasesFor(ctx, strings.ToLower(strings.TrimSpace(canonical)))
}

const aliasPrompt = `You are a culinary expert. For the ingredient "%s", provide common alternative names, varieties, and related terms that could be used interchangeably in recipes.

Rules:
- Include common abbreviations
- Include regional name variations
- Include variety names (e.g., roma tomato, cherry tomato for tomato)
- Include singular/plural forms
- Do NOT include completely different ingredients

Return ONLY a JSON array of strings, nothing else. Example:
["cherry tomato", "roma tomato", "tomatoes", "vine tomato", "plum tomato"]

Ingredient: %s`

// GenerateAliases asks the LLM for alias candidates and persists them.
// Any failure logs and returns an empty list; alias generation is never
// fatal.
func (r *Resolver) GenerateAliases(ctx context.Context, token string) []string {
	canonical := strings.ToLower(strings.TrimSpace(token))
	if canonical == "" {
		return []string{}
	}

	raw, err := r.chat.GenerateJSON(ctx, fmt.Sprintf(aliasPrompt, token, token))
	if err != nil {
		r.logger.Warn("alias generation failed", zap.String("ingredient", canonical), zap.Error(err))
		return []string{}
	}

	candidates := parseAliasList(raw)
	aliases := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || c == canonical {
			continue
		}
		aliases = append(aliases, c)
	}

	for _, alias := range aliases {
		if err := r.aliases.Upsert(ctx, recipe.AliasRecord{
			Canonical:  canonical,
			Alias:      alias,
			Confidence: 0.8,
			Source:     recipe.AliasSourceAI,
		}); err != nil {
			r.logger.Warn("failed to persist generated alias",
				zap.String("canonical", canonical), zap.String("alias", alias), zap.Error(err))
		}
	}
	// Self-loop so the canonical is found by direct lookup too.
	if err := r.aliases.Upsert(ctx, recipe.AliasRecord{
		Canonical:  canonical,
		Alias:      canonical,
		Confidence: 1.0,
		Source:     recipe.AliasSourceAI,
	}); err != nil {
		r.logger.Warn("failed to persist canonical self-alias",
			zap.String("canonical", canonical), zap.Error(err))
	}

	r.logger.Info("generated ingredient aliases",
		zap.String("ingredient", canonical), zap.Int("count", len(aliases)))
	return aliases
}

// parseAliasList accepts either a bare JSON array or an object whose
// first array-valued field holds the aliases. JSON-constrained models
// sometimes wrap the array in an object.
func parseAliasList(raw string) []string {
	var arr []interface{}
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return coerceStrings(arr)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		for _, v := range obj {
			if arr, ok := v.([]interface{}); ok {
				return coerceStrings(arr)
			}
		}
	}
	return nil
}

func coerceStrings(arr []interface{}) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// seedGroups bootstraps the alias table with common variants.
var seedGroups = map[string][]string{
	"tomato": {
		"tomatoes", "roma tomato", "cherry tomato", "plum tomato",
		"grape tomato", "beefsteak tomato", "vine tomato", "heirloom tomato",
	},
	"onion": {
		"onions", "yellow onion", "white onion", "red onion",
		"sweet onion", "vidalia onion", "shallot", "spring onion",
	},
	"bell pepper": {
		"bell peppers", "red bell pepper", "green bell pepper",
		"yellow bell pepper", "capsicum", "sweet pepper",
	},
	"potato": {
		"potatoes", "russet potato", "yukon gold", "red potato",
		"fingerling potato", "baby potato", "new potato",
	},
	"chicken": {
		"chicken breast", "chicken thigh", "chicken leg", "chicken wing",
		"whole chicken", "boneless chicken", "skinless chicken",
	},
	"beef": {
		"ground beef", "beef steak", "beef chuck", "beef sirloin",
		"stewing beef", "beef brisket", "beef tenderloin",
	},
	"garlic": {
		"garlic clove", "garlic cloves", "minced garlic", "crushed garlic",
		"fresh garlic", "roasted garlic",
	},
}

// SeedCommonAliases upserts the bootstrap alias groups. Safe to re-run.
func (r *Resolver) SeedCommonAliases(ctx context.Context) error {
	for canonical, variants := range seedGroups {
		if err := r.aliases.Upsert(ctx, recipe.AliasRecord{
			Canonical:  canonical,
			Alias:      canonical,
			Confidence: 1.0,
			Source:     recipe.AliasSourceSeed,
		}); err != nil {
			return err
		}
		for _, alias := range variants {
			if err := r.aliases.Upsert(ctx, recipe.AliasRecord{
				Canonical:  canonical,
				Alias:      alias,
				Confidence: 0.9,
				Source:     recipe.AliasSourceSeed,
			}); err != nil {
				return err
			}
		}
	}
	r.logger.Info("seeded common ingredient aliases", zap.Int("groups", len(seedGroups)))
	return nil
}
