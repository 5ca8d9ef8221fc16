package recipe

// Requirement is one recipe's non-seasoning ingredient list, with all
// tokens already canonicalized. The solver itself is vocabulary-agnostic.
type Requirement struct {
	Name        string
	Ingredients []string
}

// mergeRequirements unions ingredient lists of duplicate recipe names
// while preserving first-seen order of both recipes and ingredients.
func mergeRequirements(reqs []Requirement) []Requirement {
	merged := make([]Requirement, 0, len(reqs))
	index := make(map[string]int, len(reqs))
	for _, r := range reqs {
		i, ok := index[r.Name]
		if !ok {
			index[r.Name] = len(merged)
			merged = append(merged, Requirement{Name: r.Name})
			i = len(merged) - 1
		}
		merged[i].Ingredients = append(merged[i].Ingredients, r.Ingredients...)
	}
	for i := range merged {
		merged[i].Ingredients = dedup(merged[i].Ingredients)
	}
	return merged
}

func dedup(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Cookable returns the recipes whose every required token is reachable
// from the pantry, in discovery order. Emitted recipe names are fed back
// into the queue as tokens, so a recipe listing another recipe as an
// ingredient becomes cookable once that recipe is. A recipe listing
// itself is never emitted.
func Cookable(reqs []Requirement, pantry []string) []string {
	reqs = mergeRequirements(reqs)
	if len(reqs) == 0 || len(pantry) == 0 {
		return []string{}
	}

	graph := make(map[string][]int)
	inDegree := make([]int, len(reqs))
	for i, r := range reqs {
		inDegree[i] = len(r.Ingredients)
		for _, ing := range r.Ingredients {
			graph[ing] = append(graph[ing], i)
		}
	}

	// Each token is enqueued at most once, whether it arrives as a pantry
	// item or as an emitted recipe name. A token that is both would
	// otherwise decrement its dependents twice.
	processed := make(map[string]bool, len(pantry)+len(reqs))
	queue := make([]string, 0, len(pantry))
	for _, p := range pantry {
		if processed[p] {
			continue
		}
		processed[p] = true
		queue = append(queue, p)
	}

	emitted := make(map[string]bool, len(reqs))
	made := []string{}

	for len(queue) > 0 {
		token := queue[0]
		queue = queue[1:]
		for _, i := range graph[token] {
			inDegree[i]--
			if inDegree[i] == 0 && !emitted[reqs[i].Name] {
				emitted[reqs[i].Name] = true
				made = append(made, reqs[i].Name)
				if !processed[reqs[i].Name] {
					processed[reqs[i].Name] = true
					queue = append(queue, reqs[i].Name)
				}
			}
		}
	}
	return made
}

// Missing returns the required tokens not covered by the pantry set,
// preserving requirement order.
func Missing(required []string, pantry map[string]struct{}) []string {
	missing := []string{}
	for _, ing := range dedup(append([]string(nil), required...)) {
		if _, ok := pantry[ing]; !ok {
			missing = append(missing, ing)
		}
	}
	return missing
}

// AlmostCookable returns recipe name → missing tokens for every recipe
// with at most maxMissing uncovered requirements. Fully covered recipes
// are included with an empty missing list.
func AlmostCookable(reqs []Requirement, pantry []string, maxMissing int) map[string][]string {
	reqs = mergeRequirements(reqs)
	have := make(map[string]struct{}, len(pantry))
	for _, p := range pantry {
		have[p] = struct{}{}
	}

	result := make(map[string][]string)
	for _, r := range reqs {
		missing := Missing(r.Ingredients, have)
		if len(missing) <= maxMissing {
			result[r.Name] = missing
		}
	}
	return result
}
