package ui

import (
	"sort"
	"strings"
)

// MaxSuggestions bounds the candidates returned by Suggest
const MaxSuggestions = 3

// Suggest returns up to MaxSuggestions candidates close to target, nearest
// first. Matching ignores case; a candidate qualifies when its edit distance
// is at most a third of the target's length, and never less than two.
func Suggest(target string, candidates []string) []string {
	limit := max(2, len([]rune(target))/3)
	lowered := strings.ToLower(target)

	type scored struct {
		value    string
		distance int
	}
	var matches []scored
	for _, c := range candidates {
		if d := EditDistance(lowered, strings.ToLower(c)); d <= limit {
			matches = append(matches, scored{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].value < matches[j].value
	})

	out := make([]string, 0, MaxSuggestions)
	for i := 0; i < len(matches) && i < MaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// EditDistance returns the Levenshtein distance between a and b, counted in
// runes
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
