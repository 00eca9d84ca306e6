package matcher

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
)

// exactTitleStrategy scores 1 when the normalized titles are identical.
type exactTitleStrategy struct{}

func (exactTitleStrategy) Name() string { return config.StrategyExactTitle }

func (exactTitleStrategy) Score(_ context.Context, a, b *events.Event) (float64, bool, error) {
	left := normalizeText(a.Title)
	right := normalizeText(b.Title)
	if left == "" || right == "" {
		return 0, false, nil
	}
	if left == right {
		return 1, true, nil
	}
	return 0, true, nil
}

// fuzzyTitleStrategy scores titles by Levenshtein similarity.
type fuzzyTitleStrategy struct{}

func (fuzzyTitleStrategy) Name() string { return config.StrategyFuzzyTitle }

func (fuzzyTitleStrategy) Score(_ context.Context, a, b *events.Event) (float64, bool, error) {
	left := normalizeText(a.Title)
	right := normalizeText(b.Title)
	if left == "" || right == "" {
		return 0, false, nil
	}
	return levenshteinRatio(left, right), true, nil
}

// entityOverlapStrategy scores the overlap of named entities attached to
// the events by the normalizer. Abstains when either side has none.
type entityOverlapStrategy struct{}

func (entityOverlapStrategy) Name() string { return config.StrategyEntityOverlap }

func (entityOverlapStrategy) Score(_ context.Context, a, b *events.Event) (float64, bool, error) {
	setA := normalizedSet(a.Entities)
	setB := normalizedSet(b.Entities)
	if len(setA) == 0 || len(setB) == 0 {
		return 0, false, nil
	}
	overlap := 0
	for e := range setA {
		if _, ok := setB[e]; ok {
			overlap++
		}
	}
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(overlap) / float64(larger), true, nil
}

// resolutionCriteriaStrategy compares the free-text resolution criteria by
// token overlap. Abstains when either text is missing.
type resolutionCriteriaStrategy struct{}

func (resolutionCriteriaStrategy) Name() string { return config.StrategyResolutionCriteria }

func (resolutionCriteriaStrategy) Score(_ context.Context, a, b *events.Event) (float64, bool, error) {
	tokensA := normalizedSet(strings.Fields(normalizeText(a.ResolutionCriteria)))
	tokensB := normalizedSet(strings.Fields(normalizeText(b.ResolutionCriteria)))
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0, false, nil
	}
	overlap := 0
	for t := range tokensA {
		if _, ok := tokensB[t]; ok {
			overlap++
		}
	}
	union := len(tokensA) + len(tokensB) - overlap
	return float64(overlap) / float64(union), true, nil
}

// temporalAlignmentStrategy scores deadline proximity: full score within a
// day, linear decay to zero at a week apart.
type temporalAlignmentStrategy struct{}

func (temporalAlignmentStrategy) Name() string { return config.StrategyTemporalAlignment }

func (temporalAlignmentStrategy) Score(_ context.Context, a, b *events.Event) (float64, bool, error) {
	if a.Deadline.IsZero() || b.Deadline.IsZero() {
		return 0, false, nil
	}
	days := math.Abs(a.Deadline.Sub(b.Deadline).Hours()) / 24
	if days <= 1 {
		return 1, true, nil
	}
	if days >= 7 {
		return 0, true, nil
	}
	return 1 - (days-1)/6, true, nil
}

// normalizeText lowercases, strips punctuation, and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func normalizedSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if norm := normalizeText(item); norm != "" {
			set[norm] = struct{}{}
		}
	}
	return set
}

// levenshteinRatio returns 1 - editDistance/maxLen over runes.
func levenshteinRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longer)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
