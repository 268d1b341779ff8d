package errors

import (
	"sort"
	"strings"
)

// MaxSuggestions is the maximum number of suggestions to return.
const MaxSuggestions = 3

// Suggestion is a known name close to one that could not be resolved.
type Suggestion struct {
	Value    string
	Distance int
}

// SuggestSimilar returns up to MaxSuggestions candidates within a small edit
// distance of target, closest first. Field abbreviations are compared one
// dotted component at a time, so "ip.scr" suggests "ip.src" but never
// "tcp.src".
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if target == "" {
		return nil
	}
	targetParts := strings.Split(target, ".")
	var out []Suggestion
	for _, c := range candidates {
		if c == "" || c == target {
			continue
		}
		parts := strings.Split(c, ".")
		if len(parts) != len(targetParts) {
			continue
		}
		dist := 0
		for i := range parts {
			dist += levenshteinDistance(targetParts[i], parts[i])
		}
		if dist <= threshold(target) {
			out = append(out, Suggestion{Value: c, Distance: dist})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func threshold(target string) int {
	switch n := len(target); {
	case n <= 3:
		return 1
	case n <= 6:
		return 2
	default:
		return 3
	}
}

// FormatSuggestions renders suggestions as a hint, or "" when there are
// none.
func FormatSuggestions(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return ""
	}
	names := make([]string, len(suggestions))
	for i, s := range suggestions {
		names[i] = s.Value
	}
	if len(names) == 1 {
		return "did you mean " + names[0] + "?"
	}
	return "did you mean one of " + strings.Join(names, ", ") + "?"
}

// levenshteinDistance computes the edit distance between two strings using
// two rows of the distance matrix.
func levenshteinDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) > len(br) {
		ar, br = br, ar
	}
	prev := make([]int, len(ar)+1)
	curr := make([]int, len(ar)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(br); j++ {
		curr[0] = j
		for i := 1; i <= len(ar); i++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ar)]
}
