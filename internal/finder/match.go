package finder

import (
	"strings"
	"unicode"
)

// Match reports whether pattern matches s as a case-insensitive fuzzy
// subsequence: every pattern rune appears in s in order, with arbitrary
// gaps. This is the relation fzf's filter mode applies per term.
func Match(pattern, s string) bool {
	if pattern == "" {
		return true
	}
	runes := []rune(s)
	i := 0
	for _, want := range pattern {
		want = unicode.ToLower(want)
		found := false
		for ; i < len(runes); i++ {
			if unicode.ToLower(runes[i]) == want {
				found = true
				i++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Filter returns the candidates matching query, preserving candidate
// order. Whitespace-separated query terms must all match.
func Filter(candidates []string, query string) []string {
	terms := strings.Fields(query)
	var matched []string
	for _, c := range candidates {
		ok := true
		for _, t := range terms {
			if !Match(t, c) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, c)
		}
	}
	return matched
}
