// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"sort"
	"strings"
)

// tokenSortRatio computes a 0-100 similarity between two strings. Both
// are tokenized on whitespace, the tokens sorted and rejoined, and the
// result scored by edit distance. Word order therefore does not matter.
func tokenSortRatio(a, b string) int {
	sa := sortedTokens(a)
	sb := sortedTokens(b)
	if sa == "" && sb == "" {
		return 100
	}
	if sa == "" || sb == "" {
		return 0
	}
	dist := levenshtein(sa, sb)
	longer := len(sa)
	if len(sb) > longer {
		longer = len(sb)
	}
	return (longer - dist) * 100 / longer
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// levenshtein is the classic two-row edit distance over bytes. Inputs
// are normalized ASCII-ish titles, so byte distance is close enough.
func levenshtein(a, b string) int {
	if a == b {
		return 0
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
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
