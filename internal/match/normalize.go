// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"regexp"
	"strings"
)

var (
	titlePunctRE   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	arxivVersionRE = regexp.MustCompile(`v\d+$`)
)

// normalizeTitle lowercases a title and replaces punctuation runs with
// single spaces so formatting differences do not affect comparison.
func normalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = titlePunctRE.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// normalizeDOI strips common DOI prefixes and lowercases the result.
func normalizeDOI(doi string) string {
	d := strings.TrimSpace(strings.ToLower(doi))
	d = strings.TrimPrefix(d, "doi:")
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/"} {
		d = strings.TrimPrefix(d, prefix)
	}
	return d
}

// normalizeArxiv strips the "arXiv:" or "abs/" prefix and any version
// suffix, so 1706.03762v3 and arXiv:1706.03762 compare equal.
func normalizeArxiv(id string) string {
	a := strings.TrimSpace(strings.ToLower(id))
	a = strings.TrimPrefix(a, "arxiv:")
	if i := strings.LastIndex(a, "abs/"); i >= 0 {
		a = a[i+len("abs/"):]
	}
	a = arxivVersionRE.ReplaceAllString(a, "")
	return a
}
