// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"regexp"
	"strings"
)

// doiBase is the DOI resolver; the HTTP client follows its redirects.
// Declared as a var so tests can substitute an httptest server.
var doiBase = "https://doi.org/"

// doiPattern matches bare DOIs and the doi:/doi.org URL forms.
var doiPattern = regexp.MustCompile(`(?i)^(?:doi:|https?://(?:dx\.)?doi\.org/)?(10\.\d{4,}/[^\s]+)$`)

// DOIFetcher resolves DOIs through doi.org.
type DOIFetcher struct{}

func (f *DOIFetcher) Name() string { return "doi" }

func (f *DOIFetcher) CanHandle(identifier string) bool {
	return doiPattern.MatchString(strings.TrimSpace(identifier))
}

func (f *DOIFetcher) NormalizeID(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if m := doiPattern.FindStringSubmatch(identifier); m != nil {
		return m[1]
	}
	return identifier
}

func (f *DOIFetcher) PDFURL(normalized string) string {
	return doiBase + normalized
}

func (f *DOIFetcher) Filename(normalized string) string {
	return strings.NewReplacer("/", "-", ":", "-").Replace(normalized) + ".pdf"
}
