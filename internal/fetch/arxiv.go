// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"regexp"
	"strings"
)

// Base URLs for arXiv resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	arxivAPIBase = "https://export.arxiv.org/api/query"
)

// arxivPattern matches modern arXiv IDs: "2301.07041", "arXiv:2301.07041v2".
var arxivPattern = regexp.MustCompile(`(?i)^(?:arxiv:)?(\d{4}\.\d{4,5})(v\d+)?$`)

// arxivOldPattern matches pre-2007 IDs like "hep-th/9901001".
var arxivOldPattern = regexp.MustCompile(`(?i)^(?:arxiv:)?([a-z-]+/\d{7})$`)

// ArxivFetcher downloads papers from arxiv.org.
type ArxivFetcher struct{}

func (f *ArxivFetcher) Name() string { return "arxiv" }

func (f *ArxivFetcher) CanHandle(identifier string) bool {
	identifier = strings.TrimSpace(identifier)
	return arxivPattern.MatchString(identifier) || arxivOldPattern.MatchString(identifier)
}

// NormalizeID strips the "arXiv:" prefix. Version suffixes are kept so a
// pinned version downloads exactly that revision.
func (f *ArxivFetcher) NormalizeID(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if len(identifier) > 6 && strings.EqualFold(identifier[:6], "arxiv:") {
		identifier = identifier[6:]
	}
	return identifier
}

func (f *ArxivFetcher) PDFURL(normalized string) string {
	return arxivPDFBase + normalized
}

func (f *ArxivFetcher) Filename(normalized string) string {
	// Old-style IDs contain a slash.
	return strings.ReplaceAll(normalized, "/", "-") + ".pdf"
}
