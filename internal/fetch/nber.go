// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"regexp"
	"strings"
)

// nberBase is the NBER site root. Var for test substitution.
var nberBase = "https://www.nber.org"

// nberPattern matches NBER working paper IDs: "w29000", "nber:w29000", "29000".
var nberPattern = regexp.MustCompile(`(?i)^(?:nber:)?[w]?(\d{4,6})$`)

// NBERFetcher downloads NBER working papers.
type NBERFetcher struct{}

func (f *NBERFetcher) Name() string { return "nber" }

func (f *NBERFetcher) CanHandle(identifier string) bool {
	return nberPattern.MatchString(strings.TrimSpace(identifier))
}

func (f *NBERFetcher) NormalizeID(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if m := nberPattern.FindStringSubmatch(identifier); m != nil {
		return m[1]
	}
	return identifier
}

func (f *NBERFetcher) PDFURL(normalized string) string {
	return fmt.Sprintf("%s/system/files/working_papers/w%s/w%s.pdf", nberBase, normalized, normalized)
}

func (f *NBERFetcher) Filename(normalized string) string {
	return "nber-w" + normalized + ".pdf"
}
