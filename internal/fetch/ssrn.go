// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"regexp"
	"strings"
)

// ssrnPDFBase is the SSRN delivery endpoint. Var for test substitution.
var ssrnPDFBase = "https://papers.ssrn.com/sol3/Delivery.cfm"

// ssrnPattern matches SSRN IDs: "1234567", "ssrn:1234567", "SSRN-id1234567".
var ssrnPattern = regexp.MustCompile(`(?i)^(?:ssrn[:\-]?(?:id)?)?(\d{6,8})$`)

// SSRNFetcher downloads papers from SSRN.
type SSRNFetcher struct{}

func (f *SSRNFetcher) Name() string { return "ssrn" }

func (f *SSRNFetcher) CanHandle(identifier string) bool {
	return ssrnPattern.MatchString(strings.TrimSpace(identifier))
}

func (f *SSRNFetcher) NormalizeID(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if m := ssrnPattern.FindStringSubmatch(identifier); m != nil {
		return m[1]
	}
	return identifier
}

func (f *SSRNFetcher) PDFURL(normalized string) string {
	return ssrnPDFBase + "?abstractid=" + normalized
}

func (f *SSRNFetcher) Filename(normalized string) string {
	return "ssrn-" + normalized + ".pdf"
}
