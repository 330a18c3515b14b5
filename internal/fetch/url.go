// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/papercutter/internal/hashing"
)

// urlPattern matches any http(s) URL. This fetcher is the fallback, so
// it must be registered last.
var urlPattern = regexp.MustCompile(`(?i)^https?://`)

// unsafeNameRE matches characters not allowed in downloaded filenames.
var unsafeNameRE = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// URLFetcher downloads PDFs from direct URLs.
type URLFetcher struct{}

func (f *URLFetcher) Name() string { return "url" }

func (f *URLFetcher) CanHandle(identifier string) bool {
	return urlPattern.MatchString(strings.TrimSpace(identifier))
}

func (f *URLFetcher) NormalizeID(identifier string) string {
	return strings.TrimSpace(identifier)
}

func (f *URLFetcher) PDFURL(normalized string) string {
	return normalized
}

// Filename derives a safe name from the URL path. Path traversal
// attempts (including URL-encoded ones) are neutralized.
func (f *URLFetcher) Filename(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return "url-" + hashing.StringHash(normalized) + ".pdf"
	}

	base := path.Base(u.Path)
	base = strings.TrimSuffix(base, path.Ext(base))
	name := SanitizeName(base)
	if name == "download" {
		return "url-" + hashing.StringHash(normalized) + ".pdf"
	}
	return name + ".pdf"
}

// SanitizeName makes a user- or URL-supplied name safe to use as a
// filename: decoded, stripped of path components and leading dots, and
// restricted to [a-zA-Z0-9_-].
func SanitizeName(name string) string {
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	name = path.Base(name)
	name = strings.TrimLeft(name, ".")
	name = unsafeNameRE.ReplaceAllString(name, "_")
	if name == "" || strings.Trim(name, "_") == "" {
		return "download"
	}
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}
