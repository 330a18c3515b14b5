// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads paper PDFs from external sources. Each source
// (arXiv, DOI, SSRN, NBER, direct URL) is a Fetcher; a Registry picks
// the right one for an identifier by priority.
package fetch

import (
	"sort"
)

// Fetcher recognizes one class of paper identifier and resolves it to a
// downloadable PDF URL.
type Fetcher interface {
	// Name identifies the source (e.g. "arxiv", "doi").
	Name() string

	// CanHandle reports whether the identifier belongs to this source.
	CanHandle(identifier string) bool

	// NormalizeID strips prefixes and URL forms down to the bare ID.
	NormalizeID(identifier string) string

	// PDFURL returns the download URL for a normalized ID.
	PDFURL(normalized string) string

	// Filename returns a filesystem-safe PDF filename for a normalized ID.
	Filename(normalized string) string
}

// Resolved pairs a fetcher with the normalized identifier it will handle.
type Resolved struct {
	Fetcher    Fetcher
	Identifier string
}

// Registry holds fetchers in priority order (lower is tried first).
type Registry struct {
	fetchers []registered
}

type registered struct {
	fetcher  Fetcher
	priority int
	order    int
}

// Register adds a fetcher. Fetchers with equal priority keep their
// registration order; the bare-digit SSRN and NBER patterns overlap, so
// order matters.
func (r *Registry) Register(f Fetcher, priority int) {
	r.fetchers = append(r.fetchers, registered{fetcher: f, priority: priority, order: len(r.fetchers)})
	sort.SliceStable(r.fetchers, func(i, j int) bool {
		if r.fetchers[i].priority != r.fetchers[j].priority {
			return r.fetchers[i].priority < r.fetchers[j].priority
		}
		return r.fetchers[i].order < r.fetchers[j].order
	})
}

// Resolve returns the highest-priority fetcher that can handle the
// identifier, or false when none matches.
func (r *Registry) Resolve(identifier string) (Resolved, bool) {
	for _, reg := range r.fetchers {
		if reg.fetcher.CanHandle(identifier) {
			return Resolved{
				Fetcher:    reg.fetcher,
				Identifier: reg.fetcher.NormalizeID(identifier),
			}, true
		}
	}
	return Resolved{}, false
}

// ResolveAll returns every fetcher that can handle the identifier, in
// priority order. Used for fallback when the primary source fails.
func (r *Registry) ResolveAll(identifier string) []Resolved {
	var results []Resolved
	for _, reg := range r.fetchers {
		if reg.fetcher.CanHandle(identifier) {
			results = append(results, Resolved{
				Fetcher:    reg.fetcher,
				Identifier: reg.fetcher.NormalizeID(identifier),
			})
		}
	}
	return results
}

// Sources lists the registered fetcher names in priority order.
func (r *Registry) Sources() []string {
	names := make([]string, len(r.fetchers))
	for i, reg := range r.fetchers {
		names[i] = reg.fetcher.Name()
	}
	return names
}

// DefaultRegistry returns a registry with the standard fetchers. The URL
// fetcher is last so specific sources win over the generic fallback.
func DefaultRegistry() *Registry {
	r := &Registry{}
	r.Register(&ArxivFetcher{}, 10)
	r.Register(&DOIFetcher{}, 20)
	r.Register(&SSRNFetcher{}, 30)
	r.Register(&NBERFetcher{}, 30)
	r.Register(&URLFetcher{}, 100)
	return r
}
