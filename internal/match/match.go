// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match pairs PDF files with bibliography entries. Exact
// identifier matches (DOI, arXiv ID) are taken first, then remaining
// papers are paired by fuzzy title similarity.
package match

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mesh-intelligence/papercutter/internal/bibtex"
)

// MatchType classifies how a paper entered the library.
type MatchType string

const (
	// Matched papers have both a PDF and a bibliography entry.
	Matched MatchType = "matched"

	// BibOnly entries have a bibliography entry but no PDF on disk.
	BibOnly MatchType = "bib_only"

	// PDFOnly papers have a PDF but no bibliography entry; a minimal
	// entry is synthesized from the file.
	PDFOnly MatchType = "pdf_only"
)

// PDFInfo is what could be scraped from a PDF before matching: the file
// path plus whatever identifiers and metadata the first pages revealed.
type PDFInfo struct {
	Path    string
	Title   string
	Authors []string
	DOI     string
	ArxivID string
	Year    int
}

// Paper is one matching outcome.
type Paper struct {
	Type  MatchType
	PDF   *PDFInfo
	Entry *bibtex.Entry

	// Key is the citation key, unique within the result set.
	Key string

	// Score is the match confidence, 0-100. Identifier matches score 100.
	Score int

	// Via names what produced the match: "doi", "arxiv", or "title".
	Via string
}

// Result partitions the inputs into matched pairs, unpaired
// bibliography entries, and unpaired PDFs.
type Result struct {
	Matched []Paper
	BibOnly []Paper
	PDFOnly []Paper
}

// Total returns the number of papers across all partitions.
func (r *Result) Total() int {
	return len(r.Matched) + len(r.BibOnly) + len(r.PDFOnly)
}

// Matcher pairs PDFs with bibliography entries.
type Matcher struct {
	// MinScore is the minimum fuzzy title similarity (0-100) accepted
	// as a match.
	MinScore int
}

// NewMatcher returns a Matcher with the default similarity threshold.
func NewMatcher() *Matcher {
	return &Matcher{MinScore: 70}
}

// yearRE finds a plausible publication year in a filename.
var yearRE = regexp.MustCompile(`(19|20)\d{2}`)

// Match pairs pdfs with entries. Entries and PDFs sharing a DOI or
// arXiv ID pair first; the remainder pair by fuzzy title similarity at
// or above MinScore. Leftover entries become BibOnly, leftover PDFs
// become PDFOnly with a synthesized bibliography entry. Citation keys
// are unique across the whole result.
func (m *Matcher) Match(pdfs []PDFInfo, entries []bibtex.Entry) *Result {
	result := &Result{}
	usedKeys := make(map[string]bool)
	entryTaken := make([]bool, len(entries))
	pdfTaken := make([]bool, len(pdfs))

	// Identifier pass.
	byDOI := make(map[string]int)
	byArxiv := make(map[string]int)
	for i, e := range entries {
		if d := normalizeDOI(e.DOI); d != "" {
			byDOI[d] = i
		}
		if a := normalizeArxiv(e.ArxivID); a != "" {
			byArxiv[a] = i
		}
	}
	for i := range pdfs {
		pdf := &pdfs[i]
		var entryIdx int
		var via string
		found := false
		if d := normalizeDOI(pdf.DOI); d != "" {
			if j, ok := byDOI[d]; ok && !entryTaken[j] {
				entryIdx, via, found = j, "doi", true
			}
		}
		if !found {
			if a := normalizeArxiv(pdf.ArxivID); a != "" {
				if j, ok := byArxiv[a]; ok && !entryTaken[j] {
					entryIdx, via, found = j, "arxiv", true
				}
			}
		}
		if found {
			entryTaken[entryIdx] = true
			pdfTaken[i] = true
			entry := entries[entryIdx]
			result.Matched = append(result.Matched, Paper{
				Type:  Matched,
				PDF:   pdf,
				Entry: &entry,
				Key:   bibtex.UniqueKey(entry, usedKeys),
				Score: 100,
				Via:   via,
			})
		}
	}

	// Fuzzy title pass over the remainder.
	var openEntries []int
	var openTitles []string
	for i, e := range entries {
		if !entryTaken[i] && e.Title != "" {
			openEntries = append(openEntries, i)
			openTitles = append(openTitles, normalizeTitle(e.Title))
		}
	}
	for i := range pdfs {
		pdf := &pdfs[i]
		if pdfTaken[i] || pdf.Title == "" || len(openEntries) == 0 {
			continue
		}
		query := normalizeTitle(pdf.Title)

		// Shortlist by subsequence match, then score the candidates by
		// token-sort similarity. An empty shortlist falls back to
		// scoring every open entry.
		candidates := candidateIndexes(query, openTitles)

		bestScore, bestPos := 0, -1
		for _, pos := range candidates {
			if entryTaken[openEntries[pos]] {
				continue
			}
			if score := tokenSortRatio(query, openTitles[pos]); score > bestScore {
				bestScore, bestPos = score, pos
			}
		}
		if bestPos < 0 || bestScore < m.MinScore {
			continue
		}

		j := openEntries[bestPos]
		entryTaken[j] = true
		pdfTaken[i] = true
		entry := entries[j]
		result.Matched = append(result.Matched, Paper{
			Type:  Matched,
			PDF:   pdf,
			Entry: &entry,
			Key:   bibtex.UniqueKey(entry, usedKeys),
			Score: bestScore,
			Via:   "title",
		})
	}

	// Leftover bibliography entries.
	for i, e := range entries {
		if entryTaken[i] {
			continue
		}
		entry := e
		result.BibOnly = append(result.BibOnly, Paper{
			Type:  BibOnly,
			Entry: &entry,
			Key:   bibtex.UniqueKey(entry, usedKeys),
		})
	}

	// Leftover PDFs get a synthesized entry.
	for i := range pdfs {
		if pdfTaken[i] {
			continue
		}
		pdf := &pdfs[i]
		entry := synthesizeEntry(pdf)
		result.PDFOnly = append(result.PDFOnly, Paper{
			Type:  PDFOnly,
			PDF:   pdf,
			Entry: &entry,
			Key:   bibtex.UniqueKey(entry, usedKeys),
		})
	}

	return result
}

// candidateIndexes shortlists openTitles positions worth scoring for
// query. When the subsequence filter finds nothing, every position is a
// candidate.
func candidateIndexes(query string, openTitles []string) []int {
	matches := fuzzy.Find(query, openTitles)
	if len(matches) == 0 {
		all := make([]int, len(openTitles))
		for i := range all {
			all[i] = i
		}
		return all
	}
	idx := make([]int, len(matches))
	for i, m := range matches {
		idx[i] = m.Index
	}
	return idx
}

// synthesizeEntry builds a minimal bibliography entry for a PDF that
// matched nothing: title from the scrape or the filename, year from the
// scrape or a 19xx/20xx run in the filename.
func synthesizeEntry(pdf *PDFInfo) bibtex.Entry {
	title := pdf.Title
	if title == "" {
		base := filepath.Base(pdf.Path)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		title = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	}

	year := pdf.Year
	if year == 0 {
		if m := yearRE.FindString(filepath.Base(pdf.Path)); m != "" {
			year = atoi4(m)
		}
	}

	return bibtex.Entry{
		Type:    "misc",
		Title:   title,
		Authors: pdf.Authors,
		Year:    year,
		DOI:     pdf.DOI,
		ArxivID: pdf.ArxivID,
	}
}

func atoi4(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
