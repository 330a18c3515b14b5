// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// Scraped is what the first pages of a PDF revealed about the paper.
type Scraped struct {
	Title   string
	DOI     string
	ArxivID string
	Year    int
}

var (
	doiRE      = regexp.MustCompile(`(?i)\b(10\.\d{4,9}/[-._;()/:A-Za-z0-9]+)`)
	arxivNewRE = regexp.MustCompile(`(?i)arxiv:\s*(\d{4}\.\d{4,5})(?:v\d+)?`)
	arxivOldRE = regexp.MustCompile(`(?i)arxiv:\s*([a-z-]+(?:\.[A-Za-z]{2})?/\d{7})(?:v\d+)?`)
	scrapeYear = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// ScrapeMetadata pulls identifiers and a title guess out of the text of
// a PDF's first pages. Conversion noise means every field is best-effort;
// missing fields stay zero.
func ScrapeMetadata(text string) Scraped {
	var s Scraped

	if m := doiRE.FindStringSubmatch(text); m != nil {
		s.DOI = strings.TrimRight(m[1], ".,;)")
	}
	if m := arxivNewRE.FindStringSubmatch(text); m != nil {
		s.ArxivID = m[1]
	} else if m := arxivOldRE.FindStringSubmatch(text); m != nil {
		s.ArxivID = m[1]
	}
	if m := scrapeYear.FindString(text); m != "" {
		s.Year, _ = strconv.Atoi(m)
	}

	s.Title = guessTitle(text)
	return s
}

// boilerplate marks lines that are never the title.
var boilerplate = []string{
	"abstract", "working paper", "discussion paper", "preprint",
	"arxiv", "doi", "journal of", "copyright", "all rights reserved",
	"http://", "https://", "university", "department of",
}

// guessTitle returns the first line that plausibly is a paper title:
// reasonably long, mostly words, not a header or an author line.
func guessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#*_ \t"))
		if len(line) < 15 || len(line) > 200 {
			continue
		}
		if strings.Count(line, " ") < 2 {
			continue
		}
		lower := strings.ToLower(line)
		if containsAny(lower, boilerplate) {
			continue
		}
		if digitHeavy(line) {
			continue
		}
		return line
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// digitHeavy reports whether more than a quarter of the characters are
// digits, which indicates a date line or page furniture rather than a title.
func digitHeavy(s string) bool {
	digits := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	return digits*4 > len(s)
}
