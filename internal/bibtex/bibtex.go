// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex reads and writes BibTeX bibliographies and generates
// citation keys for papers that arrive without one.
package bibtex

import (
	"fmt"
	"regexp"
	"strings"
)

// Entry is a single BibTeX entry. Only the fields papercutter works with
// are modeled; unknown fields are dropped on parse.
type Entry struct {
	// Type is the entry type: article, inproceedings, book, misc, etc.
	Type string

	// Key is the citation key (e.g. "vaswani2017attention").
	Key string

	Title   string
	Authors []string
	Year    int

	Journal   string
	Booktitle string
	Publisher string
	Volume    string
	Number    string
	Pages     string

	DOI     string
	ArxivID string
	URL     string

	Abstract string
	Keywords []string
}

// whitespaceRE collapses runs of whitespace during sanitization.
var whitespaceRE = regexp.MustCompile(`\s+`)

// bibtexEscaper escapes the characters BibTeX treats specially.
var bibtexEscaper = strings.NewReplacer(
	"#", `\#`, "$", `\$`, "%", `\%`, "&", `\&`, "_", `\_`,
	"{", `\{`, "}", `\}`, "~", `\~`, "^", `\^`,
)

// sanitize normalizes whitespace and escapes BibTeX special characters.
func sanitize(value string) string {
	if value == "" {
		return value
	}
	value = whitespaceRE.ReplaceAllString(value, " ")
	return strings.TrimSpace(bibtexEscaper.Replace(value))
}

// Format renders the entry as a BibTeX string using the given key.
func Format(e Entry, key string) string {
	lines := []string{fmt.Sprintf("@%s{%s,", e.Type, key)}

	addField := func(name, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("  %s = {%s},", name, value))
		}
	}

	if len(e.Authors) > 0 {
		sanitized := make([]string, len(e.Authors))
		for i, a := range e.Authors {
			sanitized[i] = sanitize(a)
		}
		addField("author", strings.Join(sanitized, " and "))
	}
	addField("title", sanitize(e.Title))
	if e.Year != 0 {
		addField("year", fmt.Sprintf("%d", e.Year))
	}
	addField("journal", sanitize(e.Journal))
	addField("booktitle", sanitize(e.Booktitle))
	addField("publisher", sanitize(e.Publisher))
	addField("volume", e.Volume)
	addField("number", e.Number)
	addField("pages", e.Pages)
	addField("doi", e.DOI)
	if e.ArxivID != "" {
		addField("eprint", e.ArxivID)
		lines = append(lines, "  archiveprefix = {arXiv},")
	}
	addField("url", e.URL)
	addField("abstract", sanitize(e.Abstract))
	if len(e.Keywords) > 0 {
		addField("keywords", strings.Join(e.Keywords, ", "))
	}

	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

// particles are name prefixes folded into the last name for key generation.
var particles = map[string]bool{
	"van": true, "von": true, "de": true, "del": true, "della": true,
	"der": true, "den": true, "la": true, "le": true, "di": true,
}

// skipWords are title words too generic to anchor a citation key.
var skipWords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "in": true, "of": true,
	"for": true, "to": true, "and": true, "or": true, "with": true,
	"by": true, "from": true, "at": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "this": true, "that": true,
	"these": true, "those": true, "how": true, "what": true, "why": true,
	"when": true,
}

var nonAlphaRE = regexp.MustCompile(`[^a-z]`)
var wordRE = regexp.MustCompile(`[a-zA-Z]+`)

// lastName extracts a lowercase last name from "Last, First" or
// "First Last" forms, folding name particles (van, von, de, ...) in.
func lastName(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return "unknown"
	}

	var last string
	if i := strings.Index(author, ","); i >= 0 {
		last = strings.TrimSpace(author[:i])
	} else {
		parts := strings.Fields(author)
		last = parts[len(parts)-1]
		for i, part := range parts {
			if particles[strings.ToLower(strings.TrimSuffix(part, "."))] {
				last = strings.Join(parts[i:], " ")
				break
			}
		}
	}

	last = nonAlphaRE.ReplaceAllString(strings.ToLower(last), "")
	if last == "" {
		return "unknown"
	}
	return last
}

// titleWord returns the first significant word of a title.
func titleWord(title string) string {
	words := wordRE.FindAllString(title, -1)
	for _, w := range words {
		lower := strings.ToLower(w)
		if !skipWords[lower] && len(lower) > 1 {
			return lower
		}
	}
	if len(words) > 0 {
		return strings.ToLower(words[0])
	}
	return ""
}

// GenerateKey builds a citation key of the form lastname+year+titleword
// (e.g. "vaswani2017attention").
func GenerateKey(authors []string, year int, title string) string {
	authorPart := "unknown"
	if len(authors) > 0 {
		authorPart = lastName(authors[0])
	}
	yearPart := "0000"
	if year != 0 {
		yearPart = fmt.Sprintf("%d", year)
	}
	return authorPart + yearPart + titleWord(title)
}

// UniqueKey returns the entry's key, generating one when absent, and
// suffixes _2, _3, ... until it is not present in used. The chosen key
// is recorded in used.
func UniqueKey(e Entry, used map[string]bool) string {
	base := e.Key
	if base == "" {
		base = GenerateKey(e.Authors, e.Year, e.Title)
	}
	if used == nil {
		return base
	}

	key := base
	for counter := 2; used[key]; counter++ {
		key = fmt.Sprintf("%s_%d", base, counter)
	}
	used[key] = true
	return key
}
