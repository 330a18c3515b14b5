// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseFile reads a .bib file into entries.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography %s: %w", path, err)
	}
	entries, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing bibliography %s: %w", path, err)
	}
	return entries, nil
}

// Parse reads BibTeX source into entries. @comment, @preamble, and
// @string blocks are skipped. Field values may be brace-delimited (with
// nesting), quote-delimited, or bare (numbers, macro names).
func Parse(src string) ([]Entry, error) {
	var entries []Entry

	pos := 0
	for {
		at := strings.IndexByte(src[pos:], '@')
		if at < 0 {
			break
		}
		pos += at + 1

		entryType, rest, err := readIdentifier(src, pos)
		if err != nil {
			return nil, err
		}
		pos = rest

		lower := strings.ToLower(entryType)
		if lower == "comment" || lower == "preamble" || lower == "string" {
			pos = skipBlock(src, pos)
			continue
		}

		entry, next, err := parseEntryBody(src, pos, lower)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		pos = next
	}

	return entries, nil
}

// readIdentifier reads the entry type between '@' and the opening brace.
func readIdentifier(src string, pos int) (string, int, error) {
	open := strings.IndexAny(src[pos:], "{(")
	if open < 0 {
		return "", 0, fmt.Errorf("entry at offset %d has no opening brace", pos)
	}
	ident := strings.TrimSpace(src[pos : pos+open])
	return ident, pos + open + 1, nil
}

// skipBlock advances past a brace-balanced block starting just after its
// opening brace.
func skipBlock(src string, pos int) int {
	depth := 1
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(src)
}

// parseEntryBody parses "key, field = value, ..." up to the closing brace.
func parseEntryBody(src string, pos int, entryType string) (Entry, int, error) {
	comma := strings.IndexByte(src[pos:], ',')
	closing := strings.IndexByte(src[pos:], '}')
	if comma < 0 || (closing >= 0 && closing < comma) {
		// Entry with a key but no fields.
		if closing < 0 {
			return Entry{}, 0, fmt.Errorf("unterminated entry at offset %d", pos)
		}
		key := strings.TrimSpace(src[pos : pos+closing])
		return Entry{Type: entryType, Key: key}, pos + closing + 1, nil
	}

	key := strings.TrimSpace(src[pos : pos+comma])
	pos += comma + 1

	fields := map[string]string{}
	for {
		name, value, next, done, err := parseField(src, pos)
		if err != nil {
			return Entry{}, 0, err
		}
		pos = next
		if name != "" {
			fields[strings.ToLower(name)] = value
		}
		if done {
			break
		}
	}

	return buildEntry(entryType, key, fields), pos, nil
}

// parseField parses one "name = value" pair. done reports that the
// entry's closing brace was consumed.
func parseField(src string, pos int) (name, value string, next int, done bool, err error) {
	for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t' || src[pos] == '\n' || src[pos] == '\r' || src[pos] == ',') {
		pos++
	}
	if pos >= len(src) {
		return "", "", pos, true, nil
	}
	if src[pos] == '}' {
		return "", "", pos + 1, true, nil
	}

	eq := strings.IndexByte(src[pos:], '=')
	if eq < 0 {
		return "", "", len(src), true, nil
	}
	name = strings.TrimSpace(src[pos : pos+eq])
	pos += eq + 1

	for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t' || src[pos] == '\n' || src[pos] == '\r') {
		pos++
	}
	if pos >= len(src) {
		return "", "", pos, true, fmt.Errorf("field %q has no value", name)
	}

	switch src[pos] {
	case '{':
		depth := 1
		start := pos + 1
		for i := start; i < len(src); i++ {
			switch src[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return name, cleanValue(src[start:i]), i + 1, false, nil
				}
			}
		}
		return "", "", len(src), true, fmt.Errorf("unterminated value for field %q", name)

	case '"':
		start := pos + 1
		for i := start; i < len(src); i++ {
			if src[i] == '"' && src[i-1] != '\\' {
				return name, cleanValue(src[start:i]), i + 1, false, nil
			}
		}
		return "", "", len(src), true, fmt.Errorf("unterminated value for field %q", name)

	default:
		// Bare value: number or macro, terminated by comma or closing brace.
		end := strings.IndexAny(src[pos:], ",}")
		if end < 0 {
			return "", "", len(src), true, fmt.Errorf("unterminated value for field %q", name)
		}
		value = strings.TrimSpace(src[pos : pos+end])
		next = pos + end
		if src[next] == '}' {
			return name, value, next + 1, true, nil
		}
		return name, value, next, false, nil
	}
}

// cleanValue collapses whitespace and drops the braces BibTeX uses for
// capitalization protection.
func cleanValue(v string) string {
	v = whitespaceRE.ReplaceAllString(v, " ")
	v = strings.ReplaceAll(v, "{", "")
	v = strings.ReplaceAll(v, "}", "")
	return strings.TrimSpace(v)
}

// buildEntry maps raw fields onto an Entry.
func buildEntry(entryType, key string, fields map[string]string) Entry {
	e := Entry{
		Type:      entryType,
		Key:       key,
		Title:     fields["title"],
		Journal:   fields["journal"],
		Booktitle: fields["booktitle"],
		Publisher: fields["publisher"],
		Volume:    fields["volume"],
		Number:    fields["number"],
		Pages:     fields["pages"],
		DOI:       fields["doi"],
		ArxivID:   fields["eprint"],
		URL:       fields["url"],
		Abstract:  fields["abstract"],
	}

	if authors := fields["author"]; authors != "" {
		for _, a := range strings.Split(authors, " and ") {
			if a = strings.TrimSpace(a); a != "" {
				e.Authors = append(e.Authors, a)
			}
		}
	}

	if y, err := strconv.Atoi(strings.TrimSpace(fields["year"])); err == nil {
		e.Year = y
	}

	if kw := fields["keywords"]; kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				e.Keywords = append(e.Keywords, k)
			}
		}
	}

	return e
}
