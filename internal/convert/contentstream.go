// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "strings"

// PageText reduces a decoded PDF content stream to its readable text.
// pdfcpu's content extraction emits raw page operators (BT, Tf, Td,
// ET); the actual page text is carried by the string operands of the
// text-show operations Tj, TJ, ' and ". Each operator line holding
// text becomes one output line.
func PageText(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hasTextShow(line) {
			continue
		}
		texts := textShowStrings(line)
		if len(texts) == 0 {
			continue
		}
		lines = append(lines, strings.Join(texts, " "))
	}
	return strings.Join(lines, "\n")
}

// hasTextShow reports whether a content-stream line contains a
// text-show operator.
func hasTextShow(line string) bool {
	return strings.Contains(line, " Tj") || strings.Contains(line, "TJ") ||
		strings.HasSuffix(line, "'") || strings.HasSuffix(line, "\"")
}

// textShowStrings pulls the literal string operands out of one
// operator line, decoding the standard escapes and octal codes.
// Balanced parentheses inside a string are legal in PDF and kept.
func textShowStrings(line string) []string {
	var texts []string
	var b strings.Builder
	depth := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case depth > 0 && c == '\\':
			if i+1 >= len(line) {
				break
			}
			i++
			switch esc := line[i]; esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '(', ')', '\\':
				b.WriteByte(esc)
			default:
				if esc >= '0' && esc <= '7' {
					val := int(esc - '0')
					for d := 0; d < 2 && i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '7'; d++ {
						i++
						val = val*8 + int(line[i]-'0')
					}
					// Non-printable codes are font-specific glyphs.
					if val >= 0x20 && val < 0x7f {
						b.WriteByte(byte(val))
					}
				} else {
					b.WriteByte(esc)
				}
			}
		case c == '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
		case c == ')':
			if depth > 1 {
				b.WriteByte(c)
			}
			if depth > 0 {
				depth--
				if depth == 0 {
					if s := b.String(); strings.TrimSpace(s) != "" {
						texts = append(texts, s)
					}
					b.Reset()
				}
			}
		case depth > 0:
			b.WriteByte(c)
		}
	}
	return texts
}
