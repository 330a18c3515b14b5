// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package equations finds mathematical content in converted papers:
// display and inline LaTeX already present in the Markdown, plus an
// OCR hook for equations that survived conversion only as images.
package equations

import (
	"regexp"
	"strings"
)

// Kind classifies where an equation was found.
type Kind string

const (
	// Display covers $$...$$ and \[...\] blocks.
	Display Kind = "display"

	// Inline covers $...$ spans inside prose.
	Inline Kind = "inline"

	// Environment covers \begin{equation}...\end{equation} and the
	// align/gather variants.
	Environment Kind = "environment"
)

// Equation is one piece of math found in a document.
type Equation struct {
	Kind Kind `json:"kind"`

	// LaTeX is the math body without its delimiters.
	LaTeX string `json:"latex"`

	// Line is the 1-based line number where the equation starts.
	Line int `json:"line"`
}

var (
	envRE    = regexp.MustCompile(`(?s)\\begin\{(equation\*?|align\*?|gather\*?|multline\*?)\}(.*?)\\end\{[a-z]+\*?\}`)
	displayRE = regexp.MustCompile(`(?s)\$\$(.+?)\$\$|\\\[(.+?)\\\]`)
	inlineRE  = regexp.MustCompile(`\$([^$\n]+?)\$`)
)

// Scan finds the equations in a Markdown document, in document order.
// Inline math inside display blocks is not double-counted.
func Scan(content string) []Equation {
	var equations []Equation
	covered := make([]bool, len(content))

	mark := func(start, end int) {
		for i := start; i < end && i < len(covered); i++ {
			covered[i] = true
		}
	}

	for _, loc := range envRE.FindAllStringSubmatchIndex(content, -1) {
		body := strings.TrimSpace(content[loc[4]:loc[5]])
		equations = append(equations, Equation{
			Kind:  Environment,
			LaTeX: body,
			Line:  lineAt(content, loc[0]),
		})
		mark(loc[0], loc[1])
	}

	for _, loc := range displayRE.FindAllStringSubmatchIndex(content, -1) {
		if covered[loc[0]] {
			continue
		}
		start, end := loc[2], loc[3]
		if start < 0 {
			start, end = loc[4], loc[5]
		}
		equations = append(equations, Equation{
			Kind:  Display,
			LaTeX: strings.TrimSpace(content[start:end]),
			Line:  lineAt(content, loc[0]),
		})
		mark(loc[0], loc[1])
	}

	for _, loc := range inlineRE.FindAllStringSubmatchIndex(content, -1) {
		if covered[loc[0]] {
			continue
		}
		body := strings.TrimSpace(content[loc[2]:loc[3]])
		if !looksLikeMath(body) {
			continue
		}
		equations = append(equations, Equation{
			Kind:  Inline,
			LaTeX: body,
			Line:  lineAt(content, loc[0]),
		})
	}

	sortByPosition(equations, content)
	return equations
}

// looksLikeMath filters out dollar amounts and stray delimiters:
// real inline math has an operator, a backslash command, or a
// sub/superscript.
func looksLikeMath(body string) bool {
	if body == "" {
		return false
	}
	return strings.ContainsAny(body, `\=_^+<>`) ||
		regexp.MustCompile(`[a-zA-Z]\s*[-*/]\s*[a-zA-Z0-9]`).MatchString(body)
}

// lineAt returns the 1-based line number of byte offset pos.
func lineAt(content string, pos int) int {
	return strings.Count(content[:pos], "\n") + 1
}

// sortByPosition orders equations by line number, stable within a line.
func sortByPosition(equations []Equation, content string) {
	// Equations are appended per-pattern, so a simple insertion sort by
	// line keeps document order across kinds.
	for i := 1; i < len(equations); i++ {
		for j := i; j > 0 && equations[j].Line < equations[j-1].Line; j-- {
			equations[j], equations[j-1] = equations[j-1], equations[j]
		}
	}
}
