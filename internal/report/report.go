// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the literature review document from the
// extraction matrix: an evidence table, per-paper summaries, and an
// appendix of contributions, as LaTeX or Markdown.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// Context carries everything a report template needs.
type Context struct {
	Title    string
	Author   string
	Date     string
	Abstract string

	Matrix *types.Matrix

	// BibliographyKeys is the set of citation keys present in the
	// project bibliography, used to validate references.
	BibliographyKeys map[string]bool

	Config types.ReportingConfig
}

// Builder renders reports in the configured format.
type Builder struct {
	cfg types.ReportingConfig
}

// NewBuilder creates a report builder.
func NewBuilder(cfg types.ReportingConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Render writes the report for ctx to w. A TemplatePath in the config
// overrides the built-in template for the selected format.
func (b *Builder) Render(ctx Context, w io.Writer) error {
	if ctx.Date == "" {
		ctx.Date = time.Now().Format("2006-01-02")
	}

	text := builtinLaTeX
	if b.cfg.Format == types.ReportMarkdown {
		text = builtinMarkdown
	}
	if b.cfg.TemplatePath != "" {
		data, err := os.ReadFile(b.cfg.TemplatePath)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", b.cfg.TemplatePath, err)
		}
		text = string(data)
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	if err := tmpl.Execute(w, b.buildData(ctx)); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// reportData is the template payload with the matrix pre-flattened
// into header and rows.
type reportData struct {
	Title    string
	Author   string
	Date     string
	Abstract string

	IncludeMatrix    bool
	IncludeSummaries bool
	IncludeAppendix  bool

	BibliographyStyle string

	Header []string
	Rows   [][]string
	Papers []*types.PaperExtraction
}

func (b *Builder) buildData(ctx Context) reportData {
	data := reportData{
		Title:             ctx.Title,
		Author:            ctx.Author,
		Date:              ctx.Date,
		Abstract:          ctx.Abstract,
		IncludeMatrix:     b.cfg.IncludeMatrix,
		IncludeSummaries:  b.cfg.IncludeSummaries,
		IncludeAppendix:   b.cfg.IncludeAppendix,
		BibliographyStyle: b.cfg.BibliographyStyle,
	}
	if ctx.Matrix == nil {
		return data
	}

	data.Papers = ctx.Matrix.Papers
	keys := ctx.Matrix.FieldKeys()
	data.Header = append([]string{"Paper"}, keys...)
	for _, p := range ctx.Matrix.Papers {
		row := []string{paperLabel(p)}
		for _, key := range keys {
			row = append(row, cellString(p.Value(key)))
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// paperLabel prefers the citation key, then the title, then the ID.
func paperLabel(p *types.PaperExtraction) string {
	if p.BibtexKey != "" {
		return p.BibtexKey
	}
	if p.Title != "" {
		return p.Title
	}
	return p.PaperID
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "; ")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = cellString(e)
		}
		return strings.Join(parts, "; ")
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// latexEscaper escapes the characters LaTeX treats specially.
var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`, "%", `\%`, "$", `\$`, "#", `\#`, "_", `\_`,
	"{", `\{`, "}", `\}`,
	"~", `\textasciitilde{}`, "^", `\textasciicircum{}`,
)

func latexEscape(s string) string {
	return latexEscaper.Replace(s)
}

// truncate cuts s to max characters at a word boundary. Limits too
// small to leave room for an ellipsis cut hard.
func truncate(max int, s string) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		if max <= 0 {
			return ""
		}
		return s[:max]
	}
	cut := s[:max-3]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"latex":    latexEscape,
		"truncate": truncate,
		"join":     strings.Join,
		"cell":     cellString,
	}
}

// MissingCitations returns the bibliography keys referenced by matrix
// papers that are absent from the bibliography, in matrix order.
func MissingCitations(m *types.Matrix, bibKeys map[string]bool) []string {
	var missing []string
	seen := map[string]bool{}
	for _, p := range m.Papers {
		if p.BibtexKey == "" || bibKeys[p.BibtexKey] || seen[p.BibtexKey] {
			continue
		}
		seen[p.BibtexKey] = true
		missing = append(missing, p.BibtexKey)
	}
	return missing
}

// PandocHint returns the command line that turns the rendered report
// into a PDF. Rendering itself stays outside papercutter.
func PandocHint(reportPath, bibPath string, cfg types.ReportingConfig) string {
	out := strings.TrimSuffix(reportPath, ".tex")
	out = strings.TrimSuffix(out, ".md") + ".pdf"
	return fmt.Sprintf("pandoc %s --bibliography %s --csl %s -o %s",
		reportPath, bibPath, cfg.BibliographyStyle, out)
}
