// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

func reportMatrix() *types.Matrix {
	schema := types.NewSchema("test")
	schema.AddField(types.SchemaField{Key: "sample_size", Description: "n", Type: types.FieldInteger})
	schema.AddField(types.SchemaField{Key: "methodology", Description: "method", Type: types.FieldText})

	m := types.NewMatrix(schema)

	a := &types.PaperExtraction{
		PaperID:     "paper-a",
		Title:       "Wages & Growth",
		BibtexKey:   "smith2020wages",
		OnePager:    "This paper studies wages, finding a 5% effect.",
		AppendixRow: "Shows wages rise 5% after reform.",
	}
	a.SetValue("sample_size", int64(1200), "", 0)
	a.SetValue("methodology", "DiD", "", 0)
	m.AddPaper(a)

	b := &types.PaperExtraction{
		PaperID:   "paper-b",
		Title:     "Trade Costs",
		BibtexKey: "jones2021trade",
	}
	b.SetValue("sample_size", int64(80), "", 0)
	b.SetValue("methodology", "IV", "", 0)
	m.AddPaper(b)

	return m
}

func testReportingConfig(format types.ReportFormat) types.ReportingConfig {
	cfg := types.DefaultProjectConfig("test").Reporting
	cfg.Format = format
	return cfg
}

func TestRenderLaTeX(t *testing.T) {
	var buf bytes.Buffer
	b := NewBuilder(testReportingConfig(types.ReportLaTeX))
	err := b.Render(Context{
		Title:  "Minimum Wage Review",
		Author: "Research Team",
		Date:   "2026-03-01",
		Matrix: reportMatrix(),
	}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		`\documentclass`,
		`\title{Minimum Wage Review}`,
		`\begin{longtable}`,
		`\textbf{sample\_size}`,
		"smith2020wages",
		"1200",
		`Wages \& Growth`,
		`\cite{smith2020wages}`,
		"This paper studies wages, finding a 5\\% effect.",
		`\begin{enumerate}`,
		`Shows wages rise 5\% after reform.`,
		`\bibliographystyle{apalike}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("LaTeX output missing %q", want)
		}
	}

	// Paper b has no one-pager; it must not get a summary section.
	if strings.Contains(out, `\subsection{Trade Costs}`) {
		t.Error("paper without one-pager should not have a summary section")
	}
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	b := NewBuilder(testReportingConfig(types.ReportMarkdown))
	err := b.Render(Context{Title: "Review", Author: "Team", Date: "2026-03-01", Matrix: reportMatrix()}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Review",
		"## Evidence Matrix",
		"| Paper | sample_size | methodology |",
		"| smith2020wages | 1200 | DiD |",
		"[@smith2020wages]",
		"## Appendix: Contributions",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown output missing %q", want)
		}
	}
}

func TestRender_IncludeFlags(t *testing.T) {
	cfg := testReportingConfig(types.ReportMarkdown)
	cfg.IncludeMatrix = false
	cfg.IncludeSummaries = false
	cfg.IncludeAppendix = false

	var buf bytes.Buffer
	err := NewBuilder(cfg).Render(Context{Title: "Bare", Matrix: reportMatrix()}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, absent := range []string{"Evidence Matrix", "Paper Summaries", "Contributions"} {
		if strings.Contains(out, absent) {
			t.Errorf("output should not contain %q when disabled", absent)
		}
	}
}

func TestRender_CustomTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.tmpl")
	if err := os.WriteFile(path, []byte("CUSTOM {{.Title}} with {{len .Papers}} papers\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testReportingConfig(types.ReportLaTeX)
	cfg.TemplatePath = path

	var buf bytes.Buffer
	if err := NewBuilder(cfg).Render(Context{Title: "Override", Matrix: reportMatrix()}, &buf); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "CUSTOM Override with 2 papers\n" {
		t.Errorf("custom template output = %q", got)
	}
}

func TestLatexEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50% of GDP", `50\% of GDP`},
		{"A & B", `A \& B`},
		{"x_1 = $5", `x\_1 = \$5`},
		{"set {a, b}", `set \{a, b\}`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := latexEscape(tt.in); got != tt.want {
			t.Errorf("latexEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		max  int
		in   string
		want string
	}{
		{10, "short", "short"},
		{15, "alpha beta gamma delta", "alpha beta..."},
		{3, "overflow", "ove"},
		{1, "overflow", "o"},
		{0, "overflow", ""},
		{-1, "overflow", ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.max, tt.in); got != tt.want {
			t.Errorf("truncate(%d, %q) = %q, want %q", tt.max, tt.in, got, tt.want)
		}
	}
}

func TestMissingCitations(t *testing.T) {
	m := reportMatrix()
	bib := map[string]bool{"smith2020wages": true}

	missing := MissingCitations(m, bib)
	if len(missing) != 1 || missing[0] != "jones2021trade" {
		t.Errorf("missing = %v, want [jones2021trade]", missing)
	}

	bib["jones2021trade"] = true
	if missing := MissingCitations(m, bib); missing != nil {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestPandocHint(t *testing.T) {
	cfg := testReportingConfig(types.ReportLaTeX)
	hint := PandocHint("report.tex", "references.bib", cfg)
	if !strings.Contains(hint, "pandoc report.tex") || !strings.Contains(hint, "-o report.pdf") {
		t.Errorf("hint = %q", hint)
	}
}
