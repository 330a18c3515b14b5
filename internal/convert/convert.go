// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements PDF-to-Markdown conversion with pluggable
// backends: a docling container image when a runtime is available, and
// a plain text extraction fallback otherwise.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// Converter transforms a PDF file into Markdown text.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the Markdown content.
	Convert(pdfPath string) (string, error)

	// Method identifies the converter in inventory records.
	Method() types.ExtractionMethod
}

// Status is the per-paper conversion outcome.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

// ConvertPaper converts one paper's PDF to Markdown under outDir and
// records the output path and method on the entry. Existing output is
// not overwritten; the entry is updated to point at it and the paper
// is reported as skipped.
func ConvertPaper(c Converter, entry *types.PaperEntry, outDir string, w io.Writer) (Status, error) {
	mdPath := filepath.Join(outDir, entry.ID+".md")

	if _, err := os.Stat(mdPath); err == nil {
		entry.MarkdownPath = mdPath
		fmt.Fprintf(w, "skipped: %s (already converted)\n", entry.Filename)
		return StatusSkipped, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return StatusFailed, fmt.Errorf("creating markdown directory: %w", err)
	}

	body, err := c.Convert(entry.PDFPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", entry.Filename, err)
		return StatusFailed, err
	}

	content := addFrontmatter(entry, body)
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return StatusFailed, fmt.Errorf("writing %s: %w", mdPath, err)
	}

	entry.MarkdownPath = mdPath
	entry.Method = c.Method()
	fmt.Fprintf(w, "converted: %s\n", entry.Filename)
	return StatusConverted, nil
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(entry *types.PaperEntry, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "paper_id: %q\n", entry.ID)
	fmt.Fprintf(&b, "source_pdf: %q\n", entry.PDFPath)
	if entry.Title != "" {
		fmt.Fprintf(&b, "title: %q\n", entry.Title)
	}
	if entry.BibtexKey != "" {
		fmt.Fprintf(&b, "bibtex_key: %q\n", entry.BibtexKey)
	}
	fmt.Fprintf(&b, "converted_at: %q\n", ts)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
