// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grind

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

const (
	// onePagerMaxChars is the target length for per-paper summaries.
	onePagerMaxChars = 2500

	// appendixRowMaxChars is the hard cap on appendix contribution rows.
	appendixRowMaxChars = 350
)

const synthesisSystemPrompt = "You are a research assistant writing literature review material. Be precise, factual, and quantitative; cite specific numbers from the paper where they exist."

// Synthesizer produces the one-pager and appendix-row summaries that
// accompany the extraction matrix in reports.
type Synthesizer struct {
	Backend AIBackend
	Config  types.GrindingConfig
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(backend AIBackend, cfg types.GrindingConfig) *Synthesizer {
	return &Synthesizer{Backend: backend, Config: cfg}
}

// SynthesizeAll fills the one-pager and appendix row of every paper in
// the matrix that has a Markdown source, skipping papers that already
// have both unless force is set.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, entries []*types.PaperEntry, matrix *types.Matrix, force bool, w io.Writer) BatchSummary {
	var summary BatchSummary
	byID := make(map[string]*types.PaperEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	for _, p := range matrix.Papers {
		entry, ok := byID[p.PaperID]
		if !ok || entry.MarkdownPath == "" {
			summary.Skipped++
			continue
		}
		if !force && p.OnePager != "" && p.AppendixRow != "" {
			fmt.Fprintf(w, "skipped %s (already summarized)\n", entry.Filename)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "summarizing %s\n", entry.Filename)
		if err := s.SynthesizePaper(ctx, entry, p); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Filename, err)
			summary.Failed++
			continue
		}
		summary.Extracted++
	}
	fmt.Fprintf(w, "\nSynthesis summary: %d summarized, %d skipped, %d failed (total: %d)\n",
		summary.Extracted, summary.Skipped, summary.Failed, summary.Total())
	return summary
}

// SynthesizePaper writes the one-pager and appendix row for one paper.
func (s *Synthesizer) SynthesizePaper(ctx context.Context, entry *types.PaperEntry, p *types.PaperExtraction) error {
	data, err := os.ReadFile(entry.MarkdownPath)
	if err != nil {
		return fmt.Errorf("reading markdown: %w", err)
	}
	content := string(data)
	maxChars := s.Config.MaxContentChars
	if maxChars <= 0 {
		maxChars = 100000
	}
	if len(content) > maxChars {
		content = content[:maxChars] + "\n\n[Content truncated...]"
	}

	onePager, err := s.onePager(ctx, content)
	if err != nil {
		return fmt.Errorf("one-pager: %w", err)
	}
	p.OnePager = onePager

	row, err := s.appendixRow(ctx, content)
	if err != nil {
		return fmt.Errorf("appendix row: %w", err)
	}
	p.AppendixRow = row
	return nil
}

func (s *Synthesizer) onePager(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a dense one-page summary (at most %d characters) of the following paper. Cover: research question, data, methodology, main findings with magnitudes, and limitations. Plain prose, no headings.\n\nPaper content:\n\n%s",
		onePagerMaxChars, content)

	text, err := callWithRetry(ctx, s.Backend, synthesisSystemPrompt, prompt, s.Config.MaxRetries)
	if err != nil {
		return "", err
	}
	return truncateAtBoundary(strings.TrimSpace(text), onePagerMaxChars), nil
}

// appendixRow asks for a one-sentence contribution statement. An
// over-length answer gets one compression round before being truncated
// outright.
func (s *Synthesizer) appendixRow(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf(
		"In at most %d characters, state this paper's core contribution as a single sentence suitable for a literature review appendix table.\n\nPaper content:\n\n%s",
		appendixRowMaxChars, content)

	text, err := callWithRetry(ctx, s.Backend, synthesisSystemPrompt, prompt, s.Config.MaxRetries)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	if len(text) > appendixRowMaxChars {
		retry := fmt.Sprintf(
			"Compress the following to at most %d characters without losing the quantitative result:\n\n%s",
			appendixRowMaxChars, text)
		compressed, err := callWithRetry(ctx, s.Backend, synthesisSystemPrompt, retry, s.Config.MaxRetries)
		if err == nil {
			text = strings.TrimSpace(compressed)
		}
	}
	return truncateAtBoundary(text, appendixRowMaxChars), nil
}

// truncateAtBoundary cuts text to max characters, backing up to the
// last word boundary and appending an ellipsis when a cut was made.
func truncateAtBoundary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		if max <= 0 {
			return ""
		}
		return text[:max]
	}
	cut := text[:max-3]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
