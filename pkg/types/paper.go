// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PaperStatus tracks a paper's progress through the ingest pipeline.
type PaperStatus string

const (
	StatusPending  PaperStatus = "pending"
	StatusIngested PaperStatus = "ingested"
	StatusFailed   PaperStatus = "failed"
)

// ExtractionMethod identifies which converter produced a paper's Markdown.
type ExtractionMethod string

const (
	MethodDocling  ExtractionMethod = "docling"
	MethodFallback ExtractionMethod = "fallback"
)

// PaperEntry is one paper's record in the project inventory. IDs are
// content hashes of the source PDF, so re-ingesting the same file is a
// no-op even if it was renamed.
type PaperEntry struct {
	// ID is the 12-character content hash of the source PDF.
	ID string `json:"id"`

	// Filename is the base name of the source PDF.
	Filename string `json:"filename"`

	// PDFPath is the path to the source PDF, relative to the project root.
	PDFPath string `json:"pdf_path"`

	// BibtexKey links the paper to its bibliography entry. For papers
	// without a matching entry this is a generated key.
	BibtexKey string `json:"bibtex_key,omitempty"`

	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	ArxivID string   `json:"arxiv_id,omitempty"`

	Status  PaperStatus `json:"status"`
	AddedAt time.Time   `json:"added_at"`

	// MarkdownPath is the converted Markdown, relative to the project root.
	// Empty until the paper has been ingested.
	MarkdownPath string           `json:"markdown_path,omitempty"`
	Method       ExtractionMethod `json:"extraction_method,omitempty"`

	// ParentID is set for chunks produced by splitting a large PDF.
	ParentID      string `json:"parent_id,omitempty"`
	ChapterNumber int    `json:"chapter_number,omitempty"`
	ChapterTitle  string `json:"chapter_title,omitempty"`

	// Error holds the failure message when Status is StatusFailed.
	Error string `json:"error,omitempty"`
}

// IsSplitChild reports whether the entry is a chunk of a larger split PDF.
func (p PaperEntry) IsSplitChild() bool {
	return p.ParentID != ""
}
