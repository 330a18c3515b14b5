// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest runs the intake pipeline: collect PDFs, identify them
// by content hash, match them against the bibliography, fetch entries
// that have no local PDF, split oversized files, and convert everything
// to Markdown.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/papercutter/internal/bibtex"
	"github.com/mesh-intelligence/papercutter/internal/convert"
	"github.com/mesh-intelligence/papercutter/internal/fetch"
	"github.com/mesh-intelligence/papercutter/internal/hashing"
	"github.com/mesh-intelligence/papercutter/internal/match"
	"github.com/mesh-intelligence/papercutter/internal/project"
	"github.com/mesh-intelligence/papercutter/internal/sawmill"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// scrapePages is how many leading pages are read for metadata scraping.
const scrapePages = 2

// Inspector reads PDF structure during ingest. Split out so tests can
// run the pipeline without real PDF files.
type Inspector interface {
	PageCount(path string) (int, error)
	FirstPagesText(path string, maxPages int) (string, error)
}

type pdfInspector struct {
	splitter *sawmill.Splitter
}

func (p pdfInspector) PageCount(path string) (int, error) {
	return p.splitter.PageCount(path)
}

func (p pdfInspector) FirstPagesText(path string, maxPages int) (string, error) {
	return convert.FirstPagesText(path, maxPages)
}

// Summary is the outcome of one ingest run.
type Summary struct {
	Ingested int
	Fetched  int
	Skipped  int
	Failed   int
	Split    int

	Matched int
	BibOnly int
	PDFOnly int
}

// Total returns the number of papers processed.
func (s Summary) Total() int {
	return s.Ingested + s.Skipped + s.Failed
}

// HasFailures reports whether any paper failed to ingest.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Pipeline wires the ingest stages together for one project.
type Pipeline struct {
	Project   *project.Project
	Inventory *project.Inventory
	Converter convert.Converter
	Splitter  *sawmill.Splitter
	Matcher   *match.Matcher
	Registry  *fetch.Registry
	Client    *http.Client
	Inspector Inspector

	// MetadataLookup resolves an arXiv ID to bibliographic metadata,
	// used to fill in entries that carried only an identifier.
	MetadataLookup func(ctx context.Context, arxivID string) (*fetch.Metadata, error)

	// FetchMissing downloads bibliography entries that have no local PDF.
	FetchMissing bool
}

// NewPipeline returns a Pipeline with the standard stages configured
// from the project settings.
func NewPipeline(p *project.Project, inv *project.Inventory, conv convert.Converter) *Pipeline {
	splitter := sawmill.NewSplitter(p.Config.Sawmill)
	client := &http.Client{Timeout: p.Config.Fetch.Timeout}
	return &Pipeline{
		Project:   p,
		Inventory: inv,
		Converter: conv,
		Splitter:  splitter,
		Matcher:   match.NewMatcher(),
		Registry:  fetch.DefaultRegistry(),
		Client:    client,
		Inspector: pdfInspector{splitter: splitter},
		MetadataLookup: func(ctx context.Context, arxivID string) (*fetch.Metadata, error) {
			return fetch.ArxivMetadata(ctx, client, arxivID, p.Config.Fetch)
		},
	}
}

// Run ingests the PDFs found under inputs. Per-paper failures are
// recorded in the inventory and do not stop the run; the inventory and
// the generated bibliography are saved before returning.
func (p *Pipeline) Run(ctx context.Context, inputs []string, w io.Writer) (*Summary, error) {
	paths, err := CollectPDFs(inputs)
	if err != nil {
		return nil, err
	}

	entries, err := p.loadBibliography()
	if err != nil {
		return nil, err
	}

	sum := &Summary{}

	// Scan phase: hash each PDF and scrape its first pages.
	idByPath := make(map[string]string)
	var pdfInfos []match.PDFInfo
	for _, path := range paths {
		id, err := hashing.FileHash(path)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(path), err)
			sum.Failed++
			continue
		}
		if _, ok := p.Inventory.Get(id); ok {
			fmt.Fprintf(w, "skipped: %s (already ingested)\n", filepath.Base(path))
			sum.Skipped++
			continue
		}

		text, err := p.Inspector.FirstPagesText(path, scrapePages)
		if err != nil {
			logrus.WithError(err).WithField("pdf", path).Debug("metadata scrape failed")
		}
		sc := ScrapeMetadata(text)

		idByPath[path] = id
		pdfInfos = append(pdfInfos, match.PDFInfo{
			Path:    path,
			Title:   sc.Title,
			DOI:     sc.DOI,
			ArxivID: sc.ArxivID,
			Year:    sc.Year,
		})
	}

	res := p.Matcher.Match(pdfInfos, entries)
	sum.Matched = len(res.Matched)
	sum.BibOnly = len(res.BibOnly)
	sum.PDFOnly = len(res.PDFOnly)

	for _, paper := range res.Matched {
		p.processPDF(paper, idByPath[paper.PDF.Path], w, sum)
	}
	for _, paper := range res.PDFOnly {
		p.processPDF(paper, idByPath[paper.PDF.Path], w, sum)
	}
	for _, paper := range res.BibOnly {
		p.processBibOnly(ctx, paper, w, sum)
	}

	if err := p.writeBibliography(res); err != nil {
		return sum, fmt.Errorf("writing generated bibliography: %w", err)
	}
	if err := p.Inventory.Save(); err != nil {
		return sum, fmt.Errorf("saving inventory: %w", err)
	}

	fmt.Fprintf(w, "\nMatch results: %d matched, %d bib-only, %d pdf-only\n",
		sum.Matched, sum.BibOnly, sum.PDFOnly)
	fmt.Fprintf(w, "Ingest summary: %d ingested, %d fetched, %d skipped, %d failed (total: %d)\n",
		sum.Ingested, sum.Fetched, sum.Skipped, sum.Failed, sum.Total())
	return sum, nil
}

// processPDF registers a paper that has a PDF on disk, splitting it
// first when it is over the page threshold, then converting.
func (p *Pipeline) processPDF(paper match.Paper, id string, w io.Writer, sum *Summary) {
	if id == "" {
		return
	}
	entry := p.newEntry(paper, id, paper.PDF.Path)
	p.Inventory.Add(entry)

	pageCount, err := p.Inspector.PageCount(paper.PDF.Path)
	if err != nil {
		p.failEntry(entry, w, sum, fmt.Errorf("reading page count: %w", err))
		return
	}

	if p.Splitter.ShouldSplit(pageCount) {
		p.splitAndConvert(entry, paper, w, sum)
		return
	}

	status, err := convert.ConvertPaper(p.Converter, entry, p.Project.MarkdownDir(), w)
	p.recordConversion(entry, status, err, sum)
}

// splitAndConvert breaks an oversized PDF into chapter chunks, each
// ingested as a child entry pointing back at the parent.
func (p *Pipeline) splitAndConvert(parent *types.PaperEntry, paper match.Paper, w io.Writer, sum *Summary) {
	outDir := filepath.Join(p.Project.ChunksDir(), parent.ID)
	chunks, err := p.Splitter.Split(paper.PDF.Path, outDir)
	if err != nil {
		p.failEntry(parent, w, sum, fmt.Errorf("splitting: %w", err))
		return
	}
	sum.Split++
	fmt.Fprintf(w, "split: %s into %d chunks\n", parent.Filename, len(chunks))

	childFailed := false
	for _, chunk := range chunks {
		childID, err := hashing.FileHash(chunk.Path)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(chunk.Path), err)
			childFailed = true
			continue
		}
		child := &types.PaperEntry{
			ID:            childID,
			Filename:      filepath.Base(chunk.Path),
			PDFPath:       chunk.Path,
			BibtexKey:     parent.BibtexKey,
			Title:         fmt.Sprintf("%s (%s)", parent.Title, chunk.Chapter.Title),
			Authors:       parent.Authors,
			Year:          parent.Year,
			Status:        types.StatusPending,
			AddedAt:       time.Now().UTC(),
			ParentID:      parent.ID,
			ChapterNumber: chunk.Number,
			ChapterTitle:  chunk.Chapter.Title,
		}
		p.Inventory.Add(child)

		status, convErr := convert.ConvertPaper(p.Converter, child, p.Project.MarkdownDir(), w)
		if status == convert.StatusFailed {
			childFailed = true
		}
		p.updateEntry(child, status, convErr)
	}

	if childFailed {
		p.failEntry(parent, w, sum, fmt.Errorf("one or more chunks failed"))
		return
	}
	parent.Status = types.StatusIngested
	sum.Ingested++
}

// processBibOnly handles a bibliography entry with no PDF on disk,
// downloading it when FetchMissing is set.
func (p *Pipeline) processBibOnly(ctx context.Context, paper match.Paper, w io.Writer, sum *Summary) {
	identifier := entryIdentifier(paper.Entry)

	if !p.FetchMissing {
		fmt.Fprintf(w, "missing pdf: %s (re-run with --fetch to download)\n", paper.Key)
		return
	}
	if identifier == "" {
		fmt.Fprintf(w, "missing pdf: %s (no downloadable identifier)\n", paper.Key)
		return
	}

	cfg := p.Project.Config.Fetch
	cfg.OutputDir = p.Project.FetchedDir()

	pdfPath, _, err := fetch.FetchPaper(ctx, p.Client, p.Registry, identifier, cfg, w)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", paper.Key, err)
		sum.Failed++
		return
	}
	sum.Fetched++

	p.enrichEntry(ctx, paper.Entry, w)

	id, err := hashing.FileHash(pdfPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", paper.Key, err)
		sum.Failed++
		return
	}
	if _, ok := p.Inventory.Get(id); ok {
		fmt.Fprintf(w, "skipped: %s (already ingested)\n", filepath.Base(pdfPath))
		sum.Skipped++
		return
	}

	entry := p.newEntry(paper, id, pdfPath)
	p.Inventory.Add(entry)

	status, convErr := convert.ConvertPaper(p.Converter, entry, p.Project.MarkdownDir(), w)
	p.recordConversion(entry, status, convErr, sum)
}

// enrichEntry fills in missing bibliographic fields from the arXiv API
// when an entry carried little more than an identifier. Lookup failures
// are not fatal; the entry keeps whatever fields it had.
func (p *Pipeline) enrichEntry(ctx context.Context, e *bibtex.Entry, w io.Writer) {
	if e == nil || e.ArxivID == "" || p.MetadataLookup == nil {
		return
	}
	if e.Title != "" && len(e.Authors) > 0 {
		return
	}

	meta, err := p.MetadataLookup(ctx, e.ArxivID)
	if err != nil {
		logrus.WithError(err).WithField("arxiv_id", e.ArxivID).Debug("metadata lookup failed")
		return
	}
	if e.Title == "" {
		e.Title = meta.Title
	}
	if len(e.Authors) == 0 {
		e.Authors = meta.Authors
	}
	if e.Year == 0 {
		e.Year = meta.Year
	}
	if e.Abstract == "" {
		e.Abstract = meta.Abstract
	}
	fmt.Fprintf(w, "metadata: %s (arXiv:%s)\n", e.Title, e.ArxivID)
}

// newEntry builds an inventory record from a match outcome.
func (p *Pipeline) newEntry(paper match.Paper, id, pdfPath string) *types.PaperEntry {
	e := &types.PaperEntry{
		ID:        id,
		Filename:  filepath.Base(pdfPath),
		PDFPath:   pdfPath,
		BibtexKey: paper.Key,
		Status:    types.StatusPending,
		AddedAt:   time.Now().UTC(),
	}
	if paper.Entry != nil {
		e.Title = paper.Entry.Title
		e.Authors = paper.Entry.Authors
		e.Year = paper.Entry.Year
		e.DOI = paper.Entry.DOI
		e.ArxivID = paper.Entry.ArxivID
	}
	if paper.PDF != nil {
		if e.Title == "" {
			e.Title = paper.PDF.Title
		}
		if e.DOI == "" {
			e.DOI = paper.PDF.DOI
		}
		if e.ArxivID == "" {
			e.ArxivID = paper.PDF.ArxivID
		}
		if e.Year == 0 {
			e.Year = paper.PDF.Year
		}
	}
	return e
}

func (p *Pipeline) recordConversion(entry *types.PaperEntry, status convert.Status, err error, sum *Summary) {
	p.updateEntry(entry, status, err)
	switch status {
	case convert.StatusFailed:
		sum.Failed++
	default:
		sum.Ingested++
	}
}

func (p *Pipeline) updateEntry(entry *types.PaperEntry, status convert.Status, err error) {
	if status == convert.StatusFailed {
		entry.Status = types.StatusFailed
		if err != nil {
			entry.Error = err.Error()
		}
		return
	}
	entry.Status = types.StatusIngested
	entry.Error = ""
}

func (p *Pipeline) failEntry(entry *types.PaperEntry, w io.Writer, sum *Summary, err error) {
	entry.Status = types.StatusFailed
	entry.Error = err.Error()
	fmt.Fprintf(w, "failed:  %s (%v)\n", entry.Filename, err)
	sum.Failed++
}

// loadBibliography parses the project's BibTeX file when one is configured.
func (p *Pipeline) loadBibliography() ([]bibtex.Entry, error) {
	bibPath := p.Project.Config.BibtexPath
	if bibPath == "" {
		return nil, nil
	}
	if !filepath.IsAbs(bibPath) {
		bibPath = filepath.Join(p.Project.Root, bibPath)
	}
	entries, err := bibtex.ParseFile(bibPath)
	if err != nil {
		return nil, fmt.Errorf("loading bibliography: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"path":    bibPath,
		"entries": len(entries),
	}).Debug("loaded bibliography")
	return entries, nil
}

// entryIdentifier picks the best downloadable identifier for a
// bibliography entry: arXiv first, then DOI, then a direct URL.
func entryIdentifier(e *bibtex.Entry) string {
	switch {
	case e == nil:
		return ""
	case e.ArxivID != "":
		return e.ArxivID
	case e.DOI != "":
		return e.DOI
	case e.URL != "":
		return e.URL
	default:
		return ""
	}
}

// writeBibliography renders every matched, synthesized, and bib-only
// entry into the generated bibliography file.
func (p *Pipeline) writeBibliography(res *match.Result) error {
	var parts []string
	for _, group := range [][]match.Paper{res.Matched, res.BibOnly, res.PDFOnly} {
		for _, paper := range group {
			if paper.Entry == nil {
				continue
			}
			parts = append(parts, bibtex.Format(*paper.Entry, paper.Key))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	content := strings.Join(parts, "\n\n") + "\n"
	return os.WriteFile(p.Project.GeneratedBibPath(), []byte(content), 0o644)
}
