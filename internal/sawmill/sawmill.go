// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sawmill splits oversized PDFs (books, theses, long reports)
// into chapter-sized chunks so downstream conversion and extraction
// work on manageable pieces. Chapter boundaries come from the PDF
// outline when present, from heading patterns in the text otherwise,
// and fall back to fixed-size chunks.
package sawmill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// Chapter is one logical division of a document, with 1-based inclusive
// page bounds.
type Chapter struct {
	Title     string
	StartPage int
	EndPage   int
}

// Chunk is a chapter written out as its own PDF.
type Chunk struct {
	Path    string
	Chapter Chapter
	Number  int
}

// Splitter decides whether and where to split PDFs.
type Splitter struct {
	cfg  types.SawmillConfig
	conf *model.Configuration
}

// NewSplitter returns a Splitter using the given thresholds.
func NewSplitter(cfg types.SawmillConfig) *Splitter {
	return &Splitter{cfg: cfg, conf: model.NewDefaultConfiguration()}
}

// PageCount returns the number of pages in the PDF at path.
func (s *Splitter) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages in %s: %w", filepath.Base(path), err)
	}
	return n, nil
}

// ShouldSplit reports whether a document of pageCount pages exceeds the
// split threshold.
func (s *Splitter) ShouldSplit(pageCount int) bool {
	return pageCount > s.cfg.SplitThreshold
}

// Split divides the PDF at path into chunk PDFs under outDir, named
// chunk_001.pdf, chunk_002.pdf, and so on. Chapter boundaries come from
// the document outline when available, then from heading patterns in
// the page text, and finally fixed-size chunks of MaxChunkPages.
func (s *Splitter) Split(path, outDir string) ([]Chunk, error) {
	pageCount, err := s.PageCount(path)
	if err != nil {
		return nil, err
	}

	chapters, err := s.outlineChapters(path, pageCount)
	if err != nil || len(chapters) < 2 {
		if err != nil {
			logrus.WithError(err).WithField("pdf", filepath.Base(path)).Debug("outline unavailable")
		}
		chapters, err = s.headingChapters(path, pageCount)
		if err != nil {
			logrus.WithError(err).WithField("pdf", filepath.Base(path)).Debug("heading detection unavailable")
		}
	}
	if len(chapters) < 2 {
		chapters = fixedChunks(pageCount, s.cfg.MaxChunkPages)
	}
	chapters = mergeShortChapters(chapters, s.cfg.MinChapterPages)
	chapters = capChunkSize(chapters, s.cfg.MaxChunkPages)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chunk directory: %w", err)
	}

	chunks := make([]Chunk, 0, len(chapters))
	for i, ch := range chapters {
		outPath := filepath.Join(outDir, fmt.Sprintf("chunk_%03d.pdf", i+1))
		pages := []string{fmt.Sprintf("%d-%d", ch.StartPage, ch.EndPage)}
		if err := api.TrimFile(path, outPath, pages, s.conf); err != nil {
			return nil, fmt.Errorf("writing chunk %d (pages %d-%d): %w", i+1, ch.StartPage, ch.EndPage, err)
		}
		chunks = append(chunks, Chunk{Path: outPath, Chapter: ch, Number: i + 1})
	}

	logrus.WithFields(logrus.Fields{
		"pdf":    filepath.Base(path),
		"pages":  pageCount,
		"chunks": len(chunks),
	}).Info("split document")
	return chunks, nil
}

// outlineChapters reads top-level bookmarks as chapter boundaries.
func (s *Splitter) outlineChapters(path string, pageCount int) ([]Chapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bookmarks, err := api.Bookmarks(f, s.conf)
	if err != nil {
		return nil, err
	}

	var chapters []Chapter
	for _, bm := range bookmarks {
		title := strings.TrimSpace(bm.Title)
		if title == "" {
			title = fmt.Sprintf("Section %d", len(chapters)+1)
		}
		chapters = append(chapters, Chapter{Title: title, StartPage: bm.PageFrom})
	}
	return assignEndPages(chapters, pageCount), nil
}

// assignEndPages sorts chapters by start page and closes each one at
// the page before the next chapter starts. The last chapter runs to the
// end of the document. Chapters starting out of range are dropped.
func assignEndPages(chapters []Chapter, pageCount int) []Chapter {
	var valid []Chapter
	for _, ch := range chapters {
		if ch.StartPage >= 1 && ch.StartPage <= pageCount {
			valid = append(valid, ch)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].StartPage < valid[j].StartPage })

	for i := range valid {
		if i+1 < len(valid) {
			valid[i].EndPage = valid[i+1].StartPage - 1
		} else {
			valid[i].EndPage = pageCount
		}
		if valid[i].EndPage < valid[i].StartPage {
			valid[i].EndPage = valid[i].StartPage
		}
	}
	return valid
}

// mergeShortChapters folds chapters shorter than minPages into their
// successor so tiny front-matter sections do not become chunks of
// their own. A short final chapter merges backward instead.
func mergeShortChapters(chapters []Chapter, minPages int) []Chapter {
	if minPages <= 1 || len(chapters) < 2 {
		return chapters
	}
	var merged []Chapter
	var pending *Chapter
	for i := range chapters {
		ch := chapters[i]
		if pending != nil {
			ch.StartPage = pending.StartPage
			if pending.Title != "" && ch.Title != "" {
				ch.Title = pending.Title + " / " + ch.Title
			} else if ch.Title == "" {
				ch.Title = pending.Title
			}
			pending = nil
		}
		if ch.EndPage-ch.StartPage+1 < minPages && i+1 < len(chapters) {
			pending = &ch
			continue
		}
		merged = append(merged, ch)
	}
	if pending != nil {
		// Everything after the last full chapter was short.
		if len(merged) > 0 {
			merged[len(merged)-1].EndPage = pending.EndPage
		} else {
			merged = append(merged, *pending)
		}
	}

	// A short final chapter folds into the one before it.
	if len(merged) >= 2 {
		last := merged[len(merged)-1]
		if last.EndPage-last.StartPage+1 < minPages {
			merged[len(merged)-2].EndPage = last.EndPage
			merged = merged[:len(merged)-1]
		}
	}
	return merged
}

// capChunkSize subdivides any chapter longer than maxPages into
// consecutive parts.
func capChunkSize(chapters []Chapter, maxPages int) []Chapter {
	if maxPages <= 0 {
		return chapters
	}
	var out []Chapter
	for _, ch := range chapters {
		size := ch.EndPage - ch.StartPage + 1
		if size <= maxPages {
			out = append(out, ch)
			continue
		}
		part := 1
		for start := ch.StartPage; start <= ch.EndPage; start += maxPages {
			end := start + maxPages - 1
			if end > ch.EndPage {
				end = ch.EndPage
			}
			out = append(out, Chapter{
				Title:     fmt.Sprintf("%s (part %d)", ch.Title, part),
				StartPage: start,
				EndPage:   end,
			})
			part++
		}
	}
	return out
}

// fixedChunks covers pageCount pages with consecutive chunks of at
// most maxPages each.
func fixedChunks(pageCount, maxPages int) []Chapter {
	if maxPages <= 0 {
		maxPages = pageCount
	}
	var chapters []Chapter
	part := 1
	for start := 1; start <= pageCount; start += maxPages {
		end := start + maxPages - 1
		if end > pageCount {
			end = pageCount
		}
		chapters = append(chapters, Chapter{
			Title:     fmt.Sprintf("Part %d", part),
			StartPage: start,
			EndPage:   end,
		})
		part++
	}
	return chapters
}
