// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// FallbackConverter extracts raw page text directly from the PDF. The
// output is plain paragraphs with page markers, far rougher than
// docling's structured Markdown, but it needs no container runtime.
type FallbackConverter struct {
	conf *model.Configuration
}

// NewFallbackConverter creates a text-extraction converter.
func NewFallbackConverter() *FallbackConverter {
	return &FallbackConverter{conf: model.NewDefaultConfiguration()}
}

func (f *FallbackConverter) Method() types.ExtractionMethod { return types.MethodFallback }

// Convert extracts the text of every page and stitches the pages
// together with HTML-comment page markers, so later stages can cite
// page numbers.
func (f *FallbackConverter) Convert(pdfPath string) (string, error) {
	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("counting pages in %s: %w", pdfPath, err)
	}

	tempDir, err := os.MkdirTemp("", "papercutter-extract-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := api.ExtractContentFile(pdfPath, tempDir, nil, f.conf); err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", pdfPath, err)
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	var b strings.Builder
	nonEmpty := 0
	for page := 1; page <= pageCount; page++ {
		pagePath := filepath.Join(tempDir, fmt.Sprintf("%s_Content_page_%d.txt", base, page))
		data, err := os.ReadFile(pagePath)
		if err != nil {
			// Pages without text content produce no file.
			logrus.WithField("page", page).Debug("no extractable text")
			continue
		}
		text := strings.TrimSpace(PageText(string(data)))
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "<!-- page %d -->\n\n%s\n\n", page, text)
		nonEmpty++
	}

	if nonEmpty == 0 {
		return "", fmt.Errorf("no extractable text in %s (scanned document?)", pdfPath)
	}
	return b.String(), nil
}

// FirstPagesText extracts the text of up to maxPages leading pages.
// Used for lightweight metadata scraping before full conversion.
func FirstPagesText(pdfPath string, maxPages int) (string, error) {
	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("counting pages in %s: %w", pdfPath, err)
	}
	if pageCount < maxPages {
		maxPages = pageCount
	}

	tempDir, err := os.MkdirTemp("", "papercutter-scrape-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pages := make([]string, 0, maxPages)
	for p := 1; p <= maxPages; p++ {
		pages = append(pages, fmt.Sprintf("%d", p))
	}
	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(pdfPath, tempDir, pages, conf); err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", pdfPath, err)
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	var b strings.Builder
	for p := 1; p <= maxPages; p++ {
		data, err := os.ReadFile(filepath.Join(tempDir, fmt.Sprintf("%s_Content_page_%d.txt", base, p)))
		if err != nil {
			continue
		}
		if text := PageText(string(data)); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
