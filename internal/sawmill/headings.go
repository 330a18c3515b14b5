// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sawmill

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/mesh-intelligence/papercutter/internal/convert"
)

// headingScanLines is how many leading lines of each page are checked
// for a chapter heading.
const headingScanLines = 5

// headingRE matches chapter-style headings: "Chapter 3", "Part II",
// "Appendix B", and the like.
var headingRE = regexp.MustCompile(`(?i)^(chapter|part|section|appendix|lecture|unit|module)\s+([0-9]+|[ivxlc]+|[A-Z])\b`)

// headingChapters detects chapter starts from heading patterns in each
// page's extracted text. Used when the document has no usable outline.
func (s *Splitter) headingChapters(path string, pageCount int) ([]Chapter, error) {
	tmpDir, err := os.MkdirTemp("", "sawmill-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractContentFile(path, tmpDir, nil, s.conf); err != nil {
		return nil, fmt.Errorf("extracting page text from %s: %w", filepath.Base(path), err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var chapters []Chapter
	for page := 1; page <= pageCount; page++ {
		pagePath := filepath.Join(tmpDir, fmt.Sprintf("%s_Content_page_%d.txt", base, page))
		data, err := os.ReadFile(pagePath)
		if err != nil {
			continue
		}
		if title, ok := pageHeading(convert.PageText(string(data))); ok {
			chapters = append(chapters, Chapter{Title: title, StartPage: page})
		}
	}
	return assignEndPages(chapters, pageCount), nil
}

// pageHeading checks the first few lines of page text for a
// chapter-style heading and returns it as the chapter title.
func pageHeading(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > headingScanLines {
		lines = lines[:headingScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 80 {
			continue
		}
		if headingRE.MatchString(line) {
			return line, true
		}
	}
	return "", false
}
