// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CollectPDFs expands the given inputs into a sorted list of PDF paths.
// A directory contributes every .pdf file directly inside it; a file
// must exist and have a .pdf extension.
func CollectPDFs(inputs []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("reading input %q: %w", in, err)
		}

		if !info.IsDir() {
			if !isPDF(in) {
				return nil, fmt.Errorf("not a PDF file: %s", in)
			}
			add(in)
			continue
		}

		dirEntries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("reading directory %q: %w", in, err)
		}
		for _, de := range dirEntries {
			if de.IsDir() || !isPDF(de.Name()) {
				continue
			}
			add(filepath.Join(in, de.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
