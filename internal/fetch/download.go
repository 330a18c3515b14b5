// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/papercutter/internal/httputil"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Paths      []string
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchPaper resolves an identifier through the registry and downloads
// the PDF into cfg.OutputDir. Candidate sources are tried in priority
// order until one succeeds. If the target file already exists the
// download is skipped.
func FetchPaper(ctx context.Context, client *http.Client, reg *Registry, identifier string, cfg types.FetchConfig, w io.Writer) (pdfPath string, skipped bool, err error) {
	candidates := reg.ResolveAll(identifier)
	if len(candidates) == 0 {
		return "", false, fmt.Errorf("unrecognized identifier format: %q", identifier)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating output directory: %w", err)
	}

	var lastErr error
	for _, c := range candidates {
		destPath := filepath.Join(cfg.OutputDir, c.Fetcher.Filename(c.Identifier))

		if _, err := os.Stat(destPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", filepath.Base(destPath))
			return destPath, true, nil
		}

		pdfURL := c.Fetcher.PDFURL(c.Identifier)
		logrus.WithFields(logrus.Fields{
			"identifier": c.Identifier,
			"source":     c.Fetcher.Name(),
			"url":        pdfURL,
		}).Debug("trying download source")

		fmt.Fprintf(w, "downloading: %s (%s)\n", c.Identifier, c.Fetcher.Name())

		if err := downloadFile(ctx, client, pdfURL, destPath, cfg); err != nil {
			logrus.WithError(err).WithField("source", c.Fetcher.Name()).Debug("source failed")
			lastErr = fmt.Errorf("%s: %w", c.Fetcher.Name(), err)
			continue
		}
		return destPath, false, nil
	}

	return "", false, fmt.Errorf("downloading %q: %w", identifier, lastErr)
}

// FetchBatch processes multiple identifiers, printing per-item status
// and returning a summary. It continues after individual failures and
// applies a delay between consecutive downloads.
func FetchBatch(ctx context.Context, client *http.Client, reg *Registry, identifiers []string, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, id := range identifiers {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		path, wasSkipped, err := FetchPaper(ctx, client, reg, id, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Paths = append(result.Paths, path)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath using a temporary file, renamed
// on success. It sets User-Agent and requests PDF via Accept header;
// throttled responses are retried with backoff.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.FetchConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	// DOI resolution often lands on an HTML landing page with a 200.
	// Accept only responses that look like a PDF.
	magic := make([]byte, 5)
	n, _ := io.ReadFull(resp.Body, magic)
	contentType := resp.Header.Get("Content-Type")
	if !bytes.HasPrefix(magic[:n], []byte("%PDF-")) &&
		!strings.Contains(strings.ToLower(contentType), "pdf") {
		return fmt.Errorf("not a PDF from %s (Content-Type %q)", url, contentType)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, io.MultiReader(bytes.NewReader(magic[:n]), resp.Body))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
