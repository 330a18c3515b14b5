// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/papercutter/internal/httputil"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

func testFetchConfig(dir string) types.FetchConfig {
	cfg := types.DefaultProjectConfig("test").Fetch
	cfg.OutputDir = dir
	cfg.DownloadDelay = 0
	return cfg
}

func TestFetchPaper_DownloadsArxivPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/pdf/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.5 fake content"))
	}))
	defer server.Close()

	oldBase := arxivPDFBase
	arxivPDFBase = server.URL + "/pdf/"
	defer func() { arxivPDFBase = oldBase }()

	dir := t.TempDir()
	path, skipped, err := FetchPaper(context.Background(), server.Client(), DefaultRegistry(),
		"arXiv:2301.07041", testFetchConfig(dir), &strings.Builder{})
	if err != nil {
		t.Fatalf("FetchPaper() error: %v", err)
	}
	if skipped {
		t.Error("FetchPaper() reported skipped for a fresh download")
	}
	if want := filepath.Join(dir, "2301.07041.pdf"); path != want {
		t.Errorf("FetchPaper() path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Errorf("downloaded content = %q, want PDF bytes", data)
	}
}

func TestFetchPaper_SkipsExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "2301.07041.pdf")
	if err := os.WriteFile(existing, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}

	// No server: a network attempt would fail, so success proves the
	// existing file short-circuited the download.
	var out strings.Builder
	path, skipped, err := FetchPaper(context.Background(), http.DefaultClient, DefaultRegistry(),
		"2301.07041", testFetchConfig(dir), &out)
	if err != nil {
		t.Fatalf("FetchPaper() error: %v", err)
	}
	if !skipped {
		t.Error("FetchPaper() skipped = false, want true")
	}
	if path != existing {
		t.Errorf("FetchPaper() path = %q, want %q", path, existing)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("progress output %q missing skip notice", out.String())
	}
}

func TestFetchPaper_RetriesThrottledResponses(t *testing.T) {
	oldDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = 0
	defer func() { httputil.RetryBaseDelay = oldDelay }()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("%PDF-1.5"))
	}))
	defer server.Close()

	oldBase := arxivPDFBase
	arxivPDFBase = server.URL + "/pdf/"
	defer func() { arxivPDFBase = oldBase }()

	_, _, err := FetchPaper(context.Background(), server.Client(), DefaultRegistry(),
		"2301.07041", testFetchConfig(t.TempDir()), &strings.Builder{})
	if err != nil {
		t.Fatalf("FetchPaper() error after throttling: %v", err)
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3", attempts)
	}
}

func TestFetchPaper_RejectsHTMLLandingPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>Purchase this article for $39.95</body></html>"))
	}))
	defer server.Close()

	oldBase := arxivPDFBase
	arxivPDFBase = server.URL + "/pdf/"
	defer func() { arxivPDFBase = oldBase }()

	dir := t.TempDir()
	_, _, err := FetchPaper(context.Background(), server.Client(), DefaultRegistry(),
		"2301.07041", testFetchConfig(dir), &strings.Builder{})
	if err == nil {
		t.Fatal("FetchPaper() accepted an HTML landing page")
	}
	if !strings.Contains(err.Error(), "not a PDF") {
		t.Errorf("error = %v, want not-a-PDF message", err)
	}

	// Nothing should be committed to the output directory.
	if _, statErr := os.Stat(filepath.Join(dir, "2301.07041.pdf")); statErr == nil {
		t.Error("landing page was saved as a PDF")
	}
}

func TestFetchPaper_UnrecognizedIdentifier(t *testing.T) {
	_, _, err := FetchPaper(context.Background(), http.DefaultClient, DefaultRegistry(),
		"not a real id", testFetchConfig(t.TempDir()), &strings.Builder{})
	if err == nil {
		t.Fatal("FetchPaper() expected error for unrecognized identifier")
	}
	if !strings.Contains(err.Error(), "unrecognized identifier") {
		t.Errorf("error = %v, want unrecognized identifier message", err)
	}
}

func TestFetchBatch_ContinuesAfterFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "9999.99999") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("%PDF-1.5"))
	}))
	defer server.Close()

	oldBase := arxivPDFBase
	arxivPDFBase = server.URL + "/pdf/"
	defer func() { arxivPDFBase = oldBase }()

	var out strings.Builder
	result := FetchBatch(context.Background(), server.Client(), DefaultRegistry(),
		[]string{"2301.07041", "9999.99999", "2105.01601"}, testFetchConfig(t.TempDir()), &out)

	if result.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2", result.Downloaded)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Total() != 3 {
		t.Errorf("Total() = %d, want 3", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
	if !strings.Contains(out.String(), "Batch summary: 2 downloaded, 0 skipped, 1 failed (total: 3)") {
		t.Errorf("output missing batch summary:\n%s", out.String())
	}
}

func TestArxivMetadata(t *testing.T) {
	const feed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Attention Is All You Need</title>
    <summary>We propose a new architecture, the Transformer.</summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
</feed>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_list") != "1706.03762" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(feed))
	}))
	defer server.Close()

	oldBase := arxivAPIBase
	arxivAPIBase = server.URL + "/api/query"
	defer func() { arxivAPIBase = oldBase }()

	meta, err := ArxivMetadata(context.Background(), server.Client(), "1706.03762",
		testFetchConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("ArxivMetadata() error: %v", err)
	}
	if meta.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", meta.Title)
	}
	if len(meta.Authors) != 2 || meta.Authors[0] != "Ashish Vaswani" {
		t.Errorf("Authors = %v", meta.Authors)
	}
	if meta.Year != 2017 {
		t.Errorf("Year = %d, want 2017", meta.Year)
	}
}
