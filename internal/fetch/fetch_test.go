// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import "testing"

func TestResolve(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name       string
		identifier string
		wantSource string
		wantID     string
		wantNone   bool
	}{
		// arXiv forms.
		{"arxiv modern", "2301.07041", "arxiv", "2301.07041", false},
		{"arxiv with version", "2301.07041v2", "arxiv", "2301.07041v2", false},
		{"arxiv prefixed", "arXiv:2301.07041", "arxiv", "2301.07041", false},
		{"arxiv old style", "hep-th/9901001", "arxiv", "hep-th/9901001", false},
		{"arxiv old style prefixed", "arxiv:hep-th/9901001", "arxiv", "hep-th/9901001", false},

		// DOI forms.
		{"bare doi", "10.1145/1234567.1234568", "doi", "10.1145/1234567.1234568", false},
		{"doi prefix", "doi:10.1257/aer.20170001", "doi", "10.1257/aer.20170001", false},
		{"doi url", "https://doi.org/10.1257/aer.20170001", "doi", "10.1257/aer.20170001", false},
		{"doi dx url", "http://dx.doi.org/10.1257/aer.20170001", "doi", "10.1257/aer.20170001", false},

		// SSRN forms. Bare 6-8 digit numbers resolve to SSRN because it
		// registers ahead of NBER at the same priority.
		{"ssrn prefixed", "ssrn:1234567", "ssrn", "1234567", false},
		{"ssrn id form", "SSRN-id1234567", "ssrn", "1234567", false},
		{"bare seven digits", "1234567", "ssrn", "1234567", false},

		// NBER forms.
		{"nber w prefix", "w29000", "nber", "29000", false},
		{"nber full prefix", "nber:w29000", "nber", "29000", false},
		{"nber bare short", "29000", "nber", "29000", false},

		// Direct URLs.
		{"https url", "https://example.com/paper.pdf", "url", "https://example.com/paper.pdf", false},
		{"http url", "http://example.com/paper.pdf", "url", "http://example.com/paper.pdf", false},

		// Unrecognized.
		{"garbage", "not-an-identifier", "", "", true},
		{"empty", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, ok := reg.Resolve(tt.identifier)
			if tt.wantNone {
				if ok {
					t.Fatalf("Resolve(%q) matched %s, want no match", tt.identifier, resolved.Fetcher.Name())
				}
				return
			}
			if !ok {
				t.Fatalf("Resolve(%q) found no fetcher", tt.identifier)
			}
			if got := resolved.Fetcher.Name(); got != tt.wantSource {
				t.Errorf("Resolve(%q) source = %q, want %q", tt.identifier, got, tt.wantSource)
			}
			if resolved.Identifier != tt.wantID {
				t.Errorf("Resolve(%q) id = %q, want %q", tt.identifier, resolved.Identifier, tt.wantID)
			}
		})
	}
}

func TestResolveAll_OverlappingDigits(t *testing.T) {
	reg := DefaultRegistry()

	// A six-digit number is valid for both SSRN and NBER.
	candidates := reg.ResolveAll("123456")
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Fetcher.Name() != "ssrn" || candidates[1].Fetcher.Name() != "nber" {
		t.Errorf("candidate order = [%s, %s], want [ssrn, nber]",
			candidates[0].Fetcher.Name(), candidates[1].Fetcher.Name())
	}
}

func TestPDFURLs(t *testing.T) {
	tests := []struct {
		name    string
		fetcher Fetcher
		id      string
		want    string
	}{
		{"arxiv", &ArxivFetcher{}, "2301.07041", arxivPDFBase + "2301.07041"},
		{"doi", &DOIFetcher{}, "10.1257/aer.20170001", doiBase + "10.1257/aer.20170001"},
		{"ssrn", &SSRNFetcher{}, "1234567", ssrnPDFBase + "?abstractid=1234567"},
		{"nber", &NBERFetcher{}, "29000", nberBase + "/system/files/working_papers/w29000/w29000.pdf"},
		{"url passthrough", &URLFetcher{}, "https://example.com/x.pdf", "https://example.com/x.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fetcher.PDFURL(tt.id); got != tt.want {
				t.Errorf("PDFURL(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestFilenames(t *testing.T) {
	tests := []struct {
		name    string
		fetcher Fetcher
		id      string
		want    string
	}{
		{"arxiv modern", &ArxivFetcher{}, "2301.07041", "2301.07041.pdf"},
		{"arxiv old slash replaced", &ArxivFetcher{}, "hep-th/9901001", "hep-th-9901001.pdf"},
		{"doi slashes replaced", &DOIFetcher{}, "10.1145/123.456", "10.1145-123.456.pdf"},
		{"ssrn", &SSRNFetcher{}, "1234567", "ssrn-1234567.pdf"},
		{"nber", &NBERFetcher{}, "29000", "nber-w29000.pdf"},
		{"url basename", &URLFetcher{}, "https://example.com/papers/wp2020.pdf", "wp2020.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fetcher.Filename(tt.id); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "paper", "paper"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"encoded traversal", "..%2F..%2Fetc%2Fpasswd", "passwd"},
		{"leading dots", "...hidden", "hidden"},
		{"unsafe chars", "my paper (final).v2", "my_paper__final__v2"},
		{"empty", "", "download"},
		{"only dots", "...", "download"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
