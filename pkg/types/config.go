// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "papercutter/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-20250514").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FetchConfig holds settings for downloading papers from external sources.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// OutputDir is the directory fetched PDFs are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// SawmillConfig controls splitting of oversized PDFs before conversion.
type SawmillConfig struct {
	// SplitThreshold is the page count above which a PDF is split (default 500).
	SplitThreshold int `json:"split_threshold" yaml:"split_threshold"`

	// MinChapterPages is the minimum page count for a detected chapter (default 3).
	MinChapterPages int `json:"min_chapter_pages" yaml:"min_chapter_pages"`

	// MaxChunkPages caps fixed-size chunks when no structure is found (default 100).
	MaxChunkPages int `json:"max_chunk_pages" yaml:"max_chunk_pages"`
}

// GrindingConfig holds settings for evidence extraction.
type GrindingConfig struct {
	AIConfig `yaml:",inline"`

	// MaxContentChars limits how much of a paper's Markdown is sent to the
	// model per extraction call (default 100000).
	MaxContentChars int `json:"max_content_chars" yaml:"max_content_chars"`
}

// ReportFormat selects the report output format.
type ReportFormat string

const (
	ReportLaTeX    ReportFormat = "latex"
	ReportMarkdown ReportFormat = "markdown"
)

// ReportingConfig holds settings for report generation.
type ReportingConfig struct {
	// Format selects the output format: latex or markdown.
	Format ReportFormat `json:"format" yaml:"format"`

	// BibliographyStyle is the citation style passed through to the
	// rendered document (e.g. "apalike").
	BibliographyStyle string `json:"bibliography_style" yaml:"bibliography_style"`

	// IncludeMatrix controls whether the evidence matrix table is rendered.
	IncludeMatrix bool `json:"include_matrix" yaml:"include_matrix"`

	// IncludeSummaries controls whether per-paper one-pagers are rendered.
	IncludeSummaries bool `json:"include_summaries" yaml:"include_summaries"`

	// IncludeAppendix controls whether the appendix contribution list is rendered.
	IncludeAppendix bool `json:"include_appendix" yaml:"include_appendix"`

	// TemplatePath overrides the built-in template when set.
	TemplatePath string `json:"template_path,omitempty" yaml:"template_path,omitempty"`
}

// ProjectConfig is the persisted per-project configuration, stored at
// .papercutter/config.yaml.
type ProjectConfig struct {
	// Name is the project name, used as the default report title.
	Name string `json:"name" yaml:"name"`

	// BibtexPath is the bibliography file, relative to the project root.
	BibtexPath string `json:"bibtex_path,omitempty" yaml:"bibtex_path,omitempty"`

	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Sawmill   SawmillConfig   `json:"sawmill" yaml:"sawmill"`
	Grinding  GrindingConfig  `json:"grinding" yaml:"grinding"`
	Reporting ReportingConfig `json:"reporting" yaml:"reporting"`
}

// DefaultProjectConfig returns a ProjectConfig with every knob at its default.
func DefaultProjectConfig(name string) ProjectConfig {
	return ProjectConfig{
		Name: name,
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "papercutter/0.1",
			},
			DownloadDelay: 1 * time.Second,
		},
		Sawmill: SawmillConfig{
			SplitThreshold:  500,
			MinChapterPages: 3,
			MaxChunkPages:   100,
		},
		Grinding: GrindingConfig{
			AIConfig: AIConfig{
				Model:      "claude-sonnet-4-20250514",
				MaxRetries: 3,
			},
			MaxContentChars: 100000,
		},
		Reporting: ReportingConfig{
			Format:            ReportLaTeX,
			BibliographyStyle: "apalike",
			IncludeMatrix:     true,
			IncludeSummaries:  true,
			IncludeAppendix:   true,
		},
	}
}
