// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grind

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

const notAvailable = "N/A"

// extractionSystemPrompt frames every extraction call.
const extractionSystemPrompt = "You are a meticulous research assistant extracting structured evidence from academic papers. Answer only from the paper's content, never from outside knowledge."

// extractionPromptTmpl wraps the schema's field list around one paper's
// Markdown content.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`{{.FieldList}}

Respond with a single JSON object. Each key is a field name; each value is an object with "value" (the extracted answer), "quote" (a short supporting quote from the paper), and "page" (the page number, 0 if unknown). Do not include any text outside the JSON object.

Paper content:

{{.Content}}
`))

// Grinder extracts schema fields from papers through an AI backend.
type Grinder struct {
	Backend AIBackend
	Schema  *types.Schema
	Config  types.GrindingConfig
}

// NewGrinder creates a Grinder.
func NewGrinder(backend AIBackend, schema *types.Schema, cfg types.GrindingConfig) *Grinder {
	return &Grinder{Backend: backend, Schema: schema, Config: cfg}
}

// BatchSummary holds counts from a batch grinding run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of papers processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any papers failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// GrindAll extracts every listed paper into the matrix, skipping papers
// already present unless force is set. Per-paper failures do not stop
// the batch.
func (g *Grinder) GrindAll(ctx context.Context, entries []*types.PaperEntry, matrix *types.Matrix, force bool, w io.Writer) BatchSummary {
	var summary BatchSummary
	for _, e := range entries {
		if e.MarkdownPath == "" {
			fmt.Fprintf(w, "skipped %s (not converted)\n", e.Filename)
			summary.Skipped++
			continue
		}
		if !force && matrix.Paper(e.ID) != nil {
			fmt.Fprintf(w, "skipped %s (already extracted)\n", e.Filename)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "grinding %s\n", e.Filename)
		extraction, err := g.GrindPaper(ctx, e)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", e.Filename, err)
			summary.Failed++
			continue
		}
		matrix.AddPaper(extraction)
		summary.Extracted++
	}
	fmt.Fprintf(w, "\nGrind summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		summary.Extracted, summary.Skipped, summary.Failed, summary.Total())
	return summary
}

// GrindPaper extracts the schema's fields from one paper's Markdown.
func (g *Grinder) GrindPaper(ctx context.Context, entry *types.PaperEntry) (*types.PaperExtraction, error) {
	content, err := os.ReadFile(entry.MarkdownPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(entry.MarkdownPath), err)
	}

	prompt, err := g.buildPrompt(string(content))
	if err != nil {
		return nil, err
	}

	response, err := callWithRetry(ctx, g.Backend, extractionSystemPrompt, prompt, g.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", entry.Filename, err)
	}

	extraction := &types.PaperExtraction{
		PaperID:     entry.ID,
		Title:       entry.Title,
		BibtexKey:   entry.BibtexKey,
		Extractions: map[string]types.ExtractedValue{},
	}
	g.parseResponse(response, extraction)
	g.fillMissingRequired(extraction)
	return extraction, nil
}

// buildPrompt renders the extraction prompt with the paper content
// truncated to the configured limit.
func (g *Grinder) buildPrompt(content string) (string, error) {
	maxChars := g.Config.MaxContentChars
	if maxChars <= 0 {
		maxChars = 100000
	}
	if len(content) > maxChars {
		content = content[:maxChars] + "\n\n[Content truncated...]"
	}

	var buf strings.Builder
	err := extractionPromptTmpl.Execute(&buf, struct {
		FieldList string
		Content   string
	}{
		FieldList: g.Schema.ExtractionPrompt(),
		Content:   content,
	})
	if err != nil {
		return "", fmt.Errorf("rendering extraction prompt: %w", err)
	}
	return buf.String(), nil
}

// rawExtraction mirrors the JSON shape the model is asked to produce
// for each field.
type rawExtraction struct {
	Value json.RawMessage `json:"value"`
	Quote string          `json:"quote"`
	Page  int             `json:"page"`
}

// parseResponse fills the extraction from the model response. The JSON
// object is located inside the response (tolerating code fences and
// leading prose); if no JSON parses, a line-based "key: value" scrape
// is used as a last resort.
func (g *Grinder) parseResponse(response string, extraction *types.PaperExtraction) {
	raw := map[string]rawExtraction{}
	if jsonText, ok := findJSONObject(response); ok {
		if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
			raw = nil
		}
	}

	if len(raw) > 0 {
		for _, field := range g.Schema.Fields {
			r, ok := raw[field.Key]
			if !ok {
				continue
			}
			value, confidence := coerceValue(decodeRaw(r.Value), field)
			extraction.Extractions[field.Key] = types.ExtractedValue{
				Value:       value,
				SourceQuote: r.Quote,
				Page:        r.Page,
				Confidence:  confidence,
			}
		}
		return
	}

	// Fallback: scrape "key: value" lines.
	for _, field := range g.Schema.Fields {
		if v, ok := scrapeLine(response, field.Key); ok {
			value, confidence := coerceValue(v, field)
			extraction.Extractions[field.Key] = types.ExtractedValue{
				Value:      value,
				Confidence: confidence * 0.5,
			}
		}
	}
}

// fillMissingRequired marks absent required fields as N/A at zero
// confidence so the matrix stays rectangular.
func (g *Grinder) fillMissingRequired(extraction *types.PaperExtraction) {
	for _, field := range g.Schema.Fields {
		if !field.Required {
			continue
		}
		if _, ok := extraction.Extractions[field.Key]; !ok {
			extraction.Extractions[field.Key] = types.ExtractedValue{
				Value:      notAvailable,
				Confidence: 0,
			}
		}
	}
}

// findJSONObject locates the outermost {...} in text, skipping code
// fences and any prose before or after it.
func findJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// scrapeLine finds a "key: value" line for the field key.
func scrapeLine(text, key string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-* ")
		rest, ok := cutPrefixFold(line, key)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, ":") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		value = strings.Trim(value, `"'`)
		if value != "" {
			return value, true
		}
	}
	return "", false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// decodeRaw turns the model's raw JSON value into a Go value.
func decodeRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return strings.Trim(string(raw), `"`)
	}
	return v
}

// coerceValue converts a model-supplied value to the field's type,
// returning the coerced value and a confidence in [0, 1]. Values that
// cannot be coerced keep their string form at reduced confidence.
func coerceValue(v any, field types.SchemaField) (any, float64) {
	if v == nil {
		return notAvailable, 0
	}
	s := valueString(v)
	if s == "" || strings.EqualFold(s, notAvailable) || strings.EqualFold(s, "not applicable") || strings.EqualFold(s, "none") {
		return notAvailable, 0
	}

	switch field.Type {
	case types.FieldInteger:
		if n, ok := toInt(v); ok {
			return n, 1.0
		}
		return s, 0.3
	case types.FieldFloat:
		if f, ok := toFloat(v); ok {
			return f, 1.0
		}
		return s, 0.3
	case types.FieldBoolean:
		if b, ok := toBool(s); ok {
			return b, 1.0
		}
		return s, 0.3
	case types.FieldCategorical:
		if opt, ok := matchOption(s, field.Options); ok {
			return opt, 1.0
		}
		return s, 0.3
	case types.FieldList:
		return toList(v), 1.0
	default:
		return s, 1.0
	}
}

func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = valueString(e)
		}
		return strings.Join(parts, "; ")
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// toInt accepts JSON numbers and strings with separators ("10,000
// individuals" becomes 10000).
func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		digits := extractNumber(t)
		if digits == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			// A decimal point slipped in; truncate.
			if f, ferr := strconv.ParseFloat(digits, 64); ferr == nil {
				return int64(f), true
			}
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		digits := extractNumber(t)
		if digits == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(digits, 64)
		return f, err == nil
	}
	return 0, false
}

// extractNumber pulls the first numeric run out of a string, dropping
// thousands separators.
func extractNumber(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c == '-' && start < 0 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if c == '.' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				continue
			}
			return s[start:i]
		}
	}
	if start < 0 {
		return ""
	}
	return s[start:]
}

func toBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "yes", "true", "y", "1":
		return true, true
	case "no", "false", "n", "0":
		return false, true
	}
	return false, false
}

// matchOption maps a value onto a categorical option, trying
// case-insensitive exact match first, then substring containment.
func matchOption(s string, options []string) (string, bool) {
	for _, opt := range options {
		if strings.EqualFold(s, opt) {
			return opt, true
		}
	}
	lower := strings.ToLower(s)
	for _, opt := range options {
		if strings.Contains(lower, strings.ToLower(opt)) {
			return opt, true
		}
	}
	return "", false
}

func toList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, valueString(e))
		}
		return out
	case string:
		var out []string
		for _, part := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ';' }) {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return []string{valueString(v)}
}
