// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grind

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// mockBackend returns canned responses in order, or a configured error.
type mockBackend struct {
	responses []string
	err       error
	calls     int
	prompts   []string
	systems   []string
}

func (m *mockBackend) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.calls++
	m.systems = append(m.systems, system)
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	i := m.calls - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func testSchema() *types.Schema {
	s := types.NewSchema("test")
	s.AddField(types.SchemaField{Key: "sample_size", Description: "Number of observations", Type: types.FieldInteger, Required: true})
	s.AddField(types.SchemaField{Key: "methodology", Description: "Estimation strategy", Type: types.FieldCategorical, Required: true, Options: []string{"DiD", "RDD", "IV", "OLS"}})
	s.AddField(types.SchemaField{Key: "panel_data", Description: "Uses panel data", Type: types.FieldBoolean, Required: false})
	s.AddField(types.SchemaField{Key: "effect_size", Description: "Main effect size", Type: types.FieldFloat, Required: false})
	s.AddField(types.SchemaField{Key: "data_sources", Description: "Datasets used", Type: types.FieldList, Required: false})
	return s
}

func writeMarkdown(t *testing.T, content string) *types.PaperEntry {
	t.Helper()
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "paper.md")
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return &types.PaperEntry{
		ID:           "abc123def456",
		Filename:     "paper.pdf",
		Title:        "Test Paper",
		BibtexKey:    "smith2020test",
		MarkdownPath: mdPath,
	}
}

func TestGrindPaper_ParsesJSONResponse(t *testing.T) {
	backend := &mockBackend{responses: []string{`Here are the extracted fields:

` + "```json" + `
{
  "sample_size": {"value": "10,000 individuals", "quote": "our sample of 10,000 individuals", "page": 4},
  "methodology": {"value": "difference-in-differences (DiD)", "quote": "we use a DiD design", "page": 6},
  "panel_data": {"value": "yes", "quote": "", "page": 0},
  "effect_size": {"value": "-3.5", "quote": "a 3.5 percent decline", "page": 12},
  "data_sources": {"value": ["CPS", "ACS"], "quote": "", "page": 0}
}
` + "```"}}

	g := NewGrinder(backend, testSchema(), types.GrindingConfig{})
	entry := writeMarkdown(t, "# Test Paper\n\nBody text.")

	extraction, err := g.GrindPaper(context.Background(), entry)
	if err != nil {
		t.Fatalf("GrindPaper() error: %v", err)
	}

	if extraction.PaperID != "abc123def456" || extraction.BibtexKey != "smith2020test" {
		t.Errorf("identity fields not carried: %+v", extraction)
	}

	size := extraction.Extractions["sample_size"]
	if size.Value != int64(10000) {
		t.Errorf("sample_size = %v (%T), want 10000", size.Value, size.Value)
	}
	if size.Page != 4 || size.SourceQuote == "" {
		t.Errorf("sample_size provenance = %+v", size)
	}

	if got := extraction.Extractions["methodology"].Value; got != "DiD" {
		t.Errorf("methodology = %v, want DiD (matched from options)", got)
	}
	if got := extraction.Extractions["panel_data"].Value; got != true {
		t.Errorf("panel_data = %v, want true", got)
	}
	if got := extraction.Extractions["effect_size"].Value; got != -3.5 {
		t.Errorf("effect_size = %v, want -3.5", got)
	}
	if got := extraction.Extractions["data_sources"].Value; !equalStrings(got, []string{"CPS", "ACS"}) {
		t.Errorf("data_sources = %v, want [CPS ACS]", got)
	}
}

func equalStrings(v any, want []string) bool {
	got, ok := v.([]string)
	if !ok || len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestGrindPaper_MissingRequiredFilledNA(t *testing.T) {
	backend := &mockBackend{responses: []string{`{"panel_data": {"value": "no"}}`}}
	g := NewGrinder(backend, testSchema(), types.GrindingConfig{})
	entry := writeMarkdown(t, "body")

	extraction, err := g.GrindPaper(context.Background(), entry)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"sample_size", "methodology"} {
		ev, ok := extraction.Extractions[key]
		if !ok {
			t.Fatalf("required field %s absent", key)
		}
		if ev.Value != "N/A" || ev.Confidence != 0 {
			t.Errorf("%s = %+v, want N/A at confidence 0", key, ev)
		}
	}
	if _, ok := extraction.Extractions["effect_size"]; ok {
		t.Error("optional missing field should stay absent")
	}
}

func TestGrindPaper_LineScrapeFallback(t *testing.T) {
	backend := &mockBackend{responses: []string{
		"I could not produce JSON, but here is what I found:\n\n- sample_size: 2,500\n- methodology: RDD\n",
	}}
	g := NewGrinder(backend, testSchema(), types.GrindingConfig{})
	entry := writeMarkdown(t, "body")

	extraction, err := g.GrindPaper(context.Background(), entry)
	if err != nil {
		t.Fatal(err)
	}

	if got := extraction.Extractions["sample_size"].Value; got != int64(2500) {
		t.Errorf("sample_size = %v, want 2500", got)
	}
	if got := extraction.Extractions["methodology"].Value; got != "RDD" {
		t.Errorf("methodology = %v, want RDD", got)
	}
	if conf := extraction.Extractions["sample_size"].Confidence; conf >= 1.0 {
		t.Errorf("scraped confidence = %v, want reduced", conf)
	}
}

func TestGrindPaper_TruncatesLongContent(t *testing.T) {
	backend := &mockBackend{responses: []string{`{}`}}
	g := NewGrinder(backend, testSchema(), types.GrindingConfig{MaxContentChars: 100})
	entry := writeMarkdown(t, strings.Repeat("x", 500))

	if _, err := g.GrindPaper(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(backend.prompts[0], "[Content truncated...]") {
		t.Error("prompt should carry the truncation marker")
	}
	if strings.Count(backend.prompts[0], "x") > 120 {
		t.Error("content was not truncated")
	}
}

func TestGrindPaper_RetriesOnBackendError(t *testing.T) {
	oldBase := backoffBase
	backoffBase = 0
	defer func() { backoffBase = oldBase }()

	backend := &mockBackend{err: errors.New("rate limited")}
	g := NewGrinder(backend, testSchema(), types.GrindingConfig{AIConfig: types.AIConfig{MaxRetries: 2}})
	entry := writeMarkdown(t, "body")

	_, err := g.GrindPaper(context.Background(), entry)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if backend.calls != 3 {
		t.Errorf("backend called %d times, want 3 (initial + 2 retries)", backend.calls)
	}
	if !strings.Contains(err.Error(), "after 2 retries") {
		t.Errorf("error = %v, want retry count mentioned", err)
	}
}

func TestGrindAll_SkipsAndContinues(t *testing.T) {
	backend := &mockBackend{responses: []string{`{"sample_size": {"value": 42}}`}}
	g := NewGrinder(backend, testSchema(), types.GrindingConfig{})

	done := writeMarkdown(t, "done paper")
	done.ID = "done000000ok"
	fresh := writeMarkdown(t, "fresh paper")
	fresh.ID = "fresh0000000"
	unconverted := &types.PaperEntry{ID: "nope00000000", Filename: "nope.pdf"}

	matrix := types.NewMatrix(testSchema())
	matrix.AddPaper(&types.PaperExtraction{PaperID: "done000000ok"})

	var out bytes.Buffer
	summary := g.GrindAll(context.Background(), []*types.PaperEntry{done, fresh, unconverted}, matrix, false, &out)

	if summary.Extracted != 1 || summary.Skipped != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 1 extracted 2 skipped", summary)
	}
	if matrix.Paper("fresh0000000") == nil {
		t.Error("fresh paper missing from matrix")
	}
	if !strings.Contains(out.String(), "Grind summary: 1 extracted, 2 skipped, 0 failed (total: 3)") {
		t.Errorf("output missing summary line:\n%s", out.String())
	}
}

func TestFindJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{"leading prose", `Sure! {"a": {"b": 2}} done`, `{"a": {"b": 2}}`, true},
		{"braces in strings", `{"a": "has } brace"}`, `{"a": "has } brace"}`, true},
		{"no object", "nothing here", "", false},
		{"unterminated", `{"a": 1`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := findJSONObject(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("findJSONObject(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCoerceValue(t *testing.T) {
	intField := types.SchemaField{Type: types.FieldInteger}
	floatField := types.SchemaField{Type: types.FieldFloat}
	boolField := types.SchemaField{Type: types.FieldBoolean}
	catField := types.SchemaField{Type: types.FieldCategorical, Options: []string{"DiD", "IV"}}

	tests := []struct {
		name     string
		in       any
		field    types.SchemaField
		want     any
		wantFull bool // confidence 1.0
	}{
		{"int from number", float64(42), intField, int64(42), true},
		{"int with commas", "10,000 participants", intField, int64(10000), true},
		{"int unparseable", "many", intField, "many", false},
		{"float from string", "about 3.5 percent", floatField, 3.5, true},
		{"bool yes", "yes", boolField, true, true},
		{"bool false", "false", boolField, false, true},
		{"categorical exact", "did", catField, "DiD", true},
		{"categorical substring", "instrumental variables (IV)", catField, "IV", true},
		{"na stays na", "N/A", intField, "N/A", false},
		{"nil is na", nil, intField, "N/A", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := coerceValue(tt.in, tt.field)
			if got != tt.want {
				t.Errorf("value = %v (%T), want %v", got, got, tt.want)
			}
			if tt.wantFull != (conf == 1.0) {
				t.Errorf("confidence = %v, wantFull=%v", conf, tt.wantFull)
			}
		})
	}
}
