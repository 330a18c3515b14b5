// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"os"
)

// ExtractedValue is a single extracted cell with provenance.
type ExtractedValue struct {
	// Value is the extracted value, coerced to the field's type where
	// possible (string, int64, float64, bool, or []string).
	Value any `json:"value"`

	// SourceQuote is a direct quote from the paper supporting the value.
	SourceQuote string `json:"source_quote,omitempty"`

	// Page is the page number where the value was found (0 if unknown).
	Page int `json:"page,omitempty"`

	// Confidence scores the extraction in [0, 1].
	Confidence float64 `json:"confidence"`
}

// PaperExtraction holds all extracted values for one paper, plus the
// synthesis outputs used in reports.
type PaperExtraction struct {
	PaperID   string `json:"paper_id"`
	Title     string `json:"title,omitempty"`
	BibtexKey string `json:"bibtex_key,omitempty"`

	// Extractions maps field key to extracted value.
	Extractions map[string]ExtractedValue `json:"extractions"`

	// OnePager is the detailed per-paper summary (~2500 chars).
	OnePager string `json:"one_pager,omitempty"`

	// AppendixRow is the short contribution statement (<=350 chars).
	AppendixRow string `json:"appendix_row,omitempty"`
}

// Value returns the raw value for a field key, or nil if absent.
func (p *PaperExtraction) Value(key string) any {
	if ev, ok := p.Extractions[key]; ok {
		return ev.Value
	}
	return nil
}

// SetValue records an extracted value for a field key at full confidence.
func (p *PaperExtraction) SetValue(key string, value any, quote string, page int) {
	if p.Extractions == nil {
		p.Extractions = map[string]ExtractedValue{}
	}
	p.Extractions[key] = ExtractedValue{
		Value:       value,
		SourceQuote: quote,
		Page:        page,
		Confidence:  1.0,
	}
}

// Matrix is the evidence matrix: one PaperExtraction per paper, in
// insertion order, with the schema that defines the columns.
type Matrix struct {
	Schema *Schema            `json:"schema,omitempty"`
	Papers []*PaperExtraction `json:"papers"`
}

// NewMatrix returns an empty matrix for the given schema.
func NewMatrix(schema *Schema) *Matrix {
	return &Matrix{Schema: schema}
}

// Len returns the number of papers in the matrix.
func (m *Matrix) Len() int {
	return len(m.Papers)
}

// FieldKeys returns the schema's field keys in schema order. Without a
// schema, keys are collected from the papers in encounter order.
func (m *Matrix) FieldKeys() []string {
	if m.Schema != nil {
		keys := make([]string, len(m.Schema.Fields))
		for i, f := range m.Schema.Fields {
			keys[i] = f.Key
		}
		return keys
	}
	var keys []string
	seen := map[string]bool{}
	for _, p := range m.Papers {
		for k := range p.Extractions {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// Paper returns the extraction for a paper ID, or nil if absent.
func (m *Matrix) Paper(paperID string) *PaperExtraction {
	for _, p := range m.Papers {
		if p.PaperID == paperID {
			return p
		}
	}
	return nil
}

// AddPaper inserts an extraction, replacing any existing entry for the
// same paper ID in place.
func (m *Matrix) AddPaper(p *PaperExtraction) {
	for i, existing := range m.Papers {
		if existing.PaperID == p.PaperID {
			m.Papers[i] = p
			return
		}
	}
	m.Papers = append(m.Papers, p)
}

// RemovePaper deletes a paper from the matrix, reporting whether it existed.
func (m *Matrix) RemovePaper(paperID string) bool {
	for i, p := range m.Papers {
		if p.PaperID == paperID {
			m.Papers = append(m.Papers[:i], m.Papers[i+1:]...)
			return true
		}
	}
	return false
}

// ColumnValues returns the value of one field across all papers, skipping
// papers without an extraction for it.
func (m *Matrix) ColumnValues(key string) []any {
	var values []any
	for _, p := range m.Papers {
		if v := p.Value(key); v != nil {
			values = append(values, v)
		}
	}
	return values
}

// SaveMatrix writes the matrix as indented JSON.
func SaveMatrix(m *Matrix, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling matrix: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadMatrix reads a matrix from a JSON file.
func LoadMatrix(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading matrix %s: %w", path, err)
	}
	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing matrix %s: %w", path, err)
	}
	return &m, nil
}
