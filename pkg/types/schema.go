// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// FieldType is the data type of an extraction schema field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldInteger     FieldType = "integer"
	FieldFloat       FieldType = "float"
	FieldBoolean     FieldType = "boolean"
	FieldCategorical FieldType = "categorical"
	FieldList        FieldType = "list"
)

// ValidFieldType reports whether t is one of the known field types.
func ValidFieldType(t FieldType) bool {
	switch t {
	case FieldText, FieldInteger, FieldFloat, FieldBoolean, FieldCategorical, FieldList:
		return true
	}
	return false
}

// SchemaField defines one column of the evidence matrix: what to extract
// from each paper and how to interpret the value.
type SchemaField struct {
	// Key is the unique identifier for this field, used as the column name.
	Key string `json:"key" yaml:"key"`

	// Description tells the model what to extract.
	Description string `json:"description" yaml:"description"`

	// Type is the data type extracted values are coerced to.
	Type FieldType `json:"type" yaml:"type"`

	// Required marks fields that must be extracted for every paper.
	Required bool `json:"required" yaml:"required"`

	// Options lists the valid values for categorical fields.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// Example guides extraction with a sample value.
	Example string `json:"example,omitempty" yaml:"example,omitempty"`
}

// PromptLine renders the field as one instruction line for the extraction prompt.
func (f SchemaField) PromptLine() string {
	parts := []string{fmt.Sprintf("- %s: %s", f.Key, f.Description)}

	switch {
	case f.Type == FieldCategorical && len(f.Options) > 0:
		parts = append(parts, "  Options: "+strings.Join(f.Options, ", "))
	case f.Type == FieldBoolean:
		parts = append(parts, "  (yes/no)")
	case f.Type == FieldInteger:
		parts = append(parts, "  (integer)")
	case f.Type == FieldFloat:
		parts = append(parts, "  (number)")
	}

	if f.Example != "" {
		parts = append(parts, "  Example: "+f.Example)
	}
	if !f.Required {
		parts = append(parts, "  (optional)")
	}

	return strings.Join(parts, "\n")
}

// Schema defines the full set of fields extracted from every paper.
type Schema struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Version     string        `json:"version" yaml:"version"`
	Fields      []SchemaField `json:"fields" yaml:"fields"`
}

// NewSchema returns an empty schema with the standard version.
func NewSchema(name string) *Schema {
	return &Schema{Name: name, Version: "1.0"}
}

// Field returns the field with the given key, or nil if absent.
func (s *Schema) Field(key string) *SchemaField {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i]
		}
	}
	return nil
}

// AddField appends a field to the schema.
func (s *Schema) AddField(f SchemaField) {
	if f.Type == "" {
		f.Type = FieldText
	}
	s.Fields = append(s.Fields, f)
}

// Validate checks the schema for structural problems and returns one
// message per issue found.
func (s *Schema) Validate() []string {
	var errs []string

	seen := map[string]bool{}
	for _, f := range s.Fields {
		if seen[f.Key] {
			errs = append(errs, fmt.Sprintf("duplicate field key %q", f.Key))
		}
		seen[f.Key] = true
	}

	for _, f := range s.Fields {
		if strings.TrimSpace(f.Key) == "" {
			errs = append(errs, "found field with empty key")
		}
		if strings.TrimSpace(f.Description) == "" {
			errs = append(errs, fmt.Sprintf("field %q has empty description", f.Key))
		}
		if f.Type == FieldCategorical && len(f.Options) == 0 {
			errs = append(errs, fmt.Sprintf("categorical field %q has no options", f.Key))
		}
		if !ValidFieldType(f.Type) {
			errs = append(errs, fmt.Sprintf("field %q has unknown type %q", f.Key, f.Type))
		}
	}

	return errs
}

// ExtractionPrompt renders the field list section of the extraction prompt.
func (s *Schema) ExtractionPrompt() string {
	lines := []string{"Extract the following information from this paper:", ""}
	for _, f := range s.Fields {
		lines = append(lines, f.PromptLine())
	}
	lines = append(lines, "",
		"If information is not found or not applicable, use 'N/A'. "+
			"Provide direct quotes or page numbers where possible.")
	return strings.Join(lines, "\n")
}

// SaveSchema writes the schema to a YAML file.
func SaveSchema(s *Schema, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSchema reads a schema from a YAML file. Fields without an explicit
// type default to text.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	for i := range s.Fields {
		if s.Fields[i].Type == "" {
			s.Fields[i].Type = FieldText
		}
	}
	if s.Version == "" {
		s.Version = "1.0"
	}
	return &s, nil
}

// EconomicsSchema is a starter schema for empirical economics papers.
func EconomicsSchema() *Schema {
	s := NewSchema("Economics Research")
	s.Description = "Schema for extracting evidence from economics papers"
	s.AddField(SchemaField{Key: "sample_size", Description: "Number of observations, participants, or units in the study", Type: FieldInteger, Required: true, Example: "10,000 individuals"})
	s.AddField(SchemaField{Key: "time_period", Description: "Time period covered by the data", Type: FieldText, Required: true, Example: "2000-2020"})
	s.AddField(SchemaField{Key: "geography", Description: "Geographic region or country studied", Type: FieldText, Required: true, Example: "United States"})
	s.AddField(SchemaField{Key: "methodology", Description: "Primary identification or estimation strategy", Type: FieldCategorical, Required: true, Options: []string{"DiD", "RDD", "IV", "OLS", "RCT", "Event Study", "Other"}})
	s.AddField(SchemaField{Key: "main_finding", Description: "Primary quantitative result or effect size", Type: FieldText, Required: true, Example: "10% increase leads to 5% decrease in X"})
	s.AddField(SchemaField{Key: "data_source", Description: "Primary dataset or data source used", Type: FieldText, Required: false})
	return s
}
