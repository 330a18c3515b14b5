// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grind

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

const (
	// generatorSampleCount is how many papers are sampled to propose a schema.
	generatorSampleCount = 3

	// generatorSampleChars is how much of each sampled paper is shown.
	generatorSampleChars = 4000
)

const generatorSystemPrompt = "You design data extraction schemas for systematic literature reviews. Propose columns that are comparable across papers and answerable from paper text."

// suggestedField is the JSON shape the model returns per column.
type suggestedField struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	Example     string   `json:"example,omitempty"`
}

// GenerateSchema samples up to three ingested papers and asks the
// backend to propose a 6-10 column extraction schema for the corpus.
func GenerateSchema(ctx context.Context, backend AIBackend, name string, entries []*types.PaperEntry, cfg types.GrindingConfig) (*types.Schema, error) {
	var samples []string
	for _, e := range entries {
		if e.MarkdownPath == "" {
			continue
		}
		data, err := os.ReadFile(e.MarkdownPath)
		if err != nil {
			continue
		}
		text := string(data)
		if len(text) > generatorSampleChars {
			text = text[:generatorSampleChars]
		}
		samples = append(samples, fmt.Sprintf("--- Paper: %s ---\n%s", e.Filename, text))
		if len(samples) == generatorSampleCount {
			break
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no ingested papers to sample (run papercutter ingest first)")
	}

	prompt := fmt.Sprintf(`Based on these paper excerpts, propose 6-10 extraction columns for a literature comparison matrix.

Respond with a JSON object: {"fields": [{"key", "description", "type", "required", "options", "example"}]}. Valid types: text, integer, float, boolean, categorical, list. Categorical fields must include an "options" array. Keys are lowercase snake_case. Do not include any text outside the JSON object.

%s`, strings.Join(samples, "\n\n"))

	response, err := callWithRetry(ctx, backend, generatorSystemPrompt, prompt, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("generating schema: %w", err)
	}

	jsonText, ok := findJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object in schema response")
	}
	var parsed struct {
		Fields []suggestedField `json:"fields"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("parsing schema response: %w", err)
	}
	if len(parsed.Fields) == 0 {
		return nil, fmt.Errorf("schema response contained no fields")
	}

	schema := types.NewSchema(name)
	schema.Description = fmt.Sprintf("Generated from %d sampled papers", len(samples))
	for _, f := range parsed.Fields {
		ft := types.FieldType(strings.ToLower(f.Type))
		if !types.ValidFieldType(ft) {
			ft = types.FieldText
		}
		if ft == types.FieldCategorical && len(f.Options) == 0 {
			ft = types.FieldText
		}
		key := strings.TrimSpace(strings.ToLower(f.Key))
		if key == "" || strings.TrimSpace(f.Description) == "" {
			continue
		}
		schema.AddField(types.SchemaField{
			Key:         key,
			Description: strings.TrimSpace(f.Description),
			Type:        ft,
			Required:    f.Required,
			Options:     f.Options,
			Example:     f.Example,
		})
	}

	if errs := schema.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("generated schema invalid: %s", strings.Join(errs, "; "))
	}
	return schema, nil
}
