// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grind

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// ExportCSV writes the matrix as CSV: fixed identity columns first,
// then the schema's fields in order, then the synthesis columns.
func ExportCSV(m *types.Matrix, w io.Writer) error {
	cw := csv.NewWriter(w)

	keys := m.FieldKeys()
	header := append([]string{"paper_id", "title", "bibtex_key"}, keys...)
	header = append(header, "one_pager", "appendix_row")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, p := range m.Papers {
		row := []string{p.PaperID, p.Title, p.BibtexKey}
		for _, key := range keys {
			row = append(row, cellString(p.Value(key)))
		}
		row = append(row, p.OnePager, p.AppendixRow)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", p.PaperID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// cellString renders an extracted value for a CSV cell.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "; ")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = cellString(e)
		}
		return strings.Join(parts, "; ")
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Prune removes matrix rows whose paper is no longer in the inventory,
// returning the removed IDs. Keeps the matrix consistent after papers
// are dropped from a project.
func Prune(m *types.Matrix, entries []*types.PaperEntry) []string {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.ID] = true
	}

	var removed []string
	for _, p := range m.Papers {
		if !known[p.PaperID] {
			removed = append(removed, p.PaperID)
		}
	}
	for _, id := range removed {
		m.RemovePaper(id)
	}
	return removed
}

// ColumnStats summarizes one matrix column.
type ColumnStats struct {
	Key     string
	Total   int
	NonNull int
	Null    int

	// Numeric summary, set when the column holds numbers.
	Numeric bool
	Min     float64
	Max     float64
	Mean    float64

	// ValueCounts is set for categorical and boolean columns.
	ValueCounts map[string]int
}

// Stats computes per-column summaries for the matrix.
func Stats(m *types.Matrix) []ColumnStats {
	var out []ColumnStats
	for _, key := range m.FieldKeys() {
		stats := ColumnStats{Key: key, Total: m.Len()}

		var numbers []float64
		counts := map[string]int{}
		for _, p := range m.Papers {
			v := p.Value(key)
			if isNull(v) {
				stats.Null++
				continue
			}
			stats.NonNull++
			if f, ok := asNumber(v); ok {
				numbers = append(numbers, f)
			}
			counts[cellString(v)]++
		}

		if len(numbers) > 0 && len(numbers) == stats.NonNull {
			stats.Numeric = true
			stats.Min, stats.Max = numbers[0], numbers[0]
			sum := 0.0
			for _, f := range numbers {
				if f < stats.Min {
					stats.Min = f
				}
				if f > stats.Max {
					stats.Max = f
				}
				sum += f
			}
			stats.Mean = sum / float64(len(numbers))
		} else if fieldType(m, key) == types.FieldCategorical || fieldType(m, key) == types.FieldBoolean {
			stats.ValueCounts = counts
		}

		out = append(out, stats)
	}
	return out
}

func fieldType(m *types.Matrix, key string) types.FieldType {
	if m.Schema == nil {
		return types.FieldText
	}
	if f := m.Schema.Field(key); f != nil {
		return f.Type
	}
	return types.FieldText
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == "" || strings.EqualFold(s, notAvailable)
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	}
	return 0, false
}

// ValidationIssue is one problem found checking the matrix against its schema.
type ValidationIssue struct {
	PaperID string
	Field   string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s/%s: %s", v.PaperID, v.Field, v.Message)
}

// Validate checks every paper against the schema: required fields must
// have a value, and categorical values must be in the option set.
func Validate(m *types.Matrix) []ValidationIssue {
	if m.Schema == nil {
		return nil
	}

	var issues []ValidationIssue
	for _, p := range m.Papers {
		for _, field := range m.Schema.Fields {
			v := p.Value(field.Key)
			if isNull(v) {
				if field.Required {
					issues = append(issues, ValidationIssue{
						PaperID: p.PaperID,
						Field:   field.Key,
						Message: "required field is missing",
					})
				}
				continue
			}
			if field.Type == types.FieldCategorical {
				s := cellString(v)
				if !containsFold(field.Options, s) {
					issues = append(issues, ValidationIssue{
						PaperID: p.PaperID,
						Field:   field.Key,
						Message: fmt.Sprintf("value %q not in options [%s]", s, strings.Join(field.Options, ", ")),
					})
				}
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].PaperID != issues[j].PaperID {
			return issues[i].PaperID < issues[j].PaperID
		}
		return issues[i].Field < issues[j].Field
	})
	return issues
}

func containsFold(options []string, s string) bool {
	for _, opt := range options {
		if strings.EqualFold(opt, s) {
			return true
		}
	}
	return false
}
