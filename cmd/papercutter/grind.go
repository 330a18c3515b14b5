package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/grind"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var grindCmd = &cobra.Command{
	Use:   "grind",
	Short: "Extract schema fields from every ingested paper",
	Long: `Grind runs the extraction schema over each ingested paper's Markdown,
asking the AI model for every field and coercing the answers to the
schema types. Results accumulate in the evidence matrix; papers already
in the matrix are skipped unless --force is set. The matrix is also
exported as CSV next to its JSON form.`,
	RunE: runGrind,
}

func init() {
	grindCmd.Flags().Bool("force", false, "re-extract papers already in the matrix")

	rootCmd.AddCommand(grindCmd)
}

func runGrind(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	inv, err := openInventory(p)
	if err != nil {
		return err
	}

	schema, err := types.LoadSchema(p.SchemaPath())
	if err != nil {
		return fmt.Errorf("no schema configured: run papercutter configure first (%w)", err)
	}

	matrix, err := types.LoadMatrix(p.MatrixPath())
	if err != nil {
		matrix = types.NewMatrix(schema)
	}
	for _, id := range grind.Prune(matrix, inv.List()) {
		fmt.Printf("pruned: %s (no longer in inventory)\n", id)
	}

	backend, err := aiBackend(p.Config.Grinding)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	grinder := grind.NewGrinder(backend, schema, p.Config.Grinding)
	summary := grinder.GrindAll(context.Background(), inv.ByStatus(types.StatusIngested), matrix, force, os.Stdout)

	if err := types.SaveMatrix(matrix, p.MatrixPath()); err != nil {
		return err
	}
	if err := saveExtractions(matrix, p.ExtractionsDir()); err != nil {
		return err
	}

	csvPath := filepath.Join(p.TablesDir(), "matrix.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", csvPath, err)
	}
	exportErr := grind.ExportCSV(matrix, csvFile)
	if closeErr := csvFile.Close(); exportErr == nil {
		exportErr = closeErr
	}
	if exportErr != nil {
		return fmt.Errorf("exporting CSV: %w", exportErr)
	}
	fmt.Printf("Matrix saved to %s (CSV: %s)\n", p.MatrixPath(), csvPath)

	if issues := grind.Validate(matrix); len(issues) > 0 {
		fmt.Printf("\n%d validation issue(s):\n", len(issues))
		for _, issue := range issues {
			fmt.Printf("  %s\n", issue)
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d paper(s) failed extraction", summary.Failed)
	}
	return nil
}

// saveExtractions writes one JSON file per paper so individual results
// can be inspected or diffed without loading the whole matrix.
func saveExtractions(m *types.Matrix, dir string) error {
	for _, pe := range m.Papers {
		data, err := json.MarshalIndent(pe, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling extraction for %s: %w", pe.PaperID, err)
		}
		path := filepath.Join(dir, pe.PaperID+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
