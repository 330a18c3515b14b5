package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/grind"
	"github.com/mesh-intelligence/papercutter/internal/index"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the project's pipeline progress",
	Long: `Status reports where the project stands: inventory counts by stage,
schema and matrix state, and search index coverage. With --stats it
also prints per-column fill rates and value distributions from the
evidence matrix.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("stats", false, "print per-column matrix statistics")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	inv, err := openInventory(p)
	if err != nil {
		return err
	}

	fmt.Printf("Project: %s (%s)\n", p.Config.Name, p.Root)
	if p.Config.BibtexPath != "" {
		fmt.Printf("Bibliography: %s\n", p.Config.BibtexPath)
	} else {
		fmt.Println("Bibliography: not configured")
	}

	counts := inv.CountByStatus()
	fmt.Printf("\nPapers: %d total\n", inv.Len())
	for _, s := range []types.PaperStatus{types.StatusIngested, types.StatusPending, types.StatusFailed} {
		if counts[s] > 0 {
			fmt.Printf("  %-10s %d\n", s, counts[s])
		}
	}

	if schema, err := types.LoadSchema(p.SchemaPath()); err == nil {
		fmt.Printf("\nSchema: %s (%d fields)\n", schema.Name, len(schema.Fields))
	} else {
		fmt.Println("\nSchema: not configured (run papercutter configure)")
	}

	matrix, matrixErr := types.LoadMatrix(p.MatrixPath())
	if matrixErr == nil {
		summarized := 0
		for _, pe := range matrix.Papers {
			if pe.OnePager != "" && pe.AppendixRow != "" {
				summarized++
			}
		}
		fmt.Printf("Matrix: %d papers extracted, %d summarized\n", matrix.Len(), summarized)
		if issues := grind.Validate(matrix); len(issues) > 0 {
			fmt.Printf("  %d validation issue(s)\n", len(issues))
		}
	} else {
		fmt.Println("Matrix: empty (run papercutter grind)")
	}

	if store, err := index.Open(p.IndexDir()); err == nil {
		papers, pages, countErr := store.Count(context.Background())
		store.Close()
		if countErr == nil {
			fmt.Printf("Index: %d papers, %d pages\n", papers, pages)
		}
	}

	// Failed papers get their errors echoed so the fix is obvious.
	for _, e := range inv.ByStatus(types.StatusFailed) {
		fmt.Fprintf(os.Stderr, "failed: %s (%s)\n", e.Filename, e.Error)
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats && matrixErr == nil {
		printColumnStats(matrix)
	}
	return nil
}

func printColumnStats(m *types.Matrix) {
	fmt.Printf("\n%-20s  %-10s  %s\n", "Column", "Filled", "Distribution")
	for _, cs := range grind.Stats(m) {
		dist := ""
		if cs.Numeric {
			dist = fmt.Sprintf("min %.4g, max %.4g, mean %.4g", cs.Min, cs.Max, cs.Mean)
		} else if len(cs.ValueCounts) > 0 {
			first := true
			for v, n := range cs.ValueCounts {
				if !first {
					dist += ", "
				}
				dist += fmt.Sprintf("%s:%d", v, n)
				first = false
			}
		}
		fmt.Printf("%-20s  %d/%d       %s\n", cs.Key, cs.NonNull, cs.Total, dist)
	}
}
