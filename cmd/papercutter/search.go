package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/index"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Full-text search across converted papers",
	Long: `Search queries an SQLite FTS5 index of every converted paper's pages
and prints matching snippets with page-level provenance. The index is
synced incrementally before each query, so new or reconverted papers
are picked up automatically.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	p, err := openProject()
	if err != nil {
		return err
	}
	inv, err := openInventory(p)
	if err != nil {
		return err
	}

	store, err := index.Open(p.IndexDir())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Sync(ctx, inv.ByStatus(types.StatusIngested), os.Stderr); err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	results, err := store.Search(ctx, query, limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-4s  %-24s  %-6s  %s\n", "Rank", "Paper", "Page", "Snippet")
	fmt.Println(strings.Repeat("-", 100))
	for i, r := range results {
		label := r.BibtexKey
		if label == "" {
			label = r.Filename
		}
		if len(label) > 24 {
			label = label[:21] + "..."
		}
		fmt.Printf("%-4d  %-24s  %-6d  %s\n", i+1, label, r.Page, r.Snippet)
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}
