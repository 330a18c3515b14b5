package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/bibtex"
	"github.com/mesh-intelligence/papercutter/internal/report"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the literature review report from the evidence matrix",
	Long: `Report renders the evidence matrix, per-paper summaries, and appendix
into a LaTeX or Markdown document. Citation keys in the matrix are
checked against the generated bibliography; missing keys are reported
but do not fail the render.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("output", "", "output file (default: report.tex or report.md)")
	reportCmd.Flags().String("format", "", "output format: latex or markdown (default: project config)")
	reportCmd.Flags().String("title", "", "report title (default: project name)")
	reportCmd.Flags().String("author", "", "report author line")
	reportCmd.Flags().String("abstract", "", "abstract text")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	matrix, err := types.LoadMatrix(p.MatrixPath())
	if err != nil {
		return fmt.Errorf("no evidence matrix yet: run papercutter grind first (%w)", err)
	}
	if matrix.Len() == 0 {
		return fmt.Errorf("the evidence matrix is empty")
	}

	cfg := p.Config.Reporting
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Format = types.ReportFormat(format)
	}
	if cfg.Format != types.ReportLaTeX && cfg.Format != types.ReportMarkdown {
		return fmt.Errorf("unknown format %q: use latex or markdown", cfg.Format)
	}

	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = p.Config.Name
	}
	author, _ := cmd.Flags().GetString("author")
	abstract, _ := cmd.Flags().GetString("abstract")

	bibKeys := loadBibKeys(p.GeneratedBibPath())
	if missing := report.MissingCitations(matrix, bibKeys); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d citation key(s) not in %s: %v\n",
			len(missing), p.GeneratedBibPath(), missing)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "report.tex"
		if cfg.Format == types.ReportMarkdown {
			output = "report.md"
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}

	renderErr := report.NewBuilder(cfg).Render(report.Context{
		Title:            title,
		Author:           author,
		Abstract:         abstract,
		Matrix:           matrix,
		BibliographyKeys: bibKeys,
		Config:           cfg,
	}, f)
	if closeErr := f.Close(); renderErr == nil {
		renderErr = closeErr
	}
	if renderErr != nil {
		return renderErr
	}

	fmt.Printf("Report written to %s (%d papers)\n", output, matrix.Len())
	fmt.Println(report.PandocHint(output, p.GeneratedBibPath(), cfg))
	return nil
}

// loadBibKeys reads citation keys from the generated bibliography. A
// missing or unparsable file yields an empty set; the render proceeds
// with warnings.
func loadBibKeys(path string) map[string]bool {
	keys := make(map[string]bool)
	entries, err := bibtex.ParseFile(path)
	if err != nil {
		return keys
	}
	for _, e := range entries {
		if e.Key != "" {
			keys[e.Key] = true
		}
	}
	return keys
}
