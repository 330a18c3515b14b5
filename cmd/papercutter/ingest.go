package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdfs-or-dirs...]",
	Short: "Match, fetch, split, and convert papers into the project",
	Long: `Ingest runs the intake pipeline over the given PDFs or directories:
each PDF is identified by content hash, matched against the bibliography
by DOI, arXiv ID, or fuzzy title, split into chapters when oversized,
and converted to Markdown. Bibliography entries without a local PDF are
downloaded when --fetch is set. A merged bibliography is written to
.papercutter/generated.bib.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("fetch", false, "download bibliography entries that have no local PDF")
	ingestCmd.Flags().String("converter", "auto", "PDF converter: docling, fallback, or auto")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files or directories")
	}

	p, err := openProject()
	if err != nil {
		return err
	}
	inv, err := openInventory(p)
	if err != nil {
		return err
	}

	converterName, _ := cmd.Flags().GetString("converter")
	conv, err := pickConverter(converterName)
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(p, inv, conv)
	pipeline.FetchMissing, _ = cmd.Flags().GetBool("fetch")

	sum, err := pipeline.Run(context.Background(), args, os.Stdout)
	if err != nil {
		return err
	}
	if sum.HasFailures() {
		return fmt.Errorf("%d paper(s) failed ingest", sum.Failed)
	}
	return nil
}
