package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/grind"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Write a one-pager and appendix row for each extracted paper",
	Long: `Summarize asks the AI model for two prose artifacts per paper: a
one-page summary for the report body and a single appendix sentence
stating the paper's contribution. Papers that already have both are
skipped unless --force is set.`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().Bool("force", false, "regenerate existing summaries")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	inv, err := openInventory(p)
	if err != nil {
		return err
	}

	matrix, err := types.LoadMatrix(p.MatrixPath())
	if err != nil {
		return fmt.Errorf("no evidence matrix yet: run papercutter grind first (%w)", err)
	}

	backend, err := aiBackend(p.Config.Grinding)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	synth := grind.NewSynthesizer(backend, p.Config.Grinding)
	summary := synth.SynthesizeAll(context.Background(), inv.ByStatus(types.StatusIngested), matrix, force, os.Stdout)

	if err := types.SaveMatrix(matrix, p.MatrixPath()); err != nil {
		return err
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d paper(s) failed synthesis", summary.Failed)
	}
	return nil
}
