package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/equations"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var equationsCmd = &cobra.Command{
	Use:   "equations [paper-id]",
	Short: "List the LaTeX equations found in converted papers",
	Long: `Equations scans converted Markdown for display math, inline math, and
LaTeX environments, printing each with its source line. With a paper ID
only that paper is scanned. Use --image to OCR a single equation image
to LaTeX with pix2tex instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEquations,
}

func init() {
	equationsCmd.Flags().Bool("json", false, "output equations as JSON")
	equationsCmd.Flags().String("image", "", "OCR an equation image to LaTeX and exit")

	rootCmd.AddCommand(equationsCmd)
}

func runEquations(cmd *cobra.Command, args []string) error {
	if imagePath, _ := cmd.Flags().GetString("image"); imagePath != "" {
		return runEquationOCR(imagePath)
	}

	p, err := openProject()
	if err != nil {
		return err
	}
	inv, err := openInventory(p)
	if err != nil {
		return err
	}

	entries := inv.ByStatus(types.StatusIngested)
	if len(args) == 1 {
		e, ok := inv.Get(args[0])
		if !ok {
			return fmt.Errorf("no paper with ID %q in the inventory", args[0])
		}
		entries = []*types.PaperEntry{e}
	}

	type paperEquations struct {
		PaperID   string               `json:"paper_id"`
		BibtexKey string               `json:"bibtex_key,omitempty"`
		Equations []equations.Equation `json:"equations"`
	}

	var all []paperEquations
	for _, e := range entries {
		if e.MarkdownPath == "" {
			continue
		}
		content, err := os.ReadFile(e.MarkdownPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		eqs := equations.Scan(string(content))
		if len(eqs) == 0 {
			continue
		}
		all = append(all, paperEquations{PaperID: e.ID, BibtexKey: e.BibtexKey, Equations: eqs})
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}

	total := 0
	for _, pe := range all {
		label := pe.BibtexKey
		if label == "" {
			label = pe.PaperID
		}
		fmt.Printf("%s (%d equations)\n", label, len(pe.Equations))
		for _, eq := range pe.Equations {
			latex := eq.LaTeX
			if len(latex) > 70 {
				latex = latex[:67] + "..."
			}
			latex = strings.ReplaceAll(latex, "\n", " ")
			fmt.Printf("  L%-5d %-12s %s\n", eq.Line, eq.Kind, latex)
		}
		total += len(pe.Equations)
	}
	fmt.Printf("\n%d equations in %d papers\n", total, len(all))
	return nil
}

func runEquationOCR(imagePath string) error {
	conv := &equations.Pix2TexConverter{}
	if !conv.Available() {
		return fmt.Errorf("pix2tex not found on PATH (pip install pix2tex)")
	}
	latex, err := conv.ImageToLaTeX(context.Background(), imagePath)
	if err != nil {
		return err
	}
	fmt.Println(latex)
	return nil
}
