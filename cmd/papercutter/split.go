package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/sawmill"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var splitCmd = &cobra.Command{
	Use:   "split [pdf]",
	Short: "Split an oversized PDF into chapter chunks",
	Long: `Split breaks a large PDF into smaller chunks along its outline
bookmarks, falling back to fixed-size parts when the document has no
usable structure. Short chapters are merged and long ones subdivided so
every chunk converts cleanly.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().String("output-dir", "", "directory for chunk PDFs (default: <pdf-name>_chunks)")
	splitCmd.Flags().Int("threshold", 0, "page count above which splitting applies (default 500)")
	splitCmd.Flags().Int("max-pages", 0, "maximum pages per chunk (default 100)")
	splitCmd.Flags().Int("min-chapter", 0, "minimum pages for a detected chapter (default 3)")
	splitCmd.Flags().Bool("force", false, "split even below the page threshold")

	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	cfg := types.DefaultProjectConfig("").Sawmill
	if p, err := openProject(); err == nil {
		cfg = p.Config.Sawmill
	}
	if v, _ := cmd.Flags().GetInt("threshold"); v > 0 {
		cfg.SplitThreshold = v
	}
	if v, _ := cmd.Flags().GetInt("max-pages"); v > 0 {
		cfg.MaxChunkPages = v
	}
	if v, _ := cmd.Flags().GetInt("min-chapter"); v > 0 {
		cfg.MinChapterPages = v
	}

	outDir, _ := cmd.Flags().GetString("output-dir")
	if outDir == "" {
		base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
		outDir = base + "_chunks"
	}

	splitter := sawmill.NewSplitter(cfg)

	pageCount, err := splitter.PageCount(pdfPath)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if !splitter.ShouldSplit(pageCount) && !force {
		fmt.Printf("%s has %d pages (threshold %d); nothing to split\n",
			filepath.Base(pdfPath), pageCount, cfg.SplitThreshold)
		return nil
	}

	chunks, err := splitter.Split(pdfPath, outDir)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		fmt.Printf("%3d  pages %d-%d  %-40s  %s\n",
			c.Number, c.Chapter.StartPage, c.Chapter.EndPage, c.Chapter.Title, c.Path)
	}
	fmt.Printf("\nSplit %d pages into %d chunks under %s\n", pageCount, len(chunks), outDir)
	return nil
}
