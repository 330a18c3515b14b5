package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/project"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a papercutter project in the current directory",
	Long: `Init creates the .papercutter/ data directory with a default
configuration and the working directories for markdown, chunks, tables,
and fetched papers. The project name defaults to the directory name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "reinitialize an existing project")
	initCmd.Flags().String("bib", "", "path to the BibTeX bibliography, relative to the project root")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	name := filepath.Base(cwd)
	if len(args) > 0 {
		name = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	bib, _ := cmd.Flags().GetString("bib")

	cfg := types.DefaultProjectConfig(name)
	cfg.BibtexPath = bib

	p, err := project.Init(cwd, cfg, force)
	if err != nil {
		return err
	}

	fmt.Printf("Initialized project %q in %s\n", name, p.DataDir())
	if bib == "" {
		fmt.Println("No bibliography configured; set bibtex_path in config.yaml or re-run with --bib")
	}
	return nil
}
