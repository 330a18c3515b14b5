// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the papercutter CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/papercutter/internal/container"
	"github.com/mesh-intelligence/papercutter/internal/convert"
	"github.com/mesh-intelligence/papercutter/internal/grind"
	"github.com/mesh-intelligence/papercutter/internal/project"
	"github.com/mesh-intelligence/papercutter/internal/secrets"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the papercutter CLI.
var rootCmd = &cobra.Command{
	Use:   "papercutter",
	Short: "Evidence extraction pipeline for academic paper PDFs",
	Long: `papercutter turns a directory of paper PDFs into a structured evidence
matrix. It matches PDFs against a BibTeX bibliography, fetches missing
papers, converts everything to Markdown, extracts schema-defined fields
with an AI model, and renders the results as a literature review report.

The pipeline stages are subcommands: init, ingest, configure, grind,
summarize, and report, with fetch, split, search, equations, and status
as supporting tools.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./papercutter.yaml or ~/.config/papercutter/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("papercutter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "papercutter"))
		}
	}

	viper.SetEnvPrefix("PAPERCUTTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openProject locates the enclosing project and loads its configuration.
func openProject() (*project.Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := project.FindRoot(cwd)
	if err != nil {
		return nil, err
	}
	return project.Load(root)
}

// openInventory loads the project's paper inventory.
func openInventory(p *project.Project) (*project.Inventory, error) {
	return project.LoadInventory(p.InventoryPath())
}

// aiBackend builds the Claude backend from project config, the loaded
// secrets, and the environment, in that order of preference.
func aiBackend(cfg types.GrindingConfig) (*grind.ClaudeBackend, error) {
	key := secretDefault("anthropic-api-key", cfg.APIKey)
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("no API key: set grinding.api_key, .secrets/anthropic-api-key, or ANTHROPIC_API_KEY")
	}
	return &grind.ClaudeBackend{APIKey: key, Model: cfg.Model}, nil
}

// pickConverter selects the PDF converter. "auto" prefers the docling
// container when a runtime and image are available, falling back to
// plain text extraction.
func pickConverter(name string) (convert.Converter, error) {
	switch name {
	case "fallback":
		return convert.NewFallbackConverter(), nil
	case "docling":
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return convert.NewDoclingConverter(rt)
	case "", "auto":
		rt, err := container.DetectRuntime()
		if err == nil {
			if c, err := convert.NewDoclingConverter(rt); err == nil {
				return c, nil
			}
		}
		fmt.Fprintln(os.Stderr, "docling unavailable, using text extraction fallback")
		return convert.NewFallbackConverter(), nil
	default:
		return nil, fmt.Errorf("unknown converter %q: use docling, fallback, or auto", name)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
