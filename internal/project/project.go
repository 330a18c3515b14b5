// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project manages the on-disk layout of a papercutter project:
// the .papercutter/ data directory, its configuration file, and the
// paper inventory.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// DataDirName is the per-project data directory created by Init.
const DataDirName = ".papercutter"

const configFileName = "config.yaml"

// Project is an opened papercutter project.
type Project struct {
	// Root is the project root directory (the parent of .papercutter/).
	Root string

	Config types.ProjectConfig
}

// Init creates the project layout under root and writes the initial
// configuration. It refuses to reinitialize an existing project unless
// force is set.
func Init(root string, cfg types.ProjectConfig, force bool) (*Project, error) {
	dataDir := filepath.Join(root, DataDirName)
	if _, err := os.Stat(dataDir); err == nil && !force {
		return nil, fmt.Errorf("project already initialized at %s (use --force to reinitialize)", root)
	}

	for _, dir := range []string{
		dataDir,
		filepath.Join(dataDir, "markdown"),
		filepath.Join(dataDir, "chunks"),
		filepath.Join(dataDir, "tables"),
		filepath.Join(dataDir, "extractions"),
		filepath.Join(dataDir, "fetched"),
		filepath.Join(dataDir, "index"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	p := &Project{Root: root, Config: cfg}
	if err := p.SaveConfig(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load opens the project rooted at root.
func Load(root string) (*Project, error) {
	p := &Project{Root: root}

	data, err := os.ReadFile(p.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no project found at %s (run papercutter init first)", root)
		}
		return nil, fmt.Errorf("reading project config: %w", err)
	}

	p.Config = types.DefaultProjectConfig("")
	if err := yaml.Unmarshal(data, &p.Config); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}
	return p, nil
}

// FindRoot walks up from start looking for a directory containing
// .papercutter/ and returns it.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, DataDirName)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no papercutter project found in %s or any parent directory", start)
		}
		dir = parent
	}
}

// SaveConfig writes the project configuration atomically.
func (p *Project) SaveConfig() error {
	data, err := yaml.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	return writeFileAtomic(p.ConfigPath(), data)
}

// DataDir returns the .papercutter directory path.
func (p *Project) DataDir() string { return filepath.Join(p.Root, DataDirName) }

// ConfigPath returns the project configuration file path.
func (p *Project) ConfigPath() string { return filepath.Join(p.DataDir(), configFileName) }

// InventoryPath returns the paper inventory file path.
func (p *Project) InventoryPath() string { return filepath.Join(p.DataDir(), "inventory.json") }

// MarkdownDir returns the directory holding converted papers.
func (p *Project) MarkdownDir() string { return filepath.Join(p.DataDir(), "markdown") }

// ChunksDir returns the directory holding split-PDF chunks.
func (p *Project) ChunksDir() string { return filepath.Join(p.DataDir(), "chunks") }

// TablesDir returns the directory holding exported matrices.
func (p *Project) TablesDir() string { return filepath.Join(p.DataDir(), "tables") }

// ExtractionsDir returns the directory holding per-paper extraction data.
func (p *Project) ExtractionsDir() string { return filepath.Join(p.DataDir(), "extractions") }

// FetchedDir returns the directory downloaded PDFs land in.
func (p *Project) FetchedDir() string { return filepath.Join(p.DataDir(), "fetched") }

// IndexDir returns the directory holding the search index database.
func (p *Project) IndexDir() string { return filepath.Join(p.DataDir(), "index") }

// SchemaPath returns the extraction schema file path.
func (p *Project) SchemaPath() string { return filepath.Join(p.DataDir(), "schema.yaml") }

// MatrixPath returns the extraction matrix file path.
func (p *Project) MatrixPath() string { return filepath.Join(p.DataDir(), "tables", "matrix.json") }

// GeneratedBibPath returns the merged bibliography written by ingest.
func (p *Project) GeneratedBibPath() string { return filepath.Join(p.DataDir(), "generated.bib") }

// writeFileAtomic writes data to path via a temp file and rename, so a
// crash mid-write cannot leave a truncated file behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
