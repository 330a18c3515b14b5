// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

func TestInitAndLoad(t *testing.T) {
	root := t.TempDir()

	p, err := Init(root, types.DefaultProjectConfig("survey"), false)
	require.NoError(t, err)

	for _, dir := range []string{
		p.MarkdownDir(), p.ChunksDir(), p.TablesDir(),
		p.ExtractionsDir(), p.FetchedDir(), p.IndexDir(),
	} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "missing %s", dir)
		assert.True(t, info.IsDir())
	}

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "survey", loaded.Config.Name)
	assert.Equal(t, 500, loaded.Config.Sawmill.SplitThreshold)
}

func TestInit_RefusesExistingWithoutForce(t *testing.T) {
	root := t.TempDir()

	_, err := Init(root, types.DefaultProjectConfig("one"), false)
	require.NoError(t, err)

	_, err = Init(root, types.DefaultProjectConfig("two"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")

	p, err := Init(root, types.DefaultProjectConfig("two"), true)
	require.NoError(t, err)
	assert.Equal(t, "two", p.Config.Name)
}

func TestLoad_MissingProject(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "papercutter init")
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, types.DefaultProjectConfig("survey"), false)
	require.NoError(t, err)

	nested := filepath.Join(root, "papers", "2024")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindRoot(nested)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestFindRoot_NotFound(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	require.Error(t, err)
}

func TestInventoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")

	inv, err := LoadInventory(path)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Len())

	added := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv.Add(&types.PaperEntry{
		ID:       "abc123def456",
		Filename: "attention.pdf",
		Title:    "Attention Is All You Need",
		Status:   types.StatusPending,
		AddedAt:  added,
	})
	inv.Add(&types.PaperEntry{
		ID:       "fed654cba321",
		Filename: "trade.pdf",
		Status:   types.StatusIngested,
		AddedAt:  added.Add(time.Hour),
	})
	require.NoError(t, inv.Save())

	reloaded, err := LoadInventory(path)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Len())

	e, ok := reloaded.Get("abc123def456")
	require.True(t, ok)
	assert.Equal(t, "Attention Is All You Need", e.Title)
	assert.Equal(t, types.StatusPending, e.Status)

	list := reloaded.List()
	assert.Equal(t, "abc123def456", list[0].ID, "older entry first")
	assert.Equal(t, "fed654cba321", list[1].ID)
}

func TestInventoryUpdateStatus(t *testing.T) {
	inv := &Inventory{Papers: map[string]*types.PaperEntry{
		"id1": {ID: "id1", Status: types.StatusPending},
	}}

	require.NoError(t, inv.UpdateStatus("id1", types.StatusFailed, "conversion timed out"))
	e, _ := inv.Get("id1")
	assert.Equal(t, types.StatusFailed, e.Status)
	assert.Equal(t, "conversion timed out", e.Error)

	require.NoError(t, inv.UpdateStatus("id1", types.StatusIngested, ""))
	assert.Equal(t, types.StatusIngested, e.Status)
	assert.Empty(t, e.Error)

	require.Error(t, inv.UpdateStatus("nope", types.StatusIngested, ""))
}

func TestInventoryCountByStatus(t *testing.T) {
	inv := &Inventory{Papers: map[string]*types.PaperEntry{
		"a": {ID: "a", Status: types.StatusIngested},
		"b": {ID: "b", Status: types.StatusIngested},
		"c": {ID: "c", Status: types.StatusFailed},
	}}
	counts := inv.CountByStatus()
	assert.Equal(t, 2, counts[types.StatusIngested])
	assert.Equal(t, 1, counts[types.StatusFailed])
	assert.Equal(t, 0, counts[types.StatusPending])

	failed := inv.ByStatus(types.StatusFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "c", failed[0].ID)
}
