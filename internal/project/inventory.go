// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

// Inventory is the persistent record of every paper the project knows
// about, keyed by content-hash ID.
type Inventory struct {
	path   string
	Papers map[string]*types.PaperEntry `json:"papers"`
}

// LoadInventory reads the inventory at path, returning an empty one if
// the file does not exist yet.
func LoadInventory(path string) (*Inventory, error) {
	inv := &Inventory{path: path, Papers: make(map[string]*types.PaperEntry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, nil
		}
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	if err := json.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("parsing inventory: %w", err)
	}
	if inv.Papers == nil {
		inv.Papers = make(map[string]*types.PaperEntry)
	}
	return inv, nil
}

// Save writes the inventory back to disk atomically.
func (inv *Inventory) Save() error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}
	return writeFileAtomic(inv.path, append(data, '\n'))
}

// Add inserts or replaces the entry for e.ID.
func (inv *Inventory) Add(e *types.PaperEntry) {
	inv.Papers[e.ID] = e
}

// Get returns the entry for id, if present.
func (inv *Inventory) Get(id string) (*types.PaperEntry, bool) {
	e, ok := inv.Papers[id]
	return e, ok
}

// UpdateStatus sets the status of the entry for id, recording err as
// the failure message when the status is failed.
func (inv *Inventory) UpdateStatus(id string, status types.PaperStatus, errMsg string) error {
	e, ok := inv.Papers[id]
	if !ok {
		return fmt.Errorf("unknown paper id %q", id)
	}
	e.Status = status
	if status == types.StatusFailed {
		e.Error = errMsg
	} else {
		e.Error = ""
	}
	return nil
}

// Len returns the number of papers in the inventory.
func (inv *Inventory) Len() int {
	return len(inv.Papers)
}

// List returns all entries ordered by the time they were added, with
// the ID as a tiebreaker for stable output.
func (inv *Inventory) List() []*types.PaperEntry {
	entries := make([]*types.PaperEntry, 0, len(inv.Papers))
	for _, e := range inv.Papers {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].AddedAt.Before(entries[j].AddedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// ByStatus returns the entries with the given status, in List order.
func (inv *Inventory) ByStatus(status types.PaperStatus) []*types.PaperEntry {
	var out []*types.PaperEntry
	for _, e := range inv.List() {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// CountByStatus tallies entries per status.
func (inv *Inventory) CountByStatus() map[types.PaperStatus]int {
	counts := make(map[types.PaperStatus]int)
	for _, e := range inv.Papers {
		counts[e.Status]++
	}
	return counts
}
