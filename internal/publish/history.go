package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// HistoryRing writes each aircraft.json snapshot to a zero-padded,
// numbered file under a directory, keeping at most Config.History of
// them (§6 "Persisted state" — optional, only active when a directory
// is configured).
type HistoryRing struct {
	dir   string
	limit int
	next  int
}

// NewHistoryRing creates a ring rooted at dir, keeping at most limit
// snapshot files. dir is created if it doesn't exist.
func NewHistoryRing(dir string, limit int) (*HistoryRing, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	h := &HistoryRing{dir: dir, limit: limit}
	// Continue numbering after any files already in dir, so trim's
	// lexical order stays oldest-first.
	existing, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	for _, f := range existing {
		var n int
		if _, err := fmt.Sscanf(filepath.Base(f), "%d.json", &n); err == nil && n >= h.next {
			h.next = n + 1
		}
	}
	return h, nil
}

func (h *HistoryRing) filename(index int) string {
	return filepath.Join(h.dir, fmt.Sprintf("%08d.json", index))
}

// Write appends snap as the next numbered file and trims the oldest
// files beyond the configured limit.
func (h *HistoryRing) Write(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(h.filename(h.next), data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	h.next++

	return h.trim()
}

func (h *HistoryRing) trim() error {
	if h.limit <= 0 {
		return nil
	}

	entries, err := filepath.Glob(filepath.Join(h.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list history files: %w", err)
	}
	if len(entries) <= h.limit {
		return nil
	}

	sort.Strings(entries)
	excess := len(entries) - h.limit
	for _, f := range entries[:excess] {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("failed to remove old history file %s: %w", f, err)
		}
	}
	return nil
}
