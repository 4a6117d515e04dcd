package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/book-expert/voicepro-service/internal/core"
)

// RestoreFunc undoes the effect of a reversed delete_project action. It
// reports whether the project could actually be restored.
type RestoreFunc func(projectID string) (bool, error)

// HistoryLog is the ordered, newest-first log of mutating actions. The full
// sequence is kept in memory and rewritten to disk on every mutation; history
// stays small, so the simplicity of write-through beats append-only
// throughput here.
type HistoryLog struct {
	path    string
	entries []core.HistoryEntry
}

// NewHistoryLog creates a history log backed by the file at path. Call Load
// before use.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{
		path:    path,
		entries: []core.HistoryEntry{},
	}
}

// Load populates the in-memory sequence from disk. A missing file yields an
// empty log.
func (l *HistoryLog) Load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.entries = []core.HistoryEntry{}

			return nil
		}

		return fmt.Errorf("failed to read history file %s: %w", l.path, err)
	}

	var entries []core.HistoryEntry

	unmarshalErr := json.Unmarshal(data, &entries)
	if unmarshalErr != nil {
		return fmt.Errorf("failed to parse history file %s: %w", l.path, unmarshalErr)
	}

	if entries == nil {
		entries = []core.HistoryEntry{}
	}

	l.entries = entries

	return nil
}

// Append prepends the entry and persists the full sequence.
func (l *HistoryLog) Append(entry core.HistoryEntry) error {
	l.entries = append([]core.HistoryEntry{entry}, l.entries...)

	return l.persist()
}

// Entries returns the log newest first. The returned slice is a copy.
func (l *HistoryLog) Entries() []core.HistoryEntry {
	entries := make([]core.HistoryEntry, len(l.entries))
	copy(entries, l.entries)

	return entries
}

// Clear empties the log and persists.
func (l *HistoryLog) Clear() error {
	l.entries = []core.HistoryEntry{}

	return l.persist()
}

// Undo scans newest-first for the first entry whose id matches and whose
// reversible flag is set, and reverses it via restore. Only delete_project is
// a recognized reversible action. When restore reports failure the entry is
// left in the log untouched; on success the entry is removed and the log
// persisted.
func (l *HistoryLog) Undo(actionID string, restore RestoreFunc) (bool, error) {
	for i, entry := range l.entries {
		if entry.ID != actionID || !entry.Reversible {
			continue
		}

		if entry.Action != core.ActionDeleteProject {
			return false, nil
		}

		projectID, ok := entry.Data[core.HistoryDataProjectID].(string)
		if !ok {
			return false, nil
		}

		restored, err := restore(projectID)
		if err != nil {
			return false, err
		}

		if !restored {
			return false, nil
		}

		l.entries = append(l.entries[:i], l.entries[i+1:]...)

		persistErr := l.persist()
		if persistErr != nil {
			return true, persistErr
		}

		return true, nil
	}

	return false, nil
}

func (l *HistoryLog) persist() error {
	data, err := json.Marshal(l.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	writeErr := writeFileAtomic(l.path, data)
	if writeErr != nil {
		return fmt.Errorf("failed to persist history: %w", writeErr)
	}

	return nil
}
