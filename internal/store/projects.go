package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/book-expert/voicepro-service/internal/core"
)

// File naming for persisted projects.
const (
	projectFileExt   = ".json"
	backupFileSuffix = ".backup.json"
)

// ProjectStore persists project records as one JSON file per project in the
// projects directory. The project name is the file name stem and the sole
// identity: saving under an existing name overwrites it.
type ProjectStore struct {
	dir string
}

// NewProjectStore creates a project store rooted at dir. The directory is
// created by the project manager, not here.
func NewProjectStore(dir string) *ProjectStore {
	return &ProjectStore{dir: dir}
}

// Get reads and parses the record for name. A missing file returns (nil, nil);
// a present but unparsable file fails with core.ErrProjectCorrupt.
func (s *ProjectStore) Get(name string) (*core.ProjectRecord, error) {
	nameErr := validateProjectName(name)
	if nameErr != nil {
		return nil, nameErr
	}

	data, err := os.ReadFile(s.projectPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read project file for '%s': %w", name, err)
	}

	record, decodeErr := core.DecodeProjectRecord(data)
	if decodeErr != nil {
		if errors.Is(decodeErr, core.ErrProjectCorrupt) {
			return nil, decodeErr
		}

		return nil, fmt.Errorf("%w: %w", core.ErrProjectCorrupt, decodeErr)
	}

	return record, nil
}

// Save stamps the record's modified time and writes its file atomically.
// Creation and update share this one code path.
func (s *ProjectStore) Save(record *core.ProjectRecord) error {
	nameErr := validateProjectName(record.Name)
	if nameErr != nil {
		return nameErr
	}

	record.Modified = core.NowUnixSeconds()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal project '%s': %w", record.Name, err)
	}

	writeErr := writeFileAtomic(s.projectPath(record.Name), data)
	if writeErr != nil {
		return fmt.Errorf("failed to persist project '%s': %w", record.Name, writeErr)
	}

	return nil
}

// List returns all live project records sorted by modified time descending.
// Equal timestamps sort by name ascending so the order is deterministic.
func (s *ProjectStore) List() ([]core.ProjectRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory %s: %w", s.dir, err)
	}

	records := make([]core.ProjectRecord, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !isLiveProjectFile(entry.Name()) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), projectFileExt)

		record, getErr := s.Get(name)
		if getErr != nil {
			return nil, getErr
		}

		if record != nil {
			records = append(records, *record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Modified != records[j].Modified {
			return records[i].Modified > records[j].Modified
		}

		return records[i].Name < records[j].Name
	})

	return records, nil
}

// Delete copies the project's file to its backup name and removes the live
// file. It reports whether a live file existed; a missing project is not an
// error.
func (s *ProjectStore) Delete(name string) (bool, error) {
	nameErr := validateProjectName(name)
	if nameErr != nil {
		return false, nameErr
	}

	data, err := os.ReadFile(s.projectPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read project file for '%s': %w", name, err)
	}

	backupErr := writeFileAtomic(s.backupPath(name), data)
	if backupErr != nil {
		return false, fmt.Errorf("failed to write backup for '%s': %w", name, backupErr)
	}

	removeErr := os.Remove(s.projectPath(name))
	if removeErr != nil {
		return false, fmt.Errorf("failed to remove project file for '%s': %w", name, removeErr)
	}

	return true, nil
}

// Restore renames the project's backup file back to its live name, undoing a
// prior Delete. It reports false without mutation when no backup exists.
func (s *ProjectStore) Restore(name string) (bool, error) {
	nameErr := validateProjectName(name)
	if nameErr != nil {
		return false, nameErr
	}

	_, err := os.Stat(s.backupPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to stat backup for '%s': %w", name, err)
	}

	renameErr := os.Rename(s.backupPath(name), s.projectPath(name))
	if renameErr != nil {
		return false, fmt.Errorf("failed to restore project '%s': %w", name, renameErr)
	}

	return true, nil
}

func (s *ProjectStore) projectPath(name string) string {
	return filepath.Join(s.dir, name+projectFileExt)
}

func (s *ProjectStore) backupPath(name string) string {
	return filepath.Join(s.dir, name+backupFileSuffix)
}

func isLiveProjectFile(fileName string) bool {
	return strings.HasSuffix(fileName, projectFileExt) &&
		!strings.HasSuffix(fileName, backupFileSuffix)
}

// validateProjectName rejects names that cannot serve as a file name stem.
func validateProjectName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: '%s'", core.ErrInvalidProjectName, name)
	}

	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: '%s' contains a path separator", core.ErrInvalidProjectName, name)
	}

	return nil
}
