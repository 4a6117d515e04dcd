package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/book-expert/voicepro-service/internal/core"
)

// SettingsStore loads and persists the singleton application settings record.
type SettingsStore struct {
	path               string
	defaultProjectsDir string
}

// NewSettingsStore creates a settings store backed by the file at path. The
// defaultProjectsDir seeds the first-run settings record when no file exists.
func NewSettingsStore(path, defaultProjectsDir string) *SettingsStore {
	return &SettingsStore{
		path:               path,
		defaultProjectsDir: defaultProjectsDir,
	}
}

// Load reads the settings file if present. On absence it returns the
// hard-coded default record; a file that exists but cannot be parsed into the
// full settings shape fails with core.ErrConfigCorrupt.
func (s *SettingsStore) Load() (*core.AppSettings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.DefaultAppSettings(s.defaultProjectsDir), nil
		}

		return nil, fmt.Errorf("failed to read settings file %s: %w", s.path, err)
	}

	settings, decodeErr := core.DecodeAppSettings(data)
	if decodeErr != nil {
		if errors.Is(decodeErr, core.ErrConfigCorrupt) {
			return nil, decodeErr
		}

		return nil, fmt.Errorf("%w: %w", core.ErrConfigCorrupt, decodeErr)
	}

	return settings, nil
}

// Save overwrites the settings file atomically. Settings changes are not
// recorded in the action history.
func (s *SettingsStore) Save(settings *core.AppSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	writeErr := writeFileAtomic(s.path, data)
	if writeErr != nil {
		return fmt.Errorf("failed to persist settings: %w", writeErr)
	}

	return nil
}
