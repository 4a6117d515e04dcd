// Package store provides the file-backed settings, project, and history
// stores for the voicepro service. All writes go through an atomic
// write-to-temp-then-rename path so a crash can never leave a truncated file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// writeFileAtomic writes data to a temporary file in the target directory and
// renames it over the destination. Rename within one directory is atomic on
// POSIX filesystems, which is the crash-safety guarantee the stores rely on.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}

	tempName := tempFile.Name()

	_, writeErr := tempFile.Write(data)
	closeErr := tempFile.Close()

	if writeErr != nil {
		removeTemp(tempName)

		return fmt.Errorf("failed to write temp file %s: %w", tempName, writeErr)
	}

	if closeErr != nil {
		removeTemp(tempName)

		return fmt.Errorf("failed to close temp file %s: %w", tempName, closeErr)
	}

	chmodErr := os.Chmod(tempName, filePermissions)
	if chmodErr != nil {
		removeTemp(tempName)

		return fmt.Errorf("failed to chmod temp file %s: %w", tempName, chmodErr)
	}

	renameErr := os.Rename(tempName, path)
	if renameErr != nil {
		removeTemp(tempName)

		return fmt.Errorf("failed to rename %s to %s: %w", tempName, path, renameErr)
	}

	return nil
}

func removeTemp(path string) {
	// Best effort: the rename never happened, so the temp file is garbage.
	_ = os.Remove(path)
}
