// Package manager composes the settings, project, and history stores into the
// single facade behind the command dispatcher. Every mutating operation is
// durably persisted before the call returns.
package manager

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/voicepro-service/internal/core"
	"github.com/book-expert/voicepro-service/internal/store"
)

// Application directory layout.
const (
	settingsFileName = "settings.json"
	historyFileName  = "history.json"
	projectsDirName  = "projects"
	dirPermissions   = 0o750
)

// History entry detail formats.
const (
	detailsFmtSaved   = "Saved project '%s'"
	detailsFmtDeleted = "Deleted project '%s'"
)

// Manager owns the in-memory state of all three stores. No other component
// mutates store contents directly.
type Manager struct {
	projectsDir string
	settings    *store.SettingsStore
	projects    *store.ProjectStore
	history     *store.HistoryLog
	current     *core.AppSettings
	log         *logger.Logger
}

var _ core.ProjectService = (*Manager)(nil)

// New creates the application directory layout under appDir (idempotent),
// then loads settings and history into memory.
func New(appDir string, log *logger.Logger) (*Manager, error) {
	projectsDir := filepath.Join(appDir, projectsDirName)

	for _, dir := range []string{appDir, projectsDir} {
		mkdirErr := os.MkdirAll(dir, dirPermissions)
		if mkdirErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, mkdirErr)
		}
	}

	settingsStore := store.NewSettingsStore(filepath.Join(appDir, settingsFileName), projectsDir)
	historyLog := store.NewHistoryLog(filepath.Join(appDir, historyFileName))

	current, loadErr := settingsStore.Load()
	if loadErr != nil {
		return nil, fmt.Errorf("failed to load settings: %w", loadErr)
	}

	historyErr := historyLog.Load()
	if historyErr != nil {
		return nil, fmt.Errorf("failed to load history: %w", historyErr)
	}

	return &Manager{
		projectsDir: projectsDir,
		settings:    settingsStore,
		projects:    store.NewProjectStore(projectsDir),
		history:     historyLog,
		current:     current,
		log:         log,
	}, nil
}

// Settings returns a copy of the current application settings.
func (m *Manager) Settings() *core.AppSettings {
	settings := *m.current

	return &settings
}

// UpdateSettings persists the new settings record and swaps the cached copy.
func (m *Manager) UpdateSettings(settings *core.AppSettings) error {
	err := m.settings.Save(settings)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	m.current = settings

	return nil
}

// Projects lists all live project records, most recently modified first.
func (m *Manager) Projects() ([]core.ProjectRecord, error) {
	return m.projects.List()
}

// Project returns the named record, or nil when no such project exists.
func (m *Manager) Project(name string) (*core.ProjectRecord, error) {
	return m.projects.Get(name)
}

// SaveProject persists the record and appends a non-reversible save_project
// history entry.
func (m *Manager) SaveProject(record *core.ProjectRecord) error {
	err := m.projects.Save(record)
	if err != nil {
		return err
	}

	appendErr := m.history.Append(core.HistoryEntry{
		ID:         uuid.NewString(),
		Action:     core.ActionSaveProject,
		Timestamp:  core.NowUnixSeconds(),
		Details:    fmt.Sprintf(detailsFmtSaved, record.Name),
		ProjectID:  record.Name,
		Reversible: false,
		Data:       nil,
	})
	if appendErr != nil {
		return fmt.Errorf("project saved but history append failed: %w", appendErr)
	}

	m.log.Info(detailsFmtSaved, record.Name)

	return nil
}

// DeleteProject removes the named project, keeping its backup file, and
// appends a reversible delete_project entry. A missing project reports false
// and leaves the history untouched.
func (m *Manager) DeleteProject(name string) (bool, error) {
	deleted, err := m.projects.Delete(name)
	if err != nil {
		return false, err
	}

	if !deleted {
		return false, nil
	}

	appendErr := m.history.Append(core.HistoryEntry{
		ID:         uuid.NewString(),
		Action:     core.ActionDeleteProject,
		Timestamp:  core.NowUnixSeconds(),
		Details:    fmt.Sprintf(detailsFmtDeleted, name),
		ProjectID:  name,
		Reversible: true,
		Data:       map[string]any{core.HistoryDataProjectID: name},
	})
	if appendErr != nil {
		return true, fmt.Errorf("project deleted but history append failed: %w", appendErr)
	}

	m.log.Info(detailsFmtDeleted, name)

	return true, nil
}

// CreateFromTemplate copies the template's content fields into a new record
// with fresh timestamps and the new name, then saves it through SaveProject.
// Template creation is not separately logged; SaveProject's entry covers it.
func (m *Manager) CreateFromTemplate(templateName, newName string) (*core.ProjectRecord, error) {
	template, err := m.projects.Get(templateName)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, fmt.Errorf("%w: '%s'", core.ErrTemplateNotFound, templateName)
	}

	now := core.NowUnixSeconds()
	record := &core.ProjectRecord{
		Name:            newName,
		Text:            template.Text,
		Voice:           template.Voice,
		VoiceSettings:   maps.Clone(template.VoiceSettings),
		EmotionSettings: maps.Clone(template.EmotionSettings),
		OutputSettings:  maps.Clone(template.OutputSettings),
		Created:         now,
		Modified:        now,
	}

	saveErr := m.SaveProject(record)
	if saveErr != nil {
		return nil, saveErr
	}

	return record, nil
}

// History returns the action log, newest first.
func (m *Manager) History() []core.HistoryEntry {
	return m.history.Entries()
}

// ClearHistory wipes the action log.
func (m *Manager) ClearHistory() error {
	return m.history.Clear()
}

// UndoAction reverses the identified history entry if it is reversible,
// restoring the deleted project from its backup file.
func (m *Manager) UndoAction(actionID string) (bool, error) {
	return m.history.Undo(actionID, m.projects.Restore)
}
