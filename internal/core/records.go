// Package core defines the record types, interfaces, and shared errors for the
// voicepro service.
package core

import "time"

// Action tags for history entries. The set is closed: the dispatcher and the
// history log only ever produce these values.
const (
	ActionSaveProject   = "save_project"
	ActionDeleteProject = "delete_project"
)

// HistoryDataProjectID is the key under which a reversible delete_project
// entry stores the name of the deleted project.
const HistoryDataProjectID = "project_id"

// Default application settings, used when no settings file exists yet.
const (
	DefaultTheme        = "system"
	DefaultVoice        = "emma"
	DefaultOutputFormat = "mp3"
	DefaultAutoSave     = true
)

// ProjectRecord is a named, persisted configuration for one synthesis job.
// The name is the sole identity and doubles as the storage file name stem.
// The voiceSettings, emotionSettings, and outputSettings maps are opaque
// pass-through data owned by the frontend; the core never interprets them.
type ProjectRecord struct {
	Name            string         `json:"name"`
	Text            string         `json:"text"`
	Voice           string         `json:"voice"`
	VoiceSettings   map[string]any `json:"voiceSettings"`
	EmotionSettings map[string]any `json:"emotionSettings"`
	OutputSettings  map[string]any `json:"outputSettings"`
	Created         float64        `json:"created"`
	Modified        float64        `json:"modified"`
}

// HistoryEntry is a logged record of a mutating action, optionally reversible.
// ProjectID is a weak reference: the named project may no longer exist.
type HistoryEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Timestamp  float64        `json:"timestamp"`
	Details    string         `json:"details"`
	ProjectID  string         `json:"projectId"`
	Reversible bool           `json:"reversible"`
	Data       map[string]any `json:"data"`
}

// AppSettings is the singleton application settings record.
type AppSettings struct {
	Theme               string `json:"theme"`
	DefaultVoice        string `json:"defaultVoice"`
	DefaultOutputFormat string `json:"defaultOutputFormat"`
	ProjectsDirectory   string `json:"projectsDirectory"`
	AutoSave            bool   `json:"autoSave"`
}

// DefaultAppSettings returns the hard-coded first-run settings record.
func DefaultAppSettings(projectsDirectory string) *AppSettings {
	return &AppSettings{
		Theme:               DefaultTheme,
		DefaultVoice:        DefaultVoice,
		DefaultOutputFormat: DefaultOutputFormat,
		ProjectsDirectory:   projectsDirectory,
		AutoSave:            DefaultAutoSave,
	}
}

// NowUnixSeconds returns the current wall-clock time as fractional seconds
// since the epoch, the timestamp representation used by all persisted records.
func NowUnixSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
