package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Strict record decoders. A record object must carry every field of its
// shape and nothing else; a partially present settings or project object is
// treated as corrupt rather than silently defaulted.

type appSettingsWire struct {
	Theme               *string `json:"theme"`
	DefaultVoice        *string `json:"defaultVoice"`
	DefaultOutputFormat *string `json:"defaultOutputFormat"`
	ProjectsDirectory   *string `json:"projectsDirectory"`
	AutoSave            *bool   `json:"autoSave"`
}

type projectRecordWire struct {
	Name            *string         `json:"name"`
	Text            *string         `json:"text"`
	Voice           *string         `json:"voice"`
	VoiceSettings   *map[string]any `json:"voiceSettings"`
	EmotionSettings *map[string]any `json:"emotionSettings"`
	OutputSettings  *map[string]any `json:"outputSettings"`
	Created         *float64        `json:"created"`
	Modified        *float64        `json:"modified"`
}

// DecodeAppSettings parses a full AppSettings object, requiring all fields to
// be present and rejecting unknown keys.
func DecodeAppSettings(data []byte) (*AppSettings, error) {
	var wire appSettingsWire

	err := decodeStrict(data, &wire)
	if err != nil {
		return nil, err
	}

	if wire.Theme == nil || wire.DefaultVoice == nil || wire.DefaultOutputFormat == nil ||
		wire.ProjectsDirectory == nil || wire.AutoSave == nil {
		return nil, fmt.Errorf("%w: missing required settings field", ErrConfigCorrupt)
	}

	return &AppSettings{
		Theme:               *wire.Theme,
		DefaultVoice:        *wire.DefaultVoice,
		DefaultOutputFormat: *wire.DefaultOutputFormat,
		ProjectsDirectory:   *wire.ProjectsDirectory,
		AutoSave:            *wire.AutoSave,
	}, nil
}

// DecodeProjectRecord parses a full ProjectRecord object, requiring all fields
// to be present and rejecting unknown keys.
func DecodeProjectRecord(data []byte) (*ProjectRecord, error) {
	var wire projectRecordWire

	err := decodeStrict(data, &wire)
	if err != nil {
		return nil, err
	}

	if wire.Name == nil || wire.Text == nil || wire.Voice == nil ||
		wire.VoiceSettings == nil || wire.EmotionSettings == nil ||
		wire.OutputSettings == nil || wire.Created == nil || wire.Modified == nil {
		return nil, fmt.Errorf("%w: missing required project field", ErrProjectCorrupt)
	}

	return &ProjectRecord{
		Name:            *wire.Name,
		Text:            *wire.Text,
		Voice:           *wire.Voice,
		VoiceSettings:   *wire.VoiceSettings,
		EmotionSettings: *wire.EmotionSettings,
		OutputSettings:  *wire.OutputSettings,
		Created:         *wire.Created,
		Modified:        *wire.Modified,
	}, nil
}

func decodeStrict(data []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(target)
	if err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}

	return nil
}
