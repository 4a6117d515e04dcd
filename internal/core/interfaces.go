package core

import "context"

// ModelEngine is the external synthesis collaborator. The core only forwards
// requests to it and relays results or errors; its internals are opaque.
type ModelEngine interface {
	ListModels(ctx context.Context) ([]string, error)
	Conditioners(ctx context.Context, model string) ([]string, error)
	Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error)
	VoiceSettings(ctx context.Context, voice string) (*VoiceSettings, error)
}

// ProjectService is the facade surface the command dispatcher drives. It is
// implemented by the project manager and by test doubles.
type ProjectService interface {
	Settings() *AppSettings
	UpdateSettings(settings *AppSettings) error
	Projects() ([]ProjectRecord, error)
	Project(name string) (*ProjectRecord, error)
	SaveProject(record *ProjectRecord) error
	DeleteProject(name string) (bool, error)
	CreateFromTemplate(templateName, newName string) (*ProjectRecord, error)
	History() []HistoryEntry
	ClearHistory() error
	UndoAction(actionID string) (bool, error)
}

// GenerateResult holds the output of one synthesis call.
type GenerateResult struct {
	SampleRate int       `json:"sampleRate"`
	Samples    []float64 `json:"audio"`
}

// ParameterRange describes the valid range and default of one numeric voice
// parameter.
type ParameterRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// EmotionParameters describes the ranges of the emotion blending controls.
type EmotionParameters struct {
	Linear     ParameterRange `json:"linear"`
	Confidence ParameterRange `json:"confidence"`
	Quadratic  ParameterRange `json:"quadratic"`
}

// BoolDefault wraps a boolean parameter that only carries a default.
type BoolDefault struct {
	Default bool `json:"default"`
}

// KeysDefault wraps a string-list parameter that only carries a default.
type KeysDefault struct {
	Default []string `json:"default"`
}

// VoiceParameters is the static parameter schema advertised for a voice.
type VoiceParameters struct {
	Speed          ParameterRange    `json:"speed"`
	Pitch          ParameterRange    `json:"pitch"`
	Tone           ParameterRange    `json:"tone"`
	Emotions       EmotionParameters `json:"emotions"`
	Seed           ParameterRange    `json:"seed"`
	RandomizeSeed  BoolDefault       `json:"randomize_seed"`
	UnconditionalK KeysDefault       `json:"unconditional_k"`
}

// VoiceSettings is the capabilities object returned for get_voice_settings:
// a static parameter schema plus the model-dependent supported-languages list.
type VoiceSettings struct {
	SupportedLanguages []string        `json:"supported_languages"`
	Parameters         VoiceParameters `json:"parameters"`
}
