package core

import (
	"encoding/json"
	"fmt"
)

// Defaults applied to generation parameters the caller leaves unset. The
// emotion vector defaults to a mostly-neutral blend; the sampling defaults
// match the model engine's recommended operating point.
const (
	DefaultLanguage     = "en-us"
	defaultHappiness    = 1.0
	defaultSadness      = 0.05
	defaultDisgust      = 0.05
	defaultFear         = 0.05
	defaultSurprise     = 0.05
	defaultAnger        = 0.05
	defaultOther        = 0.1
	defaultNeutral      = 0.2
	defaultVQSingle     = 0.78
	defaultFMax         = 24000.0
	defaultPitchStd     = 45.0
	defaultSpeakingRate = 15.0
	defaultDNSMOS       = 4.0
	defaultCFGScale     = 2.0
	defaultTopP         = 0.8
	defaultTopK         = 50
	defaultMinP         = 0.05
	defaultLinear       = 0.5
	defaultConfidence   = 0.4
	defaultQuadratic    = 0.0
)

// GenerateParams carries one fully-resolved synthesis request for the model
// engine. Every optional field has already been defaulted; the engine receives
// an explicit value for each knob.
type GenerateParams struct {
	ModelChoice       string   `json:"model_choice"`
	Text              string   `json:"text"`
	Language          string   `json:"language"`
	SpeakerAudio      string   `json:"speaker_audio,omitempty"`
	PrefixAudio       string   `json:"prefix_audio,omitempty"`
	Happiness         float64  `json:"e1"`
	Sadness           float64  `json:"e2"`
	Disgust           float64  `json:"e3"`
	Fear              float64  `json:"e4"`
	Surprise          float64  `json:"e5"`
	Anger             float64  `json:"e6"`
	Other             float64  `json:"e7"`
	Neutral           float64  `json:"e8"`
	VQSingle          float64  `json:"vq_single"`
	FMax              float64  `json:"fmax"`
	PitchStd          float64  `json:"pitch_std"`
	SpeakingRate      float64  `json:"speaking_rate"`
	DNSMOSOverall     float64  `json:"dnsmos_ovrl"`
	SpeakerNoised     bool     `json:"speaker_noised"`
	CFGScale          float64  `json:"cfg_scale"`
	TopP              float64  `json:"top_p"`
	TopK              int      `json:"top_k"`
	MinP              float64  `json:"min_p"`
	Linear            float64  `json:"linear"`
	Confidence        float64  `json:"confidence"`
	Quadratic         float64  `json:"quadratic"`
	UnconditionalKeys []string `json:"unconditional_keys"`
}

// generateParamsWire mirrors GenerateParams with pointer fields so that an
// absent key can be told apart from an explicit zero before defaulting.
// Unknown keys are ignored: the params object is caller-owned.
type generateParamsWire struct {
	ModelChoice       *string   `json:"model_choice"`
	Text              *string   `json:"text"`
	Language          *string   `json:"language"`
	SpeakerAudio      *string   `json:"speaker_audio"`
	PrefixAudio       *string   `json:"prefix_audio"`
	Happiness         *float64  `json:"e1"`
	Sadness           *float64  `json:"e2"`
	Disgust           *float64  `json:"e3"`
	Fear              *float64  `json:"e4"`
	Surprise          *float64  `json:"e5"`
	Anger             *float64  `json:"e6"`
	Other             *float64  `json:"e7"`
	Neutral           *float64  `json:"e8"`
	VQSingle          *float64  `json:"vq_single"`
	FMax              *float64  `json:"fmax"`
	PitchStd          *float64  `json:"pitch_std"`
	SpeakingRate      *float64  `json:"speaking_rate"`
	DNSMOSOverall     *float64  `json:"dnsmos_ovrl"`
	SpeakerNoised     *bool     `json:"speaker_noised"`
	CFGScale          *float64  `json:"cfg_scale"`
	TopP              *float64  `json:"top_p"`
	TopK              *int      `json:"top_k"`
	MinP              *float64  `json:"min_p"`
	Linear            *float64  `json:"linear"`
	Confidence        *float64  `json:"confidence"`
	Quadratic         *float64  `json:"quadratic"`
	UnconditionalKeys *[]string `json:"unconditional_keys"`
}

// DecodeGenerateParams parses a raw params object and applies the documented
// defaults to every field the caller left unset. It does not enforce the
// presence of model_choice; that validation belongs to the dispatcher.
func DecodeGenerateParams(data []byte) (*GenerateParams, error) {
	var wire generateParamsWire

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation params: %w", err)
	}

	params := &GenerateParams{
		ModelChoice:       stringOr(wire.ModelChoice, ""),
		Text:              stringOr(wire.Text, ""),
		Language:          stringOr(wire.Language, DefaultLanguage),
		SpeakerAudio:      stringOr(wire.SpeakerAudio, ""),
		PrefixAudio:       stringOr(wire.PrefixAudio, ""),
		Happiness:         floatOr(wire.Happiness, defaultHappiness),
		Sadness:           floatOr(wire.Sadness, defaultSadness),
		Disgust:           floatOr(wire.Disgust, defaultDisgust),
		Fear:              floatOr(wire.Fear, defaultFear),
		Surprise:          floatOr(wire.Surprise, defaultSurprise),
		Anger:             floatOr(wire.Anger, defaultAnger),
		Other:             floatOr(wire.Other, defaultOther),
		Neutral:           floatOr(wire.Neutral, defaultNeutral),
		VQSingle:          floatOr(wire.VQSingle, defaultVQSingle),
		FMax:              floatOr(wire.FMax, defaultFMax),
		PitchStd:          floatOr(wire.PitchStd, defaultPitchStd),
		SpeakingRate:      floatOr(wire.SpeakingRate, defaultSpeakingRate),
		DNSMOSOverall:     floatOr(wire.DNSMOSOverall, defaultDNSMOS),
		SpeakerNoised:     boolOr(wire.SpeakerNoised, false),
		CFGScale:          floatOr(wire.CFGScale, defaultCFGScale),
		TopP:              floatOr(wire.TopP, defaultTopP),
		TopK:              intOr(wire.TopK, defaultTopK),
		MinP:              floatOr(wire.MinP, defaultMinP),
		Linear:            floatOr(wire.Linear, defaultLinear),
		Confidence:        floatOr(wire.Confidence, defaultConfidence),
		Quadratic:         floatOr(wire.Quadratic, defaultQuadratic),
		UnconditionalKeys: keysOr(wire.UnconditionalKeys, []string{"emotion"}),
	}

	return params, nil
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}

	return *value
}

func floatOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}

	return *value
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}

	return *value
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}

	return *value
}

func keysOr(value *[]string, fallback []string) []string {
	if value == nil {
		return fallback
	}

	return *value
}
