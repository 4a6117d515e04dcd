// Package engine provides the HTTP client for the external model engine that
// performs actual text-to-speech synthesis. The core forwards requests to it
// and relays results or errors verbatim; model internals stay opaque.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/book-expert/voicepro-service/internal/core"
)

// API endpoints exposed by the model engine service.
const (
	apiModels       = "/models"
	apiConditioners = "/conditioners"
	apiGenerate     = "/generate"
	apiLanguages    = "/languages"
	apiHealth       = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Static errors.
var (
	ErrModelEmpty    = errors.New("model identifier cannot be empty")
	ErrVoiceEmpty    = errors.New("voice identifier cannot be empty")
	ErrNoSamples     = errors.New("engine returned no audio samples")
	ErrBadSampleRate = errors.New("engine returned a non-positive sample rate")
)

// Voice parameter schema bounds. The schema is static; only the supported
// languages vary by model.
const (
	speedPitchMin   = 0.5
	speedPitchMax   = 2.0
	unitRangeMax    = 1.0
	midpointDefault = 0.5
	seedMax         = 1000000
)

// Client talks to the standalone model engine over HTTP. It encapsulates the
// base URL, timeout, and structured error parsing.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ core.ModelEngine = (*Client)(nil)

// engineErrorResponse is the structured error body the engine service returns
// on failure.
type engineErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewClient creates a model engine client. The baseURL should include the
// protocol and port (e.g. "http://localhost:7860"); the timeout applies to
// every request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListModels returns the identifiers of the models the engine can serve.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var models []string

	err := c.getJSON(ctx, apiModels, nil, &models)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	return models, nil
}

// Conditioners returns the conditioner names of the given model.
func (c *Client) Conditioners(ctx context.Context, model string) ([]string, error) {
	if model == "" {
		return nil, ErrModelEmpty
	}

	query := url.Values{}
	query.Set("model", model)

	var conditioners []string

	err := c.getJSON(ctx, apiConditioners, query, &conditioners)
	if err != nil {
		return nil, fmt.Errorf("failed to list conditioners for model '%s': %w", model, err)
	}

	return conditioners, nil
}

// Generate sends one synthesis request and returns the sample rate and
// samples the engine produced.
func (c *Client) Generate(ctx context.Context, params core.GenerateParams) (*core.GenerateResult, error) {
	requestBody, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerate,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send generation request to %s: %w", c.baseURL, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var result core.GenerateResult

	decodeErr := json.NewDecoder(resp.Body).Decode(&result)
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", decodeErr)
	}

	if result.SampleRate <= 0 {
		return nil, ErrBadSampleRate
	}

	if len(result.Samples) == 0 {
		return nil, ErrNoSamples
	}

	return &result, nil
}

// VoiceSettings composes the static parameter schema with the engine's
// model-dependent supported-languages list for the given voice.
func (c *Client) VoiceSettings(ctx context.Context, voice string) (*core.VoiceSettings, error) {
	if voice == "" {
		return nil, ErrVoiceEmpty
	}

	languages, err := c.SupportedLanguages(ctx, voice)
	if err != nil {
		return nil, err
	}

	return &core.VoiceSettings{
		SupportedLanguages: languages,
		Parameters:         parameterSchema(),
	}, nil
}

// SupportedLanguages returns the language codes the given model supports.
func (c *Client) SupportedLanguages(ctx context.Context, model string) ([]string, error) {
	if model == "" {
		return nil, ErrModelEmpty
	}

	query := url.Values{}
	query.Set("model", model)

	var languages []string

	err := c.getJSON(ctx, apiLanguages, query, &languages)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages for model '%s': %w", model, err)
	}

	return languages, nil
}

// HealthCheck verifies that the engine service is running. It should be
// called at startup to fail fast with clear diagnostics.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for engine at %s: %w", c.baseURL, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", requestURL, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	decodeErr := json.NewDecoder(resp.Body).Decode(target)
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	return nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// engine. If structured parsing fails, it falls back to the raw response body
// so diagnostic information is preserved.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp engineErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf("engine error (%s): %s (code: %s)",
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("engine returned non-OK status: %s, body: %s", resp.Status, string(body))
}

func closeBody(resp *http.Response) {
	_ = resp.Body.Close()
}

func parameterSchema() core.VoiceParameters {
	return core.VoiceParameters{
		Speed: core.ParameterRange{Min: speedPitchMin, Max: speedPitchMax, Default: 1.0},
		Pitch: core.ParameterRange{Min: speedPitchMin, Max: speedPitchMax, Default: 1.0},
		Tone:  core.ParameterRange{Min: 0, Max: unitRangeMax, Default: midpointDefault},
		Emotions: core.EmotionParameters{
			Linear:     core.ParameterRange{Min: 0, Max: unitRangeMax, Default: midpointDefault},
			Confidence: core.ParameterRange{Min: 0, Max: unitRangeMax, Default: midpointDefault},
			Quadratic:  core.ParameterRange{Min: 0, Max: unitRangeMax, Default: 0},
		},
		Seed:           core.ParameterRange{Min: 0, Max: seedMax, Default: 0},
		RandomizeSeed:  core.BoolDefault{Default: true},
		UnconditionalK: core.KeysDefault{Default: []string{"emotion"}},
	}
}
