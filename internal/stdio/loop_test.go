// Package stdio_test tests the line-delimited protocol loop over in-memory
// streams.
package stdio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voicepro-service/internal/core"
	"github.com/book-expert/voicepro-service/internal/dispatch"
	"github.com/book-expert/voicepro-service/internal/stdio"
)

// fixedEngine answers every engine call with static data.
type fixedEngine struct{}

func (fixedEngine) ListModels(context.Context) ([]string, error) {
	return []string{"zonos-v0.1"}, nil
}

func (fixedEngine) Conditioners(_ context.Context, _ string) ([]string, error) {
	return []string{"espeak"}, nil
}

func (fixedEngine) Generate(_ context.Context, _ core.GenerateParams) (*core.GenerateResult, error) {
	return &core.GenerateResult{SampleRate: 44100, Samples: []float64{0.5}}, nil
}

func (fixedEngine) VoiceSettings(_ context.Context, _ string) (*core.VoiceSettings, error) {
	return &core.VoiceSettings{SupportedLanguages: []string{"en-us"}, Parameters: core.VoiceParameters{}}, nil
}

// fixedService answers every service call with static data.
type fixedService struct{}

func (fixedService) Settings() *core.AppSettings              { return core.DefaultAppSettings("/p") }
func (fixedService) UpdateSettings(*core.AppSettings) error   { return nil }
func (fixedService) Projects() ([]core.ProjectRecord, error)  { return nil, nil }
func (fixedService) Project(string) (*core.ProjectRecord, error) {
	return nil, nil
}
func (fixedService) SaveProject(*core.ProjectRecord) error { return nil }
func (fixedService) DeleteProject(string) (bool, error)    { return false, nil }
func (fixedService) CreateFromTemplate(_, _ string) (*core.ProjectRecord, error) {
	return nil, core.ErrTemplateNotFound
}
func (fixedService) History() []core.HistoryEntry    { return nil }
func (fixedService) ClearHistory() error             { return nil }
func (fixedService) UndoAction(string) (bool, error) { return false, nil }

func runLoop(t *testing.T, input string) []string {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		if closeErr != nil {
			t.Logf("failed to close test logger: %v", closeErr)
		}
	})

	dispatcher := dispatch.New(fixedService{}, fixedEngine{}, log)

	var output bytes.Buffer

	loop := stdio.New(dispatcher, strings.NewReader(input), &output, log)
	require.NoError(t, loop.Run(context.Background()))

	text := strings.TrimRight(output.String(), "\n")
	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}

func TestLoopOneResponsePerRequest(t *testing.T) {
	t.Parallel()

	lines := runLoop(t, `{"type":"get_models"}`+"\n"+`{"type":"get_settings"}`+"\n")
	require.Len(t, lines, 2)

	var first map[string]any

	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, true, first["success"])
	assert.Equal(t, []any{"zonos-v0.1"}, first["data"])

	var second map[string]any

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, true, second["success"])
}

func TestLoopSkipsBlankLines(t *testing.T) {
	t.Parallel()

	lines := runLoop(t, "\n  \n"+`{"type":"get_models"}`+"\n\n")
	assert.Len(t, lines, 1)
}

func TestLoopSkipsMalformedLinesWithoutResponse(t *testing.T) {
	t.Parallel()

	lines := runLoop(t, "{not json}\n"+`{"type":"get_models"}`+"\n")
	require.Len(t, lines, 1)

	var envelope map[string]any

	require.NoError(t, json.Unmarshal([]byte(lines[0]), &envelope))
	assert.Equal(t, true, envelope["success"])
}

func TestLoopUnknownCommandGetsErrorEnvelope(t *testing.T) {
	t.Parallel()

	lines := runLoop(t, `{"type":"bogus"}`+"\n")
	require.Len(t, lines, 1)

	var envelope map[string]any

	require.NoError(t, json.Unmarshal([]byte(lines[0]), &envelope))
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "unknown command", envelope["error"])

	_, hasData := envelope["data"]
	assert.False(t, hasData)
}

func TestLoopEmptyInput(t *testing.T) {
	t.Parallel()

	lines := runLoop(t, "")
	assert.Empty(t, lines)
}

func TestLoopStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		if closeErr != nil {
			t.Logf("failed to close test logger: %v", closeErr)
		}
	})

	dispatcher := dispatch.New(fixedService{}, fixedEngine{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var output bytes.Buffer

	loop := stdio.New(dispatcher, strings.NewReader(`{"type":"get_models"}`+"\n"), &output, log)
	require.NoError(t, loop.Run(ctx))
	assert.Empty(t, output.String())
}
