// Package dispatch_test exercises request routing, validation, and the
// response envelope against recording test doubles.
package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voicepro-service/internal/core"
	"github.com/book-expert/voicepro-service/internal/dispatch"
)

var errEngineDown = errors.New("engine unavailable")

// mockService records every call so tests can assert that invalid requests
// never reach the project service.
type mockService struct {
	calls []string

	settings       *core.AppSettings
	projects       []core.ProjectRecord
	project        *core.ProjectRecord
	history        []core.HistoryEntry
	deleted        bool
	undone         bool
	templateRecord *core.ProjectRecord

	updateErr error
	saveErr   error
	deleteErr error
}

func (m *mockService) Settings() *core.AppSettings {
	m.calls = append(m.calls, "Settings")

	return m.settings
}

func (m *mockService) UpdateSettings(*core.AppSettings) error {
	m.calls = append(m.calls, "UpdateSettings")

	return m.updateErr
}

func (m *mockService) Projects() ([]core.ProjectRecord, error) {
	m.calls = append(m.calls, "Projects")

	return m.projects, nil
}

func (m *mockService) Project(string) (*core.ProjectRecord, error) {
	m.calls = append(m.calls, "Project")

	return m.project, nil
}

func (m *mockService) SaveProject(*core.ProjectRecord) error {
	m.calls = append(m.calls, "SaveProject")

	return m.saveErr
}

func (m *mockService) DeleteProject(string) (bool, error) {
	m.calls = append(m.calls, "DeleteProject")

	return m.deleted, m.deleteErr
}

func (m *mockService) CreateFromTemplate(_, newName string) (*core.ProjectRecord, error) {
	m.calls = append(m.calls, "CreateFromTemplate")

	if m.templateRecord == nil {
		return nil, core.ErrTemplateNotFound
	}

	record := *m.templateRecord
	record.Name = newName

	return &record, nil
}

func (m *mockService) History() []core.HistoryEntry {
	m.calls = append(m.calls, "History")

	return m.history
}

func (m *mockService) ClearHistory() error {
	m.calls = append(m.calls, "ClearHistory")

	return nil
}

func (m *mockService) UndoAction(string) (bool, error) {
	m.calls = append(m.calls, "UndoAction")

	return m.undone, nil
}

// mockEngine records calls and replays canned results.
type mockEngine struct {
	calls []string

	models       []string
	conditioners []string
	lastParams   core.GenerateParams
	result       *core.GenerateResult
	voice        *core.VoiceSettings

	generateErr error
}

func (m *mockEngine) ListModels(context.Context) ([]string, error) {
	m.calls = append(m.calls, "ListModels")

	return m.models, nil
}

func (m *mockEngine) Conditioners(_ context.Context, _ string) ([]string, error) {
	m.calls = append(m.calls, "Conditioners")

	return m.conditioners, nil
}

func (m *mockEngine) Generate(_ context.Context, params core.GenerateParams) (*core.GenerateResult, error) {
	m.calls = append(m.calls, "Generate")
	m.lastParams = params

	if m.generateErr != nil {
		return nil, m.generateErr
	}

	return m.result, nil
}

func (m *mockEngine) VoiceSettings(_ context.Context, _ string) (*core.VoiceSettings, error) {
	m.calls = append(m.calls, "VoiceSettings")

	return m.voice, nil
}

func newTestDispatcher(t *testing.T, service *mockService, modelEngine *mockEngine) *dispatch.Dispatcher {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		if closeErr != nil {
			t.Logf("failed to close test logger: %v", closeErr)
		}
	})

	return dispatch.New(service, modelEngine, log)
}

func TestDispatchUnknownCommand(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: "bogus"})

	assert.False(t, resp.Success)
	assert.Equal(t, "unknown command", resp.Error)
	assert.Empty(t, service.calls)
}

func TestDispatchGetModels(t *testing.T) {
	t.Parallel()

	modelEngine := &mockEngine{models: []string{"zonos-v0.1", "zonos-hybrid"}}
	dispatcher := newTestDispatcher(t, &mockService{}, modelEngine)

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdGetModels})

	require.True(t, resp.Success)
	assert.Equal(t, []string{"zonos-v0.1", "zonos-hybrid"}, resp.Data)
}

func TestDispatchGetConditionersRequiresModel(t *testing.T) {
	t.Parallel()

	modelEngine := &mockEngine{}
	dispatcher := newTestDispatcher(t, &mockService{}, modelEngine)

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdGetConditioners})

	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrModelChoiceRequired.Error(), resp.Error)
	assert.Empty(t, modelEngine.calls)
}

func TestDispatchGenerateAudioTupleShape(t *testing.T) {
	t.Parallel()

	modelEngine := &mockEngine{
		result: &core.GenerateResult{SampleRate: 44100, Samples: []float64{0.1, -0.2}},
	}
	dispatcher := newTestDispatcher(t, &mockService{}, modelEngine)

	params, err := json.Marshal(map[string]any{
		"model_choice": "zonos-v0.1",
		"text":         "Hello.",
	})
	require.NoError(t, err)

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:   dispatch.CmdGenerateAudio,
		Params: params,
	})

	require.True(t, resp.Success)

	tuple, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, tuple, 2)
	assert.Equal(t, 44100, tuple[0])
	assert.Equal(t, []float64{0.1, -0.2}, tuple[1])

	// The engine saw fully-defaulted parameters.
	assert.Equal(t, "en-us", modelEngine.lastParams.Language)
	assert.InEpsilon(t, 2.0, modelEngine.lastParams.CFGScale, 1e-9)
	assert.Equal(t, []string{"emotion"}, modelEngine.lastParams.UnconditionalKeys)
}

func TestDispatchGenerateAudioRequiresParams(t *testing.T) {
	t.Parallel()

	modelEngine := &mockEngine{}
	dispatcher := newTestDispatcher(t, &mockService{}, modelEngine)

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdGenerateAudio})

	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrParamsRequired.Error(), resp.Error)
	assert.Empty(t, modelEngine.calls)
}

func TestDispatchGenerateAudioRequiresModelChoice(t *testing.T) {
	t.Parallel()

	modelEngine := &mockEngine{}
	dispatcher := newTestDispatcher(t, &mockService{}, modelEngine)

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:   dispatch.CmdGenerateAudio,
		Params: json.RawMessage(`{"text":"hi"}`),
	})

	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrModelChoiceRequired.Error(), resp.Error)
	assert.Empty(t, modelEngine.calls)
}

func TestDispatchGenerateAudioEngineFailure(t *testing.T) {
	t.Parallel()

	modelEngine := &mockEngine{generateErr: errEngineDown}
	dispatcher := newTestDispatcher(t, &mockService{}, modelEngine)

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:   dispatch.CmdGenerateAudio,
		Params: json.RawMessage(`{"model_choice":"zonos-v0.1","text":"hi"}`),
	})

	assert.False(t, resp.Success)
	assert.Equal(t, errEngineDown.Error(), resp.Error)
}

func TestDispatchGetSettings(t *testing.T) {
	t.Parallel()

	service := &mockService{settings: core.DefaultAppSettings("/p")}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdGetSettings})

	require.True(t, resp.Success)
	assert.Equal(t, service.settings, resp.Data)
}

func TestDispatchUpdateSettingsValidation(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	// Missing settings payload.
	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdUpdateSettings})
	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrSettingsRequired.Error(), resp.Error)

	// Incomplete settings object is rejected before any write.
	resp = dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:     dispatch.CmdUpdateSettings,
		Settings: json.RawMessage(`{"theme":"dark"}`),
	})
	assert.False(t, resp.Success)
	assert.Empty(t, service.calls)
}

func TestDispatchUpdateSettingsSuccess(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	settings := `{"theme":"dark","defaultVoice":"emma","defaultOutputFormat":"mp3",` +
		`"projectsDirectory":"/p","autoSave":true}`

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:     dispatch.CmdUpdateSettings,
		Settings: json.RawMessage(settings),
	})

	require.True(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, []string{"UpdateSettings"}, service.calls)
}

func TestDispatchSaveProjectValidation(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdSaveProject})
	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrProjectRequired.Error(), resp.Error)

	resp = dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:    dispatch.CmdSaveProject,
		Project: json.RawMessage(`{"name":"x"}`),
	})
	assert.False(t, resp.Success)
	assert.Empty(t, service.calls)
}

func TestDispatchSaveProjectSuccess(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	project := `{"name":"demo","text":"hi","voice":"emma","voiceSettings":{},` +
		`"emotionSettings":{},"outputSettings":{},"created":1.0,"modified":1.0}`

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:    dispatch.CmdSaveProject,
		Project: json.RawMessage(project),
	})

	require.True(t, resp.Success)
	assert.Equal(t, []string{"SaveProject"}, service.calls)
}

func TestDispatchGetProjectMissingIsDataNull(t *testing.T) {
	t.Parallel()

	service := &mockService{project: nil}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:      dispatch.CmdGetProject,
		ProjectID: "absent",
	})

	require.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestDispatchGetProjectRequiresID(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdGetProject})

	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrProjectIDRequired.Error(), resp.Error)
	assert.Empty(t, service.calls)
}

func TestDispatchDeleteProject(t *testing.T) {
	t.Parallel()

	service := &mockService{deleted: true}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:      dispatch.CmdDeleteProject,
		ProjectID: "demo",
	})

	require.True(t, resp.Success)
	assert.Equal(t, true, resp.Data)
}

func TestDispatchCreateFromTemplateValidation(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:    dispatch.CmdCreateFromTemplate,
		NewName: "copy",
	})
	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrTemplateNameRequired.Error(), resp.Error)

	resp = dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:         dispatch.CmdCreateFromTemplate,
		TemplateName: "template",
	})
	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrNewNameRequired.Error(), resp.Error)
	assert.Empty(t, service.calls)
}

func TestDispatchCreateFromTemplateSuccess(t *testing.T) {
	t.Parallel()

	service := &mockService{templateRecord: &core.ProjectRecord{
		Name:            "template",
		Text:            "hi",
		Voice:           "emma",
		VoiceSettings:   map[string]any{},
		EmotionSettings: map[string]any{},
		OutputSettings:  map[string]any{},
		Created:         1.0,
		Modified:        1.0,
	}}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{
		Type:         dispatch.CmdCreateFromTemplate,
		TemplateName: "template",
		NewName:      "copy",
	})

	require.True(t, resp.Success)

	record, ok := resp.Data.(*core.ProjectRecord)
	require.True(t, ok)
	assert.Equal(t, "copy", record.Name)
}

func TestDispatchUndoActionRequiresID(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdUndoAction})

	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrActionIDRequired.Error(), resp.Error)
	assert.Empty(t, service.calls)
}

func TestDispatchClearHistory(t *testing.T) {
	t.Parallel()

	service := &mockService{}
	dispatcher := newTestDispatcher(t, service, &mockEngine{})

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdClearHistory})

	require.True(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, []string{"ClearHistory"}, service.calls)
}

func TestDispatchGetVoiceSettingsRequiresVoice(t *testing.T) {
	t.Parallel()

	modelEngine := &mockEngine{}
	dispatcher := newTestDispatcher(t, &mockService{}, modelEngine)

	resp := dispatcher.Dispatch(context.Background(), &dispatch.Request{Type: dispatch.CmdGetVoiceSettings})

	assert.False(t, resp.Success)
	assert.Equal(t, dispatch.ErrVoiceRequired.Error(), resp.Error)
	assert.Empty(t, modelEngine.calls)
}

func TestResponseEnvelopeShapes(t *testing.T) {
	t.Parallel()

	success := &dispatch.Response{Success: true, Data: nil, Error: ""}

	data, err := json.Marshal(success)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":null}`, string(data))

	failure := &dispatch.Response{Success: false, Data: nil, Error: "boom"}

	data, err = json.Marshal(failure)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(data))
	assert.NotContains(t, string(data), `"data"`)
}
