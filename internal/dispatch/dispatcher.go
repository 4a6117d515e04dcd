// Package dispatch decodes protocol requests, routes them by type tag to the
// project service or the model engine, and wraps every outcome in exactly one
// response envelope. The dispatcher is stateless between calls.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicepro-service/internal/core"
)

// Recognized command type tags. The set is closed; anything else is an
// unknown command.
const (
	CmdGetModels          = "get_models"
	CmdGetConditioners    = "get_conditioners"
	CmdGenerateAudio      = "generate-audio"
	CmdGetSettings        = "get_settings"
	CmdUpdateSettings     = "update_settings"
	CmdGetProjects        = "get_projects"
	CmdSaveProject        = "save_project"
	CmdGetProject         = "get_project"
	CmdGetHistory         = "get_history"
	CmdDeleteProject      = "delete_project"
	CmdCreateFromTemplate = "create_from_template"
	CmdClearHistory       = "clear_history"
	CmdUndoAction         = "undo_action"
	CmdGetVoiceSettings   = "get_voice_settings"
)

// Validation errors reported before any side effect occurs.
var (
	ErrModelChoiceRequired  = errors.New("model choice is required")
	ErrParamsRequired       = errors.New("parameters are required")
	ErrSettingsRequired     = errors.New("settings are required")
	ErrProjectRequired      = errors.New("project is required")
	ErrProjectIDRequired    = errors.New("project id is required")
	ErrTemplateNameRequired = errors.New("template name is required")
	ErrNewNameRequired      = errors.New("new name is required")
	ErrActionIDRequired     = errors.New("action id is required")
	ErrVoiceRequired        = errors.New("voice is required")
)

// Request is one decoded protocol request: a type tag plus the
// command-specific fields.
type Request struct {
	Type         string          `json:"type"`
	Model        string          `json:"model,omitempty"`
	Voice        string          `json:"voice,omitempty"`
	Params       json.RawMessage `json:"params,omitempty"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	Project      json.RawMessage `json:"project,omitempty"`
	ProjectID    string          `json:"projectId,omitempty"`
	TemplateName string          `json:"templateName,omitempty"`
	NewName      string          `json:"newName,omitempty"`
	ActionID     string          `json:"actionId,omitempty"`
}

// Response is the envelope returned for every request: {success, data} on
// success, {success, error} on failure.
type Response struct {
	Success bool
	Data    any
	Error   string
}

// MarshalJSON emits the success and failure envelope shapes.
func (r *Response) MarshalJSON() ([]byte, error) {
	if r.Success {
		envelope := struct {
			Success bool `json:"success"`
			Data    any  `json:"data"`
		}{Success: true, Data: r.Data}

		data, err := json.Marshal(envelope)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal success response: %w", err)
		}

		return data, nil
	}

	envelope := struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Success: false, Error: r.Error}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error response: %w", err)
	}

	return data, nil
}

// Dispatcher routes requests to the project service and the model engine. All
// state lives behind those two interfaces.
type Dispatcher struct {
	service core.ProjectService
	engine  core.ModelEngine
	log     *logger.Logger
}

// New creates a dispatcher over the given collaborators.
func New(service core.ProjectService, modelEngine core.ModelEngine, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		service: service,
		engine:  modelEngine,
		log:     log,
	}
}

// Dispatch executes one request and always returns a well-formed response.
// No failure from a collaborator propagates past this boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	result, err := d.execute(ctx, req)
	if err != nil {
		d.log.Error("Command '%s' failed: %v", req.Type, err)

		return &Response{Success: false, Data: nil, Error: err.Error()}
	}

	return &Response{Success: true, Data: result, Error: ""}
}

func (d *Dispatcher) execute(ctx context.Context, req *Request) (any, error) {
	switch req.Type {
	case CmdGetModels:
		return d.engine.ListModels(ctx)
	case CmdGetConditioners:
		return d.getConditioners(ctx, req)
	case CmdGenerateAudio:
		return d.generateAudio(ctx, req)
	case CmdGetSettings:
		return d.service.Settings(), nil
	case CmdUpdateSettings:
		return d.updateSettings(req)
	case CmdGetProjects:
		return d.service.Projects()
	case CmdSaveProject:
		return d.saveProject(req)
	case CmdGetProject:
		return d.getProject(req)
	case CmdGetHistory:
		return d.service.History(), nil
	case CmdDeleteProject:
		return d.deleteProject(req)
	case CmdCreateFromTemplate:
		return d.createFromTemplate(req)
	case CmdClearHistory:
		return nil, d.service.ClearHistory()
	case CmdUndoAction:
		return d.undoAction(req)
	case CmdGetVoiceSettings:
		return d.getVoiceSettings(ctx, req)
	default:
		return nil, core.ErrUnknownCommand
	}
}

func (d *Dispatcher) getConditioners(ctx context.Context, req *Request) (any, error) {
	if req.Model == "" {
		return nil, ErrModelChoiceRequired
	}

	return d.engine.Conditioners(ctx, req.Model)
}

// generateAudio validates and defaults the generation parameters, then relays
// the engine result as the [sampleRate, samples] tuple the protocol promises.
func (d *Dispatcher) generateAudio(ctx context.Context, req *Request) (any, error) {
	if len(req.Params) == 0 {
		return nil, ErrParamsRequired
	}

	params, err := core.DecodeGenerateParams(req.Params)
	if err != nil {
		return nil, err
	}

	if params.ModelChoice == "" {
		return nil, ErrModelChoiceRequired
	}

	result, err := d.engine.Generate(ctx, *params)
	if err != nil {
		return nil, err
	}

	return []any{result.SampleRate, result.Samples}, nil
}

func (d *Dispatcher) updateSettings(req *Request) (any, error) {
	if len(req.Settings) == 0 {
		return nil, ErrSettingsRequired
	}

	settings, err := core.DecodeAppSettings(req.Settings)
	if err != nil {
		return nil, err
	}

	return nil, d.service.UpdateSettings(settings)
}

func (d *Dispatcher) saveProject(req *Request) (any, error) {
	if len(req.Project) == 0 {
		return nil, ErrProjectRequired
	}

	record, err := core.DecodeProjectRecord(req.Project)
	if err != nil {
		return nil, err
	}

	return nil, d.service.SaveProject(record)
}

func (d *Dispatcher) getProject(req *Request) (any, error) {
	if req.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}

	record, err := d.service.Project(req.ProjectID)
	if err != nil {
		return nil, err
	}

	if record == nil {
		// A missing project is data null, not a failure.
		return nil, nil
	}

	return record, nil
}

func (d *Dispatcher) deleteProject(req *Request) (any, error) {
	if req.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}

	return d.service.DeleteProject(req.ProjectID)
}

func (d *Dispatcher) createFromTemplate(req *Request) (any, error) {
	if req.TemplateName == "" {
		return nil, ErrTemplateNameRequired
	}

	if req.NewName == "" {
		return nil, ErrNewNameRequired
	}

	return d.service.CreateFromTemplate(req.TemplateName, req.NewName)
}

func (d *Dispatcher) undoAction(req *Request) (any, error) {
	if req.ActionID == "" {
		return nil, ErrActionIDRequired
	}

	return d.service.UndoAction(req.ActionID)
}

func (d *Dispatcher) getVoiceSettings(ctx context.Context, req *Request) (any, error) {
	if req.Voice == "" {
		return nil, ErrVoiceRequired
	}

	return d.engine.VoiceSettings(ctx, req.Voice)
}
