package core

import "errors"

// Static errors shared across the store, manager, and dispatcher boundaries.
var (
	// ErrUnknownCommand indicates a request carried an unrecognized type tag.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrConfigCorrupt indicates the settings file exists but cannot be
	// parsed into the expected shape.
	ErrConfigCorrupt = errors.New("settings file is corrupt")
	// ErrProjectCorrupt indicates a project file exists but cannot be parsed.
	ErrProjectCorrupt = errors.New("project file is corrupt")
	// ErrTemplateNotFound indicates the named template project does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidProjectName indicates a project name that cannot serve as a
	// file name stem.
	ErrInvalidProjectName = errors.New("invalid project name")
)
