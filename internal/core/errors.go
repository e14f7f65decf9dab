package core

import "errors"

// The sentinel errors callers match with errors.Is to distinguish workflow
// failures from validation and git failures. Validation failures surface as
// *schema.ValidationError; git failures as *git.CommandError; a missing
// author identity as git.ErrNoIdentity.
var (
	// ErrNotFound is returned when no object exists for the requested id.
	ErrNotFound = errors.New("object not found")

	// ErrNoRemote guards operations that need an origin remote, and project
	// deletion without force when no remote holds a copy.
	ErrNoRemote = errors.New("project has no remote")

	// ErrNotSynchronized refuses project deletion while local commits have
	// not been pushed to the remote.
	ErrNotSynchronized = errors.New("local changes are not synchronized with the remote")

	// ErrAlreadyCurrent is returned by an unforced upgrade of a project that
	// is already on the running engine version.
	ErrAlreadyCurrent = errors.New("project is already on the current engine version")

	// ErrProjectNewer is returned when a project was written by a newer
	// engine than the one running; upgrading the engine is required.
	ErrProjectNewer = errors.New("project was written by a newer engine version")

	// ErrUnsupportedFileType refuses asset payloads of a type the store
	// does not handle.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)
