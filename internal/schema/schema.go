// Package schema holds the validation machinery for stored objects: the
// per-object-type file shape validators consumed by the codec, and the
// field-definition-driven value validators used on Entry content.
package schema

import "fmt"

// Validator checks a decoded object against its declared shape. The codec
// runs one on every read and write, so an object that fails its shape never
// reaches a lifecycle service.
type Validator interface {
	Validate(v any) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(v any) error

func (f ValidatorFunc) Validate(v any) error { return f(v) }

// ValidationError reports one failed check. Path locates the offending
// field (e.g. "fieldDefinitions[2].min"); the message is safe to show
// verbatim to content editors.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func failf(path, format string, args ...any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
