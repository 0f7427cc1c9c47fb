package extension

import (
	"errors"
	"fmt"
)

// Load failure kinds. Every failure is reported as a *LoadError wrapping one of these.
var (
	ErrManifestMissing   = errors.New("manifest missing")
	ErrManifestMalformed = errors.New("manifest malformed")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrEntryLoad         = errors.New("entry failed to load")
	ErrCapabilityMissing = errors.New("required capability missing")
	ErrAlreadyLoaded     = errors.New("extension already loaded")
)

// LoadError records why an extension was excluded from the registry.
type LoadError struct {
	ID  string `json:"id"`
	Dir string `json:"dir"`
	Err error  `json:"-"`
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("extension %s: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Reason returns the failure message for display.
func (e *LoadError) Reason() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func loadError(id, dir string, kind, err error) *LoadError {
	if err == nil {
		return &LoadError{ID: id, Dir: dir, Err: kind}
	}
	return &LoadError{ID: id, Dir: dir, Err: fmt.Errorf("%w: %w", kind, err)}
}
