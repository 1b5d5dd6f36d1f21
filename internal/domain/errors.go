package domain

import "fmt"

// Error types for consistent error handling across the assistant.
// Callers branch on these with errors.As instead of matching message text.

// ErrNotFound indicates a resource was not found on a remote backend.
// From the fetch step this is fatal to a pipeline run.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrTransport indicates a non-2xx response or a network/timeout fault from
// a remote service. Body holds a truncated copy of the error response for
// diagnostics; it is never parsed as data.
type ErrTransport struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *ErrTransport) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Body)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrImageFetch indicates a single image download failed. Always non-fatal:
// the pipeline skips the image and moves on.
type ErrImageFetch struct {
	URL    string
	Status int
	Err    error
}

func (e *ErrImageFetch) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image download failed [%s]: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("image download failed [%s]: status %d", e.URL, e.Status)
}

func (e *ErrImageFetch) Unwrap() error {
	return e.Err
}

// ErrImageUpload indicates a single media upload failed. Non-fatal and
// isolated to that image.
type ErrImageUpload struct {
	Filename string
	Err      error
}

func (e *ErrImageUpload) Error() string {
	return fmt.Sprintf("media upload failed [%s]: %v", e.Filename, e.Err)
}

func (e *ErrImageUpload) Unwrap() error {
	return e.Err
}

// ErrExternalService indicates a failure in an external service call that
// went through the resilience layer (chat fallback).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
