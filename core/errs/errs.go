// Package errs defines the error taxonomy shared across the pipeline.
//
// ConfigurationError aborts a run before any network call. The per-item
// kinds (TransportError, TranscodeError, UpstreamError) are recorded by
// the ingest orchestrator and never escalate past the item boundary.
// NotFoundError maps to HTTP 404 in the query service.
package errs

import "fmt"

// ConfigurationError indicates missing or unreadable credentials/files.
type ConfigurationError struct {
	Msg   string
	Cause error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("configuration: %s", e.Msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// TransportError indicates a network or timeout failure talking to a collaborator.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// NotFoundError indicates a missing catalog entity or vector-index record.
type NotFoundError struct {
	Kind string // e.g. "song", "record"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// TranscodeError carries ffmpeg's diagnostic output on nonzero exit.
type TranscodeError struct {
	Stderr string
	Cause  error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s", e.Stderr)
}

func (e *TranscodeError) Unwrap() error { return e.Cause }

// UpstreamError indicates a collaborator returned a non-success status.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: upstream status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: upstream status %d", e.Op, e.Status)
}
