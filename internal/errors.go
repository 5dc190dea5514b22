package internal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoLiveFrame is returned when the camera produced no usable frame
	ErrNoLiveFrame = errors.New("no live frame available")
	// ErrInvalidIndex is returned when a pipeline index is out of range
	ErrInvalidIndex = errors.New("invalid media index")
	// ErrNoMedia is returned when a submission has no media items
	ErrNoMedia = errors.New("no media items")
	// ErrSubmissionInFlight is returned when a screen already has a submission outstanding
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
)

// StorageError represents errors accessing the durable session store
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RedirectError is returned when the route guard refuses a navigation
type RedirectError struct {
	From string
	To   string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect %s -> %s", e.From, e.To)
}

// CaptureError represents a failed camera capture
type CaptureError struct {
	Source string
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error [%s]: %v", e.Source, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// IndexError represents a removal outside the pipeline bounds
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0,%d)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrInvalidIndex
}

// SubmissionError represents a transport failure or a structured failure
// response from the backend. Message is safe to show to the operator.
type SubmissionError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission error [%s]: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("submission error [%s]: %s", e.Endpoint, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ValidationError reports local preconditions that blocked a request.
// Fields maps a field name to a human readable message.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Err != nil {
			return "validation error: " + e.Err.Error()
		}
		return "validation error"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
