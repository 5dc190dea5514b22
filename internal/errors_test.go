package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageError(t *testing.T) {
	originalErr := errors.New("disk full")
	err := &StorageError{
		Path: "/test/session.db",
		Op:   "set",
		Err:  originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/test/session.db") {
		t.Errorf("StorageError.Error() should contain path, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
}

func TestCaptureError(t *testing.T) {
	err := &CaptureError{Source: "camera", Err: ErrNoLiveFrame}
	if !strings.Contains(err.Error(), "camera") {
		t.Errorf("CaptureError.Error() should contain source, got: %q", err.Error())
	}
	if !errors.Is(err, ErrNoLiveFrame) {
		t.Error("CaptureError should unwrap to ErrNoLiveFrame")
	}
}

func TestIndexError(t *testing.T) {
	err := &IndexError{Index: 4, Len: 2}
	if !errors.Is(err, ErrInvalidIndex) {
		t.Error("IndexError should unwrap to ErrInvalidIndex")
	}
	if !strings.Contains(err.Error(), "4") {
		t.Errorf("IndexError.Error() should contain the index, got: %q", err.Error())
	}
}

func TestSubmissionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &SubmissionError{Endpoint: "enroll/", Message: "An error occurred during enrollment", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("SubmissionError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "enroll/") {
		t.Errorf("SubmissionError.Error() should contain endpoint, got: %q", err.Error())
	}

	structured := &SubmissionError{Endpoint: "login/", Message: "Invalid credentials"}
	if errors.Unwrap(structured) != nil {
		t.Error("structured SubmissionError should not wrap anything")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"usn":  "this field cannot be blank",
		"name": "this field cannot be blank",
	}}
	msg := err.Error()
	if strings.Index(msg, "name") > strings.Index(msg, "usn") {
		t.Errorf("ValidationError.Error() fields should be sorted, got %q", msg)
	}

	wrapped := &ValidationError{Err: ErrNoMedia}
	if !errors.Is(wrapped, ErrNoMedia) {
		t.Error("ValidationError should unwrap to ErrNoMedia")
	}
}

func TestRedirectError(t *testing.T) {
	var target *RedirectError
	var err error = &RedirectError{From: "/enroll", To: "/login"}
	if !errors.As(err, &target) || target.To != "/login" {
		t.Errorf("errors.As() failed for RedirectError: %v", err)
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{Format: "jsonl", Path: "/output/file.jsonl", Err: originalErr}
	if !strings.Contains(err.Error(), "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}
