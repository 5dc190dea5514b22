package internal

import (
	"context"
	"errors"
	"sync/atomic"
)

// Screen kinds
const (
	ScreenEnroll     = "enroll"
	ScreenAttendance = "take-attendance"
)

// SubmissionResult is the rendered outcome of one submission. It is never
// persisted by the screen.
type SubmissionResult struct {
	Success bool
	Message string
	// Payload is *EnrollResponse or *AttendanceResponse on success
	Payload interface{}
	// Err is the underlying failure
	Err error
}

// Screen is the enroll / take-attendance workflow. It owns one capture
// pipeline and allows at most one outstanding submission.
type Screen struct {
	kind     string
	session  *SessionContext
	client   *Client
	pipeline *CapturePipeline
	inFlight atomic.Bool
}

func newScreen(kind string, session *SessionContext, client *Client, opts ...PipelineOption) *Screen {
	return &Screen{
		kind:     kind,
		session:  session,
		client:   client,
		pipeline: NewCapturePipeline(opts...),
	}
}

// NewEnrollScreen creates the enrollment screen
func NewEnrollScreen(session *SessionContext, client *Client, opts ...PipelineOption) *Screen {
	return newScreen(ScreenEnroll, session, client, opts...)
}

// NewAttendanceScreen creates the take-attendance screen
func NewAttendanceScreen(session *SessionContext, client *Client, opts ...PipelineOption) *Screen {
	return newScreen(ScreenAttendance, session, client, opts...)
}

// Kind returns the screen kind
func (s *Screen) Kind() string {
	return s.kind
}

// Pipeline returns the screen's capture pipeline
func (s *Screen) Pipeline() *CapturePipeline {
	return s.pipeline
}

// SubmitEnrollment validates form and the captured media, then enrolls the
// student. Semester and section default to the session's class.
func (s *Screen) SubmitEnrollment(ctx context.Context, form EnrollForm) SubmissionResult {
	sess := s.session.Get()
	if form.Semester == "" {
		form.Semester = sess.Semester
	}
	if form.Section == "" {
		form.Section = sess.Section
	}

	return s.submit(ctx, func(items []MediaItem) (string, interface{}, error) {
		if err := Validate(form); err != nil {
			return "", nil, err
		}
		resp, err := s.client.Enroll(ctx, form, items)
		if err != nil {
			return "", nil, err
		}
		return resp.Message, resp, nil
	})
}

// SubmitAttendance submits the captured class photos for the session's class
func (s *Screen) SubmitAttendance(ctx context.Context) SubmissionResult {
	class := s.session.Get().Class()

	return s.submit(ctx, func(items []MediaItem) (string, interface{}, error) {
		if err := Validate(class); err != nil {
			return "", nil, err
		}
		resp, err := s.client.TakeAttendance(ctx, class, items)
		if err != nil {
			return "", nil, err
		}
		return resp.Message, resp, nil
	})
}

func (s *Screen) submit(ctx context.Context, send func([]MediaItem) (string, interface{}, error)) SubmissionResult {
	if !s.inFlight.CompareAndSwap(false, true) {
		return failure(ErrSubmissionInFlight)
	}
	defer s.inFlight.Store(false)

	items := s.pipeline.Snapshot()
	if len(items) == 0 {
		return failure(&ValidationError{
			Fields: map[string]string{"media": "capture or upload at least one photo"},
			Err:    ErrNoMedia,
		})
	}

	msg, payload, err := send(items)
	if err != nil {
		LogDebug("%s submission failed: %v", s.kind, err)
		return failure(err)
	}

	sent := make([]string, len(items))
	for i, item := range items {
		sent[i] = item.ID
	}
	// media added while the request was out stays for the next submission
	s.pipeline.RemoveIDs(sent...)
	LogInfo("%s submission succeeded with %d photo(s)", s.kind, len(items))
	return SubmissionResult{Success: true, Message: msg, Payload: payload}
}

func failure(err error) SubmissionResult {
	return SubmissionResult{Message: FailureMessage(err), Err: err}
}

// FailureMessage returns the text to show the operator for err
func FailureMessage(err error) string {
	var se *SubmissionError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}
