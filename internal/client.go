package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Endpoint describes one backend call and how its failures are worded
type Endpoint struct {
	Path string
	// FileField is the multipart field every blob is sent under
	FileField string
	// ErrorMessage is shown for transport errors and non-2xx responses that
	// carry no message of their own
	ErrorMessage string
	// FailureMessage is shown for success:false responses without a message
	FailureMessage string
	// RequireSuccess treats a response without a success flag as a failure
	RequireSuccess bool
	// FixedFailure shows FailureMessage even when the backend sent one
	FixedFailure bool
}

var (
	EnrollEndpoint = Endpoint{
		Path:           "enroll/",
		FileField:      "photos",
		ErrorMessage:   "An error occurred during enrollment",
		FailureMessage: "Enrollment failed",
		RequireSuccess: true,
	}
	AttendanceEndpoint = Endpoint{
		Path:           "take-attendance/",
		FileField:      "class_images",
		ErrorMessage:   "An error occurred while taking attendance",
		FailureMessage: "An error occurred while taking attendance",
	}
	LoginEndpoint = Endpoint{
		Path:           "login/",
		ErrorMessage:   "Login failed. Please check your credentials and try again.",
		FailureMessage: "Invalid credentials. Please try again.",
		RequireSuccess: true,
		FixedFailure:   true,
	}
	AttendanceFilesEndpoint = Endpoint{
		Path:           "attendance-files/",
		ErrorMessage:   "An error occurred while fetching attendance files",
		FailureMessage: "Failed to load attendance files",
		RequireSuccess: true,
	}
	StatisticsEndpoint = Endpoint{
		Path:           "generate-statistics/",
		ErrorMessage:   "An error occurred while generating statistics",
		FailureMessage: "Failed to generate statistics",
		RequireSuccess: true,
	}
)

// maximum response body accepted from the JSON endpoints
const maxResponseBytes = 16 << 20

// Client talks to the attendance backend. Every call is exactly one round
// trip; retrying is left to the operator.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a client for the API rooted at baseURL. A zero timeout
// disables the client-side deadline.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// envelope is the part of every response the client inspects itself
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Submit sends fields and every blob of items as one multipart body and
// decodes a successful response into out. Previews stay local.
func (c *Client) Submit(ctx context.Context, ep Endpoint, fields map[string]string, items []MediaItem, out interface{}) error {
	if len(items) == 0 {
		return &ValidationError{
			Fields: map[string]string{"media": "capture or upload at least one photo"},
			Err:    ErrNoMedia,
		}
	}

	body, contentType, err := buildMultipart(fields, ep.FileField, items)
	if err != nil {
		return &SubmissionError{Endpoint: ep.Path, Message: ep.ErrorMessage, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(ep.Path), body)
	if err != nil {
		return &SubmissionError{Endpoint: ep.Path, Message: ep.ErrorMessage, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	LogDebug("POST %s with %d file(s), %d bytes", ep.Path, len(items), body.Len())
	return c.do(req, ep, out)
}

// Enroll submits a new student with their photos
func (c *Client) Enroll(ctx context.Context, form EnrollForm, items []MediaItem) (*EnrollResponse, error) {
	fields := map[string]string{
		"name":     form.Name,
		"usn":      form.USN,
		"semester": form.Semester,
		"section":  form.Section,
	}
	var resp EnrollResponse
	if err := c.Submit(ctx, EnrollEndpoint, fields, items, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TakeAttendance submits class photos for recognition
func (c *Client) TakeAttendance(ctx context.Context, class ClassSelection, items []MediaItem) (*AttendanceResponse, error) {
	fields := map[string]string{
		"semester": class.Semester,
		"section":  class.Section,
		"subject":  class.Subject,
	}
	var resp AttendanceResponse
	if err := c.Submit(ctx, AttendanceEndpoint, fields, items, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login checks the operator's credentials
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.postJSON(ctx, LoginEndpoint, map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AttendanceFiles lists the attendance files recorded for a class
func (c *Client) AttendanceFiles(ctx context.Context, class ClassSelection) ([]AttendanceFile, error) {
	q := url.Values{}
	q.Set("semester", class.Semester)
	q.Set("section", class.Section)
	q.Set("subject", class.Subject)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(AttendanceFilesEndpoint.Path)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &SubmissionError{Endpoint: AttendanceFilesEndpoint.Path, Message: AttendanceFilesEndpoint.ErrorMessage, Err: err}
	}

	var resp AttendanceFilesResponse
	if err := c.do(req, AttendanceFilesEndpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// GenerateStatistics asks the backend for the attendance percentages of one
// attendance file
func (c *Client) GenerateStatistics(ctx context.Context, fileID string) (*StatisticsResponse, error) {
	var resp StatisticsResponse
	if err := c.postJSON(ctx, StatisticsEndpoint, map[string]string{"file_id": fileID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download streams the document at ref into w. Relative references such as
// the pdf_url of a statistics response are resolved against the API base URL.
func (c *Client) Download(ctx context.Context, ref string, w io.Writer) (int64, error) {
	target, err := c.ResolveURL(ref)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &SubmissionError{Endpoint: target, Message: "download failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &SubmissionError{Endpoint: target, Status: resp.StatusCode, Message: "download failed: " + resp.Status}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to save %s: %w", target, err)
	}
	return n, nil
}

// Ping checks that the backend answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// ResolveURL resolves ref against the API base URL
func (c *Client) ResolveURL(ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty document reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid document reference %q: %w", ref, err)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

func (c *Client) endpointURL(path string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path}).String()
}

func (c *Client) postJSON(ctx context.Context, ep Endpoint, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &SubmissionError{Endpoint: ep.Path, Message: ep.ErrorMessage, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(ep.Path), bytes.NewReader(data))
	if err != nil {
		return &SubmissionError{Endpoint: ep.Path, Message: ep.ErrorMessage, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, ep, out)
}

// do performs the round trip and maps the outcome onto ep's messages
func (c *Client) do(req *http.Request, ep Endpoint, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &SubmissionError{Endpoint: ep.Path, Message: ep.ErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &SubmissionError{Endpoint: ep.Path, Status: resp.StatusCode, Message: ep.ErrorMessage, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ep.ErrorMessage
		if decodeErr == nil && env.Message != "" && !ep.FixedFailure {
			msg = env.Message
		}
		return &SubmissionError{
			Endpoint: ep.Path,
			Status:   resp.StatusCode,
			Message:  msg,
			Err:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	if decodeErr != nil {
		return &SubmissionError{Endpoint: ep.Path, Status: resp.StatusCode, Message: ep.ErrorMessage, Err: fmt.Errorf("malformed response: %w", decodeErr)}
	}

	failed := env.Success != nil && !*env.Success
	if env.Success == nil && ep.RequireSuccess {
		failed = true
	}
	if failed {
		msg := ep.FailureMessage
		if env.Message != "" && !ep.FixedFailure {
			msg = env.Message
		}
		return &SubmissionError{Endpoint: ep.Path, Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &SubmissionError{Endpoint: ep.Path, Status: resp.StatusCode, Message: ep.ErrorMessage, Err: fmt.Errorf("malformed response: %w", err)}
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildMultipart writes fields in sorted order followed by every blob
func buildMultipart(fields map[string]string, fileField string, items []MediaItem) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, item := range items {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(fileField), quoteEscaper.Replace(item.Blob.Name)))
		mimeType := item.Blob.MIMEType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		h.Set("Content-Type", mimeType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(item.Blob.Data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
