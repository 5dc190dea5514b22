package internal

import "time"

// Blob is the raw uploadable payload of one media item
type Blob struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Preview is the local-only renderable form of a blob. It is never sent to
// the backend.
type Preview struct {
	DataURL  string `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	// Pending is set while the asynchronous decode has not landed yet
	Pending bool `json:"pending,omitempty"`
	// Err holds the decode failure, if any
	Err string `json:"error,omitempty"`
}

// Ready reports whether the preview decoded successfully
func (p Preview) Ready() bool {
	return !p.Pending && p.Err == ""
}

// MediaItem is one aligned (blob, preview) pair
type MediaItem struct {
	ID      string  `json:"id"`
	Blob    Blob    `json:"blob"`
	Preview Preview `json:"preview"`
}

// ClassSelection is the semester/section/subject chosen by the operator
type ClassSelection struct {
	Semester string `json:"semester" yaml:"semester" validate:"required,oneof=1 2 3 4 5 6 7 8"`
	Section  string `json:"section" yaml:"section" validate:"required,oneof=A B C D E F G"`
	Subject  string `json:"subject" yaml:"subject" validate:"notblank"`
}

// EnrollForm holds the text fields of the enrollment screen
type EnrollForm struct {
	Name     string `json:"name" validate:"notblank"`
	USN      string `json:"usn" validate:"notblank"`
	Semester string `json:"semester" validate:"required,oneof=1 2 3 4 5 6 7 8"`
	Section  string `json:"section" validate:"required,oneof=A B C D E F G"`
}

// LoginResponse is the login endpoint payload
type LoginResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

// EnrollResponse is the enroll endpoint payload
type EnrollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AttendanceResponse is the take-attendance endpoint payload
type AttendanceResponse struct {
	Success         *bool    `json:"success,omitempty"`
	Message         string   `json:"message"`
	PresentStudents []string `json:"present_students"`
	AbsentStudents  []string `json:"absent_students"`
	SheetURL        string   `json:"sheet_url"`
}

// AttendanceFile is one entry of the attendance-files listing
type AttendanceFile struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// AttendanceFilesResponse is the attendance-files endpoint payload
type AttendanceFilesResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Files   []AttendanceFile `json:"files"`
}

// StudentPercentage is one row of the statistics tables
type StudentPercentage struct {
	Student    string  `json:"student" yaml:"student"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// StatisticsResponse is the generate-statistics endpoint payload
type StatisticsResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Above75 []StudentPercentage `json:"above_75"`
	Below75 []StudentPercentage `json:"below_75"`
	PDFURL  string              `json:"pdf_url"`
}

// Report kinds
const (
	ReportAttendance = "attendance"
	ReportStatistics = "statistics"
)

// Report is the exportable, loggable form of a successful result
type Report struct {
	ID        string              `json:"id" yaml:"id"`
	Kind      string              `json:"kind" yaml:"kind"`
	Operator  string              `json:"operator,omitempty" yaml:"operator,omitempty"`
	Class     ClassSelection      `json:"class" yaml:"class"`
	Message   string              `json:"message,omitempty" yaml:"message,omitempty"`
	Present   []string            `json:"present,omitempty" yaml:"present,omitempty"`
	Absent    []string            `json:"absent,omitempty" yaml:"absent,omitempty"`
	SheetURL  string              `json:"sheet_url,omitempty" yaml:"sheet_url,omitempty"`
	Above75   []StudentPercentage `json:"above_75,omitempty" yaml:"above_75,omitempty"`
	Below75   []StudentPercentage `json:"below_75,omitempty" yaml:"below_75,omitempty"`
	PDFURL    string              `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
}

// NewAttendanceReport builds a report from a take-attendance response
func NewAttendanceReport(s Session, resp *AttendanceResponse) *Report {
	return &Report{
		Kind:      ReportAttendance,
		Operator:  s.Identity,
		Class:     s.Class(),
		Message:   resp.Message,
		Present:   resp.PresentStudents,
		Absent:    resp.AbsentStudents,
		SheetURL:  resp.SheetURL,
		CreatedAt: time.Now(),
	}
}

// NewStatisticsReport builds a report from a generate-statistics response
func NewStatisticsReport(s Session, resp *StatisticsResponse) *Report {
	return &Report{
		Kind:      ReportStatistics,
		Operator:  s.Identity,
		Class:     s.Class(),
		Message:   resp.Message,
		Above75:   resp.Above75,
		Below75:   resp.Below75,
		PDFURL:    resp.PDFURL,
		CreatedAt: time.Now(),
	}
}
