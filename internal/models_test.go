package internal

import "testing"

func TestPreview_Ready(t *testing.T) {
	tests := []struct {
		name string
		p    Preview
		want bool
	}{
		{"decoded", Preview{DataURL: "data:image/png;base64,AA==", Width: 1, Height: 1}, true},
		{"pending", Preview{Pending: true}, false},
		{"failed", Preview{Err: "unknown format"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Ready(); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAttendanceReport(t *testing.T) {
	s := Session{Identity: "1AM22CI", Semester: "5", Section: "A", Subject: "DBMS"}
	resp := &AttendanceResponse{
		Message:         "Attendance taken for 5 DBMS (A)",
		PresentStudents: []string{"Asha (1AM22CI001)"},
		AbsentStudents:  []string{"Ravi (1AM22CI002)"},
		SheetURL:        "https://docs.google.com/spreadsheets/d/abc/edit?usp=sharing",
	}

	r := NewAttendanceReport(s, resp)
	if r.Kind != ReportAttendance {
		t.Errorf("Kind = %q, want %q", r.Kind, ReportAttendance)
	}
	if r.Class != s.Class() {
		t.Errorf("Class = %+v, want %+v", r.Class, s.Class())
	}
	if r.Operator != "1AM22CI" || len(r.Present) != 1 || len(r.Absent) != 1 {
		t.Errorf("unexpected report %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestNewStatisticsReport(t *testing.T) {
	s := Session{Identity: "op", Semester: "3", Section: "B", Subject: "OS"}
	resp := &StatisticsResponse{
		Above75: []StudentPercentage{{Student: "Asha", Percentage: 90}},
		Below75: []StudentPercentage{{Student: "Ravi", Percentage: 50}},
		PDFURL:  "/media/attendance_report_3_OS_B.pdf",
	}
	r := NewStatisticsReport(s, resp)
	if r.Kind != ReportStatistics || r.PDFURL != resp.PDFURL || len(r.Above75) != 1 {
		t.Errorf("unexpected report %+v", r)
	}
}
