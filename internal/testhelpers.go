package internal

import (
	"time"
)

// CreateTestAttendanceReport creates an attendance report with sample data
func CreateTestAttendanceReport(id string) *Report {
	return &Report{
		ID:        id,
		Kind:      ReportAttendance,
		Operator:  "prof",
		Class:     ClassSelection{Semester: "5", Section: "A", Subject: "DBMS"},
		Message:   "Attendance taken successfully",
		Present:   []string{"1AM22CI001", "1AM22CI002"},
		Absent:    []string{"1AM22CI003"},
		SheetURL:  "https://docs.google.com/spreadsheets/d/test",
		CreatedAt: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
	}
}

// CreateTestStatisticsReport creates a statistics report with sample data
func CreateTestStatisticsReport(id string) *Report {
	return &Report{
		ID:       id,
		Kind:     ReportStatistics,
		Operator: "prof",
		Class:    ClassSelection{Semester: "5", Section: "A", Subject: "DBMS"},
		Above75: []StudentPercentage{
			{Student: "1AM22CI001", Percentage: 92.5},
		},
		Below75: []StudentPercentage{
			{Student: "1AM22CI003", Percentage: 40},
		},
		PDFURL:    "/media/statistics_5_A_DBMS.pdf",
		CreatedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}
