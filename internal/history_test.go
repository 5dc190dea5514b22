package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/attendance/testutil"
)

func sampleReport(created time.Time) *Report {
	return &Report{
		Kind:      ReportAttendance,
		Operator:  "prof",
		Class:     ClassSelection{Semester: "5", Section: "A", Subject: "DBMS"},
		Message:   "Attendance taken successfully",
		Present:   []string{"1AM22CI001", "1AM22CI002"},
		Absent:    []string{"1AM22CI003"},
		SheetURL:  "https://sheets.example/x",
		CreatedAt: created,
	}
}

func TestResultLog_Paths(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	rl := NewResultLog(dir)

	if got, want := rl.IndexPath(), filepath.Join(dir, "results.yaml"); got != want {
		t.Errorf("IndexPath() = %q, want %q", got, want)
	}
	if got, want := rl.ResultPath("abc"), filepath.Join(dir, "result_abc.json"); got != want {
		t.Errorf("ResultPath() = %q, want %q", got, want)
	}
}

func TestResultLog_AppendIndexLoad(t *testing.T) {
	rl := NewResultLog(filepath.Join(testutil.CreateTempDir(t), "history"))

	older := sampleReport(time.Now().Add(-time.Hour))
	id1, err := rl.Append(older)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	stats := &Report{
		Kind:      ReportStatistics,
		Class:     ClassSelection{Semester: "5", Section: "A", Subject: "DBMS"},
		Above75:   []StudentPercentage{{Student: "A", Percentage: 90}},
		Below75:   []StudentPercentage{{Student: "B", Percentage: 40}, {Student: "C", Percentage: 10}},
		CreatedAt: time.Now(),
	}
	id2, err := rl.Append(stats)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Fatalf("ids = %q, %q", id1, id2)
	}

	entries, err := rl.Index()
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Index() len = %d", len(entries))
	}
	if entries[0].ID != id2 {
		t.Errorf("Index()[0] = %s, want newest %s", entries[0].ID, id2)
	}
	if entries[0].Present != 1 || entries[0].Absent != 2 {
		t.Errorf("statistics entry counts = %d/%d", entries[0].Present, entries[0].Absent)
	}
	if entries[1].Present != 2 || entries[1].Absent != 1 || entries[1].Subject != "DBMS" {
		t.Errorf("attendance entry = %+v", entries[1])
	}

	got, err := rl.Load(id1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.SheetURL != older.SheetURL || len(got.Present) != 2 {
		t.Errorf("Load() = %+v", got)
	}

	byPrefix, err := rl.Load(id1[:8])
	if err != nil || byPrefix.ID != id1 {
		t.Errorf("Load(prefix) = %v, %v", byPrefix, err)
	}

	if _, err := rl.Load("does-not-exist"); err == nil {
		t.Error("Load() of an unknown id should fail")
	}
}

func TestResultLog_EmptyIndex(t *testing.T) {
	rl := NewResultLog(testutil.CreateTempDir(t))
	entries, err := rl.Index()
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Index() = %v, want empty", entries)
	}
}

func TestResultLog_Clear(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	rl := NewResultLog(dir)
	id, err := rl.Append(sampleReport(time.Now()))
	if err != nil {
		t.Fatal(err)
	}

	if err := rl.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := os.Stat(rl.ResultPath(id)); !os.IsNotExist(err) {
		t.Error("result file still exists after Clear()")
	}
	if _, err := os.Stat(rl.IndexPath()); !os.IsNotExist(err) {
		t.Error("index still exists after Clear()")
	}
	if err := rl.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}
