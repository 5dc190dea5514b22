package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/attendance/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "existing database",
			setup: func(t *testing.T) string {
				dbPath := filepath.Join(testutil.CreateTempDir(t), "session.db")
				testutil.CreateSQLiteFixture(t, dbPath, map[string]string{KeyIdentity: "prof"})
				return dbPath
			},
		},
		{
			name: "creates missing directories",
			setup: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "nested", "dir", "session.db")
			},
		},
		{
			name:  "in memory",
			setup: func(t *testing.T) string { return ":memory:" },
		},
		{
			name: "parent is a file",
			setup: func(t *testing.T) string {
				dir := testutil.CreateTempDir(t)
				blocker := testutil.WriteFile(t, dir, "blocker", []byte("x"))
				return filepath.Join(blocker, "session.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.setup(t)
			db, err := OpenDatabase(dbPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer db.Close()

			if err := db.Ping(); err != nil {
				t.Errorf("Database ping failed: %v", err)
			}
			if dbPath != ":memory:" {
				if _, err := os.Stat(dbPath); err != nil {
					t.Errorf("database file not created: %v", err)
				}
			}
		})
	}
}

func TestQuerySessionKV(t *testing.T) {
	dbPath := filepath.Join(testutil.CreateTempDir(t), "session.db")
	testutil.CreateSQLiteFixture(t, dbPath, map[string]string{
		KeyIdentity: "prof",
		KeySemester: "5",
		KeySection:  "A",
		KeySubject:  "DBMS",
		"other":     "x",
	})

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"everything", "%", []string{"other", KeySection, KeySemester, KeySubject, KeyIdentity}},
		{"exact key", KeySubject, []string{KeySubject}},
		{"no match", "nonexistent:%", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := QuerySessionKV(db, tt.pattern)
			if err != nil {
				t.Fatalf("QuerySessionKV() error = %v", err)
			}
			if len(pairs) != len(tt.want) {
				t.Fatalf("QuerySessionKV() returned %d pairs, want %d: %v", len(pairs), len(tt.want), pairs)
			}
			for i, pair := range pairs {
				if pair.Key != tt.want[i] {
					t.Errorf("pair %d key = %q, want %q", i, pair.Key, tt.want[i])
				}
				if pair.Value == "" {
					t.Errorf("pair %d has empty value", i)
				}
			}
		})
	}
}
