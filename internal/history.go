package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const historyVersion = "1.0"

// ResultLog keeps the successful attendance and statistics results of this
// machine: a YAML index plus one JSON file per result
type ResultLog struct {
	mu  sync.Mutex
	dir string
}

// HistoryMetadata stores metadata about the log
type HistoryMetadata struct {
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// HistoryEntry is one result in the index
type HistoryEntry struct {
	ID        string    `yaml:"id"`
	Kind      string    `yaml:"kind"`
	Operator  string    `yaml:"operator,omitempty"`
	Semester  string    `yaml:"semester,omitempty"`
	Section   string    `yaml:"section,omitempty"`
	Subject   string    `yaml:"subject,omitempty"`
	Present   int       `yaml:"present"`
	Absent    int       `yaml:"absent"`
	CreatedAt time.Time `yaml:"created_at"`
}

// HistoryIndex is the YAML index of all results
type HistoryIndex struct {
	Results  []HistoryEntry  `yaml:"results"`
	Metadata HistoryMetadata `yaml:"metadata"`
}

// NewResultLog creates a log rooted at dir
func NewResultLog(dir string) *ResultLog {
	return &ResultLog{dir: dir}
}

// Dir returns the log directory
func (rl *ResultLog) Dir() string {
	return rl.dir
}

// IndexPath returns the path to the YAML index
func (rl *ResultLog) IndexPath() string {
	return filepath.Join(rl.dir, "results.yaml")
}

// ResultPath returns the path to one result file
func (rl *ResultLog) ResultPath(id string) string {
	return filepath.Join(rl.dir, fmt.Sprintf("result_%s.json", id))
}

// Append stores r, assigning an id if it has none, and returns the id
func (rl *ResultLog) Append(r *Report) (string, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if err := os.MkdirAll(rl.dir, 0755); err != nil {
		return "", &StorageError{Path: rl.dir, Op: "mkdir", Err: err}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(rl.ResultPath(r.ID), data, 0644); err != nil {
		return "", &StorageError{Path: rl.ResultPath(r.ID), Op: "write", Err: err}
	}

	index, err := rl.loadIndex()
	if err != nil {
		return "", err
	}
	now := time.Now()
	if index.Metadata.CreatedAt.IsZero() {
		index.Metadata = HistoryMetadata{Version: historyVersion, CreatedAt: now}
	}
	index.Metadata.UpdatedAt = now

	entry := HistoryEntry{
		ID:        r.ID,
		Kind:      r.Kind,
		Operator:  r.Operator,
		Semester:  r.Class.Semester,
		Section:   r.Class.Section,
		Subject:   r.Class.Subject,
		Present:   len(r.Present),
		Absent:    len(r.Absent),
		CreatedAt: r.CreatedAt,
	}
	if r.Kind == ReportStatistics {
		entry.Present = len(r.Above75)
		entry.Absent = len(r.Below75)
	}

	replaced := false
	for i := range index.Results {
		if index.Results[i].ID == r.ID {
			index.Results[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		index.Results = append(index.Results, entry)
	}

	if err := rl.saveIndex(index); err != nil {
		return "", err
	}
	return r.ID, nil
}

// Index returns the index entries, newest first
func (rl *ResultLog) Index() ([]HistoryEntry, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	index, err := rl.loadIndex()
	if err != nil {
		return nil, err
	}
	entries := index.Results
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Load reads one result. An id prefix is accepted when it is unambiguous.
func (rl *ResultLog) Load(id string) (*Report, error) {
	entries, err := rl.Index()
	if err != nil {
		return nil, err
	}

	full := ""
	for _, e := range entries {
		if e.ID == id {
			full = id
			break
		}
		if len(id) >= 4 && len(e.ID) > len(id) && e.ID[:len(id)] == id {
			if full != "" {
				return nil, fmt.Errorf("result id %q is ambiguous", id)
			}
			full = e.ID
		}
	}
	if full == "" {
		return nil, fmt.Errorf("result %q not found", id)
	}

	data, err := os.ReadFile(rl.ResultPath(full))
	if err != nil {
		return nil, &StorageError{Path: rl.ResultPath(full), Op: "read", Err: err}
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// Clear removes every result file and the index
func (rl *ResultLog) Clear() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	index, err := rl.loadIndex()
	if err == nil {
		for _, e := range index.Results {
			_ = os.Remove(rl.ResultPath(e.ID))
		}
	}
	if err := os.Remove(rl.IndexPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Path: rl.IndexPath(), Op: "delete", Err: err}
	}
	return nil
}

func (rl *ResultLog) loadIndex() (*HistoryIndex, error) {
	data, err := os.ReadFile(rl.IndexPath())
	if errors.Is(err, os.ErrNotExist) {
		return &HistoryIndex{Results: []HistoryEntry{}}, nil
	}
	if err != nil {
		return nil, &StorageError{Path: rl.IndexPath(), Op: "read", Err: err}
	}

	var index HistoryIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

func (rl *ResultLog) saveIndex(index *HistoryIndex) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(rl.IndexPath(), data, 0644); err != nil {
		return &StorageError{Path: rl.IndexPath(), Op: "write", Err: err}
	}
	return nil
}
