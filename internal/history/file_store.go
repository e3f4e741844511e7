// Package history persists one signal set per calendar day, either on the
// local filesystem or in S3-compatible object storage. Files are named
// signals_YYYY-MM-DD.json and are never rewritten once the day passes.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

const (
	filePrefix = "signals_"
	fileSuffix = ".json"
	dateLayout = "2006-01-02"
)

// fileName builds the canonical history file name for a date string.
func fileName(date string) string {
	return filePrefix + date + fileSuffix
}

// dateFromFileName extracts the date from a history file name, or "" when the
// name does not follow the convention.
func dateFromFileName(name string) string {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
}

// FileStore implements domain.HistoryStore on a local directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the set to the file for its timestamp's date, overwriting any
// earlier write from the same day.
func (s *FileStore) Save(_ context.Context, set domain.SignalSet) error {
	date := set.Timestamp.UTC().Format(dateLayout)
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode set for %s: %w", date, err)
	}

	path := filepath.Join(s.dir, fileName(date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", path, err)
	}
	return nil
}

// Load reads the set stored for a date (YYYY-MM-DD). It returns
// domain.ErrNotFound when no file exists for that day.
func (s *FileStore) Load(_ context.Context, date string) (domain.SignalSet, error) {
	path := filepath.Join(s.dir, fileName(date))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.SignalSet{}, fmt.Errorf("history: %w: date=%s", domain.ErrNotFound, date)
		}
		return domain.SignalSet{}, fmt.Errorf("history: read %s: %w", path, err)
	}

	var set domain.SignalSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.SignalSet{}, fmt.Errorf("history: decode %s: %w", path, err)
	}
	return set, nil
}

// ListDates returns the dates of all stored sets in ascending order.
func (s *FileStore) ListDates(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("history: read dir %s: %w", s.dir, err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if date := dateFromFileName(entry.Name()); date != "" {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

var _ domain.HistoryStore = (*FileStore)(nil)
