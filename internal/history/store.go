// Package history keeps a local log of pass summaries so trends can be
// shown between scheduled runs.
package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiffcs/broombot/internal/log"
	"github.com/spiffcs/broombot/internal/report"
)

// maxRecords is the number of records kept after compaction.
const maxRecords = 500

// Record is the summary of one pass.
type Record struct {
	RunID     string    `json:"runId"`
	Timestamp time.Time `json:"ts"`
	Owner     string    `json:"owner"`
	DryRun    bool      `json:"dryRun,omitempty"`
	Error     string    `json:"error,omitempty"`

	report.Summary
}

// Store persists records as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// DefaultPath returns ~/.cache/broombot/history.jsonl.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "broombot", "history.jsonl"), nil
}

// NewStore creates a store at path, creating its directory.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Append adds rec to the end of the log. The log is compacted to the
// newest maxRecords entries once it holds twice that many.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	records, err := s.readAll()
	if err != nil {
		return err
	}
	if len(records) >= 2*maxRecords {
		return s.rewrite(records[len(records)-maxRecords:])
	}
	return nil
}

// Recent returns up to n of the newest records, oldest first.
func (s *Store) Recent(n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

func (s *Store) readAll() ([]Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			log.Debug("skipping malformed history line", "line", line, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// rewrite replaces the log with records via a temp file and rename.
func (s *Store) rewrite(records []Record) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to compact history: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err = enc.Encode(r); err != nil {
			break
		}
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to compact history: %w", err)
	}
	return os.Rename(tmp, s.path)
}
