package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spiffcs/broombot/internal/report"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Recent(10)
	if err != nil || len(got) != 0 {
		t.Fatalf("Recent() on empty store = %v, %v", got, err)
	}

	ts := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rec := Record{
		RunID:     "run-1",
		Timestamp: ts,
		Owner:     "acme",
		Summary:   report.Summary{Scanned: 12, Stale: 3, Warned: 2, Candidates: 1},
	}
	if err := s.Append(rec); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Record{RunID: "run-2", Error: "boom"}); err != nil {
		t.Fatal(err)
	}

	got, err = s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].RunID != "run-1" || got[0].Scanned != 12 || got[0].Stale != 3 || !got[0].Timestamp.Equal(ts) {
		t.Errorf("unexpected first record: %+v", got[0])
	}
	if got[1].Error != "boom" {
		t.Errorf("Error = %q, want boom", got[1].Error)
	}
}

func TestRecentLimitsResults(t *testing.T) {
	s := newTestStore(t)
	for i := range 10 {
		if err := s.Append(Record{Summary: report.Summary{Scanned: i}}); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.Recent(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Scanned != 7 || got[2].Scanned != 9 {
		t.Errorf("expected the newest records 7..9, got %d..%d", got[0].Scanned, got[2].Scanned)
	}

	all, _ := s.Recent(0)
	if len(all) != 10 {
		t.Errorf("Recent(0) returned %d records, want all 10", len(all))
	}
}

func TestCompaction(t *testing.T) {
	s := newTestStore(t)
	for i := range 2 * maxRecords {
		if err := s.Append(Record{Summary: report.Summary{Scanned: i}}); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.Recent(0)
	if len(got) != maxRecords {
		t.Fatalf("expected %d records after compaction, got %d", maxRecords, len(got))
	}
	if got[len(got)-1].Scanned != 2*maxRecords-1 {
		t.Errorf("newest record lost during compaction")
	}
	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestSkipsMalformedLines(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("not json\n\n{\"runId\":\"ok\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].RunID != "ok" {
		t.Errorf("Recent() = %+v, want only the valid record", got)
	}
}
