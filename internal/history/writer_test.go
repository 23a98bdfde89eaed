package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diogo/pplx-search-go/pkg/models"
)

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	return w, path
}

func TestAppendAndReadAll(t *testing.T) {
	w, path := newTestWriter(t)

	entries := []models.HistoryEntry{
		{Query: "first query", Answer: "a1"},
		{Query: "second query", Recency: "week", BackendUUID: "b-2"},
	}
	for _, e := range entries {
		if err := w.Append(e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := NewReader(path).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAll() returned %d entries, want 2", len(got))
	}
	if got[0].Query != "first query" || got[1].Query != "second query" {
		t.Errorf("queries = %q, %q; want original order", got[0].Query, got[1].Query)
	}
	if got[1].Recency != "week" {
		t.Errorf("Recency = %q, want %q", got[1].Recency, "week")
	}
	if got[0].Timestamp.IsZero() {
		t.Error("Append() did not stamp a zero timestamp")
	}
}

func TestAppendKeepsExplicitTimestamp(t *testing.T) {
	w, path := newTestWriter(t)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := w.Append(models.HistoryEntry{Query: "q", Timestamp: ts}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := NewReader(path).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !got[0].Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got[0].Timestamp, ts)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	got, err := NewReader(filepath.Join(t.TempDir(), "none.jsonl")).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadAll() = %v, want empty", got)
	}
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"query":"good one"}
this line is not json
{"query":"good two"}
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := NewReader(path).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAll() returned %d entries, want 2 (malformed line skipped)", len(got))
	}
}

func TestReadLast(t *testing.T) {
	w, path := newTestWriter(t)
	for _, q := range []string{"one", "two", "three", "four"} {
		if err := w.Append(models.HistoryEntry{Query: q}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	reader := NewReader(path)

	got, err := reader.ReadLast(2)
	if err != nil {
		t.Fatalf("ReadLast() error = %v", err)
	}
	if len(got) != 2 || got[0].Query != "three" || got[1].Query != "four" {
		t.Errorf("ReadLast(2) = %v, want last two entries", got)
	}

	all, err := reader.ReadLast(10)
	if err != nil {
		t.Fatalf("ReadLast() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ReadLast(10) returned %d entries, want all 4", len(all))
	}
}

func TestSearch(t *testing.T) {
	w, path := newTestWriter(t)
	for _, q := range []string{"Go generics", "rust lifetimes", "go modules"} {
		if err := w.Append(models.HistoryEntry{Query: q}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := NewReader(path).Search("GO")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d entries, want 2", len(got))
	}
	if got[0].Query != "Go generics" || got[1].Query != "go modules" {
		t.Errorf("Search() = %v, want case-insensitive matches in order", got)
	}
}

func TestClear(t *testing.T) {
	w, path := newTestWriter(t)
	if err := w.Append(models.HistoryEntry{Query: "q"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	reader := NewReader(path)
	if err := reader.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadAll() after Clear() = %v, want empty", got)
	}
}

func TestClearMissingFile(t *testing.T) {
	reader := NewReader(filepath.Join(t.TempDir(), "none.jsonl"))
	if err := reader.Clear(); err != nil {
		t.Errorf("Clear() on missing file error = %v", err)
	}
}
