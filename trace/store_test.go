//go:build cgo

package trace

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Record(Event{FileID: "f1", Stage: "extracting", Kind: "stage", Detail: "start", At: at})
	s.Record(Event{FileID: "f1", Stage: "correcting", Kind: "stage", Detail: "start", At: at.Add(time.Second)})
	s.Record(Event{FileID: "f2", Stage: "extracting", Kind: "failure", Detail: "no text", At: at})

	// Close drains the async buffer before the db closes.
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	s2, err := NewStore(filepath.Join(t.TempDir(), "other.db"))
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	defer s2.Close()
	if got, err := s2.Events("f1"); err != nil || len(got) != 0 {
		t.Errorf("fresh store Events = %v, %v", got, err)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Record(Event{FileID: "f1", Stage: "extracting", Kind: "stage", Detail: "start", At: at})
	s.Record(Event{FileID: "f1", Stage: "delivered", Kind: "stage", Detail: "done", At: at.Add(time.Minute)})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Events("f1")
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Stage != "extracting" || got[1].Stage != "delivered" {
		t.Errorf("events out of order: %v", got)
	}
	if !got[0].At.Equal(at) {
		t.Errorf("At = %v, want %v", got[0].At, at)
	}
}
