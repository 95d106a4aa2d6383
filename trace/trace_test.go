package trace

import (
	"fmt"
	"testing"
	"time"
)

func TestMemoryRecordAndFilter(t *testing.T) {
	m := NewMemory(0)
	m.Record(Event{FileID: "a", Stage: "extracting", Kind: "stage"})
	m.Record(Event{FileID: "b", Stage: "extracting", Kind: "stage"})
	m.Record(Event{FileID: "a", Stage: "correcting", Kind: "stage"})

	got := m.Events("a")
	if len(got) != 2 {
		t.Fatalf("Events(a) = %d events, want 2", len(got))
	}
	if got[0].Stage != "extracting" || got[1].Stage != "correcting" {
		t.Errorf("events out of order: %v", got)
	}

	if all := m.Events(""); len(all) != 3 {
		t.Errorf("Events(\"\") = %d events, want 3", len(all))
	}
}

func TestMemoryStampsTime(t *testing.T) {
	m := NewMemory(0)
	m.Record(Event{FileID: "a", Kind: "stage"})

	got := m.Events("a")
	if len(got) != 1 || got[0].At.IsZero() {
		t.Errorf("recorded event missing timestamp: %v", got)
	}

	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Record(Event{FileID: "b", Kind: "stage", At: stamp})
	if got := m.Events("b"); !got[0].At.Equal(stamp) {
		t.Errorf("explicit timestamp overwritten: %v", got[0].At)
	}
}

func TestMemoryEvictsOldest(t *testing.T) {
	m := NewMemory(3)
	for i := 0; i < 5; i++ {
		m.Record(Event{FileID: "f", Detail: fmt.Sprintf("e%d", i)})
	}

	got := m.Events("f")
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if got[0].Detail != "e2" || got[2].Detail != "e4" {
		t.Errorf("eviction kept wrong window: %v", got)
	}
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.Record(Event{FileID: "x"})
	if err := r.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}
