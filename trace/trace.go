// Package trace records pipeline diagnostics: stage transitions and
// reconciliation anomalies, keyed by fileId.
//
// Diagnostics are not part of the external contract: the caller only ever
// sees a result or a single error. But every demotion, drop, and stage
// failure is retained here for debugging. The default recorder keeps a
// bounded in-memory ring; a SQLite-backed store is available for deployments
// that want the journal to survive the process.
package trace

import (
	"sync"
	"time"
)

// Event is one diagnostic record.
type Event struct {
	FileID string    // analysis this event belongs to
	Stage  string    // pipeline stage that produced it
	Kind   string    // "stage", "anomaly", "failure"
	Detail string    // human-readable description
	At     time.Time // event time
}

// Recorder is the interface for diagnostic sinks.
type Recorder interface {
	// Record accepts an event. Must never block the pipeline.
	Record(e Event)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(Event) {}
func (Nop) Close() error { return nil }

// Memory is a bounded in-memory recorder, the default sink. When full, the
// oldest events are evicted.
type Memory struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemory creates an in-memory recorder holding at most limit events
// (default 4096 when limit <= 0).
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = 4096
	}
	return &Memory{limit: limit}
}

func (m *Memory) Record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.At.IsZero() {
		e.At = time.Now()
	}
	m.events = append(m.events, e)
	if len(m.events) > m.limit {
		m.events = m.events[len(m.events)-m.limit:]
	}
}

// Events returns the recorded events for a fileId, oldest first. An empty
// fileId returns everything.
func (m *Memory) Events(fileID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		if fileID == "" || e.FileID == fileID {
			out = append(out, e)
		}
	}
	return out
}

func (m *Memory) Close() error { return nil }
