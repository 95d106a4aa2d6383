package trace

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the pipeline_events table.
const Schema = `
CREATE TABLE IF NOT EXISTS pipeline_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	kind TEXT NOT NULL,
	detail TEXT,
	at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pipeline_events_file ON pipeline_events(file_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_events_at ON pipeline_events(at);
`

// Store persists diagnostic events to SQLite asynchronously, so recording
// never backpressures a pipeline invocation.
type Store struct {
	db   *sql.DB
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewStore opens (or creates) the journal database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:   db,
		ch:   make(chan Event, 1024),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

// Record queues an event for async persistence. Non-blocking; drops the
// event if the buffer is full.
func (s *Store) Record(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	select {
	case s.ch <- e:
	default:
		// buffer full, dropping beats stalling the pipeline
	}
}

// Events returns the journal for a fileId, oldest first.
func (s *Store) Events(fileID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT file_id, stage, kind, detail, at FROM pipeline_events WHERE file_id = ? ORDER BY id`,
		fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var at int64
		if err := rows.Scan(&e.FileID, &e.Stage, &e.Kind, &e.Detail, &at); err != nil {
			return nil, err
		}
		e.At = time.UnixMicro(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains the buffer, stops the flush goroutine, and closes the db.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
	return s.db.Close()
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]Event, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []Event) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("trace store: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(
		`INSERT INTO pipeline_events (file_id, stage, kind, detail, at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("trace store: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.FileID, e.Stage, e.Kind, e.Detail, e.At.UnixMicro()); err != nil {
			slog.Error("trace store: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("trace store: commit", "error", err)
	}
}
