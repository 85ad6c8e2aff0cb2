// Package catalogsink records every emitted batch in a SQLite database so a
// run can be queried after the fact.
package catalogsink

import (
	"database/sql"
	"fmt"
	"image"
	"sort"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/user/camsync/pkg/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	streams     INTEGER NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	batches     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS batches (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	batch_index INTEGER NOT NULL,
	timestamp   REAL NOT NULL,
	PRIMARY KEY (run_id, batch_index)
);
CREATE TABLE IF NOT EXISTS frames (
	run_id      TEXT NOT NULL,
	batch_index INTEGER NOT NULL,
	stream_id   INTEGER NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	path        TEXT,
	PRIMARY KEY (run_id, batch_index, stream_id)
);`

// Run identifies the run the catalog rows belong to.
type Run struct {
	ID        string
	Input     string
	Streams   int
	StartedAt time.Time
	// FramePath returns where a frame was persisted, or "" when frames are
	// not written to disk.
	FramePath func(index, streamID int) string
}

// Sink inserts one batches row and one frames row per camera.
type Sink struct {
	db      *sql.DB
	run     Run
	batches int
	streams int // widest batch seen
	closed  bool
}

// Open opens (or creates) the catalog at dsn and registers the run.
func Open(dsn string, run Run) (*Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO runs (id, input, streams, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Input, run.Streams, run.StartedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}

	return &Sink{db: db, run: run}, nil
}

// WriteBatch records the batch in one transaction. No image files are
// produced, so it returns 0.
func (s *Sink) WriteBatch(index int, timestamp float64, frames map[int]image.Image) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO batches (run_id, batch_index, timestamp) VALUES (?, ?, ?)`,
		s.run.ID, index, timestamp,
	); err != nil {
		return 0, fmt.Errorf("insert batch %d: %w", index, err)
	}

	ids := make([]int, 0, len(frames))
	for id := range frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		b := frames[id].Bounds()
		var path sql.NullString
		if s.run.FramePath != nil {
			path = sql.NullString{String: s.run.FramePath(index, id), Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO frames (run_id, batch_index, stream_id, width, height, path) VALUES (?, ?, ?, ?, ?, ?)`,
			s.run.ID, index, id, b.Dx(), b.Dy(), path,
		); err != nil {
			return 0, fmt.Errorf("insert frame %d/%d: %w", index, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch %d: %w", index, err)
	}
	s.batches++
	if len(frames) > s.streams {
		s.streams = len(frames)
	}
	return 0, nil
}

// Close stamps the run with its batch and stream counts and closes the
// database. Later calls do nothing.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, batches = ?, streams = max(streams, ?) WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), s.batches, s.streams, s.run.ID,
	)
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ ports.BatchSink = (*Sink)(nil)
