// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/trace.go
// Summary: SQLite-backed frame tracing.
//
// Records two streams from the frame thread:
//   - Recoverable-condition messages (the glint.DebugSink interface)
//   - One row per completed frame (the glint.FrameRecorder interface)
//
// Writes are queued and batched off the frame thread so tracing never
// stalls a frame.

package trace

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/framegrace/glint/glint"
)

// Config holds the tracer's batching knobs.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of entries to accumulate before flushing.
	// Default: 100
	BatchSize int

	// BatchTimeout is how long to wait before flushing a partial batch.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async write channel.
	// Default: 1000
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:        dbPath,
		BatchSize:     100,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 1000,
	}
}

// entry is one queued write; exactly one of msg/frame is set.
type entry struct {
	isFrame bool
	msg     glint.DebugMessage
	frame   glint.FrameStats
}

// Tracer implements glint.DebugSink and glint.FrameRecorder over SQLite.
type Tracer struct {
	config Config
	db     *sql.DB

	writeChan chan entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}
}

const traceSchema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,       -- UnixNano
    location TEXT NOT NULL,
    message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS frames (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    window INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,       -- UnixNano, frame start
    duration_us INTEGER NOT NULL,
    events INTEGER NOT NULL,
    work_level INTEGER NOT NULL,
    update_result INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
CREATE INDEX IF NOT EXISTS idx_frames_timestamp ON frames(timestamp);
CREATE INDEX IF NOT EXISTS idx_frames_window ON frames(window);
`

// New opens (or creates) a trace database and starts the batch writer.
func New(dbPath string) (*Tracer, error) {
	return NewWithConfig(DefaultConfig(dbPath))
}

// NewWithConfig opens a tracer with custom batching.
func NewWithConfig(config Config) (*Tracer, error) {
	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(traceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	t := &Tracer{
		config:    config,
		db:        db,
		writeChan: make(chan entry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go t.batchWriter()
	return t, nil
}

// Record queues one recoverable-condition message. Drops the entry when
// the queue is full rather than blocking the frame thread.
func (t *Tracer) Record(msg glint.DebugMessage) {
	select {
	case t.writeChan <- entry{msg: msg}:
	default:
	}
}

// RecordFrame queues one frame summary. Same drop policy as Record.
func (t *Tracer) RecordFrame(stats glint.FrameStats) {
	select {
	case t.writeChan <- entry{isFrame: true, frame: stats}:
	default:
	}
}

// Flush blocks until all queued entries are written.
func (t *Tracer) Flush() error {
	done := make(chan struct{})
	select {
	case t.flushCh <- done:
		<-done
		return nil
	case <-t.stopCh:
		return fmt.Errorf("tracer is closed")
	}
}

// Close flushes pending writes and closes the database.
func (t *Tracer) Close() error {
	select {
	case <-t.stopCh:
	default:
		close(t.stopCh)
	}
	<-t.doneCh
	return t.db.Close()
}

// batchWriter runs in a background goroutine, batching entries and
// flushing them periodically.
func (t *Tracer) batchWriter() {
	defer close(t.doneCh)

	batch := make([]entry, 0, t.config.BatchSize)
	timer := time.NewTimer(t.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		t.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-t.writeChan:
			batch = append(batch, e)
			if len(batch) >= t.config.BatchSize {
				flush()
				timer.Reset(t.config.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(t.config.BatchTimeout)

		case done := <-t.flushCh:
			// drain the channel before reporting the flush complete
			draining := true
			for draining {
				select {
				case e := <-t.writeChan:
					batch = append(batch, e)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-t.stopCh:
			for {
				select {
				case e := <-t.writeChan:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flushBatch writes a batch in a single transaction.
func (t *Tracer) flushBatch(batch []entry) {
	tx, err := t.db.Begin()
	if err != nil {
		log.Printf("Trace: Failed to begin transaction: %v", err)
		return
	}

	msgStmt, err := tx.Prepare(
		"INSERT INTO messages (timestamp, location, message) VALUES (?, ?, ?)")
	if err != nil {
		log.Printf("Trace: Failed to prepare message statement: %v", err)
		tx.Rollback()
		return
	}
	defer msgStmt.Close()

	frameStmt, err := tx.Prepare(
		"INSERT INTO frames (window, timestamp, duration_us, events, work_level, update_result) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		log.Printf("Trace: Failed to prepare frame statement: %v", err)
		tx.Rollback()
		return
	}
	defer frameStmt.Close()

	for _, e := range batch {
		if e.isFrame {
			f := e.frame
			_, err = frameStmt.Exec(int64(f.Window), f.Time.UnixNano(),
				f.Duration.Microseconds(), f.Events, int(f.WorkLevel), int(f.Update))
		} else {
			m := e.msg
			_, err = msgStmt.Exec(m.Time.UnixNano(), m.Location, m.Message)
		}
		if err != nil {
			log.Printf("Trace: Failed to insert entry: %v", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Trace: Failed to commit batch: %v", err)
	}
}

// Messages returns the most recent recoverable-condition messages, newest
// first, up to limit.
func (t *Tracer) Messages(limit int) ([]glint.DebugMessage, error) {
	if err := t.Flush(); err != nil {
		return nil, err
	}
	rows, err := t.db.Query(
		"SELECT timestamp, location, message FROM messages ORDER BY timestamp DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []glint.DebugMessage
	for rows.Next() {
		var ts int64
		var m glint.DebugMessage
		if err := rows.Scan(&ts, &m.Location, &m.Message); err != nil {
			return nil, err
		}
		m.Time = time.Unix(0, ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

// FrameCount reports how many frame rows a window has recorded.
func (t *Tracer) FrameCount(window glint.WindowId) (int64, error) {
	if err := t.Flush(); err != nil {
		return 0, err
	}
	var n int64
	err := t.db.QueryRow(
		"SELECT COUNT(*) FROM frames WHERE window = ?", int64(window)).Scan(&n)
	return n, err
}
