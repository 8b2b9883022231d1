// Package journal keeps a local history of task submissions in an SQLite
// database. Writes are asynchronous so a slow disk never delays a submission.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/mlkit/internal/clock"
	"github.com/viant/mlkit/internal/idgen"
	"github.com/viant/mlkit/model/task"
	_ "modernc.org/sqlite"
)

const (
	bufferSize = 256
	batchSize  = 32

	// DefaultListLimit bounds List when the caller does not set a limit.
	DefaultListLimit = 20
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	queue_id     TEXT NOT NULL DEFAULT '',
	flavor_id    TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL DEFAULT '',
	submitted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
`

const insertSQL = `INSERT INTO submissions (id, task_id, name, queue_id, flavor_id, image_url, state, submitted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// Entry represents one recorded submission.
type Entry struct {
	ID          string    `json:"id,omitempty"`
	TaskID      string    `json:"taskID,omitempty"`
	Name        string    `json:"name,omitempty"`
	QueueID     string    `json:"queueID,omitempty"`
	FlavorID    string    `json:"flavorID,omitempty"`
	ImageURL    string    `json:"imageURL,omitempty"`
	State       string    `json:"state,omitempty"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

// Service journals submissions to SQLite through a background writer.
type Service struct {
	db        *sql.DB
	ownsDB    bool
	logger    *logrus.Logger
	entries   chan *Entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// New returns a journal over an already opened database and starts the
// background writer. The caller retains ownership of db.
func New(db *sql.DB, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	service := &Service{
		db:      db,
		logger:  logger,
		entries: make(chan *Entry, bufferSize),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go service.writeLoop()
	return service
}

// Open opens or creates the journal database at path, applies the pragmas a
// long-lived local database needs and ensures the schema exists.
func Open(path string, logger *logrus.Logger) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %v: %w", path, err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	service := New(db, logger)
	service.ownsDB = true
	if err := service.Init(); err != nil {
		_ = service.Close()
		return nil, err
	}
	return service, nil
}

// Init creates the journal schema if needed.
func (s *Service) Init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to init journal schema: %w", err)
	}
	return nil
}

// Record queues an entry for writing, filling the entry id and submission
// time when absent. A full buffer drops the entry with a warning rather
// than blocking the caller.
func (s *Service) Record(entry *Entry) {
	if entry.ID == "" {
		entry.ID = idgen.New()
	}
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = clock.Now()
	}
	select {
	case s.entries <- entry:
	default:
		s.logger.Warnf("journal buffer full, dropping entry for task %v", entry.TaskID)
	}
}

// UpdateState stores the final state of a recorded submission.
func (s *Service) UpdateState(ctx context.Context, taskID string, state task.State) error {
	_, err := s.db.ExecContext(ctx, "UPDATE submissions SET state = ? WHERE task_id = ?", string(state), taskID)
	if err != nil {
		return fmt.Errorf("failed to update journal state for task %v: %w", taskID, err)
	}
	return nil
}

// List returns the most recent submissions, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, name, queue_id, flavor_id, image_url, state, submitted_at
		 FROM submissions ORDER BY submitted_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	defer rows.Close()
	var result []*Entry
	for rows.Next() {
		entry := &Entry{}
		var submittedAt int64
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.Name, &entry.QueueID,
			&entry.FlavorID, &entry.ImageURL, &entry.State, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entry.SubmittedAt = time.Unix(submittedAt, 0)
		result = append(result, entry)
	}
	return result, rows.Err()
}

// Close flushes pending entries, stops the writer and closes the database
// when this journal opened it.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func (s *Service) writeLoop() {
	defer close(s.doneCh)
	for {
		select {
		case entry := <-s.entries:
			s.flush(s.drain(entry))
		case <-s.stopCh:
			for {
				select {
				case entry := <-s.entries:
					s.flush(s.drain(entry))
				default:
					return
				}
			}
		}
	}
}

// drain collects whatever else is already queued, up to one batch.
func (s *Service) drain(first *Entry) []*Entry {
	batch := append(make([]*Entry, 0, batchSize), first)
	for len(batch) < batchSize {
		select {
		case entry := <-s.entries:
			batch = append(batch, entry)
		default:
			return batch
		}
	}
	return batch
}

func (s *Service) flush(batch []*Entry) {
	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Errorf("journal write failed: %v", err)
		return
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		_ = tx.Rollback()
		s.logger.Errorf("journal write failed: %v", err)
		return
	}
	defer stmt.Close()
	for _, entry := range batch {
		if _, err := stmt.Exec(entry.ID, entry.TaskID, entry.Name, entry.QueueID,
			entry.FlavorID, entry.ImageURL, entry.State, entry.SubmittedAt.Unix()); err != nil {
			_ = tx.Rollback()
			s.logger.Errorf("journal write failed for task %v: %v", entry.TaskID, err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		s.logger.Errorf("journal commit failed: %v", err)
	}
}
