// Package journal records program runs and their executed lines in a
// SQLite database so past runs can be listed and inspected.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	perrors "github.com/sambeau/minipy/pkg/minipy/errors"
	"github.com/sambeau/minipy/pkg/minipy/minipy"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// Run statuses
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusError   = "error"
)

// Journal manages the run journal database.
type Journal struct {
	mu          sync.RWMutex
	db          *sql.DB
	path        string
	maxSize     int64 // Maximum database size in bytes
	truncatePct int   // Percentage of runs to delete when truncating
}

// Run is one execution of a program.
type Run struct {
	ID         int64
	File       string
	Started    time.Time
	Finished   time.Time
	Status     string
	Error      string
	Statements int
}

// Entry is one executed source line.
type Entry struct {
	ID        int64
	RunID     int64
	Line      int
	Source    string
	Output    string
	Error     string
	ErrorKind string
	Elapsed   time.Duration
	Timestamp time.Time
}

// Config holds configuration for the journal.
type Config struct {
	Path        string // Database file path
	MaxSize     int64  // Max size in bytes (default 10MB)
	TruncatePct int    // Percentage to delete when truncating (default 25%)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:     10 * 1024 * 1024, // 10MB
		TruncatePct: 25,
	}
}

// Open opens (creating if needed) the journal database.
// If cfg.Path is empty, the database is "journal.db" in baseDir.
func Open(baseDir string, cfg Config) (*Journal, error) {
	path := cfg.Path
	if path == "" {
		path = filepath.Join(baseDir, "journal.db")
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to journal database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{
		db:          db,
		path:        path,
		maxSize:     cfg.MaxSize,
		truncatePct: cfg.TruncatePct,
	}
	if j.maxSize == 0 {
		j.maxSize = DefaultConfig().MaxSize
	}
	if j.truncatePct == 0 {
		j.truncatePct = DefaultConfig().TruncatePct
	}

	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	return j, nil
}

func (j *Journal) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file TEXT NOT NULL,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME,
			status TEXT NOT NULL DEFAULT 'running',
			error TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS statements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			line INTEGER NOT NULL,
			source TEXT NOT NULL,
			output TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			error_kind TEXT NOT NULL DEFAULT '',
			elapsed_us INTEGER NOT NULL DEFAULT 0,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_statements_run ON statements(run_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// BeginRun starts a new run for file and returns its id.
func (j *Journal) BeginRun(file string) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.maybeAutoTruncate(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] journal truncation failed: %v\n", err)
	}

	res, err := j.db.Exec("INSERT INTO runs (file) VALUES (?)", file)
	if err != nil {
		return 0, fmt.Errorf("starting run: %w", err)
	}
	return res.LastInsertId()
}

// Record stores one executed line of a run.
func (j *Journal) Record(runID int64, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO statements (run_id, line, source, output, error, error_kind, elapsed_us)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, e.Line, e.Source, e.Output, e.Error, e.ErrorKind, e.Elapsed.Microseconds())
	return err
}

// FinishRun marks a run as finished. A nil runErr means success.
func (j *Journal) FinishRun(runID int64, runErr error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	status, msg := StatusOK, ""
	if runErr != nil {
		status, msg = StatusError, runErr.Error()
	}
	_, err := j.db.Exec(`
		UPDATE runs SET finished_at = CURRENT_TIMESTAMP, status = ?, error = ? WHERE id = ?
	`, status, msg, runID)
	return err
}

// Observer returns an interpreter observer that records every executed
// line under runID. Write failures are passed to onErr when it is set.
func (j *Journal) Observer(runID int64, onErr func(error)) func(minipy.Event) {
	return func(ev minipy.Event) {
		entry := Entry{
			Line:    ev.Line,
			Source:  ev.Source,
			Output:  ev.Output,
			Elapsed: ev.Elapsed,
		}
		if ev.Err != nil {
			entry.Error = ev.Err.Error()
			var mpErr *perrors.MiniPyError
			if errors.As(ev.Err, &mpErr) {
				entry.ErrorKind = string(mpErr.Kind)
			}
		}
		if err := j.Record(runID, entry); err != nil && onErr != nil {
			onErr(err)
		}
	}
}

// Runs returns the most recent runs, newest first.
func (j *Journal) Runs(limit int) ([]Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.Query(`
		SELECT r.id, r.file, r.started_at, COALESCE(r.finished_at, ''), r.status, r.error,
			(SELECT COUNT(*) FROM statements s WHERE s.run_id = r.id)
		FROM runs r
		ORDER BY r.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.File, &started, &finished, &r.Status, &r.Error, &r.Statements); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started = parseTimestamp(started)
		r.Finished = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Statements returns the recorded lines of a run in execution order.
func (j *Journal) Statements(runID int64) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(`
		SELECT id, run_id, line, source, output, error, error_kind, elapsed_us, timestamp
		FROM statements
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying statements: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var elapsed int64
		var ts string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Line, &e.Source, &e.Output, &e.Error, &e.ErrorKind, &elapsed, &ts); err != nil {
			return nil, fmt.Errorf("scanning statement: %w", err)
		}
		e.Elapsed = time.Duration(elapsed) * time.Microsecond
		e.Timestamp = parseTimestamp(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every run.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.db.Exec("DELETE FROM statements"); err != nil {
		return err
	}
	_, err := j.db.Exec("DELETE FROM runs")
	return err
}

// Count returns the number of recorded runs.
func (j *Journal) Count() (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var count int
	err := j.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// Size returns the database file size as a human-readable string.
func (j *Journal) Size() string {
	info, err := os.Stat(j.path)
	if err != nil {
		return "0 B"
	}
	return humanize.Bytes(uint64(info.Size()))
}

// maybeAutoTruncate deletes the oldest runs once the database file
// reaches maxSize. Must be called with lock held.
func (j *Journal) maybeAutoTruncate() error {
	info, err := os.Stat(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < j.maxSize {
		return nil
	}

	var total int
	if err := j.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&total); err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	deleteCount := (total * j.truncatePct) / 100
	if deleteCount == 0 {
		deleteCount = 1
	}

	var cutoff int64
	if err := j.db.QueryRow(
		"SELECT id FROM runs ORDER BY id ASC LIMIT 1 OFFSET ?", deleteCount-1,
	).Scan(&cutoff); err != nil {
		return fmt.Errorf("truncating journal: %w", err)
	}
	if _, err := j.db.Exec("DELETE FROM statements WHERE run_id <= ?", cutoff); err != nil {
		return fmt.Errorf("truncating journal: %w", err)
	}
	if _, err := j.db.Exec("DELETE FROM runs WHERE id <= ?", cutoff); err != nil {
		return fmt.Errorf("truncating journal: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// Path returns the path to the database file.
func (j *Journal) Path() string {
	return j.path
}

func parseTimestamp(ts string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
