// Package history records every operation exchange with a host agent in a
// local SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// tsLayout is fixed width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Record is one exchange: an operation sent and what came back.
type Record struct {
	Seq         int64
	SessionID   string
	Timestamp   time.Time
	Server      string
	Index       int
	Code        byte
	Description string
	Response    []byte
	// Error holds the transport error text when the exchange failed.
	Error    string
	Duration time.Duration
}

// Failed reports whether the exchange ended in an error.
func (r Record) Failed() bool {
	return r.Error != ""
}

// Store is a history database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history tables: %w", err)
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS exchanges (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			session     TEXT NOT NULL,
			ts          TEXT NOT NULL,
			server      TEXT NOT NULL,
			idx         INTEGER NOT NULL,
			code        INTEGER NOT NULL,
			description TEXT NOT NULL,
			response    BLOB,
			error       TEXT NOT NULL DEFAULT '',
			duration_ns INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session);
		CREATE INDEX IF NOT EXISTS idx_exchanges_ts ON exchanges(ts);
	`)
	return err
}

// Append stores rec and returns it with Seq assigned. A zero Timestamp is
// set to now.
func (s *Store) Append(rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	res, err := s.db.Exec(`
		INSERT INTO exchanges (session, ts, server, idx, code, description, response, error, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.SessionID, rec.Timestamp.UTC().Format(tsLayout), rec.Server, rec.Index,
		int(rec.Code), rec.Description, rec.Response, rec.Error, int64(rec.Duration))
	if err != nil {
		return Record{}, fmt.Errorf("inserting exchange: %w", err)
	}
	rec.Seq, err = res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("reading exchange id: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	return s.query(`
		SELECT seq, session, ts, server, idx, code, description, response, error, duration_ns
		FROM exchanges ORDER BY seq DESC LIMIT ?
	`, limit)
}

// BySession returns a session's records in the order they happened.
func (s *Store) BySession(sessionID string) ([]Record, error) {
	return s.query(`
		SELECT seq, session, ts, server, idx, code, description, response, error, duration_ns
		FROM exchanges WHERE session = ? ORDER BY seq
	`, sessionID)
}

// Count returns the number of stored records.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM exchanges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exchanges: %w", err)
	}
	return n, nil
}

// Prune deletes records older than cutoff and returns how many went.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM exchanges WHERE ts < ?`, cutoff.UTC().Format(tsLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning exchanges: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) query(q string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r     Record
			ts    string
			code  int
			durNs int64
		)
		if err := rows.Scan(&r.Seq, &r.SessionID, &ts, &r.Server, &r.Index, &code,
			&r.Description, &r.Response, &r.Error, &durNs); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		r.Timestamp, _ = time.Parse(tsLayout, ts)
		r.Code = byte(code)
		r.Duration = time.Duration(durNs)
		out = append(out, r)
	}
	return out, rows.Err()
}
