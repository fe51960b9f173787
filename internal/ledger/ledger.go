// Package ledger keeps a SQLite record of the recordings that have been turned
// into notes.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

var (
	_ secretary.Recorder   = (*Ledger)(nil)
	_ secretary.VaultIndex = (*Index)(nil)
)

const schema = `
	CREATE TABLE IF NOT EXISTS processed (
		pathLower      TEXT NOT NULL,
		serverModified TEXT NOT NULL,
		name           TEXT NOT NULL,
		notePath       TEXT NOT NULL,
		processedAt    REAL NOT NULL,
		PRIMARY KEY (pathLower, serverModified)
	);
`

// Entry is one processed recording.
type Entry struct {
	PathLower      string
	ServerModified string
	Name           string
	NotePath       string
	ProcessedAt    time.Time
}

// Ledger is a SQLite-backed record of processed recordings.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the default ledger location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".secretary", "ledger.sqlite")
}

// DefaultKeyword selects DefaultPath when used as the configured ledger path.
const DefaultKeyword = "default"

// ResolvePath maps the configured ledger path to a file path. An empty path
// disables the ledger.
func ResolvePath(configured string) string {
	if configured == DefaultKeyword {
		return DefaultPath()
	}
	return configured
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Has reports whether this revision of file has been processed. A file that
// was modified on the server after it was processed counts as unprocessed.
func (l *Ledger) Has(ctx context.Context, file secretary.RemoteFile) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM processed
		WHERE pathLower = ? AND serverModified = ?
	`, file.PathLower, file.ServerModified).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query processed: %w", err)
	}
	return n > 0, nil
}

// Record stores the note's recording as processed.
func (l *Ledger) Record(ctx context.Context, note *secretary.AudioNote) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO processed (pathLower, serverModified, name, notePath, processedAt)
		VALUES (?, ?, ?, ?, ?)
	`, note.File.PathLower, note.File.ServerModified, note.File.Name, note.NotePath, unixSeconds(l.now()))
	if err != nil {
		return fmt.Errorf("insert processed: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT pathLower, serverModified, name, notePath, processedAt
		FROM processed
		ORDER BY processedAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var processedAt float64
		if err := rows.Scan(&e.PathLower, &e.ServerModified, &e.Name, &e.NotePath, &processedAt); err != nil {
			return nil, fmt.Errorf("scan processed: %w", err)
		}
		e.ProcessedAt = timeFromUnix(processedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Index reports a note when either the ledger or the wrapped index knows the
// file. The ledger is consulted first; its errors fall through to Inner.
type Index struct {
	Ledger *Ledger
	Inner  secretary.VaultIndex
}

// HasNote implements secretary.VaultIndex.
func (x *Index) HasNote(file secretary.RemoteFile) (bool, error) {
	if ok, err := x.Ledger.Has(context.Background(), file); err == nil && ok {
		return true, nil
	}
	return x.Inner.HasNote(file)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
