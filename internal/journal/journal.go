package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Kind distinguishes tool calls from resource reads
type Kind string

const (
	KindTool     Kind = "tool"
	KindResource Kind = "resource"
)

const (
	// DefaultRecentLimit is used when Recent is called with a non-positive limit
	DefaultRecentLimit = 20
	// MaxRecentLimit caps a single Recent query
	MaxRecentLimit = 500
)

var (
	// ErrInvalidRecord is returned for records missing required fields
	ErrInvalidRecord = errors.New("invalid journal record")
)

// Record is one journaled invocation
type Record struct {
	ID           int64           `json:"-"`
	CallID       string          `json:"call_id"`
	Kind         Kind            `json:"kind"`
	Name         string          `json:"name"`
	Arguments    json.RawMessage `json:"arguments"`
	IsError      bool            `json:"is_error"`
	ErrorMessage string          `json:"error,omitempty"`
	Duration     time.Duration   `json:"-"`
	DurationMS   int64           `json:"duration_ms"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks required fields
func (r *Record) Validate() error {
	if r.CallID == "" {
		return fmt.Errorf("%w: call_id is required", ErrInvalidRecord)
	}
	if r.Kind != KindTool && r.Kind != KindResource {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, r.Kind)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if len(r.Arguments) > 0 && !json.Valid(r.Arguments) {
		return fmt.Errorf("%w: arguments are not valid JSON", ErrInvalidRecord)
	}
	return nil
}

// Journal stores and lists invocation records
type Journal interface {
	Record(ctx context.Context, rec *Record) error
	Recent(ctx context.Context, limit int) ([]*Record, error)
	Close() error
}

// SQLiteJournal implements Journal using SQLite
type SQLiteJournal struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Open opens (creating if needed) the journal database at dbPath and applies
// pending migrations. ":memory:" opens a private in-memory journal.
func Open(dbPath string) (*SQLiteJournal, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create journal directory: %w", err)
			}
		}
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Rollback reverts the newest schema migration of the journal file at dbPath
// and returns the schema version left in place
func Rollback(ctx context.Context, dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("failed to open journal: %w", err)
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := RollbackMigration(ctx, db); err != nil {
		return "", err
	}
	v, err := currentVersion(ctx, db)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Close closes the database connection
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// Record inserts rec. CreatedAt defaults to now; empty Arguments are stored as {}.
func (j *SQLiteJournal) Record(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	args := rec.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	rec.DurationMS = rec.Duration.Milliseconds()

	var errMsg sql.NullString
	if rec.ErrorMessage != "" {
		errMsg = sql.NullString{String: rec.ErrorMessage, Valid: true}
	}

	query := `
		INSERT INTO calls (call_id, kind, name, arguments, is_error, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := j.db.ExecContext(ctx, query,
		rec.CallID, string(rec.Kind), rec.Name, string(args),
		boolToInt(rec.IsError), errMsg, rec.DurationMS, rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record call: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit uses
// DefaultRecentLimit; limits above MaxRecentLimit are capped.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	query := `
		SELECT id, call_id, kind, name, arguments, is_error, error_message, duration_ms, created_at
		FROM calls
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*Record, 0, limit)
	for rows.Next() {
		var (
			rec       Record
			kind      string
			args      string
			isError   int
			errMsg    sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.CallID, &kind, &rec.Name, &args, &isError, &errMsg, &rec.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		rec.Kind = Kind(kind)
		rec.Arguments = json.RawMessage(args)
		rec.IsError = isError != 0
		rec.ErrorMessage = errMsg.String
		rec.Duration = time.Duration(rec.DurationMS) * time.Millisecond
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
