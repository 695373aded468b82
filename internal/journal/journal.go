// Package journal persists the edit history for a script so undo and redo
// survive across CLI invocations. Each committed entry and its ordered
// changes are stored in a SQLite file next to the script, along with a
// cursor separating undone entries from applied ones. The store uses WAL
// mode with a single connection, which keeps writes crash-safe without
// SQLITE_BUSY contention.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"scenetune/internal/history"
	"scenetune/internal/param"
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS
// makes it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS changes (
    entry_id INTEGER NOT NULL,
    seq      INTEGER NOT NULL,
    name     TEXT NOT NULL,
    old_kind TEXT NOT NULL,
    old_text TEXT NOT NULL,
    new_kind TEXT NOT NULL,
    new_text TEXT NOT NULL,
    PRIMARY KEY (entry_id, seq)
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Journal is the persistent edit history for one script.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dbPath, enables WAL mode
// and busy timeout, and creates the schema tables if they do not exist.
func Open(ctx context.Context, dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	// One connection: SQLite has a single writer, and pooled connections
	// would each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends a committed entry. Entries beyond the cursor (the redo
// tail) are discarded first, matching the in-memory history's linear,
// no-branching model, and the cursor advances past the new entry. The
// whole operation is one transaction.
func (j *Journal) Record(ctx context.Context, e history.Entry) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	cursor, err := readCursor(ctx, tx)
	if err != nil {
		return err
	}

	// Drop the redo tail.
	const trunc = `
		DELETE FROM changes WHERE entry_id IN
			(SELECT id FROM entries ORDER BY id LIMIT -1 OFFSET ?)`
	if _, err := tx.ExecContext(ctx, trunc, cursor); err != nil {
		return fmt.Errorf("journal: truncate redo changes: %w", err)
	}
	const truncEntries = `
		DELETE FROM entries WHERE id IN
			(SELECT id FROM entries ORDER BY id LIMIT -1 OFFSET ?)`
	if _, err := tx.ExecContext(ctx, truncEntries, cursor); err != nil {
		return fmt.Errorf("journal: truncate redo entries: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO entries (created_at) VALUES (?)`,
		e.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("journal: insert entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("journal: entry id: %w", err)
	}

	const q = `INSERT INTO changes (entry_id, seq, name, old_kind, old_text, new_kind, new_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for i, c := range e.Changes {
		if _, err := tx.ExecContext(ctx, q, entryID, i, c.Name,
			c.Old.Kind().String(), c.Old.String(),
			c.New.Kind().String(), c.New.String()); err != nil {
			return fmt.Errorf("journal: insert change %s: %w", c.Name, err)
		}
	}

	if err := writeCursor(ctx, tx, cursor+1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	return nil
}

// SetCursor moves the undo/redo boundary after a successful undo or redo.
func (j *Journal) SetCursor(ctx context.Context, cursor int) error {
	if cursor < 0 {
		return fmt.Errorf("journal: negative cursor %d", cursor)
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := writeCursor(ctx, tx, cursor); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit cursor: %w", err)
	}
	return nil
}

// Load returns all recorded entries in commit order plus the cursor. A
// journal written by an older run whose values no longer decode yields an
// error; callers degrade to an empty history.
func (j *Journal) Load(ctx context.Context) ([]history.Entry, int, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT id, created_at FROM entries ORDER BY id`)
	if err != nil {
		return nil, 0, fmt.Errorf("journal: query entries: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var entries []history.Entry
	for rows.Next() {
		var id int64
		var ts string
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, 0, fmt.Errorf("journal: scan entry: %w", err)
		}
		at, err := parseTimestamp(ts)
		if err != nil {
			return nil, 0, fmt.Errorf("journal: parse entry timestamp: %w", err)
		}
		ids = append(ids, id)
		entries = append(entries, history.Entry{At: at})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("journal: iterate entries: %w", err)
	}

	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	crows, err := j.db.QueryContext(ctx,
		`SELECT entry_id, name, old_kind, old_text, new_kind, new_text
		 FROM changes ORDER BY entry_id, seq`)
	if err != nil {
		return nil, 0, fmt.Errorf("journal: query changes: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var entryID int64
		var name, oldKind, oldText, newKind, newText string
		if err := crows.Scan(&entryID, &name, &oldKind, &oldText, &newKind, &newText); err != nil {
			return nil, 0, fmt.Errorf("journal: scan change: %w", err)
		}
		i, ok := index[entryID]
		if !ok {
			return nil, 0, fmt.Errorf("journal: change references missing entry %d", entryID)
		}
		oldVal, err := decodeValue(oldKind, oldText)
		if err != nil {
			return nil, 0, fmt.Errorf("journal: change %s: %w", name, err)
		}
		newVal, err := decodeValue(newKind, newText)
		if err != nil {
			return nil, 0, fmt.Errorf("journal: change %s: %w", name, err)
		}
		entries[i].Changes = append(entries[i].Changes, history.Change{
			Name: name, Old: oldVal, New: newVal,
		})
	}
	if err := crows.Err(); err != nil {
		return nil, 0, fmt.Errorf("journal: iterate changes: %w", err)
	}

	cursor, err := j.cursor(ctx)
	if err != nil {
		return nil, 0, err
	}
	if cursor > len(entries) {
		cursor = len(entries)
	}
	return entries, cursor, nil
}

// Cursor returns the current undo/redo boundary.
func (j *Journal) Cursor(ctx context.Context) (int, error) {
	return j.cursor(ctx)
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) cursor(ctx context.Context) (int, error) {
	var text string
	err := j.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'cursor'`).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("journal: read cursor: %w", err)
	}
	var cursor int
	if _, err := fmt.Sscanf(text, "%d", &cursor); err != nil {
		return 0, fmt.Errorf("journal: malformed cursor %q: %w", text, err)
	}
	return cursor, nil
}

func readCursor(ctx context.Context, tx *sql.Tx) (int, error) {
	var text string
	err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'cursor'`).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("journal: read cursor: %w", err)
	}
	var cursor int
	if _, err := fmt.Sscanf(text, "%d", &cursor); err != nil {
		return 0, fmt.Errorf("journal: malformed cursor %q: %w", text, err)
	}
	return cursor, nil
}

func writeCursor(ctx context.Context, tx *sql.Tx, cursor int) error {
	const q = `INSERT INTO meta (key, value) VALUES ('cursor', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, q, fmt.Sprintf("%d", cursor)); err != nil {
		return fmt.Errorf("journal: write cursor: %w", err)
	}
	return nil
}

// decodeValue reconstructs a Value from its stored kind tag and text.
func decodeValue(kind, text string) (param.Value, error) {
	k, ok := param.KindFromLiteral(kind)
	if !ok {
		return param.Value{}, fmt.Errorf("unknown kind %q", kind)
	}
	return param.Parse(k, text)
}

// timestampFormats lists the formats entry timestamps may carry.
// Record writes RFC 3339; CURRENT_TIMESTAMP defaults from older schema
// versions use SQLite's space-separated DateTime format.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
}

// parseTimestamp attempts to parse a stored timestamp using known formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
