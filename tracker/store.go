package tracker

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Store provides CRUD operations on the tracked-file database.
// All mutations are single atomic statements; the PRIMARY KEY on path
// enforces the unique-path invariant at commit time. Callers receive
// copies of rows, never live handles.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add inserts a new entry. Fails with ErrAlreadyTracked when the path
// is already present; use Upsert for explicit re-track semantics.
func (s *Store) Add(e Entry) error {
	l := sub("store")
	l.Debug("Add", "path", e.Path, "fingerprint", e.Fingerprint)
	_, err := s.db.Exec(`
		INSERT INTO tracked (path, fingerprint, content, tracked_at, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Path, e.Fingerprint, e.Content, e.TrackedAt, e.SavedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", e.Path, ErrAlreadyTracked)
		}
		l.Error("Add failed", "path", e.Path, "err", err)
		return fmt.Errorf("add entry %s: %w", e.Path, mapBusy(err))
	}
	return nil
}

// Upsert inserts or replaces an entry keyed by path. The original
// tracked_at is preserved when the path already exists.
func (s *Store) Upsert(e Entry) error {
	sub("store").Debug("Upsert", "path", e.Path, "fingerprint", e.Fingerprint)
	_, err := s.db.Exec(`
		INSERT INTO tracked (path, fingerprint, content, tracked_at, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			content     = excluded.content,
			saved_at    = excluded.saved_at
	`, e.Path, e.Fingerprint, e.Content, e.TrackedAt, e.SavedAt)
	if err != nil {
		return fmt.Errorf("upsert entry %s: %w", e.Path, mapBusy(err))
	}
	return nil
}

// Get retrieves an entry by canonical path. Returns (nil, nil) when absent.
func (s *Store) Get(path string) (*Entry, error) {
	e := &Entry{}
	err := s.db.QueryRow(`
		SELECT path, fingerprint, content, tracked_at, saved_at
		FROM tracked WHERE path = ?
	`, path).Scan(&e.Path, &e.Fingerprint, &e.Content, &e.TrackedAt, &e.SavedAt)
	if err == sql.ErrNoRows {
		if logEnabled(slog.LevelDebug) {
			sub("store").Debug("Get", "path", path, "found", false)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", path, mapBusy(err))
	}
	if logEnabled(slog.LevelDebug) {
		sub("store").Debug("Get", "path", path, "found", true)
	}
	return e, nil
}

// Remove deletes an entry by path. Fails with ErrNotTracked when absent.
func (s *Store) Remove(path string) error {
	sub("store").Debug("Remove", "path", path)
	res, err := s.db.Exec("DELETE FROM tracked WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("remove entry %s: %w", path, mapBusy(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove entry %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotTracked)
	}
	return nil
}

// RemoveTree deletes every entry whose path equals prefix or lives under
// it. Zero matches is a valid no-op; the count is reported to the caller.
func (s *Store) RemoveTree(prefix string) (int, error) {
	l := sub("store")
	prefix = strings.TrimRight(prefix, "/")
	res, err := s.db.Exec(
		"DELETE FROM tracked WHERE path = ? OR path LIKE ? ESCAPE '\\'",
		prefix, likeEscape(prefix)+"/%",
	)
	if err != nil {
		return 0, fmt.Errorf("remove tree %s: %w", prefix, mapBusy(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove tree %s: %w", prefix, err)
	}
	l.Debug("RemoveTree", "prefix", prefix, "removed", n)
	return int(n), nil
}

// UpdateBaseline replaces the stored fingerprint and content for a path.
// This is the only way a baseline advances. Fails with ErrNotTracked
// when the path was never tracked.
func (s *Store) UpdateBaseline(path, fingerprint string, content []byte, savedAt int64) (*Entry, error) {
	sub("store").Debug("UpdateBaseline", "path", path, "fingerprint", fingerprint)
	res, err := s.db.Exec(`
		UPDATE tracked SET fingerprint = ?, content = ?, saved_at = ?
		WHERE path = ?
	`, fingerprint, content, savedAt, path)
	if err != nil {
		return nil, fmt.Errorf("update baseline %s: %w", path, mapBusy(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update baseline %s: %w", path, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNotTracked)
	}
	return s.Get(path)
}

// List returns a point-in-time snapshot of all entries ordered by path.
// Read-only; never mutates any row.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT path, fingerprint, content, tracked_at, saved_at
		FROM tracked ORDER BY path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", mapBusy(err))
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Fingerprint, &e.Content, &e.TrackedAt, &e.SavedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if logEnabled(slog.LevelDebug) {
		sub("store").Debug("List", "count", len(entries))
	}
	return entries, rows.Err()
}

// Count returns the number of tracked entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tracked").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", mapBusy(err))
	}
	return n, nil
}

// isUniqueViolation reports whether err is a primary-key conflict.
// The driver exposes this only through the message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapBusy converts driver lock-timeout errors into ErrContention so
// callers see a stable sentinel instead of driver text.
func mapBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy") {
		return fmt.Errorf("%w: %v", ErrContention, err)
	}
	return err
}

func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
