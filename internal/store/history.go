package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxHistory is the number of history entries kept.
const MaxHistory = 1000

// HistoryEntry is a visited page.
type HistoryEntry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	VisitedAt time.Time `json:"visited_at"`
}

// HistoryRepository stores visited pages.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// History returns the history repository for this store.
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{db: s.db, now: time.Now}
}

// Add records a visit and trims the oldest entries beyond MaxHistory.
func (r *HistoryRepository) Add(ctx context.Context, url, title string) (*HistoryEntry, error) {
	e := &HistoryEntry{
		ID:        uuid.New().String(),
		URL:       url,
		Title:     title,
		VisitedAt: r.now(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (id, url, title, visited_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.URL, e.Title, e.VisitedAt,
	); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE rowid NOT IN (
			SELECT rowid FROM history ORDER BY visited_at DESC, rowid DESC LIMIT ?
		)`,
		MaxHistory,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = MaxHistory
	}
	return r.query(ctx,
		`SELECT id, url, title, visited_at FROM history
		 ORDER BY visited_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

// Search returns entries whose URL or title contains q, ignoring case.
func (r *HistoryRepository) Search(ctx context.Context, q string) ([]*HistoryEntry, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	return r.query(ctx,
		`SELECT id, url, title, visited_at FROM history
		 WHERE lower(url) LIKE ? ESCAPE '\' OR lower(title) LIKE ? ESCAPE '\'
		 ORDER BY visited_at DESC, rowid DESC`,
		pattern, pattern,
	)
}

// Today returns the entries visited since local midnight.
func (r *HistoryRepository) Today(ctx context.Context) ([]*HistoryEntry, error) {
	now := r.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	entries, err := r.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	var today []*HistoryEntry
	for _, e := range entries {
		if !e.VisitedAt.Before(midnight) {
			today = append(today, e)
		}
	}
	return today, nil
}

// Import inserts entries keeping their ids and visit times. Entries whose id
// already exists are skipped. Returns the number inserted.
func (r *HistoryRepository) Import(ctx context.Context, entries []*HistoryEntry) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, e := range entries {
		if e == nil || e.URL == "" {
			continue
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO history (id, url, title, visited_at) VALUES (?, ?, ?, ?)`,
			e.ID, e.URL, e.Title, e.VisitedAt,
		)
		if err != nil {
			return 0, err
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			n++
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE rowid NOT IN (
			SELECT rowid FROM history ORDER BY visited_at DESC, rowid DESC LIMIT ?
		)`,
		MaxHistory,
	); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// DeleteURL removes every visit to url.
func (r *HistoryRepository) DeleteURL(ctx context.Context, url string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE url = ?`, url)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Clear removes all history.
func (r *HistoryRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}

func (r *HistoryRepository) query(ctx context.Context, q string, args ...any) ([]*HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		e := &HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &e.VisitedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
