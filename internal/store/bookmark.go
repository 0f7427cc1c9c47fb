package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bookmark is a saved page.
type Bookmark struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// BookmarkRepository stores bookmarks.
type BookmarkRepository struct {
	db *sql.DB
}

// Bookmarks returns the bookmark repository for this store.
func (s *Store) Bookmarks() *BookmarkRepository {
	return &BookmarkRepository{db: s.db}
}

// Add saves a bookmark. A URL can be bookmarked once; a second Add returns
// ErrDuplicate.
func (r *BookmarkRepository) Add(ctx context.Context, b *Bookmark) error {
	if _, err := r.GetByURL(ctx, b.URL); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Title == "" {
		b.Title = b.URL
	}
	b.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, url, title, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.URL, b.Title, b.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

// GetByURL retrieves the bookmark for url.
func (r *BookmarkRepository) GetByURL(ctx context.Context, url string) (*Bookmark, error) {
	b := &Bookmark{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, url, title, created_at FROM bookmarks WHERE url = ?`, url,
	).Scan(&b.ID, &b.URL, &b.Title, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List returns bookmarks in the order they were added.
func (r *BookmarkRepository) List(ctx context.Context) ([]*Bookmark, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, title, created_at FROM bookmarks ORDER BY created_at, rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []*Bookmark
	for rows.Next() {
		b := &Bookmark{}
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// Import inserts bookmarks keeping their ids and creation times. Bookmarks
// for an already saved URL are skipped. Returns the number inserted.
func (r *BookmarkRepository) Import(ctx context.Context, bookmarks []*Bookmark) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, b := range bookmarks {
		if b == nil || b.URL == "" {
			continue
		}
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		if b.Title == "" {
			b.Title = b.URL
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now()
		}
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO bookmarks (id, url, title, created_at) VALUES (?, ?, ?, ?)`,
			b.ID, b.URL, b.Title, b.CreatedAt,
		)
		if err != nil {
			return 0, err
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			n++
		}
	}
	return n, tx.Commit()
}

// Delete removes a bookmark by its ID.
func (r *BookmarkRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
