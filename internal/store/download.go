package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Download is a file saved from the web.
type Download struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	MIME      string    `json:"mime"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// DownloadRepository stores completed downloads.
type DownloadRepository struct {
	db *sql.DB
}

// Downloads returns the download repository for this store.
func (s *Store) Downloads() *DownloadRepository {
	return &DownloadRepository{db: s.db}
}

// Create records a download.
func (r *DownloadRepository) Create(ctx context.Context, d *Download) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO downloads (id, url, path, mime, size, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.URL, d.Path, d.MIME, d.Size, d.CreatedAt,
	)
	return err
}

// List returns downloads, newest first.
func (r *DownloadRepository) List(ctx context.Context) ([]*Download, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, path, mime, size, created_at FROM downloads ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []*Download
	for rows.Next() {
		d := &Download{}
		if err := rows.Scan(&d.ID, &d.URL, &d.Path, &d.MIME, &d.Size, &d.CreatedAt); err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}
