package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// GestureEvent records a completed mouse gesture and the command it fired.
type GestureEvent struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"`
	Command   string    `json:"command,omitempty"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// GestureRepository stores the gesture log.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

// Create inserts a gesture event, assigning its ID and time.
func (r *GestureRepository) Create(ctx context.Context, e *GestureEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gesture_events (id, direction, command, points, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Direction, e.Command, e.Points, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *GestureRepository) Recent(ctx context.Context, limit int) ([]*GestureEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, direction, command, points, created_at
		 FROM gesture_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*GestureEvent
	for rows.Next() {
		e := &GestureEvent{}
		if err := rows.Scan(&e.ID, &e.Direction, &e.Command, &e.Points, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByCommand returns how many times each command was fired.
func (r *GestureRepository) CountByCommand(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT command, COUNT(*) FROM gesture_events WHERE command != '' GROUP BY command`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var cmd string
		var n int
		if err := rows.Scan(&cmd, &n); err != nil {
			return nil, err
		}
		counts[cmd] = n
	}
	return counts, rows.Err()
}
