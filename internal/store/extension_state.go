package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ExtensionState is the persisted enabled flag of an extension.
type ExtensionState struct {
	ID        string    `json:"id"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExtensionStateRepository persists extension toggles.
// It satisfies extension.StateStore.
type ExtensionStateRepository struct {
	db *sql.DB
}

// ExtensionStates returns the extension state repository for this store.
func (s *Store) ExtensionStates() *ExtensionStateRepository {
	return &ExtensionStateRepository{db: s.db}
}

// ExtensionEnabled returns the stored flag for id. found is false when the
// extension has never been toggled.
func (r *ExtensionStateRepository) ExtensionEnabled(ctx context.Context, id string) (enabled, found bool, err error) {
	var v int
	err = r.db.QueryRowContext(ctx, `SELECT enabled FROM extension_states WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return v != 0, true, nil
}

// SetExtensionEnabled stores the flag for id.
func (r *ExtensionStateRepository) SetExtensionEnabled(ctx context.Context, id string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extension_states (id, enabled, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		id, v, time.Now(),
	)
	return err
}

// List returns every stored state ordered by id.
func (r *ExtensionStateRepository) List(ctx context.Context) ([]*ExtensionState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, enabled, updated_at FROM extension_states ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*ExtensionState
	for rows.Next() {
		st := &ExtensionState{}
		var enabled int
		if err := rows.Scan(&st.ID, &enabled, &st.UpdatedAt); err != nil {
			return nil, err
		}
		st.Enabled = enabled != 0
		states = append(states, st)
	}
	return states, rows.Err()
}

// Delete forgets the state of id.
func (r *ExtensionStateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM extension_states WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
