package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Extension states - the enabled flag last set by the user
		`CREATE TABLE IF NOT EXISTS extension_states (
			id TEXT PRIMARY KEY,
			enabled INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Gesture events - one row per completed mouse gesture
		`CREATE TABLE IF NOT EXISTS gesture_events (
			id TEXT PRIMARY KEY,
			direction TEXT NOT NULL CHECK(direction IN ('none', 'left', 'right', 'up', 'down')),
			command TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// History - visited pages
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			visited_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Bookmarks - one per URL
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Downloads - files saved to the download directory
		`CREATE TABLE IF NOT EXISTS downloads (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			path TEXT NOT NULL,
			mime TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_history_visited_at ON history(visited_at)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_events_created_at ON gesture_events(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
