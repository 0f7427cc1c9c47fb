// Package backup exports bookmarks, history and settings to JSON files and
// keeps timestamped zip archives of every export.
package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/surfshell/internal/store"
)

// Export file names inside the backup directory and every archive.
const (
	BookmarksFile = "bookmarks.json"
	HistoryFile   = "history.json"
	SettingsFile  = "settings.json"
	HashesFile    = "file_hashes.json"
)

// DefaultKeep is the number of archives kept after an export.
const DefaultKeep = 5

const (
	archivePrefix = "backup_"
	archiveSuffix = ".zip"
	archiveLayout = "20060102_150405"

	maxEntrySize = 64 << 20
)

var (
	// ErrNoBackups is returned by Restore when no archive exists.
	ErrNoBackups = errors.New("no backups found")
	// ErrNotFound is returned by Restore when no archive matches the requested date.
	ErrNotFound = errors.New("backup not found")
	// ErrIntegrity is returned by Verify when an exported file no longer matches its hash.
	ErrIntegrity = errors.New("integrity check failed")
)

// BookmarkStore is the bookmark storage a Manager reads and restores.
type BookmarkStore interface {
	List(ctx context.Context) ([]*store.Bookmark, error)
	Import(ctx context.Context, bookmarks []*store.Bookmark) (int, error)
}

// HistoryStore is the history storage a Manager reads and restores.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]*store.HistoryEntry, error)
	Import(ctx context.Context, entries []*store.HistoryEntry) (int, error)
}

// SettingsStore is the settings source a Manager reads and restores.
type SettingsStore interface {
	All() map[string]any
	Merge(values map[string]any) error
}

// Config configures a Manager.
type Config struct {
	Dir       string
	Bookmarks BookmarkStore
	History   HistoryStore
	Settings  SettingsStore
	Keep      int
	Logger    zerolog.Logger
}

// Result describes a finished export.
type Result struct {
	Archive   string
	Bookmarks int
	History   int
	Hashes    map[string]string
}

// RestoreResult describes a finished restore.
type RestoreResult struct {
	Archive   string
	Bookmarks int
	History   int
	Settings  bool
}

// Manager exports and restores user data.
type Manager struct {
	dir       string
	bookmarks BookmarkStore
	history   HistoryStore
	settings  SettingsStore
	keep      int
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a Manager writing to cfg.Dir.
func New(cfg Config) *Manager {
	keep := cfg.Keep
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Manager{
		dir:       cfg.Dir,
		bookmarks: cfg.Bookmarks,
		history:   cfg.History,
		settings:  cfg.Settings,
		keep:      keep,
		log:       cfg.Logger.With().Str("component", "backup").Logger(),
		now:       time.Now,
	}
}

// Dir returns the export directory.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) archiveDir() string {
	return filepath.Join(m.dir, "backups")
}

// Export writes the JSON files and their hashes, archives them and prunes
// archives beyond the keep limit.
func (m *Manager) Export(ctx context.Context) (*Result, error) {
	bookmarks, err := m.bookmarks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	history, err := m.history.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if bookmarks == nil {
		bookmarks = []*store.Bookmark{}
	}
	if history == nil {
		history = []*store.HistoryEntry{}
	}

	if err := os.MkdirAll(m.archiveDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	contents := map[string]any{
		BookmarksFile: bookmarks,
		HistoryFile:   history,
		SettingsFile:  m.settings.All(),
	}
	hashes := make(map[string]string, len(contents))
	for name, v := range contents {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(m.dir, name), data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		hashes[name] = digest(data)
	}

	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(m.dir, HashesFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", HashesFile, err)
	}

	archive := filepath.Join(m.archiveDir(), archivePrefix+m.now().Format(archiveLayout)+archiveSuffix)
	if err := m.writeArchive(archive); err != nil {
		return nil, err
	}
	m.prune()

	m.log.Info().
		Str("archive", archive).
		Int("bookmarks", len(bookmarks)).
		Int("history", len(history)).
		Msg("Data exported")

	return &Result{
		Archive:   archive,
		Bookmarks: len(bookmarks),
		History:   len(history),
		Hashes:    hashes,
	}, nil
}

func (m *Manager) writeArchive(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "backup-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	for _, name := range []string{BookmarksFile, HistoryFile, SettingsFile, HashesFile} {
		if err := addFile(zw, filepath.Join(m.dir, name), name); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to archive %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func (m *Manager) prune() {
	names, err := m.Backups()
	if err != nil || len(names) <= m.keep {
		return
	}
	for _, name := range names[:len(names)-m.keep] {
		if err := os.Remove(filepath.Join(m.archiveDir(), name)); err != nil {
			m.log.Warn().Err(err).Str("archive", name).Msg("Failed to remove old backup")
		}
	}
}

// Backups returns archive names, oldest first.
func (m *Manager) Backups() ([]string, error) {
	entries, err := os.ReadDir(m.archiveDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Verify checks the exported files against the saved hashes.
func (m *Manager) Verify() error {
	data, err := os.ReadFile(filepath.Join(m.dir, HashesFile))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", HashesFile, err)
	}
	var saved map[string]string
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("failed to decode %s: %w", HashesFile, err)
	}

	var bad []string
	for name, sum := range saved {
		content, err := os.ReadFile(filepath.Join(m.dir, filepath.Base(name)))
		if err != nil || digest(content) != sum {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("%w: %s", ErrIntegrity, strings.Join(bad, ", "))
	}
	return nil
}

// Restore imports the archive whose name contains date, or the newest one
// when date is empty. Existing bookmarks and history are kept.
func (m *Manager) Restore(ctx context.Context, date string) (*RestoreResult, error) {
	names, err := m.Backups()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoBackups
	}

	name := names[len(names)-1]
	if date != "" {
		name = ""
		for i := len(names) - 1; i >= 0; i-- {
			if strings.Contains(names[i], date) {
				name = names[i]
				break
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
	}

	path := filepath.Join(m.archiveDir(), name)
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer zr.Close()

	res := &RestoreResult{Archive: path}
	for _, f := range zr.File {
		switch f.Name {
		case BookmarksFile:
			var bookmarks []*store.Bookmark
			if err := readEntry(f, &bookmarks); err != nil {
				return nil, err
			}
			if res.Bookmarks, err = m.bookmarks.Import(ctx, bookmarks); err != nil {
				return nil, fmt.Errorf("failed to restore bookmarks: %w", err)
			}
		case HistoryFile:
			var history []*store.HistoryEntry
			if err := readEntry(f, &history); err != nil {
				return nil, err
			}
			if res.History, err = m.history.Import(ctx, history); err != nil {
				return nil, fmt.Errorf("failed to restore history: %w", err)
			}
		case SettingsFile:
			var values map[string]any
			if err := readEntry(f, &values); err != nil {
				return nil, err
			}
			if err := m.settings.Merge(values); err != nil {
				return nil, fmt.Errorf("failed to restore settings: %w", err)
			}
			res.Settings = true
		}
	}

	m.log.Info().
		Str("archive", path).
		Int("bookmarks", res.Bookmarks).
		Int("history", res.History).
		Msg("Data restored")
	return res, nil
}

func readEntry(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntrySize)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}
	return nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
