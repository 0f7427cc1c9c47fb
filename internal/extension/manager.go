package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ayusman/surfshell/internal/logging"
)

// ErrActionNotFound is returned when no loaded extension owns an action id.
var ErrActionNotFound = errors.New("action not found")

// StateStore persists the enabled flag across runs.
type StateStore interface {
	ExtensionEnabled(ctx context.Context, id string) (enabled, found bool, err error)
	SetExtensionEnabled(ctx context.Context, id string, enabled bool) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry sets the registry used for builtin: entries.
func WithRegistry(r *Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithLoader replaces entry dispatch with a single loader.
func WithLoader(l Loader) Option {
	return func(m *Manager) {
		m.loader = l
	}
}

// WithStateStore persists toggles and restores them on load.
func WithStateStore(s StateStore) Option {
	return func(m *Manager) {
		m.states = s
	}
}

// Manager discovers extensions and owns their records.
type Manager struct {
	dir      string
	host     Host
	registry *Registry
	loader   Loader
	states   StateStore

	toggleMu sync.Mutex

	mu        sync.RWMutex
	records   *orderedmap.OrderedMap[string, *Record]
	failures  []*LoadError
	observers []func(Info)
}

// NewManager creates a Manager for the extensions under dir.
func NewManager(dir string, host Host, opts ...Option) *Manager {
	m := &Manager{
		dir:      dir,
		host:     host,
		registry: NewRegistry(),
		records:  orderedmap.New[string, *Record](),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.loader == nil {
		m.loader = &dispatchLoader{
			builtin: m.registry,
			script:  NewScriptLoader(),
			process: NewProcessLoader(),
		}
	}
	return m
}

// Dir returns the extensions directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Registry returns the built-in factory registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// OnChange registers fn to be called after an extension loads or toggles.
func (m *Manager) OnChange(fn func(Info)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// LoadExtensions scans the extensions directory and loads every subdirectory
// in directory order. Failures are recorded per extension and never stop the
// scan. Extensions that are already loaded are skipped.
func (m *Manager) LoadExtensions(ctx context.Context) error {
	ctx = logging.WithComponent(ctx, "extensions")
	log := logging.FromContext(ctx)

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create extensions directory: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read extensions directory: %w", err)
	}

	m.mu.Lock()
	m.failures = nil
	m.mu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		dir := filepath.Join(m.dir, id)

		if _, ok := m.Get(id); ok {
			log.Debug().Str("extension", id).Msg("already loaded, skipping")
			continue
		}

		manifest, err := ReadManifest(dir)
		if err != nil {
			m.fail(logging.WithExtension(ctx, id), &LoadError{ID: id, Dir: dir, Err: err})
			continue
		}

		entryPath, err := manifest.EntryPath(dir)
		if err != nil {
			m.fail(logging.WithExtension(ctx, id), &LoadError{ID: id, Dir: dir, Err: err})
			continue
		}

		// LoadExtension records its own failures.
		_ = m.LoadExtension(ctx, id, entryPath, manifest)
	}

	log.Info().
		Int("loaded", m.Len()).
		Int("failed", len(m.Failures())).
		Str("dir", m.dir).
		Msg("extensions scanned")
	return nil
}

// LoadExtension instantiates the extension at entryPath, runs Init and
// registers its actions with the host. On any failure the registry is left
// untouched and a *LoadError is returned and recorded.
func (m *Manager) LoadExtension(ctx context.Context, id, entryPath string, manifest *Manifest) error {
	ctx = logging.WithExtension(ctx, id)
	log := logging.FromContext(ctx)

	dir := filepath.Join(m.dir, id)
	if manifest == nil {
		return m.fail(ctx, loadError(id, dir, ErrManifestMissing, nil))
	}
	if _, ok := m.Get(id); ok {
		return m.fail(ctx, loadError(id, dir, ErrAlreadyLoaded, nil))
	}

	mf := *manifest
	mf.ID = id

	ext, err := m.instantiate(ctx, entryPath, &mf)
	if err != nil {
		return m.fail(ctx, &LoadError{ID: id, Dir: dir, Err: err})
	}

	if err := guard(func() error { return ext.Init(ctx) }); err != nil {
		if !errors.Is(err, ErrCapabilityMissing) {
			err = fmt.Errorf("%w: init: %w", ErrEntryLoad, err)
		}
		return m.fail(ctx, &LoadError{ID: id, Dir: dir, Err: err})
	}

	actions, err := collectActions(ext)
	if err != nil {
		return m.fail(ctx, &LoadError{ID: id, Dir: dir, Err: err})
	}
	for _, a := range actions {
		a.Extension = id
		m.host.AddExtensionAction(a)
		a.SetEnabled(true)
	}

	rec := &Record{
		Manifest: mf,
		Dir:      dir,
		Entry:    entryPath,
		Instance: ext,
		Enabled:  true,
		Actions:  actions,
	}

	m.mu.Lock()
	m.records.Set(id, rec)
	m.mu.Unlock()

	log.Info().
		Str("name", mf.Name).
		Str("version", mf.Version).
		Int("actions", len(actions)).
		Msg("extension loaded")

	if m.states != nil {
		enabled, found, err := m.states.ExtensionEnabled(ctx, id)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read saved extension state")
		} else if found && !enabled {
			if err := m.setEnabled(ctx, id, func(bool) bool { return false }, false); err != nil {
				log.Warn().Err(err).Msg("failed to restore disabled state")
			}
			return nil
		}
	}

	m.notify(id)
	return nil
}

// Toggle flips the enabled flag of an extension, updates its actions and
// calls Enable or Disable once. Unknown ids are ignored. The flag is flipped
// even if the lifecycle call fails; that error is returned.
func (m *Manager) Toggle(ctx context.Context, id string) error {
	return m.setEnabled(ctx, id, func(cur bool) bool { return !cur }, true)
}

// setEnabled applies next to the current flag and runs the matching lifecycle call.
func (m *Manager) setEnabled(ctx context.Context, id string, next func(bool) bool, persist bool) error {
	m.toggleMu.Lock()
	defer m.toggleMu.Unlock()

	ctx = logging.WithExtension(ctx, id)
	log := logging.FromContext(ctx)

	m.mu.Lock()
	rec, ok := m.records.Get(id)
	if !ok {
		m.mu.Unlock()
		return nil
	}
	enabled := next(rec.Enabled)
	rec.Enabled = enabled
	for _, a := range rec.Actions {
		a.SetEnabled(enabled)
	}
	instance := rec.Instance
	m.mu.Unlock()

	var err error
	if enabled {
		err = guard(func() error { return instance.Enable(ctx) })
	} else {
		err = guard(func() error { return instance.Disable(ctx) })
	}
	if err != nil {
		log.Error().Err(err).Bool("enabled", enabled).Msg("extension lifecycle call failed")
		err = fmt.Errorf("extension %s: %w", id, err)
	}

	if persist && m.states != nil {
		if perr := m.states.SetExtensionEnabled(ctx, id, enabled); perr != nil {
			log.Warn().Err(perr).Msg("failed to save extension state")
		}
	}

	log.Info().Bool("enabled", enabled).Msg("extension toggled")
	m.notify(id)
	return err
}

// Get returns the record for id.
func (m *Manager) Get(id string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records.Get(id)
}

// Len returns the number of loaded extensions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records.Len()
}

// List returns every loaded extension in discovery order.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, m.records.Len())
	for pair := m.records.Oldest(); pair != nil; pair = pair.Next() {
		infos = append(infos, infoOf(pair.Value))
	}
	return infos
}

// Info returns the listing view of one extension.
func (m *Manager) Info(id string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records.Get(id)
	if !ok {
		return Info{}, false
	}
	return infoOf(rec), true
}

// Failures returns the load failures of the last scan plus any later
// LoadExtension failures.
func (m *Manager) Failures() []*LoadError {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*LoadError(nil), m.failures...)
}

// FindAction returns the loaded action with the given id.
func (m *Manager) FindAction(actionID string) (*Action, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for pair := m.records.Oldest(); pair != nil; pair = pair.Next() {
		for _, a := range pair.Value.Actions {
			if a.ID == actionID {
				return a, true
			}
		}
	}
	return nil, false
}

// Trigger runs the action with the given id.
func (m *Manager) Trigger(ctx context.Context, actionID string) error {
	a, ok := m.FindAction(actionID)
	if !ok {
		return ErrActionNotFound
	}
	ctx = logging.WithExtension(ctx, a.Extension)
	if err := guard(func() error { return a.Trigger(ctx) }); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("action", a.Label).Msg("extension action failed")
		return err
	}
	return nil
}

func (m *Manager) instantiate(ctx context.Context, entryPath string, mf *Manifest) (ext Extension, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext, err = nil, fmt.Errorf("%w: panic: %v", ErrEntryLoad, r)
		}
	}()

	ext, err = m.loader.Load(ctx, m.host, entryPath, mf)
	if err != nil {
		if !errors.Is(err, ErrEntryNotFound) && !errors.Is(err, ErrEntryLoad) && !errors.Is(err, ErrCapabilityMissing) {
			err = fmt.Errorf("%w: %w", ErrEntryLoad, err)
		}
		return nil, err
	}
	if ext == nil {
		return nil, fmt.Errorf("%w: loader returned no extension", ErrCapabilityMissing)
	}
	return ext, nil
}

func (m *Manager) fail(ctx context.Context, le *LoadError) error {
	logging.FromContext(ctx).Error().
		Err(le.Err).
		Str("dir", le.Dir).
		Msg("failed to load extension")

	m.mu.Lock()
	m.failures = append(m.failures, le)
	m.mu.Unlock()
	return le
}

func (m *Manager) notify(id string) {
	m.mu.RLock()
	rec, ok := m.records.Get(id)
	var info Info
	if ok {
		info = infoOf(rec)
	}
	observers := append([]func(Info){}, m.observers...)
	m.mu.RUnlock()

	if !ok {
		return
	}
	for _, fn := range observers {
		fn(info)
	}
}

func infoOf(rec *Record) Info {
	return Info{
		ID:          rec.Manifest.ID,
		Name:        rec.Manifest.Name,
		Version:     rec.Manifest.Version,
		Description: rec.Manifest.Description,
		Enabled:     rec.Enabled,
		Actions:     append([]*Action(nil), rec.Actions...),
	}
}

// collectActions reads the actions of ext, rejecting nil entries.
func collectActions(ext Extension) ([]*Action, error) {
	var actions []*Action
	err := guard(func() error {
		actions = ext.Actions()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: actions: %w", ErrEntryLoad, err)
	}
	for i, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("%w: action %d is nil", ErrCapabilityMissing, i)
		}
	}
	return actions, nil
}

// guard converts a panic in extension code into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
