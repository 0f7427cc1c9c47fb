package extension

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Loader turns an entry into a live extension bound to host.
// Errors wrap ErrEntryNotFound, ErrEntryLoad or ErrCapabilityMissing.
type Loader interface {
	Load(ctx context.Context, host Host, entry string, m *Manifest) (Extension, error)
}

// Registry maps built-in names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering a name twice replaces the factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load implements Loader for "builtin:<name>" entries.
func (r *Registry) Load(ctx context.Context, host Host, entry string, m *Manifest) (Extension, error) {
	name := strings.TrimPrefix(entry, BuiltinPrefix)
	f, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: no built-in extension %q", ErrEntryNotFound, name)
	}

	ext, err := f(host)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntryLoad, err)
	}
	if ext == nil {
		return nil, fmt.Errorf("%w: factory %q returned no extension", ErrCapabilityMissing, name)
	}
	return ext, nil
}

// dispatchLoader picks a loader by the shape of the entry.
type dispatchLoader struct {
	builtin *Registry
	script  Loader
	process Loader
}

func (d *dispatchLoader) Load(ctx context.Context, host Host, entry string, m *Manifest) (Extension, error) {
	if strings.HasPrefix(entry, BuiltinPrefix) {
		return d.builtin.Load(ctx, host, entry, m)
	}

	info, err := os.Stat(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrEntryLoad, entry)
	}

	if strings.EqualFold(filepath.Ext(entry), ".js") {
		return d.script.Load(ctx, host, entry, m)
	}
	if info.Mode().Perm()&0111 != 0 {
		return d.process.Load(ctx, host, entry, m)
	}
	return nil, fmt.Errorf("%w: %s is neither a script nor an executable", ErrEntryLoad, entry)
}
