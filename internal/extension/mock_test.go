package extension

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockHost is a testify mock of Host.
type mockHost struct {
	mock.Mock
}

func (h *mockHost) AddExtensionAction(a *Action) {
	h.Called(a)
}

func (h *mockHost) CurrentPage() Page {
	args := h.Called()
	p, _ := args.Get(0).(Page)
	return p
}

func (h *mockHost) ShowStatus(msg string) {
	h.Called(msg)
}

// newMockHost accepts any action registration.
func newMockHost(t *testing.T) *mockHost {
	t.Helper()
	h := new(mockHost)
	h.On("AddExtensionAction", mock.AnythingOfType("*extension.Action")).Return().Maybe()
	return h
}

// fakePage records what extensions do to it.
type fakePage struct {
	mu      sync.Mutex
	url     string
	title   string
	html    string
	scripts []string
}

func (p *fakePage) URL() string   { return p.url }
func (p *fakePage) Title() string { return p.title }
func (p *fakePage) HTML() string  { return p.html }

func (p *fakePage) RunJavaScript(script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, script)
	return nil
}

func (p *fakePage) SetHTML(html, baseURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
}

func (p *fakePage) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

// fakeExtension counts lifecycle calls.
type fakeExtension struct {
	Base
	labels   []string
	initErr  error
	panicky  bool
	enabled  int
	disabled int

	actionsFn func() []*Action
}

func (f *fakeExtension) Actions() []*Action {
	if f.actionsFn != nil {
		return f.actionsFn()
	}
	return f.Base.Actions()
}

func (f *fakeExtension) Init(ctx context.Context) error {
	if f.panicky {
		panic("boom")
	}
	if f.initErr != nil {
		return f.initErr
	}
	for _, label := range f.labels {
		f.CreateAction(label, nil, "")
	}
	return nil
}

func (f *fakeExtension) Enable(ctx context.Context) error {
	f.enabled++
	return nil
}

func (f *fakeExtension) Disable(ctx context.Context) error {
	f.disabled++
	return nil
}

// memStates is an in-memory StateStore.
type memStates struct {
	mu    sync.Mutex
	state map[string]bool
}

func newMemStates() *memStates {
	return &memStates{state: make(map[string]bool)}
}

func (s *memStates) ExtensionEnabled(ctx context.Context, id string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enabled, ok := s.state[id]
	return enabled, ok, nil
}

func (s *memStates) SetExtensionEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[id] = enabled
	return nil
}

// writeExtension creates dir/id with a manifest and optional entry files.
func writeExtension(t *testing.T, dir, id string, manifest map[string]any, files map[string]string) string {
	t.Helper()
	extDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(extDir, 0755))

	if manifest != nil {
		data, err := json.Marshal(manifest)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(extDir, ManifestFile), data, 0644))
	}
	for name, content := range files {
		mode := os.FileMode(0644)
		if filepath.Ext(name) == ".sh" {
			mode = 0755
		}
		require.NoError(t, os.WriteFile(filepath.Join(extDir, name), []byte(content), mode))
	}
	return extDir
}
