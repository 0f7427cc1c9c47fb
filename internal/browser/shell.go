// Package browser models the browser shell: tabs, navigation, the extension
// host surface and the commands bound to mouse gestures.
package browser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ayusman/surfshell/internal/download"
	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/logging"
	"github.com/ayusman/surfshell/internal/store"
)

var (
	// ErrEmptyURL is returned when navigation input is blank.
	ErrEmptyURL = errors.New("empty url")
	// ErrBlocked is returned when the ad filter rejects a URL.
	ErrBlocked = errors.New("blocked by ad filter")
	// ErrTabNotFound is returned for an unknown tab id.
	ErrTabNotFound = errors.New("tab not found")
)

// EventType names a shell event.
type EventType string

const (
	EventNavigate  EventType = "navigate"
	EventTabOpen   EventType = "tab-open"
	EventTabClose  EventType = "tab-close"
	EventTabSwitch EventType = "tab-switch"
	EventStatus    EventType = "status"
	EventDownload  EventType = "download"
	EventAction    EventType = "action-added"
	EventZoom      EventType = "zoom"
)

// Event describes a change in the shell.
type Event struct {
	Type    EventType `json:"type"`
	Tab     string    `json:"tab,omitempty"`
	URL     string    `json:"url,omitempty"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message,omitempty"`
	Zoom    float64   `json:"zoom,omitempty"`
}

// HistoryRecorder stores visited pages.
type HistoryRecorder interface {
	Add(ctx context.Context, url, title string) (*store.HistoryEntry, error)
}

// Downloader saves responses that are not pages.
type Downloader interface {
	Save(ctx context.Context, src, disposition string, body []byte) (*store.Download, error)
}

// Option configures a Shell.
type Option func(*Shell)

// WithHomePage sets the page opened by Home and by closing the last tab.
func WithHomePage(url string) Option {
	return func(s *Shell) { s.home = url }
}

// WithSearchEngine sets the search template used for non-URL input.
func WithSearchEngine(template string) Option {
	return func(s *Shell) { s.search = template }
}

// WithHistory records successful page loads.
func WithHistory(h HistoryRecorder) Option {
	return func(s *Shell) { s.history = h }
}

// WithDownloader saves non-page responses.
func WithDownloader(d Downloader) Option {
	return func(s *Shell) { s.downloads = d }
}

// WithBlocker filters navigation through b.
func WithBlocker(b *Blocker) Option {
	return func(s *Shell) { s.blocker = b }
}

// Shell owns the open tabs and implements extension.Host.
type Shell struct {
	engine    Engine
	home      string
	search    string
	history   HistoryRecorder
	downloads Downloader
	blocker   *Blocker

	mu        sync.RWMutex
	tabs      []*Tab
	current   int
	actions   []*extension.Action
	status    string
	observers []func(Event)
}

// New creates a Shell with no open tabs.
func New(engine Engine, opts ...Option) *Shell {
	s := &Shell{
		engine:  engine,
		home:    "about:blank",
		search:  DefaultSearchEngine,
		current: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnEvent registers fn to receive shell events.
func (s *Shell) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Shell) emit(ev Event) {
	s.mu.RLock()
	observers := append([]func(Event){}, s.observers...)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// HomePage returns the configured home page.
func (s *Shell) HomePage() string {
	return s.home
}

// NewTab opens a tab, makes it current and loads input unless it is empty.
func (s *Shell) NewTab(ctx context.Context, input string) (*Tab, error) {
	t := newTab()

	s.mu.Lock()
	s.tabs = append(s.tabs, t)
	s.current = len(s.tabs) - 1
	s.mu.Unlock()

	s.emit(Event{Type: EventTabOpen, Tab: t.ID()})

	if input == "" {
		return t, nil
	}
	return t, s.load(ctx, t, input, true)
}

// Tabs lists the open tabs in order.
func (s *Shell) Tabs() []TabInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]TabInfo, len(s.tabs))
	for i, t := range s.tabs {
		infos[i] = t.info(i == s.current)
	}
	return infos
}

// CurrentTab returns the active tab, or nil.
func (s *Shell) CurrentTab() *Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current < 0 || s.current >= len(s.tabs) {
		return nil
	}
	return s.tabs[s.current]
}

// Tab looks up a tab by id.
func (s *Shell) Tab(id string) (*Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return nil, false
	}
	return s.tabs[i], true
}

// SwitchTab makes the tab with id current.
func (s *Shell) SwitchTab(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTabNotFound
	}
	s.current = i
	t := s.tabs[i]
	s.mu.Unlock()

	s.emit(Event{Type: EventTabSwitch, Tab: id, URL: t.URL(), Title: t.Title()})
	return nil
}

// CloseTab closes the tab with id. The last tab is never closed; it is sent
// to the home page instead.
func (s *Shell) CloseTab(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTabNotFound
	}
	if len(s.tabs) == 1 {
		t := s.tabs[0]
		s.mu.Unlock()
		return s.load(ctx, t, s.home, true)
	}

	s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
	if s.current > i || s.current >= len(s.tabs) {
		s.current--
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventTabClose, Tab: id})
	return nil
}

// CloseCurrentTab closes the active tab.
func (s *Shell) CloseCurrentTab(ctx context.Context) error {
	t := s.CurrentTab()
	if t == nil {
		return nil
	}
	return s.CloseTab(ctx, t.ID())
}

// Navigate loads input in the current tab, opening one if none is open.
func (s *Shell) Navigate(ctx context.Context, input string) error {
	t := s.CurrentTab()
	if t == nil {
		_, err := s.NewTab(ctx, input)
		return err
	}
	return s.load(ctx, t, input, true)
}

// Back shows the previous page of the current tab.
func (s *Shell) Back(ctx context.Context) error {
	t := s.CurrentTab()
	if t == nil {
		return nil
	}
	if e, ok := t.goBack(); ok {
		s.emit(Event{Type: EventNavigate, Tab: t.ID(), URL: e.URL, Title: e.Title})
	}
	return nil
}

// Forward shows the next page of the current tab.
func (s *Shell) Forward(ctx context.Context) error {
	t := s.CurrentTab()
	if t == nil {
		return nil
	}
	if e, ok := t.goForward(); ok {
		s.emit(Event{Type: EventNavigate, Tab: t.ID(), URL: e.URL, Title: e.Title})
	}
	return nil
}

// Reload fetches the current page again.
func (s *Shell) Reload(ctx context.Context) error {
	t := s.CurrentTab()
	if t == nil || t.URL() == "" {
		return nil
	}
	return s.load(ctx, t, t.URL(), false)
}

// Home loads the home page in the current tab.
func (s *Shell) Home(ctx context.Context) error {
	return s.Navigate(ctx, s.home)
}

// ZoomIn enlarges the current tab and returns the new factor.
func (s *Shell) ZoomIn() float64 { return s.zoom(func(z float64) float64 { return z + ZoomStep }) }

// ZoomOut shrinks the current tab and returns the new factor.
func (s *Shell) ZoomOut() float64 { return s.zoom(func(z float64) float64 { return z - ZoomStep }) }

// ZoomReset restores the current tab to 100%.
func (s *Shell) ZoomReset() float64 { return s.zoom(func(float64) float64 { return 1 }) }

func (s *Shell) zoom(next func(float64) float64) float64 {
	t := s.CurrentTab()
	if t == nil {
		return 1
	}
	z := t.SetZoom(next(t.Zoom()))
	s.emit(Event{Type: EventZoom, Tab: t.ID(), Zoom: z})
	return z
}

// HandleGesture runs the browser command bound to a gesture.
func (s *Shell) HandleGesture(ctx context.Context, cmd gesture.Command) error {
	switch cmd {
	case gesture.CommandBack:
		return s.Back(ctx)
	case gesture.CommandForward:
		return s.Forward(ctx)
	case gesture.CommandReload:
		return s.Reload(ctx)
	case gesture.CommandCloseTab:
		return s.CloseCurrentTab(ctx)
	default:
		return fmt.Errorf("unknown gesture command %q", cmd)
	}
}

// GestureHandler adapts HandleGesture to a recognizer handler. Errors are
// logged and shown in the status bar.
func (s *Shell) GestureHandler(ctx context.Context) gesture.Handler {
	return func(cmd gesture.Command) {
		if err := s.HandleGesture(ctx, cmd); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("command", string(cmd)).Msg("gesture command failed")
			s.ShowStatus(fmt.Sprintf("%s failed: %v", cmd, err))
		}
	}
}

// AddExtensionAction adds an action to the extension menu.
func (s *Shell) AddExtensionAction(a *extension.Action) {
	s.mu.Lock()
	s.actions = append(s.actions, a)
	s.mu.Unlock()

	s.emit(Event{Type: EventAction, Message: a.Label})
}

// ExtensionActions returns the extension menu in insertion order.
func (s *Shell) ExtensionActions() []*extension.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*extension.Action(nil), s.actions...)
}

// CurrentPage returns the active tab as an extension page.
func (s *Shell) CurrentPage() extension.Page {
	if t := s.CurrentTab(); t != nil {
		return t
	}
	return nil
}

// ShowStatus sets the status bar message.
func (s *Shell) ShowStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()

	s.emit(Event{Type: EventStatus, Message: msg})
}

// Status returns the status bar message.
func (s *Shell) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Shell) indexLocked(id string) int {
	for i, t := range s.tabs {
		if t.ID() == id {
			return i
		}
	}
	return -1
}

// load fetches input into t. push adds a session history entry; otherwise
// the current entry is replaced.
func (s *Shell) load(ctx context.Context, t *Tab, input string, push bool) error {
	target := NormalizeURL(input, s.search)
	if target == "" {
		return ErrEmptyURL
	}
	if s.blocker.Blocked(target) {
		s.ShowStatus("Blocked " + target)
		return fmt.Errorf("%w: %s", ErrBlocked, target)
	}

	log := logging.FromContext(ctx)

	var doc *Document
	if target == "about:blank" {
		doc = &Document{URL: target, Status: 200, ContentType: "text/html"}
	} else {
		var err error
		doc, err = s.engine.Fetch(ctx, target)
		if err != nil {
			s.ShowStatus("Failed to load " + target)
			return err
		}
	}

	if s.downloads != nil && !download.Displayable(doc.ContentType, doc.Body) {
		d, err := s.downloads.Save(ctx, doc.URL, doc.ContentDisposition, doc.Body)
		if err != nil {
			s.ShowStatus("Download failed")
			return err
		}
		s.emit(Event{Type: EventDownload, Tab: t.ID(), URL: doc.URL, Message: d.Path})
		s.ShowStatus(fmt.Sprintf("Downloaded %s", filepath.Base(d.Path)))
		return nil
	}

	html := string(doc.Body)
	e := &Entry{URL: doc.URL, Title: titleOf(html), HTML: html}
	if push {
		t.push(e)
	} else {
		t.replace(e)
	}

	if s.history != nil && IsWeb(doc.URL) && doc.Status < 400 {
		if _, err := s.history.Add(ctx, e.URL, e.Title); err != nil {
			log.Warn().Err(err).Str("url", e.URL).Msg("failed to record history")
		}
	}

	log.Debug().Str("url", e.URL).Int("status", doc.Status).Msg("page loaded")
	s.emit(Event{Type: EventNavigate, Tab: t.ID(), URL: e.URL, Title: e.Title})
	s.ShowStatus("Ready")
	return nil
}
