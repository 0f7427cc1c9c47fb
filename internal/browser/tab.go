package browser

import (
	"math"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// Zoom limits and step.
const (
	MinZoom  = 0.25
	MaxZoom  = 5.0
	ZoomStep = 0.1
)

// Entry is one page in a tab's session history.
type Entry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	HTML  string `json:"-"`
}

// Tab is a single browsing context with back and forward stacks.
// It implements extension.Page for the page it is showing.
type Tab struct {
	id string

	mu      sync.RWMutex
	back    []*Entry
	current *Entry
	forward []*Entry
	zoom    float64
	scripts []string
}

func newTab() *Tab {
	return &Tab{id: uuid.New().String(), zoom: 1.0}
}

// ID returns the tab's identifier.
func (t *Tab) ID() string { return t.id }

// URL returns the address of the current page.
func (t *Tab) URL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return ""
	}
	return t.current.URL
}

// Title returns the title of the current page.
func (t *Tab) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return ""
	}
	return t.current.Title
}

// HTML returns the markup of the current page.
func (t *Tab) HTML() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return ""
	}
	return t.current.HTML
}

// RunJavaScript queues script for the page. Scripts are dropped when the
// tab navigates away.
func (t *Tab) RunJavaScript(script string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripts = append(t.scripts, script)
	return nil
}

// Scripts returns the scripts injected into the current page.
func (t *Tab) Scripts() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.scripts...)
}

// SetHTML replaces the current page's markup in place.
func (t *Tab) SetHTML(html, baseURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		t.current = &Entry{URL: baseURL}
	}
	t.current.HTML = html
	if title := titleOf(html); title != "" {
		t.current.Title = title
	}
}

// CanGoBack reports whether Back would move.
func (t *Tab) CanGoBack() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.back) > 0
}

// CanGoForward reports whether Forward would move.
func (t *Tab) CanGoForward() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.forward) > 0
}

// Zoom returns the zoom factor.
func (t *Tab) Zoom() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.zoom
}

// SetZoom clamps and applies a zoom factor, returning the applied value.
func (t *Tab) SetZoom(z float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zoom = math.Round(math.Min(MaxZoom, math.Max(MinZoom, z))*100) / 100
	return t.zoom
}

// push makes e the current entry and clears the forward stack.
func (t *Tab) push(e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		t.back = append(t.back, t.current)
	}
	t.current = e
	t.forward = nil
	t.scripts = nil
}

// replace swaps the current entry without touching the stacks.
func (t *Tab) replace(e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = e
	t.scripts = nil
}

func (t *Tab) goBack() (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.back) == 0 {
		return nil, false
	}
	prev := t.back[len(t.back)-1]
	t.back = t.back[:len(t.back)-1]
	if t.current != nil {
		t.forward = append(t.forward, t.current)
	}
	t.current = prev
	t.scripts = nil
	return prev, true
}

func (t *Tab) goForward() (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.forward) == 0 {
		return nil, false
	}
	next := t.forward[len(t.forward)-1]
	t.forward = t.forward[:len(t.forward)-1]
	if t.current != nil {
		t.back = append(t.back, t.current)
	}
	t.current = next
	t.scripts = nil
	return next, true
}

// TabInfo is the listing view of a tab.
type TabInfo struct {
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Zoom       float64 `json:"zoom"`
	CanBack    bool    `json:"can_go_back"`
	CanForward bool    `json:"can_go_forward"`
	Current    bool    `json:"current"`
}

func (t *Tab) info(current bool) TabInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info := TabInfo{
		ID:         t.id,
		Zoom:       t.zoom,
		CanBack:    len(t.back) > 0,
		CanForward: len(t.forward) > 0,
		Current:    current,
	}
	if t.current != nil {
		info.URL = t.current.URL
		info.Title = t.current.Title
	}
	return info
}

func titleOf(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// DisplayTitle shortens a title for a tab label.
func DisplayTitle(title string) string {
	if title == "" {
		return "New Tab"
	}
	r := []rune(title)
	if len(r) > 20 {
		return string(r[:17]) + "..."
	}
	return title
}
