// Package extensiontest provides an in-memory Host and Page for testing
// extensions.
package extensiontest

import (
	"sync"

	"github.com/ayusman/surfshell/internal/extension"
)

// Page is a fake page that records scripts and HTML replacements.
type Page struct {
	mu      sync.Mutex
	url     string
	title   string
	html    string
	baseURL string
	scripts []string
	failJS  error
}

// NewPage creates a page with the given content.
func NewPage(url, title, html string) *Page {
	return &Page{url: url, title: title, html: html}
}

func (p *Page) URL() string   { return p.url }
func (p *Page) Title() string { return p.title }

func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html
}

func (p *Page) RunJavaScript(script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failJS != nil {
		return p.failJS
	}
	p.scripts = append(p.scripts, script)
	return nil
}

func (p *Page) SetHTML(html, baseURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
	p.baseURL = baseURL
}

// FailScripts makes RunJavaScript return err.
func (p *Page) FailScripts(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failJS = err
}

// Scripts returns the scripts run so far.
func (p *Page) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

// BaseURL returns the base URL of the last SetHTML call.
func (p *Page) BaseURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baseURL
}

// Host is a fake extension host.
type Host struct {
	mu      sync.Mutex
	page    *Page
	actions []*extension.Action
	status  []string
}

// NewHost creates a host showing page. A nil page means no tab is open.
func NewHost(page *Page) *Host {
	return &Host{page: page}
}

func (h *Host) AddExtensionAction(a *extension.Action) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = append(h.actions, a)
}

func (h *Host) CurrentPage() extension.Page {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.page == nil {
		return nil
	}
	return h.page
}

func (h *Host) ShowStatus(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = append(h.status, msg)
}

// SetPage replaces the current page.
func (h *Host) SetPage(p *Page) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.page = p
}

// Actions returns the registered actions.
func (h *Host) Actions() []*extension.Action {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*extension.Action(nil), h.actions...)
}

// Status returns every status message shown.
func (h *Host) Status() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.status...)
}

// LastStatus returns the most recent status message.
func (h *Host) LastStatus() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.status) == 0 {
		return ""
	}
	return h.status[len(h.status)-1]
}
