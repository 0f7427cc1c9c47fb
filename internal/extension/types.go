// Package extension discovers, loads and manages browser extensions.
//
// Each extension lives in its own directory with a manifest.json. The entry
// named by the manifest is either a built-in factory ("builtin:<name>"), a
// JavaScript file run in an embedded runtime, or an executable that speaks
// JSON over stdin/stdout. All three are adapted to the Extension interface.
package extension

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// DefaultMain is the entry used when a manifest omits "main".
const DefaultMain = "main.js"

// Manifest describes an extension's identity and entry point.
type Manifest struct {
	// ID is the directory name. It is not part of the file.
	ID          string `json:"-"`
	Name        string `json:"name" jsonschema:"minLength=1,description=Display name"`
	Version     string `json:"version" jsonschema:"minLength=1,description=Version string"`
	Description string `json:"description,omitempty" jsonschema:"description=Short description"`
	Main        string `json:"main,omitempty" jsonschema:"description=Entry relative to the extension directory or builtin:<name>,default=main.js"`
}

// Extension is the capability set every loaded extension exposes.
type Extension interface {
	Init(ctx context.Context) error
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	Actions() []*Action
}

// Factory constructs an extension bound to a host.
type Factory func(host Host) (Extension, error)

// Host is the part of the browser that extensions talk to.
type Host interface {
	// AddExtensionAction places an action in the host's extension menu.
	AddExtensionAction(action *Action)
	// CurrentPage returns the active page, or nil when no tab is open.
	CurrentPage() Page
	// ShowStatus displays a transient status message.
	ShowStatus(msg string)
}

// Page is the active page of the browser.
type Page interface {
	URL() string
	Title() string
	HTML() string
	RunJavaScript(script string) error
	SetHTML(html, baseURL string)
}

// ErrActionDisabled is returned when triggering a disabled action.
var ErrActionDisabled = errors.New("action is disabled")

// Action is a menu entry contributed by an extension.
type Action struct {
	ID        string
	Label     string
	Shortcut  string
	Extension string

	handler func(ctx context.Context) error

	mu      sync.RWMutex
	enabled bool
}

// NewAction creates a disabled action. The manager enables it once the
// owning extension has loaded.
func NewAction(label string, handler func(ctx context.Context) error, shortcut string) *Action {
	return &Action{
		ID:       uuid.New().String(),
		Label:    label,
		Shortcut: shortcut,
		handler:  handler,
	}
}

// Enabled reports whether the action can be triggered.
func (a *Action) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the action.
func (a *Action) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// MarshalJSON includes the enabled flag.
func (a *Action) MarshalJSON() ([]byte, error) {
	type action struct {
		ID        string `json:"id"`
		Label     string `json:"label"`
		Shortcut  string `json:"shortcut,omitempty"`
		Extension string `json:"extension"`
		Enabled   bool   `json:"enabled"`
	}
	return json.Marshal(action{
		ID:        a.ID,
		Label:     a.Label,
		Shortcut:  a.Shortcut,
		Extension: a.Extension,
		Enabled:   a.Enabled(),
	})
}

// Trigger runs the action's handler.
func (a *Action) Trigger(ctx context.Context) error {
	if !a.Enabled() {
		return ErrActionDisabled
	}
	if a.handler == nil {
		return nil
	}
	return a.handler(ctx)
}

// Base provides no-op lifecycle methods and action bookkeeping.
// Built-in extensions embed it and implement Init.
type Base struct {
	Host    Host
	actions []*Action
}

// NewBase creates a Base bound to host.
func NewBase(host Host) Base {
	return Base{Host: host}
}

// CreateAction creates an action and records it for Actions.
func (b *Base) CreateAction(label string, handler func(ctx context.Context) error, shortcut string) *Action {
	a := NewAction(label, handler, shortcut)
	b.actions = append(b.actions, a)
	return a
}

// Enable does nothing.
func (b *Base) Enable(ctx context.Context) error { return nil }

// Disable does nothing.
func (b *Base) Disable(ctx context.Context) error { return nil }

// Actions returns the actions created so far.
func (b *Base) Actions() []*Action { return b.actions }

// Record binds a manifest to a live instance and its actions.
type Record struct {
	Manifest Manifest
	Dir      string
	Entry    string
	Instance Extension
	Enabled  bool
	Actions  []*Action
}

// Info is the listing view of a loaded extension.
type Info struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Actions     []*Action `json:"actions"`
}
