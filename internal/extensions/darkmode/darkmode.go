// Package darkmode is a built-in extension that forces a dark page style.
package darkmode

import (
	"context"
	"sync"

	"github.com/ayusman/surfshell/internal/extension"
)

// Name is the built-in name of the extension.
const Name = "dark-mode"

// StyleID is the id of the injected style element.
const StyleID = "dark-mode-style"

// ToggleScript adds the dark style when absent and removes it otherwise.
const ToggleScript = `(function () {
  var style = document.getElementById('` + StyleID + `');
  if (style) {
    style.parentNode.removeChild(style);
    return;
  }
  style = document.createElement('style');
  style.id = '` + StyleID + `';
  style.innerHTML = 'body { background-color: #1a1a1a !important; color: #ffffff !important; }';
  document.head.appendChild(style);
})();`

// RemoveScript removes the dark style if present.
const RemoveScript = `(function () {
  var style = document.getElementById('` + StyleID + `');
  if (style) { style.parentNode.removeChild(style); }
})();`

// Extension toggles the dark style on the current page.
type Extension struct {
	extension.Base

	mu     sync.Mutex
	active bool
	action *extension.Action
}

// New is the extension factory.
func New(host extension.Host) (extension.Extension, error) {
	return &Extension{Base: extension.NewBase(host)}, nil
}

func (e *Extension) Init(ctx context.Context) error {
	e.action = e.CreateAction("Dark mode", e.toggle, "Ctrl+Shift+D")
	return nil
}

// Active reports whether the dark style is applied.
func (e *Extension) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Extension) toggle(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page := e.Host.CurrentPage()
	if page == nil {
		return nil
	}
	if err := page.RunJavaScript(ToggleScript); err != nil {
		return err
	}
	e.active = !e.active
	return nil
}

// Disable strips the style from the current page.
func (e *Extension) Disable(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return nil
	}
	e.active = false
	if page := e.Host.CurrentPage(); page != nil {
		return page.RunJavaScript(RemoveScript)
	}
	return nil
}
