// Package tray provides the system tray menu of surfshell: the extension
// actions, the zen mode switch and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/surfshell/internal/extension"
)

// Tray represents the system tray application.
type Tray struct {
	onZen    func(enabled bool)
	onAction func(actionID string)
	onOpen   func()
	onQuit   func()
	zen      bool
	actions  []*extension.Action
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuZen         *systray.MenuItem
	menuLastGesture *systray.MenuItem
	actionItems     map[string]*systray.MenuItem
}

// New creates a new Tray with zen mode off.
func New() *Tray {
	return &Tray{actionItems: make(map[string]*systray.MenuItem)}
}

// SetActions sets the extension actions listed in the menu. Call before Run.
func (t *Tray) SetActions(actions []*extension.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actions = append([]*extension.Action(nil), actions...)
}

// OnZenToggle sets the callback invoked when zen mode is switched from the menu.
func (t *Tray) OnZenToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onZen = fn
}

// OnAction sets the callback invoked when an extension action is picked.
func (t *Tray) OnAction(fn func(actionID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAction = fn
}

// OnOpen sets the callback invoked by "Open control panel".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("surfshell")
	systray.SetTooltip("surfshell browser shell")

	t.mu.Lock()
	t.menuZen = systray.AddMenuItemCheckbox(zenTitle(t.zen), "Hide the toolbars", t.zen)
	systray.AddSeparator()

	menuExtensions := systray.AddMenuItem("Extensions", "Extension actions")
	if len(t.actions) == 0 {
		menuExtensions.Disable()
	}
	for _, a := range t.actions {
		item := menuExtensions.AddSubMenuItem(actionTitle(a), a.Extension)
		if !a.Enabled() {
			item.Disable()
		}
		t.actionItems[a.ID] = item
		go t.watchAction(a.ID, item)
	}
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(gestureTitle(""), "Last recognized gesture")
	t.menuLastGesture.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open control panel...", "Open the control panel in a browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit surfshell")
	menuZen := t.menuZen
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-menuZen.ClickedCh:
				t.handleZen()
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) watchAction(id string, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.mu.RLock()
		callback := t.onAction
		t.mu.RUnlock()

		if callback != nil {
			callback(id)
		}
	}
}

func (t *Tray) handleZen() {
	t.mu.Lock()
	t.zen = !t.zen
	enabled := t.zen
	t.updateZenLocked()
	callback := t.onZen
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetZen reflects a zen mode change made elsewhere.
func (t *Tray) SetZen(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zen = enabled
	t.updateZenLocked()
}

func (t *Tray) updateZenLocked() {
	if t.menuZen == nil {
		return
	}
	t.menuZen.SetTitle(zenTitle(t.zen))
	if t.zen {
		t.menuZen.Check()
	} else {
		t.menuZen.Uncheck()
	}
}

// RefreshActions syncs the enabled state of the listed actions.
func (t *Tray) RefreshActions(actions []*extension.Action) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, a := range actions {
		item, ok := t.actionItems[a.ID]
		if !ok {
			continue
		}
		if a.Enabled() {
			item.Enable()
		} else {
			item.Disable()
		}
	}
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(gestureTitle(name))
	}
}

// ZenEnabled returns the zen state shown in the menu.
func (t *Tray) ZenEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.zen
}

func zenTitle(enabled bool) string {
	if enabled {
		return "Zen mode: on"
	}
	return "Zen mode: off"
}

func gestureTitle(name string) string {
	if name == "" {
		return "Last gesture: none"
	}
	return "Last gesture: " + name
}

func actionTitle(a *extension.Action) string {
	if a.Shortcut == "" {
		return a.Label
	}
	return a.Label + "\t" + a.Shortcut
}
