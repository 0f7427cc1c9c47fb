package app

import (
	"github.com/ayusman/surfshell/internal/browser"
	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/store"
	"github.com/ayusman/surfshell/internal/zen"
)

// zenEvent is the payload of "zen" events.
type zenEvent struct {
	Enabled bool   `json:"enabled"`
	State   string `json:"state"`
	Target  string `json:"target"`
}

// wire connects the components:
//
//	pointer events -> recognizer -> shell commands
//	                             -> trail recorder, gesture log, tray, events
//	shell, extensions, zen       -> events (and tray)
func (a *App) wire() {
	a.recognizer.SetHandler(a.shell.GestureHandler(a.ctx))
	a.trail.Attach(a.recognizer)
	a.recognizer.OnResult(a.gestureDone)

	a.shell.OnEvent(func(ev browser.Event) {
		a.hub.Broadcast(string(ev.Type), ev)
	})

	a.extensions.OnChange(func(info extension.Info) {
		a.hub.Broadcast("extension", info)
		if a.tray != nil {
			a.tray.RefreshActions(info.Actions)
		}
	})

	a.zen.OnTransition(func(tr zen.Transition) {
		enabled := a.zen.Enabled()
		a.hub.Broadcast("zen", zenEvent{Enabled: enabled, State: tr.State.String(), Target: tr.Target.String()})
		if a.tray != nil {
			a.tray.SetZen(enabled)
		}
	})

	if a.tray != nil {
		a.tray.OnZenToggle(a.zen.SetEnabled)
		a.tray.OnAction(func(id string) {
			if err := a.extensions.Trigger(a.ctx, id); err != nil {
				a.shell.ShowStatus(err.Error())
			}
		})
		a.tray.OnOpen(func() {
			a.log.Info().Str("url", "http://"+a.settings.ServerAddr()+"/").Msg("control panel")
		})
	}
}

// gestureDone runs once per completed gesture, before its command is dispatched.
func (a *App) gestureDone(dir gesture.Direction, path []gesture.Point) {
	a.trail.Result(dir, path)

	ev := &store.GestureEvent{
		Direction: string(dir),
		Command:   string(dir.Command()),
		Points:    len(path),
	}
	if err := a.store.Gestures().Create(a.ctx, ev); err != nil {
		a.log.Warn().Err(err).Str("direction", ev.Direction).Msg("failed to log gesture")
	}

	a.log.Debug().Str("direction", ev.Direction).Str("command", ev.Command).Int("points", ev.Points).Msg("gesture recognized")
	a.hub.Broadcast("gesture", ev)
	if a.tray != nil {
		a.tray.SetLastGesture(ev.Direction)
	}
}
