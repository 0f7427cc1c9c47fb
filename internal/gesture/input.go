package gesture

import "fmt"

// Button identifies a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// ParseButton maps "left", "middle" or "right" to a Button.
func ParseButton(name string) (Button, error) {
	switch name {
	case "left":
		return ButtonLeft, nil
	case "middle":
		return ButtonMiddle, nil
	case "right":
		return ButtonRight, nil
	default:
		return ButtonNone, fmt.Errorf("unknown gesture button %q", name)
	}
}

// EventKind is the kind of a pointer event.
type EventKind int

const (
	Press EventKind = iota
	Move
	Release
)

// Event is a raw pointer event delivered by the UI toolkit.
type Event struct {
	Kind   EventKind
	Button Button
	Point  Point
}

// HandleEvent feeds a pointer event into the recognizer.
// Presses and releases of the gesture button start and end a session, moves
// extend it. Returns true if the event was consumed and should not reach the page.
func (r *Recognizer) HandleEvent(ev Event) bool {
	switch ev.Kind {
	case Press:
		if ev.Button != r.button {
			return false
		}
		r.Start(ev.Point)
		return true

	case Move:
		if !r.Tracking() {
			return false
		}
		r.Update(ev.Point)
		return true

	case Release:
		if ev.Button != r.button || !r.Tracking() {
			return false
		}
		r.End(ev.Point)
		return true
	}

	return false
}
