// Package gesture provides mouse gesture recognition for browser navigation.
// A press-move-release drag is classified by its net displacement into one of
// four directions, and each direction maps to a navigation command.
package gesture

import (
	"math"
	"sync"
	"time"

	"github.com/ayusman/surfshell/internal/sched"
)

// Recognition defaults.
const (
	// DefaultThreshold is the minimum displacement, in pixels, along the dominant axis.
	DefaultThreshold = 50.0
	// DefaultFadeDelay is how long the trail stays visible after a gesture ends.
	DefaultFadeDelay = 500 * time.Millisecond
)

// Point is a position in widget coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Direction is the classification of a completed gesture.
type Direction string

const (
	// None means the gesture was too short to classify.
	None  Direction = "none"
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Command is a navigation command triggered by a gesture.
type Command string

const (
	CommandBack     Command = "back"
	CommandForward  Command = "forward"
	CommandReload   Command = "reload"
	CommandCloseTab Command = "close-tab"
)

// Command returns the command mapped to d, or "" for None.
func (d Direction) Command() Command {
	switch d {
	case Left:
		return CommandBack
	case Right:
		return CommandForward
	case Up:
		return CommandReload
	case Down:
		return CommandCloseTab
	default:
		return ""
	}
}

// Classify returns the direction of the displacement (dx, dy).
// Screen coordinates are assumed: positive dy points down.
func Classify(dx, dy, threshold float64) Direction {
	ax, ay := math.Abs(dx), math.Abs(dy)
	if math.Max(ax, ay) < threshold {
		return None
	}
	if ax > ay {
		if dx > 0 {
			return Right
		}
		return Left
	}
	if dy > 0 {
		return Down
	}
	return Up
}

// Handler receives recognized commands.
type Handler func(cmd Command)

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithThreshold sets the minimum displacement for a gesture.
func WithThreshold(threshold float64) Option {
	return func(r *Recognizer) {
		if threshold > 0 {
			r.threshold = threshold
		}
	}
}

// WithFadeDelay sets how long the trail stays visible after a gesture ends.
func WithFadeDelay(d time.Duration) Option {
	return func(r *Recognizer) {
		if d >= 0 {
			r.fadeDelay = d
		}
	}
}

// WithScheduler sets the scheduler used for the trail fade.
func WithScheduler(s sched.Scheduler) Option {
	return func(r *Recognizer) {
		if s != nil {
			r.scheduler = s
		}
	}
}

// WithButton sets the pointer button that starts a gesture.
func WithButton(b Button) Option {
	return func(r *Recognizer) {
		r.button = b
	}
}

// Recognizer tracks one gesture session at a time.
//
// Start opens a session, Update appends points while it is open, and End
// classifies the path and dispatches at most one command.
type Recognizer struct {
	threshold float64
	fadeDelay time.Duration
	button    Button
	scheduler sched.Scheduler

	mu       sync.Mutex
	tracking bool
	session  uint64
	path     []Point
	fade     sched.Token
	handler  Handler
	onTrail  func(path []Point)
	onResult func(dir Direction, path []Point)
}

// NewRecognizer creates a Recognizer with the default threshold and fade delay.
func NewRecognizer(opts ...Option) *Recognizer {
	r := &Recognizer{
		threshold: DefaultThreshold,
		fadeDelay: DefaultFadeDelay,
		button:    ButtonRight,
		scheduler: sched.NewTimer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetHandler sets the command handler.
func (r *Recognizer) SetHandler(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
}

// OnTrail sets a callback invoked whenever the visible trail changes,
// including when it is cleared by the fade.
func (r *Recognizer) OnTrail(fn func(path []Point)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTrail = fn
}

// OnResult sets a callback invoked once per completed gesture with its
// classification, before the command is dispatched.
func (r *Recognizer) OnResult(fn func(dir Direction, path []Point)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onResult = fn
}

// Threshold returns the configured displacement threshold.
func (r *Recognizer) Threshold() float64 {
	return r.threshold
}

// Tracking reports whether a session is open.
func (r *Recognizer) Tracking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracking
}

// Path returns a copy of the current trail.
func (r *Recognizer) Path() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clonePath(r.path)
}

// Start opens a session at p. An open session is abandoned: its path is
// discarded and tracking begins fresh from p.
func (r *Recognizer) Start(p Point) {
	r.mu.Lock()
	if r.fade != nil {
		r.fade.Cancel()
		r.fade = nil
	}
	r.session++
	r.tracking = true
	r.path = []Point{p}
	notify, path := r.onTrail, clonePath(r.path)
	r.mu.Unlock()

	if notify != nil {
		notify(path)
	}
}

// Update appends p to the open session's path.
// Without an open session it does nothing.
func (r *Recognizer) Update(p Point) {
	r.mu.Lock()
	if !r.tracking {
		r.mu.Unlock()
		return
	}

	r.path = append(r.path, p)
	notify, path := r.onTrail, clonePath(r.path)
	r.mu.Unlock()

	if notify != nil {
		notify(path)
	}
}

// End closes the session at p, classifies the gesture and dispatches the
// mapped command. Without an open session it returns None and does nothing.
func (r *Recognizer) End(p Point) Direction {
	r.mu.Lock()
	if !r.tracking {
		r.mu.Unlock()
		return None
	}

	r.tracking = false
	r.path = append(r.path, p)

	first := r.path[0]
	dir := Classify(p.X-first.X, p.Y-first.Y, r.threshold)

	session := r.session
	r.fade = r.scheduler.AfterFunc(r.fadeDelay, func() { r.clearTrail(session) })

	handler, onResult, path := r.handler, r.onResult, clonePath(r.path)
	r.mu.Unlock()

	if onResult != nil {
		onResult(dir, path)
	}
	if cmd := dir.Command(); cmd != "" && handler != nil {
		handler(cmd)
	}

	return dir
}

// clearTrail empties the path unless a newer session has started since.
func (r *Recognizer) clearTrail(session uint64) {
	r.mu.Lock()
	if r.session != session || r.tracking {
		r.mu.Unlock()
		return
	}
	r.fade = nil
	r.path = nil
	notify := r.onTrail
	r.mu.Unlock()

	if notify != nil {
		notify(nil)
	}
}

func clonePath(path []Point) []Point {
	if path == nil {
		return nil
	}
	out := make([]Point, len(path))
	copy(out, path)
	return out
}
