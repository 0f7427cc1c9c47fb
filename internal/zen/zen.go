// Package zen implements the toolbar choreography of zen mode.
//
// While zen mode is on, the toolbars slide out of view and come back when the
// pointer touches the hot zone at the top of the window. Once shown they hide
// again after a delay, sooner if the pointer leaves the window.
package zen

import (
	"sync"
	"time"

	"github.com/ayusman/surfshell/internal/sched"
)

// Default timings.
const (
	DefaultAnimationDuration = 300 * time.Millisecond
	DefaultAutoHideDelay     = 3 * time.Second
	DefaultLeaveHideDelay    = time.Second
)

// State is the toolbar visibility state.
type State int

const (
	Visible State = iota
	Hidden
	Animating
)

func (s State) String() string {
	switch s {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Animating:
		return "animating"
	default:
		return "unknown"
	}
}

// Timings holds the zen mode delays.
type Timings struct {
	Animation time.Duration
	AutoHide  time.Duration
	LeaveHide time.Duration
}

// DefaultTimings returns the stock timings.
func DefaultTimings() Timings {
	return Timings{
		Animation: DefaultAnimationDuration,
		AutoHide:  DefaultAutoHideDelay,
		LeaveHide: DefaultLeaveHideDelay,
	}
}

// Transition describes a state change reported to observers.
// Target is the state an animation is heading to, or equal to State once it settles.
type Transition struct {
	State  State
	Target State
}

// Controller owns the toolbar state. Toolbars start visible with zen mode off.
type Controller struct {
	timings   Timings
	scheduler sched.Scheduler

	mu       sync.Mutex
	enabled  bool
	state    State
	target   State
	anim     sched.Token
	animSeq  uint64
	hide     sched.Token
	hideSeq  uint64
	observer func(Transition)
}

// NewController creates a Controller. A nil scheduler uses real timers.
func NewController(timings Timings, s sched.Scheduler) *Controller {
	if s == nil {
		s = sched.NewTimer()
	}
	return &Controller{
		timings:   timings,
		scheduler: s,
		state:     Visible,
		target:    Visible,
	}
}

// OnTransition registers the observer that drives the actual toolbar animation.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enabled reports whether zen mode is on.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled turns zen mode on or off. Turning it on hides the toolbars,
// turning it off shows them and stops any pending hide.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	if c.enabled == enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = enabled
	c.cancelHideLocked()

	var tr *Transition
	if enabled {
		tr = c.animateLocked(Hidden)
	} else {
		tr = c.animateLocked(Visible)
	}
	c.mu.Unlock()

	c.notify(tr)
}

// Toggle flips zen mode and returns the new setting.
func (c *Controller) Toggle() bool {
	enabled := !c.Enabled()
	c.SetEnabled(enabled)
	return enabled
}

// HotZoneEnter is called when the pointer reaches the top edge of the window.
func (c *Controller) HotZoneEnter() {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return
	}
	tr := c.animateLocked(Visible)
	c.mu.Unlock()

	c.notify(tr)
}

// PointerEnter is called when the pointer enters the window.
func (c *Controller) PointerEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.cancelHideLocked()
	}
}

// PointerLeave is called when the pointer leaves the window.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled && c.target == Visible {
		c.scheduleHideLocked(c.timings.LeaveHide)
	}
}

// animateLocked starts an animation toward target, replacing any running one.
// Returns nil when the toolbars are already headed there.
func (c *Controller) animateLocked(target State) *Transition {
	if c.target == target {
		return nil
	}
	if c.anim != nil {
		c.anim.Cancel()
	}

	c.animSeq++
	seq := c.animSeq
	c.state = Animating
	c.target = target
	c.anim = c.scheduler.AfterFunc(c.timings.Animation, func() { c.finish(seq) })

	return &Transition{State: Animating, Target: target}
}

func (c *Controller) finish(seq uint64) {
	c.mu.Lock()
	if seq != c.animSeq || c.state != Animating {
		c.mu.Unlock()
		return
	}
	c.anim = nil
	c.state = c.target
	// a leave-hide requested during the animation stays in place
	if c.state == Visible && c.enabled && c.hide == nil {
		c.scheduleHideLocked(c.timings.AutoHide)
	}
	tr := &Transition{State: c.state, Target: c.state}
	c.mu.Unlock()

	c.notify(tr)
}

func (c *Controller) scheduleHideLocked(d time.Duration) {
	c.cancelHideLocked()
	seq := c.hideSeq
	c.hide = c.scheduler.AfterFunc(d, func() { c.autoHide(seq) })
}

func (c *Controller) cancelHideLocked() {
	c.hideSeq++
	if c.hide != nil {
		c.hide.Cancel()
		c.hide = nil
	}
}

func (c *Controller) autoHide(seq uint64) {
	c.mu.Lock()
	if seq != c.hideSeq || !c.enabled || c.target != Visible {
		c.mu.Unlock()
		return
	}
	c.hide = nil
	tr := c.animateLocked(Hidden)
	c.mu.Unlock()

	c.notify(tr)
}

func (c *Controller) notify(tr *Transition) {
	if tr == nil {
		return
	}
	c.mu.Lock()
	fn := c.observer
	c.mu.Unlock()
	if fn != nil {
		fn(*tr)
	}
}
