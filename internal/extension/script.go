package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"github.com/ayusman/surfshell/internal/logging"
)

// DefaultScriptTimeout bounds a single call into a script extension.
const DefaultScriptTimeout = 5 * time.Second

// ScriptLoader runs JavaScript extensions in an embedded goja runtime.
//
// A script must define a global init function. enable and disable are
// optional. Scripts reach the browser through the global surfshell object:
// createAction(label, fn, shortcut), currentPage() and showStatus(msg).
type ScriptLoader struct {
	Timeout time.Duration
}

// NewScriptLoader creates a ScriptLoader with the default timeout.
func NewScriptLoader() *ScriptLoader {
	return &ScriptLoader{Timeout: DefaultScriptTimeout}
}

// Load compiles and runs the script's top level, then checks for init.
func (l *ScriptLoader) Load(ctx context.Context, host Host, entry string, m *Manifest) (Extension, error) {
	src, err := os.ReadFile(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntryNotFound, err)
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}

	s := &scriptExtension{
		vm:      goja.New(),
		host:    host,
		id:      m.ID,
		timeout: timeout,
		log:     logging.FromContext(ctx).With().Str("extension", m.ID).Logger(),
	}
	s.setupGlobals()

	if err := s.run(ctx, func() error {
		_, err := s.vm.RunScript(entry, string(src))
		return err
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntryLoad, err)
	}

	if _, ok := s.function("init"); !ok {
		return nil, fmt.Errorf("%w: %s does not define init()", ErrCapabilityMissing, entry)
	}

	return s, nil
}

type scriptExtension struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	host    Host
	id      string
	timeout time.Duration
	log     zerolog.Logger
	actions []*Action
}

func (s *scriptExtension) Init(ctx context.Context) error {
	return s.callHook(ctx, "init", true)
}

func (s *scriptExtension) Enable(ctx context.Context) error {
	return s.callHook(ctx, "enable", false)
}

func (s *scriptExtension) Disable(ctx context.Context) error {
	return s.callHook(ctx, "disable", false)
}

func (s *scriptExtension) Actions() []*Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Action(nil), s.actions...)
}

func (s *scriptExtension) callHook(ctx context.Context, name string, required bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn, ok := s.function(name)
	if !ok {
		if required {
			return fmt.Errorf("%w: %s()", ErrCapabilityMissing, name)
		}
		return nil
	}

	return s.run(ctx, func() error {
		_, err := fn(goja.Undefined())
		return err
	})
}

func (s *scriptExtension) function(name string) (goja.Callable, bool) {
	v := s.vm.Get(name)
	if v == nil {
		return nil, false
	}
	return goja.AssertFunction(v)
}

// run executes fn with the VM interrupted on timeout or context cancellation.
// The watcher has exited before the interrupt flag is cleared.
func (s *scriptExtension) run(ctx context.Context, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	go func() {
		defer close(stopped)
		select {
		case <-timer.C:
			s.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			s.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	err := fn()
	close(done)
	<-stopped
	s.vm.ClearInterrupt()

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("script interrupted: %v", interrupted.Value())
	}
	return err
}

func (s *scriptExtension) setupGlobals() {
	s.vm.Set("require", goja.Undefined())
	s.vm.Set("process", goja.Undefined())

	console := s.vm.NewObject()
	console.Set("log", s.consoleFunc(zerolog.InfoLevel))
	console.Set("info", s.consoleFunc(zerolog.InfoLevel))
	console.Set("warn", s.consoleFunc(zerolog.WarnLevel))
	console.Set("error", s.consoleFunc(zerolog.ErrorLevel))
	s.vm.Set("console", console)

	api := s.vm.NewObject()
	api.Set("createAction", s.createAction)
	api.Set("currentPage", s.currentPage)
	api.Set("showStatus", func(call goja.FunctionCall) goja.Value {
		s.host.ShowStatus(call.Argument(0).String())
		return goja.Undefined()
	})
	s.vm.Set("surfshell", api)
}

func (s *scriptExtension) consoleFunc(level zerolog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		s.log.WithLevel(level).Str("source", "console").Msg(strings.Join(parts, " "))
		return goja.Undefined()
	}
}

// createAction is called from script code while s.mu is held by the caller.
func (s *scriptExtension) createAction(call goja.FunctionCall) goja.Value {
	label := call.Argument(0).String()
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(s.vm.NewTypeError("createAction: second argument must be a function"))
	}

	shortcut := ""
	if arg := call.Argument(2); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
		shortcut = arg.String()
	}

	action := NewAction(label, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.run(ctx, func() error {
			_, err := fn(goja.Undefined())
			return err
		})
	}, shortcut)
	s.actions = append(s.actions, action)

	return s.vm.ToValue(action.ID)
}

func (s *scriptExtension) currentPage(goja.FunctionCall) goja.Value {
	page := s.host.CurrentPage()
	if page == nil {
		return goja.Null()
	}

	obj := s.vm.NewObject()
	obj.Set("url", page.URL())
	obj.Set("title", page.Title())
	obj.Set("html", page.HTML())
	obj.Set("runJavaScript", func(call goja.FunctionCall) goja.Value {
		if err := page.RunJavaScript(call.Argument(0).String()); err != nil {
			panic(s.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	obj.Set("setHTML", func(call goja.FunctionCall) goja.Value {
		base := ""
		if arg := call.Argument(1); !goja.IsUndefined(arg) {
			base = arg.String()
		}
		page.SetHTML(call.Argument(0).String(), base)
		return goja.Undefined()
	})
	return obj
}
