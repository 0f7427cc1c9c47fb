package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// DefaultProcessTimeout bounds a single run of a process extension.
const DefaultProcessTimeout = 5 * time.Second

// Process protocol events.
const (
	EventInit    = "init"
	EventEnable  = "enable"
	EventDisable = "disable"
	EventAction  = "action"
)

// Request is written as JSON to a process extension's stdin.
type Request struct {
	Event  string       `json:"event"`
	Action string       `json:"action,omitempty"`
	Page   *PageRequest `json:"page,omitempty"`
}

// PageRequest is the snapshot of the current page sent with an action.
type PageRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// ActionSpec declares an action in an init response.
type ActionSpec struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Shortcut string `json:"shortcut,omitempty"`
}

// Response is read as JSON from a process extension's stdout.
type Response struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Actions []ActionSpec `json:"actions,omitempty"`
	Status  string       `json:"status,omitempty"`
	Script  string       `json:"script,omitempty"`
	HTML    string       `json:"html,omitempty"`
}

// Executor runs an executable once per request with a timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor. A non-positive timeout uses DefaultProcessTimeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultProcessTimeout
	}
	return &Executor{timeout: timeout}
}

// Execute sends req on stdin and parses stdout as a Response.
func (e *Executor) Execute(ctx context.Context, executable string, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable)
	cmd.Dir = filepath.Dir(executable)
	cmd.WaitDelay = time.Second

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("extension execution timeout after %s", e.timeout)
	}
	if err != nil {
		if msg := stderr.String(); msg != "" {
			return nil, fmt.Errorf("extension execution failed: %w, stderr: %s", err, msg)
		}
		return nil, fmt.Errorf("extension execution failed: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse extension response: %w, stdout: %s", err, stdout.String())
	}
	return &resp, nil
}

// ProcessLoader adapts executables to the Extension interface.
type ProcessLoader struct {
	Executor *Executor
}

// NewProcessLoader creates a ProcessLoader with the default timeout.
func NewProcessLoader() *ProcessLoader {
	return &ProcessLoader{Executor: NewExecutor(DefaultProcessTimeout)}
}

// Load binds the executable. The process is first run by Init.
func (l *ProcessLoader) Load(ctx context.Context, host Host, entry string, m *Manifest) (Extension, error) {
	if _, err := exec.LookPath(entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntryLoad, err)
	}
	exe := l.Executor
	if exe == nil {
		exe = NewExecutor(DefaultProcessTimeout)
	}
	return &processExtension{exec: exe, path: entry, host: host}, nil
}

type processExtension struct {
	exec *Executor
	path string
	host Host

	mu      sync.Mutex
	actions []*Action
}

func (p *processExtension) Init(ctx context.Context) error {
	resp, err := p.call(ctx, &Request{Event: EventInit})
	if err != nil {
		return err
	}

	actions := make([]*Action, 0, len(resp.Actions))
	for _, spec := range resp.Actions {
		if spec.ID == "" {
			return fmt.Errorf("%w: action %q has no id", ErrCapabilityMissing, spec.Label)
		}
		actions = append(actions, NewAction(spec.Label, func(ctx context.Context) error {
			return p.trigger(ctx, spec.ID)
		}, spec.Shortcut))
	}

	p.mu.Lock()
	p.actions = actions
	p.mu.Unlock()
	return nil
}

func (p *processExtension) Enable(ctx context.Context) error {
	_, err := p.call(ctx, &Request{Event: EventEnable})
	return err
}

func (p *processExtension) Disable(ctx context.Context) error {
	_, err := p.call(ctx, &Request{Event: EventDisable})
	return err
}

func (p *processExtension) Actions() []*Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Action(nil), p.actions...)
}

func (p *processExtension) trigger(ctx context.Context, actionID string) error {
	req := &Request{Event: EventAction, Action: actionID}
	page := p.host.CurrentPage()
	if page != nil {
		req.Page = &PageRequest{URL: page.URL(), Title: page.Title(), HTML: page.HTML()}
	}

	resp, err := p.call(ctx, req)
	if err != nil {
		return err
	}

	if resp.Status != "" {
		p.host.ShowStatus(resp.Status)
	}
	if page == nil {
		return nil
	}
	if resp.HTML != "" {
		page.SetHTML(resp.HTML, page.URL())
	}
	if resp.Script != "" {
		return page.RunJavaScript(resp.Script)
	}
	return nil
}

func (p *processExtension) call(ctx context.Context, req *Request) (*Response, error) {
	resp, err := p.exec.Execute(ctx, p.path, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.Error == "" {
			return nil, fmt.Errorf("%s failed", req.Event)
		}
		return nil, fmt.Errorf("%s failed: %s", req.Event, resp.Error)
	}
	return resp, nil
}
