// Package readermode is a built-in extension that replaces the current page
// with a distraction-free reading view.
package readermode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/reader"
)

// Name is the built-in name of the extension.
const Name = "reader"

// FontStep is the change applied by the larger and smaller text actions.
const FontStep = 2

var themeCycle = []reader.Theme{reader.ThemeLight, reader.ThemeSepia, reader.ThemeDark}

// Extension renders the current page in reader mode.
type Extension struct {
	extension.Base

	mu      sync.Mutex
	opts    reader.Options
	article *reader.Article
}

// New returns a factory that starts with opts.
func New(opts reader.Options) extension.Factory {
	return func(host extension.Host) (extension.Extension, error) {
		opts.FontSize = reader.ClampFontSize(opts.FontSize)
		return &Extension{Base: extension.NewBase(host), opts: opts}, nil
	}
}

func (e *Extension) Init(ctx context.Context) error {
	e.CreateAction("Reader mode", e.open, "Ctrl+Shift+R")
	e.CreateAction("Reader: larger text", func(ctx context.Context) error {
		return e.adjust(func(o *reader.Options) { o.FontSize = reader.ClampFontSize(o.FontSize + FontStep) })
	}, "")
	e.CreateAction("Reader: smaller text", func(ctx context.Context) error {
		return e.adjust(func(o *reader.Options) { o.FontSize = reader.ClampFontSize(o.FontSize - FontStep) })
	}, "")
	e.CreateAction("Reader: next theme", func(ctx context.Context) error {
		return e.adjust(func(o *reader.Options) { o.Theme = nextTheme(o.Theme) })
	}, "")
	return nil
}

// Options returns the current rendering options.
func (e *Extension) Options() reader.Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

func (e *Extension) open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page := e.Host.CurrentPage()
	if page == nil {
		return nil
	}

	article, err := reader.Extract(page.HTML(), page.URL())
	if errors.Is(err, reader.ErrNoContent) {
		e.Host.ShowStatus("Nothing to read on this page")
		return nil
	}
	if err != nil {
		return err
	}
	e.article = article

	if err := e.renderLocked(page); err != nil {
		return err
	}
	e.Host.ShowStatus(fmt.Sprintf("Reader mode: %d words", article.WordCount))
	return nil
}

// adjust changes the options and re-renders the open article, if any.
func (e *Extension) adjust(change func(*reader.Options)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	change(&e.opts)
	if e.article == nil {
		return nil
	}
	page := e.Host.CurrentPage()
	if page == nil {
		return nil
	}
	return e.renderLocked(page)
}

func (e *Extension) renderLocked(page extension.Page) error {
	out, err := reader.Render(e.article, e.opts)
	if err != nil {
		return err
	}
	page.SetHTML(out, e.article.URL)
	return nil
}

// Disable forgets the open article.
func (e *Extension) Disable(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.article = nil
	return nil
}

func nextTheme(t reader.Theme) reader.Theme {
	for i, theme := range themeCycle {
		if theme == t {
			return themeCycle[(i+1)%len(themeCycle)]
		}
	}
	return themeCycle[0]
}
