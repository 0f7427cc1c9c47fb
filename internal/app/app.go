// Package app wires the surfshell components together: settings, store,
// browser shell, extensions, gesture pipeline, zen mode, tray and control server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/surfshell/internal/browser"
	"github.com/ayusman/surfshell/internal/config"
	"github.com/ayusman/surfshell/internal/download"
	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/extensions"
	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/logging"
	"github.com/ayusman/surfshell/internal/reader"
	"github.com/ayusman/surfshell/internal/sched"
	"github.com/ayusman/surfshell/internal/server"
	"github.com/ayusman/surfshell/internal/store"
	"github.com/ayusman/surfshell/internal/trail"
	"github.com/ayusman/surfshell/internal/tray"
	"github.com/ayusman/surfshell/internal/zen"
)

// Engine timeouts.
const (
	FetchTimeout = 30 * time.Second
	FetchRetries = 1
)

// Config holds configuration options for the application.
type Config struct {
	Settings  *config.Settings
	Logger    zerolog.Logger
	StaticDir string
	// Engine replaces the HTTP engine built from the settings.
	Engine browser.Engine
	// Scheduler drives gesture fades and zen timers; nil uses real timers.
	Scheduler sched.Scheduler
	// Tray shows the system tray menu while running.
	Tray bool
}

// App owns every long-lived component.
type App struct {
	config   Config
	log      zerolog.Logger
	ctx      context.Context
	settings *config.Settings

	store      *store.Store
	httpEngine *browser.HTTPEngine
	shell      *browser.Shell
	extOpts    extensions.Options
	extensions *extension.Manager
	recognizer *gesture.Recognizer
	trail      *trail.Recorder
	zen        *zen.Controller
	hub        *server.Hub
	server     *server.Server
	tray       *tray.Tray
}

// New builds the application from its settings. Nothing is loaded or
// served until Start and Run.
func New(config Config) (*App, error) {
	if config.Settings == nil {
		return nil, errors.New("settings are required")
	}
	s := config.Settings
	log := config.Logger

	button, err := gesture.ParseButton(s.GestureButton())
	if err != nil {
		return nil, err
	}

	st, err := store.New(s.StorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &App{
		config:   config,
		log:      log,
		ctx:      logging.WithContext(context.Background(), log),
		settings: s,
		store:    st,
		trail:    &trail.Recorder{},
		hub:      server.NewHub(log),
	}

	engine := config.Engine
	if engine == nil {
		a.httpEngine = browser.NewHTTPEngine(browser.EngineOptions{
			UserAgent:  s.UserAgent(),
			DoNotTrack: s.DoNotTrack(),
			Proxy:      s.Proxy(),
			Timeout:    FetchTimeout,
			Retries:    FetchRetries,
		})
		engine = a.httpEngine
	}

	opts := []browser.Option{
		browser.WithHomePage(s.HomePage()),
		browser.WithSearchEngine(s.SearchEngine()),
		browser.WithHistory(st.History()),
		browser.WithDownloader(download.NewManager(s.DownloadPath(), st.Downloads())),
	}
	if s.BlockAds() {
		opts = append(opts, browser.WithBlocker(browser.NewBlocker(browser.DefaultAdDomains)))
	}
	a.shell = browser.New(engine, opts...)

	a.extOpts = extensions.Options{Reader: reader.Options{
		Theme:    reader.Theme(s.Theme()),
		FontSize: s.FontSize(),
	}}
	reg := extension.NewRegistry()
	extensions.Register(reg, a.extOpts)
	a.extensions = extension.NewManager(s.ExtensionsDir(), a.shell,
		extension.WithRegistry(reg),
		extension.WithStateStore(st.ExtensionStates()),
	)

	a.recognizer = gesture.NewRecognizer(
		gesture.WithThreshold(s.GestureThreshold()),
		gesture.WithFadeDelay(s.GestureFadeDelay()),
		gesture.WithButton(button),
		gesture.WithScheduler(config.Scheduler),
	)

	a.zen = zen.NewController(zen.Timings{
		Animation: s.ZenAnimationDuration(),
		AutoHide:  s.ZenAutoHideDelay(),
		LeaveHide: s.ZenLeaveHideDelay(),
	}, config.Scheduler)

	if config.Tray {
		a.tray = tray.New()
	}

	a.server = server.New(server.Config{
		StaticDir:  config.StaticDir,
		Store:      st,
		Extensions: a.extensions,
		Shell:      a.shell,
		Zen:        a.zen,
		Recognizer: a.recognizer,
		Trail:      a.trail,
		Events:     a.hub,
	})

	a.wire()
	return a, nil
}

// Start loads the extensions and opens the first tab at the home page.
// A home page that fails to load is logged, not fatal.
func (a *App) Start(ctx context.Context) error {
	ctx = logging.WithContext(ctx, a.log)

	if err := a.LoadExtensions(ctx); err != nil {
		return err
	}
	if a.tray != nil {
		a.tray.SetActions(a.shell.ExtensionActions())
	}

	if _, err := a.shell.NewTab(ctx, a.shell.HomePage()); err != nil {
		a.log.Warn().Err(err).Str("url", a.shell.HomePage()).Msg("failed to load home page")
	}
	return nil
}

// LoadExtensions installs missing built-in extensions and loads the
// extensions directory.
func (a *App) LoadExtensions(ctx context.Context) error {
	installed, err := extensions.Install(a.extensions.Dir(), a.extOpts)
	if err != nil {
		return fmt.Errorf("failed to install built-in extensions: %w", err)
	}
	if len(installed) > 0 {
		a.log.Info().Strs("extensions", installed).Msg("installed built-in extensions")
	}

	if err := a.extensions.LoadExtensions(ctx); err != nil {
		return err
	}
	a.log.Info().
		Int("loaded", a.extensions.Len()).
		Int("failed", len(a.extensions.Failures())).
		Msg("extensions ready")
	return nil
}

// Run serves the control API, and the tray when enabled, until ctx is
// cancelled or the tray quits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.settings.OnChange(func(*config.Settings) {
		a.log.Info().Str("path", a.settings.Path()).Msg("settings changed on disk")
		a.hub.Broadcast("settings", nil)
	})
	a.settings.Watch()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := a.settings.ServerAddr()
		a.log.Info().Str("addr", addr).Msg("control server listening")
		return a.server.Run(ctx, addr)
	})

	if a.tray != nil {
		a.tray.OnQuit(cancel)
		g.Go(func() error {
			<-ctx.Done()
			a.tray.Quit()
			return nil
		})
		a.tray.Run()
		cancel()
	}

	return g.Wait()
}

// Close applies the privacy settings and releases the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.settings.ClearOnExit() {
		if err := a.store.History().Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear history: %w", err))
		}
		if a.httpEngine != nil {
			a.httpEngine.ClearCookies()
		}
		a.log.Info().Msg("cleared browsing data on exit")
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Store returns the store.
func (a *App) Store() *store.Store { return a.store }

// Shell returns the browser shell.
func (a *App) Shell() *browser.Shell { return a.shell }

// Extensions returns the extension manager.
func (a *App) Extensions() *extension.Manager { return a.extensions }

// Recognizer returns the gesture recognizer.
func (a *App) Recognizer() *gesture.Recognizer { return a.recognizer }

// Zen returns the zen mode controller.
func (a *App) Zen() *zen.Controller { return a.zen }

// Server returns the control server.
func (a *App) Server() *server.Server { return a.server }
