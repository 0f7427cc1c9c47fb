package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/surfshell/internal/browser"
	"github.com/ayusman/surfshell/internal/config"
	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/sched"
	"github.com/ayusman/surfshell/internal/store"
	"github.com/ayusman/surfshell/internal/zen"
)

// pages serves a page per known URL.
type pages map[string]string

func (p pages) Fetch(ctx context.Context, url string) (*browser.Document, error) {
	title, ok := p[url]
	if !ok {
		return nil, errors.New("no route to host")
	}
	return &browser.Document{
		URL:         url,
		Status:      200,
		ContentType: "text/html",
		Body:        []byte(fmt.Sprintf("<html><head><title>%s</title></head><body><article><p>%s body text</p></article></body></html>", title, title)),
	}, nil
}

func newTestApp(t *testing.T, set map[string]any) (*App, *sched.Manual) {
	t.Helper()
	dir := t.TempDir()

	settings := config.New(filepath.Join(dir, "settings.toml"))
	require.NoError(t, settings.Load())
	require.NoError(t, settings.Set("general.home_page", "https://home.example/"))
	require.NoError(t, settings.Set("general.download_path", filepath.Join(dir, "downloads")))
	require.NoError(t, settings.Set("server.addr", "127.0.0.1:0"))
	for k, v := range set {
		require.NoError(t, settings.Set(k, v))
	}

	clock := sched.NewManual()
	a, err := New(Config{
		Settings: settings,
		Logger:   zerolog.Nop(),
		Engine: pages{
			"https://home.example/": "Home",
			"https://next.example/": "Next",
		},
		Scheduler: clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a, clock
}

func drawLeft(r *gesture.Recognizer) {
	r.Start(gesture.Point{X: 300, Y: 100})
	r.Update(gesture.Point{X: 200, Y: 102})
	r.End(gesture.Point{X: 100, Y: 104})
}

func TestNew_RequiresSettings(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestApp_StartLoadsBuiltinsAndHome(t *testing.T) {
	a, _ := newTestApp(t, nil)
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))

	var ids []string
	for _, info := range a.Extensions().List() {
		ids = append(ids, info.ID)
		assert.True(t, info.Enabled)
	}
	assert.Equal(t, []string{"dark-mode", "inspector", "page-analysis", "reader"}, ids)
	assert.Empty(t, a.Extensions().Failures())
	assert.Len(t, a.Shell().ExtensionActions(), 10)

	tabs := a.Shell().Tabs()
	require.Len(t, tabs, 1)
	assert.Equal(t, "https://home.example/", tabs[0].URL)
	assert.Equal(t, "Home", tabs[0].Title)

	history, err := a.Store().History().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Home", history[0].Title)
}

func TestApp_StartSurvivesUnreachableHome(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{"general.home_page": "https://offline.example/"})
	require.NoError(t, a.Start(context.Background()))
	assert.Len(t, a.Shell().Tabs(), 1)
}

func TestApp_GestureGoesBackAndIsLogged(t *testing.T) {
	a, clock := newTestApp(t, nil)
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Shell().Navigate(ctx, "https://next.example/"))

	drawLeft(a.Recognizer())

	assert.Equal(t, "https://home.example/", a.Shell().CurrentTab().URL())

	events, err := a.Store().Gestures().Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "left", events[0].Direction)
	assert.Equal(t, "back", events[0].Command)
	assert.Equal(t, 3, events[0].Points)

	assert.NotEmpty(t, a.trail.Live())
	clock.Advance(time.Second)
	assert.Empty(t, a.trail.Live())
	dir, path := a.trail.Last()
	assert.Equal(t, gesture.Left, dir)
	assert.Len(t, path, 3)
}

func TestApp_DisabledStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	settings := config.New(filepath.Join(dir, "settings.toml"))
	require.NoError(t, settings.Load())
	require.NoError(t, settings.Set("general.home_page", "about:blank"))

	ctx := context.Background()
	start := func() *App {
		a, err := New(Config{Settings: settings, Logger: zerolog.Nop(), Engine: pages{}, Scheduler: sched.NewManual()})
		require.NoError(t, err)
		require.NoError(t, a.Start(ctx))
		return a
	}

	a := start()
	require.NoError(t, a.Extensions().Toggle(ctx, "dark-mode"))
	require.NoError(t, a.Close(ctx))

	a = start()
	defer a.Close(ctx)
	info, ok := a.Extensions().Info("dark-mode")
	require.True(t, ok)
	assert.False(t, info.Enabled)
	for _, action := range info.Actions {
		assert.False(t, action.Enabled())
	}
}

func TestApp_ZenUsesConfiguredTimings(t *testing.T) {
	a, clock := newTestApp(t, map[string]any{"zen.animation_duration": "100ms"})

	a.Zen().SetEnabled(true)
	assert.Equal(t, zen.Animating, a.Zen().State())
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, zen.Hidden, a.Zen().State())
}

func TestApp_CloseClearsHistoryWhenConfigured(t *testing.T) {
	for _, clear := range []bool{false, true} {
		t.Run(fmt.Sprintf("clear_on_exit=%v", clear), func(t *testing.T) {
			a, _ := newTestApp(t, map[string]any{"privacy.clear_on_exit": clear})
			ctx := context.Background()
			require.NoError(t, a.Start(ctx))
			require.NoError(t, a.Close(ctx))

			st, err := store.New(a.settings.StorePath())
			require.NoError(t, err)
			defer st.Close()

			history, err := st.History().List(ctx, 0)
			require.NoError(t, err)
			if clear {
				assert.Empty(t, history)
			} else {
				assert.Len(t, history, 1)
			}
		})
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
