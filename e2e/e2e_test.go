package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ayusman/surfshell/internal/app"
	"github.com/ayusman/surfshell/internal/config"
)

var sitePages = map[string]string{
	"/home": "Start Page",
	"/next": "Second Page",
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title, ok := sitePages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><head><title>%s</title></head><body><article><p>%s has some words.</p></article></body></html>", title, title)
	}))
	t.Cleanup(site.Close)
	return site
}

func newApp(t *testing.T, home string) *app.App {
	t.Helper()
	dir := t.TempDir()

	settings := config.New(filepath.Join(dir, "settings.toml"))
	if err := settings.Load(); err != nil {
		t.Fatalf("settings.Load() error = %v", err)
	}
	for k, v := range map[string]any{
		"general.home_page":     home,
		"general.download_path": filepath.Join(dir, "downloads"),
		"server.addr":           "127.0.0.1:0",
	} {
		if err := settings.Set(k, v); err != nil {
			t.Fatalf("settings.Set(%s) error = %v", k, err)
		}
	}

	a, err := app.New(app.Config{Settings: settings, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func postJSON(t *testing.T, client *http.Client, url string, v any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(v)
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode error = %v", err)
	}
}

type tabsResponse struct {
	Tabs []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Current bool   `json:"current"`
	} `json:"tabs"`
}

func currentTab(t *testing.T, client *http.Client, base string) (string, string) {
	t.Helper()
	resp, err := client.Get(base + "/api/browser/tabs")
	if err != nil {
		t.Fatalf("GET tabs error = %v", err)
	}
	var tabs tabsResponse
	decode(t, resp, &tabs)
	for _, tab := range tabs.Tabs {
		if tab.Current {
			return tab.URL, tab.Title
		}
	}
	t.Fatalf("no current tab in %+v", tabs)
	return "", ""
}

func TestE2E_GestureNavigation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	site := newSite(t)
	a := newApp(t, site.URL+"/home")
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ts := httptest.NewServer(a.Server())
	defer ts.Close()
	client := ts.Client()

	t.Run("HomeLoaded", func(t *testing.T) {
		url, title := currentTab(t, client, ts.URL)
		if url != site.URL+"/home" || title != "Start Page" {
			t.Errorf("current tab = %s %q, want home", url, title)
		}
	})

	t.Run("Navigate", func(t *testing.T) {
		resp := postJSON(t, client, ts.URL+"/api/browser/navigate", map[string]string{"url": site.URL + "/next"})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("navigate status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if _, title := currentTab(t, client, ts.URL); title != "Second Page" {
			t.Errorf("title = %q, want Second Page", title)
		}
	})

	t.Run("SwipeLeftGoesBack", func(t *testing.T) {
		events := []map[string]any{
			{"kind": "press", "button": "right", "x": 300, "y": 100},
			{"kind": "move", "x": 200, "y": 102},
			{"kind": "release", "button": "right", "x": 100, "y": 104},
		}
		for _, ev := range events {
			resp := postJSON(t, client, ts.URL+"/api/gestures/input", ev)
			var out struct {
				Consumed bool `json:"consumed"`
			}
			decode(t, resp, &out)
			if !out.Consumed {
				t.Fatalf("event %v was not consumed", ev)
			}
		}

		if url, _ := currentTab(t, client, ts.URL); url != site.URL+"/home" {
			t.Errorf("after swipe url = %s, want home", url)
		}
	})

	t.Run("GestureLogged", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/gestures")
		if err != nil {
			t.Fatalf("GET gestures error = %v", err)
		}
		var out struct {
			Events []struct {
				Direction string `json:"direction"`
				Command   string `json:"command"`
			} `json:"events"`
			Counts map[string]int `json:"counts"`
		}
		decode(t, resp, &out)
		if len(out.Events) != 1 {
			t.Fatalf("events = %d, want 1", len(out.Events))
		}
		if out.Events[0].Direction != "left" || out.Events[0].Command != "back" {
			t.Errorf("event = %+v, want left/back", out.Events[0])
		}
		if out.Counts["back"] != 1 {
			t.Errorf("counts = %v, want back=1", out.Counts)
		}
	})

	t.Run("HistoryRecorded", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/history?q=page")
		if err != nil {
			t.Fatalf("GET history error = %v", err)
		}
		var out struct {
			History []struct {
				URL string `json:"url"`
			} `json:"history"`
		}
		decode(t, resp, &out)
		if len(out.History) != 2 {
			t.Errorf("history = %d entries, want 2", len(out.History))
		}
	})
}

func TestE2E_ReaderModeFromExtensionAction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	site := newSite(t)
	a := newApp(t, site.URL+"/next")
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ts := httptest.NewServer(a.Server())
	defer ts.Close()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/api/extensions/reader")
	if err != nil {
		t.Fatalf("GET reader error = %v", err)
	}
	var info struct {
		Enabled bool `json:"enabled"`
		Actions []struct {
			ID string `json:"id"`
		} `json:"actions"`
	}
	decode(t, resp, &info)
	if !info.Enabled || len(info.Actions) == 0 {
		t.Fatalf("reader extension = %+v, want enabled with actions", info)
	}

	resp, err = client.Post(ts.URL+"/api/extensions/actions/"+info.Actions[0].ID, "application/json", nil)
	if err != nil {
		t.Fatalf("trigger error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("trigger status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	html := a.Shell().CurrentTab().HTML()
	if !bytes.Contains([]byte(html), []byte("reader-content")) {
		t.Errorf("page was not replaced by the reader view")
	}
}
