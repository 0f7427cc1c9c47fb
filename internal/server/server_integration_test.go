package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/surfshell/internal/browser"
	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/extensions"
	"github.com/ayusman/surfshell/internal/reader"
	"github.com/ayusman/surfshell/internal/store"
)

const sitePage = `<html><head><title>Field Notes</title></head>
<body><article><p>Gestures make browsing feel quick.</p></article></body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, sitePage)
	}))
	t.Cleanup(site.Close)
	return site
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestAPI_BrowsingWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	site := newSite(t)
	shell := browser.New(browser.NewHTTPEngine(browser.EngineOptions{Timeout: 5 * time.Second}),
		browser.WithHistory(s.History()))

	opts := extensions.Options{Reader: reader.DefaultOptions()}
	extDir := filepath.Join(tmpDir, "extensions")
	if _, err := extensions.Install(extDir, opts); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	reg := extension.NewRegistry()
	extensions.Register(reg, opts)
	manager := extension.NewManager(extDir, shell,
		extension.WithRegistry(reg),
		extension.WithStateStore(s.ExtensionStates()))
	if err := manager.LoadExtensions(context.Background()); err != nil {
		t.Fatalf("LoadExtensions failed: %v", err)
	}

	hub := NewHub(zerolog.Nop())
	shell.OnEvent(func(ev browser.Event) { hub.Broadcast(string(ev.Type), ev) })

	srv := New(Config{Store: s, Extensions: manager, Shell: shell, Events: hub})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 1 })

	// 1. Navigate
	body, _ := json.Marshal(map[string]string{"url": site.URL + "/notes"})
	resp, err := client.Post(ts.URL+"/api/browser/navigate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/browser/navigate error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("navigate status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var tabs struct {
		Tabs   []browser.TabInfo `json:"tabs"`
		Status string            `json:"status"`
	}
	decode(t, resp, &tabs)
	if len(tabs.Tabs) != 1 || tabs.Tabs[0].Title != "Field Notes" {
		t.Fatalf("tabs = %+v, want one tab titled Field Notes", tabs.Tabs)
	}
	if tabs.Status != "Ready" {
		t.Errorf("status = %q, want Ready", tabs.Status)
	}

	// 2. Live events
	sawNavigate := false
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for !sawNavigate {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read event failed: %v", err)
		}
		var msg Message
		json.Unmarshal(data, &msg)
		sawNavigate = msg.Type == string(browser.EventNavigate)
	}

	// 3. History recorded the visit
	resp, _ = client.Get(ts.URL + "/api/history?q=field")
	var history struct {
		History []store.HistoryEntry `json:"history"`
	}
	decode(t, resp, &history)
	if len(history.History) != 1 || history.History[0].URL != site.URL+"/notes" {
		t.Fatalf("history = %+v, want the visited page", history.History)
	}

	// 4. Bookmark it twice
	body, _ = json.Marshal(map[string]string{"url": site.URL + "/notes", "title": "Notes"})
	resp, _ = client.Post(ts.URL+"/api/bookmarks", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first bookmark status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp, _ = client.Post(ts.URL+"/api/bookmarks", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate bookmark status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// 5. Run the reader action on the page
	resp, _ = client.Get(ts.URL + "/api/extensions/reader")
	var info extension.Info
	decode(t, resp, &info)
	if len(info.Actions) == 0 {
		t.Fatal("expected reader actions")
	}
	resp, _ = client.Post(ts.URL+"/api/extensions/actions/"+info.Actions[0].ID, "application/json", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("trigger status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if !strings.Contains(shell.CurrentTab().HTML(), "reader-content") {
		t.Error("expected the reader view in the current tab")
	}

	// 6. Toggle persists
	resp, _ = client.Post(ts.URL+"/api/extensions/reader/toggle", "application/json", nil)
	decode(t, resp, &info)
	if info.Enabled {
		t.Error("expected reader to be disabled after toggle")
	}
	enabled, found, err := s.ExtensionStates().ExtensionEnabled(context.Background(), "reader")
	if err != nil || !found || enabled {
		t.Errorf("stored state = (%v, %v, %v), want disabled", enabled, found, err)
	}

	// 7. Clear history
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/history", nil)
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE history status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp, _ = client.Get(ts.URL + "/api/history")
	decode(t, resp, &history)
	if len(history.History) != 0 {
		t.Errorf("expected empty history, got %d entries", len(history.History))
	}
}
