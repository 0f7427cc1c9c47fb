package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngine_Fetch(t *testing.T) {
	var gotUA, gotDNT string
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotDNT = r.Header.Get("DNT")
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title>New</title></head></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := NewHTTPEngine(EngineOptions{UserAgent: "test-agent", DoNotTrack: true})

	doc, err := e.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/new", doc.URL)
	assert.Equal(t, http.StatusOK, doc.Status)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	assert.Contains(t, string(doc.Body), "<title>New</title>")
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "1", gotDNT)

	u, _ := url.Parse(srv.URL)
	assert.Len(t, e.Cookies(u), 1)
	e.ClearCookies()
	assert.Empty(t, e.Cookies(u))
}

func TestHTTPEngine_Defaults(t *testing.T) {
	var gotUA, gotDNT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotDNT = r.Header.Get("DNT")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	doc, err := NewHTTPEngine(EngineOptions{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, doc.Status)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Empty(t, gotDNT)
}

func TestHTTPEngine_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPEngine(EngineOptions{}).Fetch(ctx, "http://127.0.0.1:1")
	assert.Error(t, err)
}
