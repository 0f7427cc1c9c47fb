package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent identifies the shell when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) surfshell/1.0"

// Document is a fetched resource.
type Document struct {
	URL                string
	Status             int
	ContentType        string
	ContentDisposition string
	Body               []byte
}

// Engine loads documents.
type Engine interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// EngineOptions configures an HTTPEngine.
type EngineOptions struct {
	UserAgent  string
	DoNotTrack bool
	Proxy      string
	Timeout    time.Duration
	Retries    int
}

// HTTPEngine fetches documents over HTTP.
type HTTPEngine struct {
	client *resty.Client
}

// NewHTTPEngine creates an engine with a cookie jar and the given options.
func NewHTTPEngine(opts EngineOptions) *HTTPEngine {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	if opts.DoNotTrack {
		client.SetHeader("DNT", "1")
	}
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	e := &HTTPEngine{client: client}
	e.ClearCookies()
	return e
}

// Fetch performs a GET and returns the final document after redirects.
func (e *HTTPEngine) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	resp, err := e.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	final := rawURL
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	return &Document{
		URL:                final,
		Status:             resp.StatusCode(),
		ContentType:        resp.Header().Get("Content-Type"),
		ContentDisposition: resp.Header().Get("Content-Disposition"),
		Body:               resp.Body(),
	}, nil
}

// ClearCookies drops every stored cookie.
func (e *HTTPEngine) ClearCookies() {
	jar, _ := cookiejar.New(nil)
	e.client.SetCookieJar(jar)
}

// Cookies returns the cookies the engine would send to u.
func (e *HTTPEngine) Cookies(u *url.URL) []*http.Cookie {
	jar := e.client.GetClient().Jar
	if jar == nil {
		return nil
	}
	return jar.Cookies(u)
}
