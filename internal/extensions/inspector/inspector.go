// Package inspector is a built-in extension that reports the technology
// behind the current page.
package inspector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"

	"github.com/ayusman/surfshell/internal/extension"
)

// Name is the built-in name of the extension.
const Name = "inspector"

// Report describes a page.
type Report struct {
	URL         string   `json:"url"`
	Scheme      string   `json:"scheme"`
	Host        string   `json:"host"`
	Path        string   `json:"path"`
	Query       string   `json:"query,omitempty"`
	Secure      bool     `json:"secure"`
	Title       string   `json:"title,omitempty"`
	Generator   string   `json:"generator,omitempty"`
	Scripts     int      `json:"scripts"`
	Stylesheets int      `json:"stylesheets"`
	Frameworks  []string `json:"frameworks,omitempty"`
}

// fingerprint marks a framework by an XPath expression that matches when
// the framework is present.
type fingerprint struct {
	name  string
	xpath string
}

var fingerprints = []fingerprint{
	{"jQuery", `//script[contains(@src, "jquery")]`},
	{"React", `//*[@data-reactroot] | //script[contains(@src, "react")]`},
	{"Next.js", `//*[@id="__next"] | //script[@id="__NEXT_DATA__"]`},
	{"Vue", `//*[@data-v-app] | //script[contains(@src, "vue")]`},
	{"Nuxt", `//*[@id="__nuxt"]`},
	{"Angular", `//*[@ng-version] | //*[@ng-app]`},
	{"Bootstrap", `//link[contains(@href, "bootstrap")] | //script[contains(@src, "bootstrap")]`},
	{"WordPress", `//link[contains(@href, "wp-content")] | //script[contains(@src, "wp-includes")]`},
}

// Inspect analyses a page's address and markup.
func Inspect(pageURL, html string) (*Report, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	r := &Report{
		URL:    pageURL,
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
		Query:  u.RawQuery,
		Secure: u.Scheme == "https",
	}
	if r.Path == "" {
		r.Path = "/"
	}

	if n := htmlquery.FindOne(doc, "//title"); n != nil {
		r.Title = strings.TrimSpace(htmlquery.InnerText(n))
	}
	if n := htmlquery.FindOne(doc, `//meta[@name="generator"]`); n != nil {
		r.Generator = htmlquery.SelectAttr(n, "content")
	}
	r.Scripts = len(htmlquery.Find(doc, "//script"))
	r.Stylesheets = len(htmlquery.Find(doc, `//link[@rel="stylesheet"] | //style`))

	seen := make(map[string]bool)
	for _, fp := range fingerprints {
		nodes, err := htmlquery.QueryAll(doc, fp.xpath)
		if err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", fp.name, err)
		}
		if len(nodes) > 0 && !seen[fp.name] {
			seen[fp.name] = true
			r.Frameworks = append(r.Frameworks, fp.name)
		}
	}
	if gen := strings.ToLower(r.Generator); strings.HasPrefix(gen, "wordpress") && !seen["WordPress"] {
		r.Frameworks = append(r.Frameworks, "WordPress")
	}
	sort.Strings(r.Frameworks)
	return r, nil
}

// Summary renders the report as a single status line.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString(r.Host)
	if r.Secure {
		b.WriteString(" (https)")
	} else {
		b.WriteString(" (not secure)")
	}
	fmt.Fprintf(&b, ", %d scripts, %d stylesheets", r.Scripts, r.Stylesheets)
	if r.Generator != "" {
		fmt.Fprintf(&b, ", generator %s", r.Generator)
	}
	if len(r.Frameworks) > 0 {
		fmt.Fprintf(&b, ", uses %s", strings.Join(r.Frameworks, ", "))
	}
	return b.String()
}

// Extension shows an inspection of the current page.
type Extension struct {
	extension.Base

	mu   sync.Mutex
	last *Report
}

// New is the extension factory.
func New(host extension.Host) (extension.Extension, error) {
	return &Extension{Base: extension.NewBase(host)}, nil
}

func (e *Extension) Init(ctx context.Context) error {
	e.CreateAction("Tech inspector", e.inspect, "Ctrl+Shift+I")
	return nil
}

// Last returns the most recent report, or nil.
func (e *Extension) Last() *Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Extension) inspect(ctx context.Context) error {
	page := e.Host.CurrentPage()
	if page == nil {
		e.Host.ShowStatus("No page to inspect")
		return nil
	}

	r, err := Inspect(page.URL(), page.HTML())
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.last = r
	e.mu.Unlock()

	e.Host.ShowStatus(r.Summary())
	return nil
}
