// Package analysis is a built-in extension that analyses the text of the
// current page: statistics, readability, a short summary, keywords and links.
package analysis

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/ayusman/surfshell/internal/extension"
)

// Name is the built-in name of the extension.
const Name = "page-analysis"

// Limits of the report lists.
const (
	MaxKeywords     = 10
	MaxLinksPerKind = 5
	minSentenceLen  = 20
	minKeywordLen   = 4
)

// Readability levels, by average sentence length.
const (
	ReadabilityEasy     = "easy"
	ReadabilityModerate = "moderate"
	ReadabilityComplex  = "complex"
)

// Keyword is a frequent word and its count.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Link is an anchor found on the page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Links groups the anchors of a page.
type Links struct {
	Internal  []Link `json:"internal"`
	External  []Link `json:"external"`
	Resources []Link `json:"resources"`
}

// Report is the analysis of one page.
type Report struct {
	URL         string    `json:"url"`
	Words       int       `json:"words"`
	Sentences   int       `json:"sentences"`
	Paragraphs  int       `json:"paragraphs"`
	Tables      int       `json:"tables"`
	Readability string    `json:"readability"`
	Summary     []string  `json:"summary"`
	Keywords    []Keyword `json:"keywords"`
	Emails      []string  `json:"emails,omitempty"`
	Links       Links     `json:"links"`
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)
	emailRe     = regexp.MustCompile(`[\w.+-]+@[\w-]+(\.[\w-]+)+`)
)

var resourceExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".zip": true,
}

var stopWords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "because": true,
	"before": true, "being": true, "could": true, "does": true, "from": true,
	"have": true, "here": true, "into": true, "just": true, "more": true,
	"most": true, "only": true, "other": true, "over": true, "some": true,
	"such": true, "than": true, "that": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "very": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true,
	"would": true, "your": true,
}

// Analyze parses html and builds the report. pageURL resolves relative links.
func Analyze(pageURL, html string) (*Report, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	var paragraphs []string
	body.Find("p, li, h1, h2, h3, h4, h5, h6, td, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li, td, blockquote").Length() > 0 {
			return
		}
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	text := strings.Join(paragraphs, "\n")
	if len(paragraphs) == 0 {
		text = strings.Join(strings.Fields(body.Text()), " ")
		if text != "" {
			paragraphs = []string{text}
		}
	}

	words := strings.Fields(text)
	sentences := splitSentences(paragraphs)

	r := &Report{
		URL:         pageURL,
		Words:       len(words),
		Sentences:   len(sentences),
		Paragraphs:  len(paragraphs),
		Tables:      body.Find("table").Length(),
		Readability: readability(len(words), len(sentences)),
		Summary:     summarize(sentences),
		Keywords:    keywords(text),
		Emails:      emails(text),
		Links:       links(base, body),
	}
	return r, nil
}

func splitSentences(paragraphs []string) []string {
	var out []string
	for _, p := range paragraphs {
		for _, s := range sentenceEnd.Split(p, -1) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func readability(words, sentences int) string {
	if words == 0 || sentences == 0 {
		return ""
	}
	avg := float64(words) / float64(sentences)
	switch {
	case avg > 25:
		return ReadabilityComplex
	case avg > 15:
		return ReadabilityModerate
	default:
		return ReadabilityEasy
	}
}

// summarize keeps the first three and last two substantial sentences.
func summarize(sentences []string) []string {
	var long []string
	for _, s := range sentences {
		if len(s) > minSentenceLen {
			long = append(long, s)
		}
	}
	if len(long) <= 5 {
		return long
	}
	out := append([]string(nil), long[:3]...)
	return append(out, long[len(long)-2:]...)
}

func keywords(text string) []Keyword {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) >= minKeywordLen && !stopWords[w] {
			counts[w]++
		}
	}

	out := make([]Keyword, 0, len(counts))
	for w, n := range counts {
		out = append(out, Keyword{Word: w, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > MaxKeywords {
		out = out[:MaxKeywords]
	}
	return out
}

func emails(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range emailRe.FindAllString(text, -1) {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

func links(base *url.URL, body *goquery.Selection) Links {
	var l Links
	body.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		text := strings.Join(strings.Fields(s.Text()), " ")
		if href == "" || text == "" || strings.HasPrefix(href, "#") {
			return
		}
		u, err := base.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		link := Link{Text: text, URL: u.String()}

		switch {
		case resourceExts[strings.ToLower(path.Ext(u.Path))]:
			l.Resources = append(l.Resources, link)
		case strings.EqualFold(u.Hostname(), base.Hostname()):
			if len(l.Internal) < MaxLinksPerKind {
				l.Internal = append(l.Internal, link)
			}
		default:
			if len(l.External) < MaxLinksPerKind {
				l.External = append(l.External, link)
			}
		}
	})
	return l
}

// StatusLine renders the statistics as a single status message.
func (r *Report) StatusLine() string {
	s := fmt.Sprintf("%d words, %d sentences, %d paragraphs", r.Words, r.Sentences, r.Paragraphs)
	if r.Readability != "" {
		s += ", " + r.Readability + " to read"
	}
	return s
}

// Extension runs the analyses on the current page.
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
	e.CreateAction("Analyze page", e.show(func(r *Report) string { return r.StatusLine() }), "Ctrl+Shift+A")
	e.CreateAction("Summarize page", e.show(func(r *Report) string {
		if len(r.Summary) == 0 {
			return "Nothing to summarize"
		}
		return strings.Join(r.Summary, ". ") + "."
	}), "")
	e.CreateAction("Page keywords", e.show(func(r *Report) string {
		if len(r.Keywords) == 0 {
			return "No keywords found"
		}
		parts := make([]string, len(r.Keywords))
		for i, k := range r.Keywords {
			parts[i] = fmt.Sprintf("%s (%d)", k.Word, k.Count)
		}
		return "Keywords: " + strings.Join(parts, ", ")
	}), "")
	e.CreateAction("Page links", e.show(func(r *Report) string {
		return fmt.Sprintf("Links: %d internal, %d external, %d resources",
			len(r.Links.Internal), len(r.Links.External), len(r.Links.Resources))
	}), "")
	return nil
}

// Last returns the most recent report, or nil.
func (e *Extension) Last() *Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Extension) show(format func(*Report) string) func(context.Context) error {
	return func(ctx context.Context) error {
		page := e.Host.CurrentPage()
		if page == nil {
			e.Host.ShowStatus("No page to analyze")
			return nil
		}

		r, err := Analyze(page.URL(), page.HTML())
		if err != nil {
			return err
		}

		e.mu.Lock()
		e.last = r
		e.mu.Unlock()

		e.Host.ShowStatus(format(r))
		return nil
	}
}
