// Package reader extracts the main content of a page and renders it as a
// distraction-free reading view.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Font size bounds, in points.
const (
	MinFontSize     = 10
	MaxFontSize     = 32
	DefaultFontSize = 16
)

// ErrNoContent is returned when a page has nothing worth reading.
var ErrNoContent = errors.New("no readable content")

// Article is the extracted content of a page.
type Article struct {
	Title     string        `json:"title"`
	URL       string        `json:"url"`
	Content   template.HTML `json:"content"`
	Text      string        `json:"text"`
	WordCount int           `json:"word_count"`
}

// Candidate containers for the main content, tried in order.
var contentSelectors = []string{
	"article",
	"div[class*='content'], div[class*='article'], div[class*='post'], div[class*='entry']",
	"div[id*='content'], div[id*='article'], div[id*='post'], div[id*='entry']",
	"main",
	"body",
}

// Class and id words that mark page furniture.
var clutterWords = map[string]bool{
	"comment": true, "comments": true,
	"sidebar": true,
	"footer":  true,
	"nav":     true, "navbar": true, "navigation": true,
	"menu":   true,
	"ad":     true, "ads": true, "advert": true, "advertisement": true,
	"banner": true,
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6", "p")
	p.AllowImages()
	p.AllowStandardURLs()
	return p
}

// Extract parses a page and returns its main content, keeping only headings,
// paragraphs and images.
func Extract(html, pageURL string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("script, style, noscript, template, nav, footer, aside").Remove()
	doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isClutter(s.AttrOr("class", "")) || isClutter(s.AttrOr("id", ""))
	}).Remove()

	var content *goquery.Selection
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 && strings.TrimSpace(found.Text()) != "" {
			content = found
			break
		}
	}
	if content == nil {
		return nil, ErrNoContent
	}

	raw, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}
	clean := strings.TrimSpace(policy.Sanitize(raw))
	if clean == "" {
		return nil, ErrNoContent
	}

	text := plainText(clean)
	return &Article{
		Title:     title,
		URL:       pageURL,
		Content:   template.HTML(clean),
		Text:      text,
		WordCount: len(strings.Fields(text)),
	}, nil
}

func isClutter(attr string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(attr), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}) {
		if clutterWords[word] {
			return true
		}
	}
	return false
}

func plainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Options controls how an article is rendered.
type Options struct {
	Theme    Theme
	FontSize int
}

// DefaultOptions returns the light theme at the default font size.
func DefaultOptions() Options {
	return Options{Theme: ThemeLight, FontSize: DefaultFontSize}
}

// ClampFontSize keeps size within the supported range.
func ClampFontSize(size int) int {
	switch {
	case size <= 0:
		return DefaultFontSize
	case size < MinFontSize:
		return MinFontSize
	case size > MaxFontSize:
		return MaxFontSize
	default:
		return size
	}
}

var page = template.Must(template.New("reader").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Article.Title}}</title>
<style>
body { background-color: {{.Palette.Background}}; color: {{.Palette.Text}}; font-size: {{.FontSize}}pt; max-width: 42em; margin: 2em auto; padding: 0 1em; line-height: 1.6; font-family: Georgia, serif; }
h1.reader-title { text-align: center; }
p.reader-url { text-align: center; font-size: 0.8em; }
img { max-width: 100%; height: auto; }
</style>
</head>
<body>
{{if .Article.Title}}<h1 class="reader-title">{{.Article.Title}}</h1>{{end}}
{{if .Article.URL}}<p class="reader-url"><a href="{{.Article.URL}}">{{.Article.URL}}</a></p>{{end}}
<div class="reader-content">{{.Article.Content}}</div>
</body>
</html>
`))

// Render produces the reading view of a.
func Render(a *Article, opts Options) (string, error) {
	theme := opts.Theme
	if _, ok := palettes[theme]; !ok {
		theme = ThemeLight
	}

	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Article  *Article
		Palette  Palette
		FontSize int
	}{
		Article:  a,
		Palette:  palettes[theme],
		FontSize: ClampFontSize(opts.FontSize),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render reader view: %w", err)
	}
	return buf.String(), nil
}
