// Package main provides a word-count process extension.
// Build it into the extension directory next to manifest.json:
//
//	go build -o ~/.surfshell/extensions/word-count/word-count ./plugins/word-count
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ayusman/surfshell/internal/extension"
)

// Action ids.
const (
	actionCount   = "count"
	actionReading = "reading-time"
)

// wordsPerMinute is the assumed reading speed.
const wordsPerMinute = 200

func main() {
	var req extension.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		write(fail(fmt.Sprintf("failed to decode request: %v", err)))
		return
	}
	write(handle(&req))
}

func handle(req *extension.Request) *extension.Response {
	switch req.Event {
	case extension.EventInit:
		return &extension.Response{
			Success: true,
			Actions: []extension.ActionSpec{
				{ID: actionCount, Label: "Count words", Shortcut: "Ctrl+Shift+W"},
				{ID: actionReading, Label: "Reading time"},
			},
		}
	case extension.EventEnable, extension.EventDisable:
		return &extension.Response{Success: true}
	case extension.EventAction:
		return handleAction(req)
	default:
		return fail(fmt.Sprintf("unknown event: %s", req.Event))
	}
}

func handleAction(req *extension.Request) *extension.Response {
	if req.Page == nil {
		return fail("no page loaded")
	}
	words, err := countWords(req.Page.HTML)
	if err != nil {
		return fail(err.Error())
	}

	switch req.Action {
	case actionCount:
		return &extension.Response{Success: true, Status: plural(words, "word")}
	case actionReading:
		return &extension.Response{Success: true, Status: readingTime(words)}
	default:
		return fail(fmt.Sprintf("unknown action: %s", req.Action))
	}
}

// countWords counts the words of the visible body text.
func countWords(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return len(strings.Fields(body.Text())), nil
}

func readingTime(words int) string {
	d := time.Duration(words) * time.Minute / wordsPerMinute
	if d < time.Minute {
		return "less than a minute to read"
	}
	return plural(int(d.Round(time.Minute).Minutes()), "minute") + " to read"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func fail(msg string) *extension.Response {
	return &extension.Response{Success: false, Error: msg}
}

func write(resp *extension.Response) {
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}
