package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	const search = "https://search.example/?q={}"

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"https://go.dev/doc", "https://go.dev/doc"},
		{"HTTP://GO.DEV", "HTTP://GO.DEV"},
		{"about:blank", "about:blank"},
		{"go.dev", "http://go.dev"},
		{" go.dev/doc?x=1 ", "http://go.dev/doc?x=1"},
		{"localhost:8080/api", "http://localhost:8080/api"},
		{"127.0.0.1", "http://127.0.0.1"},
		{"golang generics", "https://search.example/?q=golang+generics"},
		{"golang", "https://search.example/?q=golang"},
		{"trailing.", "https://search.example/?q=trailing."},
		{"a&b", "https://search.example/?q=a%26b"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.input, search))
		})
	}
}

func TestNormalizeURL_SearchTemplates(t *testing.T) {
	assert.Equal(t, "https://www.google.com/search?q=hello", NormalizeURL("hello", ""))
	assert.Equal(t, "https://ddg.example/?q=hello", NormalizeURL("hello", "https://ddg.example/?q="))
}

func TestIsWeb(t *testing.T) {
	assert.True(t, IsWeb("https://go.dev"))
	assert.True(t, IsWeb("HTTP://go.dev"))
	assert.False(t, IsWeb("about:blank"))
	assert.False(t, IsWeb("file:///tmp/x.html"))
}

func TestBlocker(t *testing.T) {
	b := NewBlocker([]string{"doubleclick.net", " Ads.Example ", ""})

	assert.True(t, b.Blocked("https://doubleclick.net/x"))
	assert.True(t, b.Blocked("https://stats.g.doubleclick.net/x"))
	assert.True(t, b.Blocked("http://ads.example:8080/"))
	assert.False(t, b.Blocked("https://notdoubleclick.net/"))
	assert.False(t, b.Blocked("https://example.org/?ref=doubleclick.net"))

	var none *Blocker
	assert.False(t, none.Blocked("https://doubleclick.net"))
}
