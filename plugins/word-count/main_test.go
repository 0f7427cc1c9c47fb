package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/surfshell/internal/extension"
)

func TestHandle_Init(t *testing.T) {
	resp := handle(&extension.Request{Event: extension.EventInit})
	require.True(t, resp.Success)
	require.Len(t, resp.Actions, 2)
	assert.Equal(t, actionCount, resp.Actions[0].ID)
	assert.Equal(t, "Ctrl+Shift+W", resp.Actions[0].Shortcut)
	assert.Equal(t, actionReading, resp.Actions[1].ID)
}

func TestHandle_Count(t *testing.T) {
	page := &extension.PageRequest{HTML: `<html><head><title>Skip me</title><script>var a = 1;</script></head>
<body><h1>Hello world</h1>
<p>three more words</p><style>p { color: red }</style></body></html>`}

	resp := handle(&extension.Request{Event: extension.EventAction, Action: actionCount, Page: page})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "5 words", resp.Status)
}

func TestHandle_ReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  string
	}{
		{1, "less than a minute to read"},
		{200, "1 minute to read"},
		{1000, "5 minutes to read"},
	}

	for _, tt := range tests {
		html := "<body><p>" + strings.Repeat("word ", tt.words) + "</p></body>"
		resp := handle(&extension.Request{
			Event:  extension.EventAction,
			Action: actionReading,
			Page:   &extension.PageRequest{HTML: html},
		})
		require.True(t, resp.Success)
		assert.Equal(t, tt.want, resp.Status)
	}
}

func TestHandle_Errors(t *testing.T) {
	resp := handle(&extension.Request{Event: extension.EventAction, Action: actionCount})
	assert.False(t, resp.Success)
	assert.Equal(t, "no page loaded", resp.Error)

	resp = handle(&extension.Request{Event: extension.EventAction, Action: "nope", Page: &extension.PageRequest{HTML: "<p>x</p>"}})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown action")

	resp = handle(&extension.Request{Event: "bogus"})
	assert.False(t, resp.Success)

	assert.True(t, handle(&extension.Request{Event: extension.EventDisable}).Success)
}
