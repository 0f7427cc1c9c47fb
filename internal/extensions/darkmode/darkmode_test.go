package darkmode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/surfshell/internal/extension/extensiontest"
)

func setup(t *testing.T, page *extensiontest.Page) (*Extension, *extensiontest.Host) {
	t.Helper()
	host := extensiontest.NewHost(page)
	ext, err := New(host)
	require.NoError(t, err)
	require.NoError(t, ext.Init(context.Background()))
	for _, a := range ext.Actions() {
		a.SetEnabled(true)
	}
	return ext.(*Extension), host
}

func TestToggle(t *testing.T) {
	page := extensiontest.NewPage("https://example.org", "Example", "<p>hi</p>")
	ext, _ := setup(t, page)
	ctx := context.Background()

	require.Len(t, ext.Actions(), 1)
	action := ext.Actions()[0]
	assert.Equal(t, "Dark mode", action.Label)

	require.NoError(t, action.Trigger(ctx))
	assert.True(t, ext.Active())
	require.NoError(t, action.Trigger(ctx))
	assert.False(t, ext.Active())

	assert.Equal(t, []string{ToggleScript, ToggleScript}, page.Scripts())
	assert.Contains(t, ToggleScript, StyleID)
}

func TestToggle_NoPage(t *testing.T) {
	ext, _ := setup(t, nil)

	require.NoError(t, ext.Actions()[0].Trigger(context.Background()))
	assert.False(t, ext.Active())
}

func TestToggle_ScriptError(t *testing.T) {
	page := extensiontest.NewPage("https://example.org", "Example", "")
	page.FailScripts(errors.New("page gone"))
	ext, _ := setup(t, page)

	assert.Error(t, ext.Actions()[0].Trigger(context.Background()))
	assert.False(t, ext.Active())
}

func TestDisable_RemovesStyle(t *testing.T) {
	page := extensiontest.NewPage("https://example.org", "Example", "")
	ext, _ := setup(t, page)
	ctx := context.Background()

	require.NoError(t, ext.Disable(ctx))
	assert.Empty(t, page.Scripts())

	require.NoError(t, ext.Actions()[0].Trigger(ctx))
	require.NoError(t, ext.Disable(ctx))
	assert.False(t, ext.Active())
	assert.Equal(t, []string{ToggleScript, RemoveScript}, page.Scripts())
}
