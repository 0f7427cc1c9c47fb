package extension

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadManifest(t *testing.T) {
	dir := writeExtension(t, t.TempDir(), "reader", map[string]any{
		"name":        "Reader",
		"version":     "2.1.0",
		"description": "Distraction-free view",
	}, nil)

	m, err := ReadManifest(dir)
	require.NoError(t, err)

	assert.Equal(t, "reader", m.ID)
	assert.Equal(t, "Reader", m.Name)
	assert.Equal(t, "2.1.0", m.Version)
	assert.Equal(t, "Distraction-free view", m.Description)
	assert.Equal(t, DefaultMain, m.Main)
}

func TestReadManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"not json", "{", ErrManifestMalformed},
		{"missing name", `{"version": "1"}`, ErrManifestMalformed},
		{"blank version", `{"name": "x", "version": "  "}`, ErrManifestMalformed},
		{"wrong type", `{"name": 3, "version": "1"}`, ErrManifestMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(tt.content), 0644))

			_, err := ReadManifest(dir)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ReadManifest(t.TempDir())
	assert.ErrorIs(t, err, ErrManifestMissing)
}

func TestManifest_EntryPath(t *testing.T) {
	dir := writeExtension(t, t.TempDir(), "ext", nil, map[string]string{"main.js": "function init() {}"})

	path, err := (&Manifest{Main: "main.js"}).EntryPath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "main.js"), path)

	path, err = (&Manifest{Main: "builtin:reader"}).EntryPath(dir)
	require.NoError(t, err)
	assert.Equal(t, "builtin:reader", path)

	_, err = (&Manifest{Main: "missing.js"}).EntryPath(dir)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = (&Manifest{Main: "../outside.js"}).EntryPath(dir)
	assert.ErrorIs(t, err, ErrManifestMalformed)

	_, err = (&Manifest{Main: "/etc/passwd"}).EntryPath(dir)
	assert.ErrorIs(t, err, ErrManifestMalformed)
}

func TestSchema(t *testing.T) {
	data, err := json.Marshal(Schema())
	require.NoError(t, err)

	var doc struct {
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.ElementsMatch(t, []string{"name", "version"}, doc.Required)
	assert.Contains(t, doc.Properties, "main")
	assert.Contains(t, doc.Properties, "description")
	assert.NotContains(t, doc.Properties, "ID")
}
