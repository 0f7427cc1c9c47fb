package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
)

// ManifestFile is the manifest name inside an extension directory.
const ManifestFile = "manifest.json"

// BuiltinPrefix marks an entry served by a registered factory.
const BuiltinPrefix = "builtin:"

// ReadManifest reads and validates dir/manifest.json.
// The manifest ID is set to the directory name.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrManifestMissing
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestMissing, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestMalformed, err)
	}
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrManifestMalformed)
	}
	if strings.TrimSpace(m.Version) == "" {
		return nil, fmt.Errorf("%w: version is required", ErrManifestMalformed)
	}
	if m.Main == "" {
		m.Main = DefaultMain
	}

	m.ID = filepath.Base(dir)
	return &m, nil
}

// EntryPath resolves the manifest entry relative to dir.
// Built-in entries are returned unchanged.
func (m *Manifest) EntryPath(dir string) (string, error) {
	if strings.HasPrefix(m.Main, BuiltinPrefix) {
		return m.Main, nil
	}
	if filepath.IsAbs(m.Main) {
		return "", fmt.Errorf("%w: main must be relative, got %q", ErrManifestMalformed, m.Main)
	}

	entry := filepath.Join(dir, m.Main)
	rel, err := filepath.Rel(dir, entry)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: main %q escapes the extension directory", ErrManifestMalformed, m.Main)
	}

	if _, err := os.Stat(entry); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}
	return entry, nil
}

// Schema returns the JSON Schema of manifest.json.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&Manifest{})
	s.Title = "surfshell extension manifest"
	return s
}
