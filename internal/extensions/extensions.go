// Package extensions bundles the built-in extensions.
package extensions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/extensions/analysis"
	"github.com/ayusman/surfshell/internal/extensions/darkmode"
	"github.com/ayusman/surfshell/internal/extensions/inspector"
	"github.com/ayusman/surfshell/internal/extensions/readermode"
	"github.com/ayusman/surfshell/internal/reader"
)

// Options configures the built-ins.
type Options struct {
	Reader reader.Options
}

// Builtin describes a bundled extension.
type Builtin struct {
	Manifest extension.Manifest
	Factory  extension.Factory
}

// Builtins returns the bundled extensions in install order.
func Builtins(opts Options) []Builtin {
	return []Builtin{
		{
			Manifest: extension.Manifest{
				ID:          darkmode.Name,
				Name:        "Dark Mode",
				Version:     "1.0.0",
				Description: "Force a dark style on the current page",
				Main:        extension.BuiltinPrefix + darkmode.Name,
			},
			Factory: darkmode.New,
		},
		{
			Manifest: extension.Manifest{
				ID:          readermode.Name,
				Name:        "Reader Mode",
				Version:     "1.0.0",
				Description: "Distraction-free reading view",
				Main:        extension.BuiltinPrefix + readermode.Name,
			},
			Factory: readermode.New(opts.Reader),
		},
		{
			Manifest: extension.Manifest{
				ID:          inspector.Name,
				Name:        "Tech Inspector",
				Version:     "1.0.0",
				Description: "Report the technology behind the current page",
				Main:        extension.BuiltinPrefix + inspector.Name,
			},
			Factory: inspector.New,
		},
		{
			Manifest: extension.Manifest{
				ID:          analysis.Name,
				Name:        "Page Analysis",
				Version:     "1.0.0",
				Description: "Text statistics, summary, keywords and links of the current page",
				Main:        extension.BuiltinPrefix + analysis.Name,
			},
			Factory: analysis.New,
		},
	}
}

// Register adds every built-in factory to reg.
func Register(reg *extension.Registry, opts Options) {
	for _, b := range Builtins(opts) {
		reg.Register(b.Manifest.ID, b.Factory)
	}
}

// Install writes a manifest for each built-in into dir. Existing extension
// directories are left alone so users can remove or edit them.
func Install(dir string, opts Options) ([]string, error) {
	var installed []string
	for _, b := range Builtins(opts) {
		extDir := filepath.Join(dir, b.Manifest.ID)
		if _, err := os.Stat(extDir); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return installed, err
		}

		if err := os.MkdirAll(extDir, 0755); err != nil {
			return installed, fmt.Errorf("failed to create %s: %w", extDir, err)
		}
		data, err := json.MarshalIndent(b.Manifest, "", "  ")
		if err != nil {
			return installed, err
		}
		if err := os.WriteFile(filepath.Join(extDir, extension.ManifestFile), data, 0644); err != nil {
			return installed, fmt.Errorf("failed to write manifest for %s: %w", b.Manifest.ID, err)
		}
		installed = append(installed, b.Manifest.ID)
	}
	return installed, nil
}
