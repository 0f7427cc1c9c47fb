// Package download saves non-page responses to the download directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ayusman/surfshell/internal/logging"
	"github.com/ayusman/surfshell/internal/store"
)

// DefaultName is used when neither the response nor the URL names the file.
const DefaultName = "download"

// Recorder stores completed downloads.
type Recorder interface {
	Create(ctx context.Context, d *store.Download) error
}

// Manager writes downloads into a directory and records them.
type Manager struct {
	dir      string
	recorder Recorder
}

// NewManager creates a Manager saving into dir. recorder may be nil.
func NewManager(dir string, recorder Recorder) *Manager {
	return &Manager{dir: dir, recorder: recorder}
}

// Dir returns the download directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Displayable reports whether a response should be shown as a page rather
// than saved. A missing or generic content type is sniffed from the body.
func Displayable(contentType string, body []byte) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	case "", "application/octet-stream":
		detected := mimetype.Detect(body)
		return detected.Is("text/html") || detected.Is("text/plain")
	default:
		return false
	}
}

// Save writes body to a fresh file named after disposition or the source
// URL and records it.
func (m *Manager) Save(ctx context.Context, src, disposition string, body []byte) (*store.Download, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	detected := mimetype.Detect(body)
	name := FileName(src, disposition)
	if filepath.Ext(name) == "" {
		name += detected.Extension()
	}

	target, err := uniquePath(m.dir, name)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, body, 0644); err != nil {
		return nil, fmt.Errorf("failed to write download: %w", err)
	}

	d := &store.Download{
		URL:  src,
		Path: target,
		MIME: detected.String(),
		Size: int64(len(body)),
	}
	if m.recorder != nil {
		if err := m.recorder.Create(ctx, d); err != nil {
			return d, fmt.Errorf("failed to record download: %w", err)
		}
	}

	logging.FromContext(ctx).Info().
		Str("url", src).
		Str("path", target).
		Str("mime", d.MIME).
		Int64("size", d.Size).
		Msg("download saved")
	return d, nil
}

// FileName picks a file name from a Content-Disposition header, falling
// back to the last segment of the URL path.
func FileName(src, disposition string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := sanitize(params["filename"]); name != "" {
			return name
		}
	}
	if u, err := url.Parse(src); err == nil {
		if name := sanitize(path.Base(u.Path)); name != "" {
			return name
		}
	}
	return DefaultName
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	switch name {
	case ".", "..", "/", "":
		return ""
	}
	return name
}

// uniquePath returns dir/name, or dir/"stem (n).ext" if it is taken.
func uniquePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
