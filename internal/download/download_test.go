package download

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/surfshell/internal/store"
)

var pdf = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

type memRecorder struct {
	downloads []*store.Download
}

func (r *memRecorder) Create(ctx context.Context, d *store.Download) error {
	r.downloads = append(r.downloads, d)
	return nil
}

func TestDisplayable(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        bool
	}{
		{"html", "text/html; charset=utf-8", nil, true},
		{"xhtml", "application/xhtml+xml", nil, true},
		{"plain", "text/plain", nil, true},
		{"pdf", "application/pdf", pdf, false},
		{"zip", "application/zip", nil, false},
		{"sniffed html", "", []byte("<!DOCTYPE html><html><body>x</body></html>"), true},
		{"sniffed pdf", "application/octet-stream", pdf, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Displayable(tt.contentType, tt.body))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "report.pdf", FileName("https://example.org/files/report.pdf?x=1", ""))
	assert.Equal(t, "q3.pdf", FileName("https://example.org/get", `attachment; filename="q3.pdf"`))
	assert.Equal(t, "passwd", FileName("https://example.org/get", `attachment; filename="../../etc/passwd"`))
	assert.Equal(t, DefaultName, FileName("https://example.org/", ""))
	assert.Equal(t, DefaultName, FileName("::bad", ""))
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Downloads")
	rec := &memRecorder{}
	m := NewManager(dir, rec)
	ctx := context.Background()

	d, err := m.Save(ctx, "https://example.org/files/report.pdf", "", pdf)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), d.Path)
	assert.Equal(t, "application/pdf", d.MIME)
	assert.Equal(t, int64(len(pdf)), d.Size)

	data, err := os.ReadFile(d.Path)
	require.NoError(t, err)
	assert.Equal(t, pdf, data)

	again, err := m.Save(ctx, "https://example.org/files/report.pdf", "", pdf)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report (1).pdf"), again.Path)

	require.Len(t, rec.downloads, 2)
}

func TestSave_AddsExtensionFromContent(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	d, err := m.Save(context.Background(), "https://example.org/export", "", pdf)
	require.NoError(t, err)
	assert.Equal(t, "export.pdf", filepath.Base(d.Path))
}
