package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/extension/extensiontest"
)

type stubExtension struct {
	extension.Base
	fail error
	runs int
}

// newTestManager loads one built-in "stub" extension with a single action and
// one broken directory.
func newTestManager(t *testing.T) (*extension.Manager, *stubExtension) {
	t.Helper()

	dir := t.TempDir()
	stubDir := filepath.Join(dir, "stub")
	if err := os.MkdirAll(stubDir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	manifest := `{"name": "Stub", "version": "1.0", "main": "builtin:stub"}`
	if err := os.WriteFile(filepath.Join(stubDir, extension.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "broken"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	stub := &stubExtension{}
	reg := extension.NewRegistry()
	reg.Register("stub", func(host extension.Host) (extension.Extension, error) {
		stub.Base = extension.NewBase(host)
		return stub, nil
	})

	m := extension.NewManager(dir, extensiontest.NewHost(nil), extension.WithRegistry(reg))
	if err := m.LoadExtensions(context.Background()); err != nil {
		t.Fatalf("LoadExtensions failed: %v", err)
	}
	return m, stub
}

func (s *stubExtension) Init(ctx context.Context) error {
	s.CreateAction("Run stub", func(ctx context.Context) error {
		s.runs++
		return s.fail
	}, "")
	return nil
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExtensionHandler_List(t *testing.T) {
	m, _ := newTestManager(t)
	handler := NewExtensionHandler(m)

	rec := serve(handler, http.MethodGet, "/api/extensions")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		Extensions []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
			Actions []struct {
				Label   string `json:"label"`
				Enabled bool   `json:"enabled"`
			} `json:"actions"`
		} `json:"extensions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Extensions) != 1 {
		t.Fatalf("expected 1 extension, got %d", len(response.Extensions))
	}
	ext := response.Extensions[0]
	if ext.ID != "stub" || ext.Name != "Stub" || !ext.Enabled {
		t.Errorf("unexpected extension %+v", ext)
	}
	if len(ext.Actions) != 1 || ext.Actions[0].Label != "Run stub" || !ext.Actions[0].Enabled {
		t.Errorf("unexpected actions %+v", ext.Actions)
	}
}

func TestExtensionHandler_Failures(t *testing.T) {
	m, _ := newTestManager(t)

	rec := serve(NewExtensionHandler(m), http.MethodGet, "/api/extensions/failures")

	var response struct {
		Failures []failureResponse `json:"failures"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(response.Failures))
	}
	if response.Failures[0].ID != "broken" || response.Failures[0].Reason != extension.ErrManifestMissing.Error() {
		t.Errorf("unexpected failure %+v", response.Failures[0])
	}
}

func TestExtensionHandler_GetAndToggle(t *testing.T) {
	m, _ := newTestManager(t)
	handler := NewExtensionHandler(m)

	if rec := serve(handler, http.MethodGet, "/api/extensions/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if rec := serve(handler, http.MethodPost, "/api/extensions/missing/toggle"); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if rec := serve(handler, http.MethodGet, "/api/extensions/stub/toggle"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	rec := serve(handler, http.MethodPost, "/api/extensions/stub/toggle")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var info struct {
		Enabled bool `json:"enabled"`
	}
	json.NewDecoder(rec.Body).Decode(&info)
	if info.Enabled {
		t.Error("expected the extension to be disabled")
	}

	rec = serve(handler, http.MethodGet, "/api/extensions/stub")
	json.NewDecoder(rec.Body).Decode(&info)
	if info.Enabled {
		t.Error("expected GET to report the disabled state")
	}
}

func TestExtensionHandler_Trigger(t *testing.T) {
	m, stub := newTestManager(t)
	handler := NewExtensionHandler(m)

	info, _ := m.Info("stub")
	actionPath := "/api/extensions/actions/" + info.Actions[0].ID

	if rec := serve(handler, http.MethodPost, actionPath); rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if stub.runs != 1 {
		t.Errorf("expected 1 run, got %d", stub.runs)
	}

	stub.fail = errors.New("page is gone")
	rec := serve(handler, http.MethodPost, actionPath)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}

	if rec := serve(handler, http.MethodPost, "/api/extensions/actions/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	m.Toggle(context.Background(), "stub")
	if rec := serve(handler, http.MethodPost, actionPath); rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestExtensionHandler_Schema(t *testing.T) {
	m, _ := newTestManager(t)

	rec := serve(NewExtensionHandler(m), http.MethodGet, "/api/extensions/schema")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var schema struct {
		Required []string `json:"required"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&schema); err != nil {
		t.Fatalf("failed to decode schema: %v", err)
	}
	if len(schema.Required) != 2 {
		t.Errorf("expected 2 required fields, got %v", schema.Required)
	}
}
