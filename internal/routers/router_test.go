package routers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"drawboard/internal/api"
	"drawboard/internal/board"
	"drawboard/internal/session"
	"drawboard/internal/utils"
)

func newHandler(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	h := api.NewHandlers(utils.NewLogger(), board.NewStore(), session.NewHub(), nil)
	return New(h, staticDir)
}

func TestRouterHealthEndpoint(t *testing.T) {
	server := httptest.NewServer(newHandler(t, ""))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	server := httptest.NewServer(newHandler(t, ""))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouterServesStaticClient(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	server := httptest.NewServer(newHandler(t, dir))
	defer server.Close()

	resp, err := http.Get(server.URL + "/index.html")
	if err != nil {
		t.Fatalf("static request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouterNoStaticWithoutDir(t *testing.T) {
	server := httptest.NewServer(newHandler(t, ""))
	defer server.Close()

	resp, err := http.Get(server.URL + "/index.html")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
