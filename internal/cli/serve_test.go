package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	charmlog "github.com/charmbracelet/log"

	"github.com/rubyline/rubyline/pkg/cache"
	"github.com/rubyline/rubyline/pkg/catalog"
)

func TestCatalogHandler(t *testing.T) {
	srv := newMirror(t)

	cfg := testConfig(srv.URL)
	logger := newLogger(io.Discard, charmlog.InfoLevel)
	handler := catalogHandler(cfg, cache.NewNullCache(), logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var cat map[string]catalog.Entry
	if err := json.Unmarshal(rr.Body.Bytes(), &cat); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if got := cat["3.2"].Version; got != "3.2.1" {
		t.Errorf("3.2 version = %q, want 3.2.1", got)
	}
}

func TestCatalogHandlerUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	logger := newLogger(io.Discard, charmlog.InfoLevel)
	handler := catalogHandler(cfg, cache.NewNullCache(), logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502; body: %s", rr.Code, rr.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not valid JSON: %v", err)
	}
	if body["code"] != "FETCH_FAILED" {
		t.Errorf("error code = %q, want FETCH_FAILED", body["code"])
	}
	if body["error"] == "" {
		t.Error("error body should carry a message")
	}
}
