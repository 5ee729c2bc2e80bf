package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"

	"github.com/rubyline/rubyline/internal/config"
	"github.com/rubyline/rubyline/pkg/cache"
	rerrors "github.com/rubyline/rubyline/pkg/errors"
)

func hexDigest(c string) string {
	return strings.Repeat(c, 64)
}

// newMirror starts a test server mimicking the release mirror: an index at
// /index.txt plus a sidecar checksum file for ruby-3.3.0. The 3.3.1 and
// 3.4.0-preview1 rows carry no inline digest and have no sidecar, so the
// resolver must drop them.
func newMirror(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/index.txt", func(w http.ResponseWriter, r *http.Request) {
		base := srv.URL
		var sb strings.Builder
		sb.WriteString("name\turl\tsha1\tsha256\tsha512\n")
		row := func(name, file, sha256 string) {
			fmt.Fprintf(&sb, "%s\t%s/%s\t\t%s\t\n", name, base, file, sha256)
		}
		row("ruby-3.2.0", "ruby-3.2.0.tar.gz", hexDigest("a"))
		row("ruby-3.2.1", "ruby-3.2.1.tar.gz", hexDigest("b"))
		row("ruby-3.2.1", "ruby-3.2.1.tar.xz", hexDigest("c"))
		row("ruby-3.2.2-preview1", "ruby-3.2.2-preview1.tar.gz", hexDigest("d"))
		row("ruby-3.3.0", "ruby-3.3.0.tar.gz", "")
		row("ruby-3.3.1", "ruby-3.3.1.tar.gz", "")
		row("ruby-3.4.0-preview1", "ruby-3.4.0-preview1.tar.gz", "")
		sb.WriteString("snapshot-master\t" + base + "/snapshot-master.tar.gz\t\t\t\n")
		io.WriteString(w, sb.String())
	})
	mux.HandleFunc("/ruby-3.3.0.tar.gz.sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  ruby-3.3.0.tar.gz\n", hexDigest("e"))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Cache.Backend = config.BackendNone
	return cfg
}

func TestBuildCatalog(t *testing.T) {
	srv := newMirror(t)

	cfg := testConfig(srv.URL)
	logger := newLogger(io.Discard, charmlog.DebugLevel)

	cat, err := buildCatalog(context.Background(), cfg, cache.NewNullCache(), false, logger)
	if err != nil {
		t.Fatalf("buildCatalog() error = %v", err)
	}

	if len(cat) != 2 {
		t.Fatalf("got %d minor lines %v, want 2", len(cat), cat)
	}

	// The stable 3.2.1 beats both the older 3.2.0 and the newer
	// 3.2.2-preview1.
	line32, ok := cat["3.2"]
	if !ok {
		t.Fatal(`catalog missing "3.2"`)
	}
	if line32.Version != "3.2.1" {
		t.Errorf("3.2 version = %q, want 3.2.1", line32.Version)
	}
	if len(line32.URLs) != 2 {
		t.Errorf("3.2 urls = %v, want both 3.2.1 artifacts", line32.URLs)
	}
	wantGz := srv.URL + "/ruby-3.2.1.tar.gz"
	if got := line32.Checksums[wantGz]; got != hexDigest("b") {
		t.Errorf("3.2 checksum for %s = %q, want %q", wantGz, got, hexDigest("b"))
	}

	// 3.3.1 has no verifiable checksum, so the line falls back to 3.3.0,
	// whose digest comes from the sidecar file.
	line33, ok := cat["3.3"]
	if !ok {
		t.Fatal(`catalog missing "3.3"`)
	}
	if line33.Version != "3.3.0" {
		t.Errorf("3.3 version = %q, want 3.3.0", line33.Version)
	}
	wantURL := srv.URL + "/ruby-3.3.0.tar.gz"
	if got := line33.Checksums[wantURL]; got != hexDigest("e") {
		t.Errorf("3.3 checksum = %q, want sidecar digest %q", got, hexDigest("e"))
	}

	// The only 3.4 candidate is unverifiable; the line must be absent
	// rather than present without checksums.
	if _, ok := cat["3.4"]; ok {
		t.Error(`catalog contains "3.4" despite no verifiable release`)
	}
}

func TestBuildCatalogIndexUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	logger := newLogger(io.Discard, charmlog.InfoLevel)

	cat, err := buildCatalog(context.Background(), cfg, cache.NewNullCache(), false, logger)
	if err == nil {
		t.Fatal("buildCatalog() expected error for missing index")
	}
	if !rerrors.Is(err, rerrors.ErrCodeFetchFailed) {
		t.Errorf("error code = %v, want %v", rerrors.GetCode(err), rerrors.ErrCodeFetchFailed)
	}
	if cat != nil {
		t.Errorf("catalog = %v, want nil on fatal error", cat)
	}
}

func TestBuildCatalogInvalidBaseURL(t *testing.T) {
	logger := newLogger(io.Discard, charmlog.InfoLevel)
	cfg := testConfig("http://example.com/pub/ruby") // http on a non-loopback host

	_, err := buildCatalog(context.Background(), cfg, cache.NewNullCache(), false, logger)
	if !rerrors.Is(err, rerrors.ErrCodeInvalidBaseURL) {
		t.Errorf("error = %v, want code %v", err, rerrors.ErrCodeInvalidBaseURL)
	}
}
