package resolve

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rubyline/rubyline/pkg/integrations/rubycache"
)

const (
	digestA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	digestB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	digestC = "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
)

// fakeFetcher serves checksum sidecar files from a map keyed by URL.
type fakeFetcher struct {
	sums  map[string]map[string]string
	calls int
}

func (f *fakeFetcher) FetchChecksumFile(ctx context.Context, url string, refresh bool) (map[string]string, error) {
	f.calls++
	if sums, ok := f.sums[url]; ok {
		return sums, nil
	}
	return nil, errors.New("not found")
}

func row(name, url, sha256 string) rubycache.IndexRow {
	return rubycache.IndexRow{Name: name, URL: url, SHA256: sha256}
}

func TestResolve_InlineDigests(t *testing.T) {
	rows := []rubycache.IndexRow{
		row("ruby-3.2.1", "https://mirror/3.2/ruby-3.2.1.tar.gz", digestA),
		row("ruby-3.2.1", "https://mirror/3.2/ruby-3.2.1.tar.xz", digestB),
		row("ruby-3.3.0", "https://mirror/3.3/ruby-3.3.0.tar.gz", digestC),
		row("snapshot-master", "https://mirror/snapshot-master.tar.gz", digestA),
	}

	rels, err := Resolve(context.Background(), &fakeFetcher{}, rows, Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 releases, got %d", len(rels))
	}

	byName := make(map[string]int)
	for _, r := range rels {
		byName[r.Name] = len(r.URLs)
	}
	if byName["ruby-3.2.1"] != 2 {
		t.Errorf("ruby-3.2.1 artifacts = %d, want 2", byName["ruby-3.2.1"])
	}
	if byName["ruby-3.3.0"] != 1 {
		t.Errorf("ruby-3.3.0 artifacts = %d, want 1", byName["ruby-3.3.0"])
	}
	if _, ok := byName["snapshot-master"]; ok {
		t.Error("snapshot entry should be skipped")
	}
}

func TestResolve_UppercaseInlineDigest(t *testing.T) {
	upper := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	rows := []rubycache.IndexRow{row("ruby-3.2.1", "https://mirror/ruby-3.2.1.tar.gz", upper)}

	rels, err := Resolve(context.Background(), &fakeFetcher{}, rows, Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 release, got %d", len(rels))
	}
	if got := rels[0].Checksums["https://mirror/ruby-3.2.1.tar.gz"]; got != digestA {
		t.Errorf("digest = %q, want lowercased %q", got, digestA)
	}
}

func TestResolve_SidecarFallback(t *testing.T) {
	rows := []rubycache.IndexRow{
		row("ruby-2.7.0", "https://mirror/2.7/ruby-2.7.0.tar.gz", ""),
	}
	fetcher := &fakeFetcher{sums: map[string]map[string]string{
		"https://mirror/2.7/ruby-2.7.0.tar.gz.sha256": {"ruby-2.7.0.tar.gz": digestB},
	}}

	rels, err := Resolve(context.Background(), fetcher, rows, Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 release, got %d", len(rels))
	}
	if got := rels[0].Checksums["https://mirror/2.7/ruby-2.7.0.tar.gz"]; got != digestB {
		t.Errorf("digest = %q, want %q", got, digestB)
	}
	if fetcher.calls != 1 {
		t.Errorf("sidecar fetches = %d, want 1", fetcher.calls)
	}
}

func TestResolve_DropsUnverifiable(t *testing.T) {
	rows := []rubycache.IndexRow{
		row("ruby-3.2.2", "https://mirror/3.2/ruby-3.2.2.tar.gz", ""),
		row("ruby-3.2.1", "https://mirror/3.2/ruby-3.2.1.tar.gz", digestA),
	}

	var warnings []string
	opts := Options{Logger: func(msg string, args ...any) {
		warnings = append(warnings, msg)
	}}

	rels, err := Resolve(context.Background(), &fakeFetcher{}, rows, opts)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 release, got %d", len(rels))
	}
	if rels[0].Name != "ruby-3.2.1" {
		t.Errorf("surviving release = %q, want ruby-3.2.1", rels[0].Name)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for the dropped candidate")
	}
}

func TestResolve_PartialArtifactVerification(t *testing.T) {
	// One artifact verifiable, one not: the release survives with the
	// verified artifact only.
	rows := []rubycache.IndexRow{
		row("ruby-3.2.1", "https://mirror/ruby-3.2.1.tar.gz", digestA),
		row("ruby-3.2.1", "https://mirror/ruby-3.2.1.zip", "not-a-digest"),
	}

	rels, err := Resolve(context.Background(), &fakeFetcher{}, rows, Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 release, got %d", len(rels))
	}
	if len(rels[0].URLs) != 1 || rels[0].URLs[0] != "https://mirror/ruby-3.2.1.tar.gz" {
		t.Errorf("URLs = %v, want only the verified tar.gz", rels[0].URLs)
	}
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []rubycache.IndexRow{
		row("ruby-3.2.1", "https://mirror/ruby-3.2.1.tar.gz", digestA),
	}

	rels, err := Resolve(ctx, &fakeFetcher{}, rows, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if rels != nil {
		t.Error("cancelled Resolve returned a partial result")
	}
}

func TestResolve_OrderIndependent(t *testing.T) {
	rows := []rubycache.IndexRow{
		row("ruby-3.2.0", "https://mirror/ruby-3.2.0.tar.gz", digestA),
		row("ruby-3.2.1", "https://mirror/ruby-3.2.1.tar.gz", digestB),
		row("ruby-3.3.0", "https://mirror/ruby-3.3.0.tar.gz", digestC),
	}
	reversed := []rubycache.IndexRow{rows[2], rows[1], rows[0]}

	got1, err := Resolve(context.Background(), &fakeFetcher{}, rows, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got2, err := Resolve(context.Background(), &fakeFetcher{}, reversed, Options{})
	if err != nil {
		t.Fatal(err)
	}

	n1 := make([]string, 0, len(got1))
	n2 := make([]string, 0, len(got2))
	for _, r := range got1 {
		n1 = append(n1, r.Name)
	}
	for _, r := range got2 {
		n2 = append(n2, r.Name)
	}
	sort.Strings(n1)
	sort.Strings(n2)

	if len(n1) != len(n2) {
		t.Fatalf("result sizes differ: %d vs %d", len(n1), len(n2))
	}
	for i := range n1 {
		if n1[i] != n2[i] {
			t.Errorf("results differ at %d: %q vs %q", i, n1[i], n2[i])
		}
	}
}
