// Package resolve turns raw index rows into verified release candidates.
//
// Each candidate's artifacts must carry a SHA-256 digest before the
// candidate may enter the catalog. Digests usually come inline from the
// index; artifacts with a blank or malformed inline digest get one fallback
// attempt against a sha256sum sidecar file next to the artifact. Candidates
// with no verifiable artifact at all are dropped with a warning; one
// malformed entry must not block discovery of every other minor line.
package resolve

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	rerrors "github.com/rubyline/rubyline/pkg/errors"
	"github.com/rubyline/rubyline/pkg/integrations/rubycache"
	"github.com/rubyline/rubyline/pkg/release"
)

// errMalformedDigest is returned when a sidecar file exists but carries no
// well-formed digest for the artifact.
var errMalformedDigest = rerrors.New(rerrors.ErrCodeChecksumInvalid, "sidecar digest missing or malformed")

// workers is the number of concurrent goroutines for checksum lookups.
// This limits parallelism to prevent overwhelming the mirror and to bound
// memory usage. Each worker consumes one candidate at a time from a
// buffered channel.
const workers = 8

// Fetcher retrieves checksum sidecar files from the mirror.
//
// [rubycache.Client] is the standard implementation. Fetch must be safe for
// concurrent use by multiple goroutines and should respect context
// cancellation.
type Fetcher interface {
	FetchChecksumFile(ctx context.Context, url string, refresh bool) (map[string]string, error)
}

// Options controls checksum resolution.
type Options struct {
	// Refresh bypasses the HTTP response cache for sidecar fetches.
	Refresh bool

	// Logger receives warnings about dropped candidates and unverifiable
	// artifacts. Nil disables warning output.
	Logger func(msg string, args ...any)
}

func (o Options) warnf(msg string, args ...any) {
	if o.Logger != nil {
		o.Logger(msg, args...)
	}
}

// candidate is one release awaiting checksum verification: a parsed name
// plus all of its index rows.
type candidate struct {
	name    string
	version *semver.Version
	rows    []rubycache.IndexRow
}

// Resolve verifies checksums for every release candidate in rows and
// returns the candidates whose artifacts could be verified.
//
// Rows whose name is not a version (snapshots and the like) are skipped
// silently. Candidates run through a bounded worker pool; each worker owns
// its own result and the returned slice is assembled only after all
// lookups complete, so no shared mutable state crosses goroutines.
//
// Resolve returns ctx.Err() if the context is cancelled before resolution
// finishes; in that case no partial result is returned.
func Resolve(ctx context.Context, fetcher Fetcher, rows []rubycache.IndexRow, opts Options) ([]*release.Release, error) {
	cands := group(rows)

	jobs := make(chan candidate, workers*2)
	results := make(chan *release.Release, len(cands))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range jobs {
				if ctx.Err() != nil {
					continue // drain remaining jobs after cancellation
				}
				if rel := resolveCandidate(ctx, fetcher, cand, opts); rel != nil {
					results <- rel
				}
			}
		}()
	}

dispatch:
	for _, cand := range cands {
		select {
		case jobs <- cand:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	releases := make([]*release.Release, 0, len(cands))
	for rel := range results {
		releases = append(releases, rel)
	}
	return releases, nil
}

// group collects index rows by release name, skipping names that do not
// parse as versions.
func group(rows []rubycache.IndexRow) []candidate {
	byName := make(map[string]*candidate)
	var order []string

	for _, row := range rows {
		if c, ok := byName[row.Name]; ok {
			c.rows = append(c.rows, row)
			continue
		}
		v, ok := release.ParseName(row.Name)
		if !ok {
			continue
		}
		byName[row.Name] = &candidate{name: row.Name, version: v, rows: []rubycache.IndexRow{row}}
		order = append(order, row.Name)
	}

	cands := make([]candidate, 0, len(order))
	for _, name := range order {
		cands = append(cands, *byName[name])
	}
	return cands
}

// resolveCandidate verifies the digests of one candidate's artifacts.
// Returns nil if no artifact could be verified.
func resolveCandidate(ctx context.Context, fetcher Fetcher, cand candidate, opts Options) *release.Release {
	verified := make(map[string]string, len(cand.rows))

	for _, row := range cand.rows {
		if digest := strings.ToLower(strings.TrimSpace(row.SHA256)); release.ValidDigest(digest) {
			verified[row.URL] = digest
			continue
		}

		digest, err := sidecarDigest(ctx, fetcher, row.URL, opts.Refresh)
		if err != nil {
			opts.warnf("no usable digest for %s: %v", row.URL, err)
			continue
		}
		verified[row.URL] = digest
	}

	if len(verified) == 0 {
		opts.warnf("dropping %s: no artifact with a verifiable checksum", cand.name)
		return nil
	}
	return release.New(cand.name, cand.version, verified)
}

// sidecarDigest fetches <url>.sha256 and extracts the digest for the
// artifact's filename.
func sidecarDigest(ctx context.Context, fetcher Fetcher, url string, refresh bool) (string, error) {
	sums, err := fetcher.FetchChecksumFile(ctx, url+".sha256", refresh)
	if err != nil {
		return "", err
	}

	digest := strings.ToLower(sums[path.Base(url)])
	if !release.ValidDigest(digest) {
		return "", errMalformedDigest
	}
	return digest, nil
}
