package rubycache

import (
	"context"
	"strings"
	"time"

	"github.com/rubyline/rubyline/pkg/cache"
	rerrors "github.com/rubyline/rubyline/pkg/errors"
	"github.com/rubyline/rubyline/pkg/integrations"
)

// DefaultBaseURL is the canonical Ruby release mirror.
const DefaultBaseURL = "https://cache.ruby-lang.org/pub/ruby"

// Client provides access to the Ruby release index on cache.ruby-lang.org.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a release index client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (use cache.NewNullCache() for no caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "rubycache:", cacheTTL, nil),
		baseURL: DefaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against a non-default mirror.
// The URL must pass [rerrors.ValidateBaseURL]; tests point it at a local
// httptest server.
func NewClientWithBaseURL(backend cache.Cache, cacheTTL time.Duration, baseURL string) (*Client, error) {
	if err := rerrors.ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}
	c := NewClient(backend, cacheTTL)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c, nil
}

// BaseURL returns the mirror this client fetches from.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchIndex retrieves and parses the full release index.
//
// If refresh is true, the cache is bypassed and a fresh request is made.
// Rows are returned in index order; one row per artifact, multiple rows per
// release.
//
// Returns:
//   - [rerrors.ErrCodeFetchFailed] if the index cannot be retrieved
//   - [rerrors.ErrCodeInvalidIndex] if the body parses to nothing
//
// Both are fatal for a catalog run: an incomplete listing would silently
// produce wrong "latest" selections.
func (c *Client) FetchIndex(ctx context.Context, refresh bool) ([]IndexRow, error) {
	url := c.baseURL + "/index.txt"

	var rows []IndexRow
	err := c.Cached(ctx, "index", refresh, &rows, func() error {
		body, err := c.GetText(ctx, url)
		if err != nil {
			return err
		}
		rows, err = parseIndex(body)
		return err
	})
	if err != nil {
		if rerrors.Is(err, rerrors.ErrCodeInvalidIndex) {
			return nil, err
		}
		return nil, rerrors.Wrap(rerrors.ErrCodeFetchFailed, err, "fetch %s", url)
	}
	return rows, nil
}

// FetchChecksumFile retrieves a sha256sum-format checksum file and returns
// its filename → digest mapping.
//
// Failures here are recoverable at the pipeline level; callers drop the
// affected candidate and continue.
func (c *Client) FetchChecksumFile(ctx context.Context, url string, refresh bool) (map[string]string, error) {
	var sums map[string]string
	err := c.Cached(ctx, "sums:"+url, refresh, &sums, func() error {
		body, err := c.GetText(ctx, url)
		if err != nil {
			return err
		}
		sums = parseChecksumFile(body)
		if len(sums) == 0 {
			return rerrors.New(rerrors.ErrCodeChecksumUnavailable, "no digests in %s", url)
		}
		return nil
	})
	if err != nil {
		if rerrors.Is(err, rerrors.ErrCodeChecksumUnavailable) {
			return nil, err
		}
		return nil, rerrors.Wrap(rerrors.ErrCodeChecksumUnavailable, err, "fetch %s", url)
	}
	return sums, nil
}
