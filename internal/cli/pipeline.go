package cli

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/rubyline/rubyline/internal/config"
	"github.com/rubyline/rubyline/pkg/cache"
	"github.com/rubyline/rubyline/pkg/catalog"
	"github.com/rubyline/rubyline/pkg/integrations/rubycache"
	"github.com/rubyline/rubyline/pkg/resolve"
)

// buildCatalog runs the full pipeline: fetch the release index, resolve
// checksums for every candidate, and aggregate the survivors into the
// catalog. A listing failure aborts; per-candidate checksum failures are
// logged as warnings and the candidate is skipped.
func buildCatalog(ctx context.Context, cfg config.Config, backend cache.Cache, refresh bool, logger *log.Logger) (catalog.Catalog, error) {
	client, err := rubycache.NewClientWithBaseURL(backend, cfg.TTL(), cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	p := newProgress(logger)

	rows, err := client.FetchIndex(ctx, refresh)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Fetched %d index rows from %s", len(rows), client.BaseURL())

	releases, err := resolve.Resolve(ctx, client, rows, resolve.Options{
		Refresh: refresh,
		Logger:  logger.Warnf,
	})
	if err != nil {
		return nil, err
	}

	cat := catalog.Build(releases)
	p.done("Selected %d minor lines from %d verified releases", len(cat), len(releases))
	return cat, nil
}
