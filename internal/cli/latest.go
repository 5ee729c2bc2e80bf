package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// latestOpts holds the command-line flags for the latest command.
type latestOpts struct {
	refresh bool   // bypass the HTTP response cache
	noCache bool   // disable the cache entirely for this run
	pretty  bool   // indent the JSON output
	output  string // output file path (stdout if empty)
}

// newLatestCmd creates the latest command: the fetch → parse → resolve →
// aggregate → serialize pipeline, with the catalog written to stdout.
//
// The JSON document is written only after the whole pipeline succeeds, so a
// consumer on the other end of a pipe never sees partial output. An empty
// catalog prints "{}" and exits zero; deciding whether that is actionable
// is the caller's job.
func newLatestCmd() *cobra.Command {
	var opts latestOpts

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the latest Ruby release per minor version line as JSON",
		Long: `Fetch the Ruby release index, select the latest release of every minor
version line, and print the result as a JSON object keyed by "major.minor".

A stable release always beats a pre-release within the same line, even when
the pre-release has a higher patch. Releases without a verifiable SHA-256
checksum are skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			backend, err := newCacheBackend(ctx, cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			cat, err := buildCatalog(ctx, cfg, backend, opts.refresh, logger)
			if err != nil {
				return err
			}

			out := os.Stdout
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return cat.Write(out, opts.pretty)
		},
	}

	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache for this run")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}
