package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/rubyline/rubyline/internal/config"
	"github.com/rubyline/rubyline/pkg/cache"
	rerrors "github.com/rubyline/rubyline/pkg/errors"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// serve command receives a termination signal.
const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve command: an HTTP server exposing the
// catalog, for pipelines that prefer polling an endpoint over exec'ing the
// binary. Each request rebuilds the catalog through the shared response
// cache, so the mirror is only hit when cached entries expire.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the release catalog over HTTP",
		Long: `Start an HTTP server exposing the catalog:

  GET /v1/catalog     the JSON catalog (add ?refresh=1 to bypass the cache)
  GET /healthz        liveness probe

Responses are built through the configured response cache; pair this with
the redis backend when running more than one instance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			backend, err := newCacheBackend(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer backend.Close()

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.RealIP)
			r.Use(middleware.Recoverer)
			r.Use(requestLogger(logger))

			r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Write([]byte("ok\n"))
			})
			r.Get("/v1/catalog", catalogHandler(cfg, backend, logger))

			srv := &http.Server{
				Addr:    addr,
				Handler: r,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			go func() {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = srv.Shutdown(sctx)
			}()

			logger.Infof("Listening on %s", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

// catalogHandler serves the catalog document. Pipeline failures surface as
// 502 with a JSON error body; the catalog itself is never served partially.
func catalogHandler(cfg config.Config, backend cache.Cache, logger *charmlog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		refresh := req.URL.Query().Get("refresh") == "1" || req.URL.Query().Get("refresh") == "true"

		cat, err := buildCatalog(req.Context(), cfg, backend, refresh, logger)
		if err != nil {
			logger.Errorf("catalog build failed: %v", err)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": rerrors.UserMessage(err),
				"code":  string(rerrors.GetCode(err)),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := cat.Write(w, true); err != nil {
			logger.Errorf("write catalog response: %v", err)
		}
	}
}

// requestLogger logs one line per request with method, path, status, and
// duration, tagged with chi's request id.
func requestLogger(logger *charmlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)
			logger.Infof("%s %s %d (%s) id=%s",
				req.Method, req.URL.Path, ww.Status(),
				time.Since(start).Round(time.Millisecond),
				middleware.GetReqID(req.Context()))
		})
	}
}
