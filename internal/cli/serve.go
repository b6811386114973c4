package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockfmt/pkg/cache"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
	"github.com/matzehuels/blockfmt/pkg/server"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	shutdownTimeout = 10 * time.Second
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr          string
	noCache       bool
	redisAddr     string
	redisPassword string
	redisDB       int
	scope         string // key prefix for tenants sharing one backend
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: defaultAddr}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  POST /v1/format   format a fixture
  POST /v1/indent   indent query at an offset
  POST /v1/dump     wrapper tree dump
  GET  /healthz     liveness probe

Results are cached in the local cache directory, or in redis when
--redis-addr is set so several servers can share them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address for a shared cache (host:port)")
	cmd.Flags().StringVar(&opts.redisPassword, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "redis database number")
	cmd.Flags().StringVar(&opts.scope, "cache-scope", "", "prefix for cache keys, to share a backend between deployments")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	store, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if opts.scope != "" {
		keyer = cache.NewScopedKeyer(nil, opts.scope)
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	defer runner.Close()

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.addr, err)
	}

	srv := &http.Server{
		Handler:           server.New(runner, c.Logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	printSuccess("Serving on %s", StyleValue.Render("http://"+ln.Addr().String()))
	printDetail("ctrl+c to stop")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serveCache picks the cache backend for the server.
func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisAddr == "" {
		return newCache(false)
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:        opts.redisAddr,
		Password:    opts.redisPassword,
		DB:          opts.redisDB,
		Prefix:      appName + ":",
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Info("using redis cache", "addr", opts.redisAddr, "db", opts.redisDB)
	return rc, nil
}
