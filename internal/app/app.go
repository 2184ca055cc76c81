// Package app assembles the search client stack from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/usestring/kotoba-mcp/internal/apifetch"
	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/config"
	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/internal/metrics"
	"github.com/usestring/kotoba-mcp/internal/query"
	"github.com/usestring/kotoba-mcp/internal/search"
	"github.com/usestring/kotoba-mcp/internal/storage"
	"github.com/usestring/kotoba-mcp/pkg/client"
)

// Stack holds the wired components shared by the MCP server and the CLI.
type Stack struct {
	Config        *config.Config
	Client        *client.Client
	Store         storage.Store
	ResponseCache *cache.ResponseCache
	PageCache     *cache.PageCache
	Fetcher       *apifetch.Fetcher
	Orchestrator  *search.Orchestrator
	Location      *location.Parser
	Query         *query.Engine
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics

	closeStore func() error
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	client *client.Client
	store  storage.Store
}

// WithClient uses c instead of a client built from the configuration.
func WithClient(c *client.Client) Option {
	return func(o *buildOptions) {
		o.client = c
	}
}

// WithStore uses s as the response cache storage instead of the configured
// backend. The caller keeps ownership of s.
func WithStore(s storage.Store) Option {
	return func(o *buildOptions) {
		o.store = s
	}
}

// Build validates cfg and wires every component.
func Build(cfg *config.Config, opts ...Option) (*Stack, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	st := &Stack{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		Location: location.NewParser(cfg.MaxQueryLength),
		Query:    query.NewEngine(),
	}
	st.Metrics = metrics.New(st.Registry)

	st.Client = bo.client
	if st.Client == nil {
		st.Client = client.New(
			client.WithBaseURL(cfg.APIBaseURL),
			client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}),
		)
	}

	store, closeStore, err := openStore(cfg, bo.store)
	if err != nil {
		return nil, err
	}
	st.Store = store
	st.closeStore = closeStore

	st.ResponseCache = cache.NewResponseCache(store,
		cache.WithDefaultMaxAge(cfg.CacheDefaultMaxAge),
		cache.WithMetrics(st.Metrics),
	)

	st.PageCache, err = cache.NewPageCache(cfg.PageCacheMaxItems)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}

	st.Fetcher, err = apifetch.New(st.Client, st.ResponseCache,
		apifetch.WithKanaConvertType(cfg.KanaConvertType),
		apifetch.WithMetrics(st.Metrics),
	)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	st.Orchestrator = search.New(st.Fetcher,
		search.WithPageCache(st.PageCache),
		search.WithLoadingDelay(cfg.LoadingDelay),
		search.WithFetchTimeout(cfg.FetchTimeout),
		search.WithMetrics(st.Metrics),
	)

	slog.Debug("search stack ready",
		slog.String("api", st.Client.BaseURL()),
		slog.String("cache_backend", cfg.CacheBackend),
		slog.Int64("cache_quota_bytes", cfg.CacheQuotaBytes),
	)
	return st, nil
}

func openStore(cfg *config.Config, injected storage.Store) (storage.Store, func() error, error) {
	noop := func() error { return nil }
	if injected != nil {
		return injected, noop, nil
	}
	switch cfg.CacheBackend {
	case config.CacheBackendSQLite:
		s, err := storage.OpenSQLite(cfg.CachePath, cfg.CacheQuotaBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		return s, s.Close, nil
	default:
		return storage.NewMemoryStore(cfg.CacheQuotaBytes), noop, nil
	}
}

// Close stops the orchestrator and releases the cache storage.
func (s *Stack) Close() error {
	s.Orchestrator.Close()
	return s.closeStore()
}

// MetricsHandler exposes the stack's registry in the Prometheus text format.
func (s *Stack) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

// ServeMetrics serves the Prometheus registry on addr until ctx is done.
// An empty addr returns immediately.
func (s *Stack) ServeMetrics(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.MetricsHandler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
