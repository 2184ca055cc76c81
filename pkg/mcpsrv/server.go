package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/kotoba-mcp/internal/app"
	"github.com/usestring/kotoba-mcp/internal/config"
	"github.com/usestring/kotoba-mcp/internal/logging"
	"github.com/usestring/kotoba-mcp/internal/mcp"
	"github.com/usestring/kotoba-mcp/internal/mcp/tools"
	"github.com/usestring/kotoba-mcp/pkg/client"
)

// Server is the kotoba MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	stack      *app.Stack
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin search tools.
//
// The client parameter provides access to the search API. When nil, a client
// is built from KOTOBA_API_BASE_URL and HTTP_CLIENT_TIMEOUT_MS.
// Use functional options to configure logging, add custom tools, etc.
func NewServer(c *client.Client, opts ...Option) (*Server, error) {
	// Build configuration from options
	cfg := &serverConfig{
		config: config.Load(), // Load defaults from environment
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// Setup logging
	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		Format:     cfg.config.LogFormat,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	if c == nil && cfg.httpClient != nil {
		c = client.New(
			client.WithBaseURL(cfg.config.APIBaseURL),
			client.WithHTTPClient(cfg.httpClient),
		)
	}

	var stackOpts []app.Option
	if c != nil {
		stackOpts = append(stackOpts, app.WithClient(c))
	}
	if cfg.store != nil {
		stackOpts = append(stackOpts, app.WithStore(cfg.store))
	}
	stack, err := app.Build(cfg.config, stackOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to build search stack: %w", err)
	}

	// Create deps for internal tools and custom tools
	toolDeps := &tools.Deps{
		Config:        cfg.config,
		Orchestrator:  stack.Orchestrator,
		ResponseCache: stack.ResponseCache,
		PageCache:     stack.PageCache,
		Location:      stack.Location,
		Query:         stack.Query,
		CacheBackend:  cfg.config.CacheBackend,
	}

	// Create public deps (same values, different type for public API)
	deps := &Deps{
		Client:        stack.Client,
		Config:        cfg.config,
		Fetcher:       stack.Fetcher,
		Orchestrator:  stack.Orchestrator,
		ResponseCache: stack.ResponseCache,
		PageCache:     stack.PageCache,
		Location:      stack.Location,
		Query:         stack.Query,
	}

	// Build internal server options
	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}

	// Add custom extension registration callbacks
	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}

	// Add deferred tool registrations (tools that need Deps access)
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	// Create internal server
	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		_ = stack.Close()
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		stack:      stack,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// When METRICS_ADDR is set it also serves Prometheus metrics over HTTP.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.stack.ServeMetrics(gctx, s.deps.Config.MetricsAddr)
	})
	g.Go(func() error {
		// The stdio session ending stops the metrics listener too.
		defer cancel()
		return s.internal.Run(gctx)
	})
	return g.Wait()
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if err := s.stack.Close(); err != nil {
		slog.Warn("failed to close cache storage", slog.String("error", err.Error()))
	}
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MetricsHandler returns an HTTP handler exposing the server's metrics, for
// hosts that mount it on their own mux instead of METRICS_ADDR.
func (s *Server) MetricsHandler() http.Handler {
	return s.stack.MetricsHandler()
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
