package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/kotoba-mcp/internal/app"
	"github.com/usestring/kotoba-mcp/internal/config"
	"github.com/usestring/kotoba-mcp/internal/logging"
	"github.com/usestring/kotoba-mcp/internal/mcp"
)

var (
	commit = "none"
	date   = "unknown"
)

type rootFlags struct {
	apiURL   string
	backend  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "kotoba",
		Short:         "Contextual search for Japanese words in news articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.apiURL, "api", "", "search API base URL (default: KOTOBA_API_BASE_URL)")
	root.PersistentFlags().StringVar(&flags.backend, "cache", "", "response cache backend: memory or sqlite (default: CACHE_BACKEND)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newSearchCmd(flags),
		newLocationCmd(flags),
		newCacheCmd(flags),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the environment and applies flag overrides.
func (f *rootFlags) loadConfig() *config.Config {
	cfg := config.Load()
	if f.apiURL != "" {
		cfg.APIBaseURL = f.apiURL
	}
	if f.backend != "" {
		cfg.CacheBackend = f.backend
	}
	cfg.LogLevel = f.logLevel
	return cfg
}

// buildStack sets up logging on w and wires the search stack.
func (f *rootFlags) buildStack(w io.Writer) (*app.Stack, error) {
	cfg := f.loadConfig()
	handler := logging.NewHandler(w, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(slog.New(handler))
	return app.Build(cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kotoba %s (commit: %s, built: %s)\n", mcp.Version, commit, date)
		},
	}
}
