package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

type searchFlags struct {
	page     int
	location string
	jq       string
	timeout  time.Duration
}

// searchOutput is printed by the search command.
type searchOutput struct {
	Submit   string          `json:"submit"`
	Location string          `json:"location"`
	View     types.ViewState `json:"view"`
}

func newSearchCmd(root *rootFlags) *cobra.Command {
	flags := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search articles for a word and print the settled view state",
		Example: `  kotoba search 力士
  kotoba search 力士 --page 2 --jq '.page.article_results[].title'
  kotoba search --location '?q=力士&p=2'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			return runSearch(cmd, root, flags, query)
		},
	}
	cmd.Flags().IntVarP(&flags.page, "page", "p", 1, "result page number")
	cmd.Flags().StringVarP(&flags.location, "location", "l", "", "location query string, overrides query and --page")
	cmd.Flags().StringVar(&flags.jq, "jq", "", "jq expression applied to the view state")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "how long to wait for results (default: SETTLE_TIMEOUT_MS)")
	return cmd
}

func runSearch(cmd *cobra.Command, root *rootFlags, flags *searchFlags, query string) error {
	st, err := root.buildStack(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer st.Close()

	if flags.jq != "" {
		if err := st.Query.ValidateExpression(flags.jq); err != nil {
			return err
		}
	}

	var s types.Search
	if flags.location != "" {
		s, err = st.Location.Parse(flags.location)
	} else {
		s, err = st.Location.NewSearch(query, flags.page)
	}
	if err != nil {
		return fmt.Errorf("nothing to search for: %w", err)
	}

	result := st.Orchestrator.SubmitSearch(s)
	slog.Debug("search submitted", slog.String("query", s.Query), slog.Int("page", s.PageNum), slog.String("result", result.String()))

	timeout := flags.timeout
	if timeout <= 0 {
		timeout = st.Config.SettleTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	view, err := st.Orchestrator.Settle(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("no results within %s", timeout)
	}
	if err != nil {
		return err
	}

	if flags.jq != "" {
		res, err := st.Query.Project(view, flags.jq, 0)
		if err != nil {
			return err
		}
		for _, e := range res.Errors {
			slog.Warn("jq", slog.String("error", e))
		}
		for _, v := range res.Values {
			if err := writeJSON(cmd.OutOrStdout(), v); err != nil {
				return err
			}
		}
		return viewError(view)
	}

	if err := writeJSON(cmd.OutOrStdout(), searchOutput{
		Submit:   result.String(),
		Location: location.Encode(s),
		View:     view,
	}); err != nil {
		return err
	}
	return viewError(view)
}

// viewError turns a failed view into a non-zero exit.
func viewError(view types.ViewState) error {
	if view.Kind == types.ViewFailed {
		return fmt.Errorf("search failed: %s", view.Error)
	}
	return nil
}

func newLocationCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "location <query-string>",
		Short: "Parse a location query string into a normalized search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.loadConfig()
			s, err := location.NewParser(cfg.MaxQueryLength).Parse(args[0])
			out := struct {
				Search        types.Search `json:"search"`
				Location      string       `json:"location"`
				RedirectStart bool         `json:"redirect_start"`
				Reason        string       `json:"reason,omitempty"`
			}{Search: s, Location: location.Encode(s)}
			if err != nil {
				out.RedirectStart = location.IsRedirectToStart(err)
				out.Reason = err.Error()
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
