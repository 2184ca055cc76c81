package main

import (
	"github.com/spf13/cobra"

	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/config"
)

func newCacheCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the response cache",
	}

	var includeKeys bool
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print response cache statistics",
		Long:  "Print response cache statistics. Only the sqlite backend persists entries between runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := root.buildStack(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			out := struct {
				Backend string      `json:"backend"`
				Path    string      `json:"path,omitempty"`
				Stats   cache.Stats `json:"stats"`
				Keys    []string    `json:"keys,omitzero"`
			}{
				Backend: st.Config.CacheBackend,
				Stats:   st.ResponseCache.Stats(),
			}
			if out.Backend == config.CacheBackendSQLite {
				out.Path = st.Config.CachePath
			}
			if includeKeys {
				out.Keys = st.ResponseCache.Keys()
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	stats.Flags().BoolVar(&includeKeys, "keys", false, "include cached URLs, oldest first")

	cmd.AddCommand(stats)
	return cmd
}
