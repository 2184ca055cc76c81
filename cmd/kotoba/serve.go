package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/kotoba-mcp/pkg/mcpsrv"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long:  "Run the MCP server on stdio. Configuration comes from the environment; see kotoba-mcp.",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcpsrv.NewServer(nil)
			if err != nil {
				return err
			}
			defer server.Close()

			slog.Info("starting kotoba MCP server on stdio")
			if err := server.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
