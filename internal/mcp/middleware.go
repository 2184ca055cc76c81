package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware returns middleware that logs incoming method calls. Tool
// calls carry the tool name and the search they were asked for, resource reads
// carry the URI.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()

			result, err := next(ctx, method, req)

			attrs := []slog.Attr{
				slog.String("method", method),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			attrs = append(attrs, requestAttrs(req)...)

			switch {
			case err != nil:
				attrs = append(attrs, slog.String("error", err.Error()))
				slog.LogAttrs(ctx, slog.LevelError, "method call failed", attrs...)
			case isToolError(result):
				slog.LogAttrs(ctx, slog.LevelWarn, "tool returned an error", attrs...)
			default:
				slog.LogAttrs(ctx, slog.LevelInfo, "method call completed", attrs...)
			}

			return result, err
		}
	}
}

// searchArgs are the tool arguments worth logging.
type searchArgs struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

func requestAttrs(req sdkmcp.Request) []slog.Attr {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		if r.Params == nil {
			return nil
		}
		attrs := []slog.Attr{slog.String("tool", r.Params.Name)}
		var args searchArgs
		if len(r.Params.Arguments) > 0 && json.Unmarshal(r.Params.Arguments, &args) == nil {
			if args.Query != "" {
				attrs = append(attrs, slog.String("query", args.Query))
			}
			if args.Page > 0 {
				attrs = append(attrs, slog.Int("page", args.Page))
			}
		}
		return attrs
	case *sdkmcp.ReadResourceRequest:
		if r.Params == nil {
			return nil
		}
		return []slog.Attr{slog.String("uri", r.Params.URI)}
	}
	return nil
}

func isToolError(result sdkmcp.Result) bool {
	r, ok := result.(*sdkmcp.CallToolResult)
	return ok && r != nil && r.IsError
}
