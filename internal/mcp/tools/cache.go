package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/kotoba-mcp/internal/cache"
)

// CacheStatsInput is the input for kotoba_cache_stats.
type CacheStatsInput struct {
	IncludeKeys bool `json:"include_keys,omitempty" jsonschema:"Include response cache keys in insertion order (oldest first)"`
}

// CacheStatsOutput is the output for kotoba_cache_stats.
type CacheStatsOutput struct {
	Backend        string      `json:"backend"`
	ResponseCache  cache.Stats `json:"response_cache"`
	Keys           []string    `json:"keys,omitzero"`
	PageCacheItems int         `json:"page_cache_items"`
}

// ToolCacheStats reports response cache and page cache statistics.
func ToolCacheStats(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CacheStatsInput) (*sdkmcp.CallToolResult, CacheStatsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CacheStatsInput) (*sdkmcp.CallToolResult, CacheStatsOutput, error) {
		out := CacheStatsOutput{Backend: d.CacheBackend}
		if d.ResponseCache != nil {
			out.ResponseCache = d.ResponseCache.Stats()
			if input.IncludeKeys {
				out.Keys = d.ResponseCache.Keys()
			}
		}
		if d.PageCache != nil {
			out.PageCacheItems = d.PageCache.Len()
		}
		return nil, out, nil
	}
}
