package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "kotoba_search",
		Description: "Search Japanese news articles for a word or phrase and return the resulting view state: the result page (articles with query-match segments) and dictionary resource links. Pass page for later pages of the same query; resource links are reused. Returns {submit, redirect_start, view: {kind, settled, location, state|values, hint}}. An empty or too-long query returns redirect_start=true instead of searching.",
	}, ToolSearch(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "kotoba_view_state",
		Description: "Get the current search view state (idle, loading, loaded or failed). Use jq to project only what you need, e.g. '.page.article_results[] | {title, source_name}', or compact=true to trim long arrays and strings.",
	}, ToolViewState(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "kotoba_reset",
		Description: "Clear the current search and return to idle. Responses still in flight are discarded.",
	}, ToolReset(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "kotoba_cache_stats",
		Description: "Report response cache statistics (keys, hits, misses, expired lookups, evictions, write failures) and the page cache size.",
	}, ToolCacheStats(d))
}
