package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleUsageGuide serves the tool usage guide.
func HandleUsageGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# Kotoba Search: Tool Usage Guide\n\n")

		sb.WriteString("## Searching\n\n")
		sb.WriteString("| Goal | Call |\n")
		sb.WriteString("|------|------|\n")
		sb.WriteString("| Find articles using a word | `kotoba_search(query: \"力士\")` |\n")
		sb.WriteString("| Next page of the same word | `kotoba_search(query: \"力士\", page: 2)` |\n")
		sb.WriteString("| Reopen a shared location | `kotoba_search(location: \"?q=力士&p=2\")` |\n")
		sb.WriteString("| Re-read results without searching | `kotoba_view_state()` |\n")
		sb.WriteString("| Start over | `kotoba_reset()` |\n")

		sb.WriteString("\n**Key rules**:\n")
		sb.WriteString(fmt.Sprintf("- Queries are trimmed and width-normalized; empty queries or queries over %d characters return `redirect_start: true` and do not search\n", cfg.MaxQueryLength))
		sb.WriteString("- A new page of the same query reuses the loaded resource links; only a new query fetches them again\n")
		sb.WriteString("- Submitting the search that is already shown is a no-op (`submit: \"noop\"`)\n")
		sb.WriteString("- A failed search is not retried automatically; submit it again to retry\n")
		if cfg.KanaConvertType != "" {
			sb.WriteString(fmt.Sprintf("- Romaji input is converted server-side using `%s`\n", cfg.KanaConvertType))
		}

		sb.WriteString("\n## View State\n")
		sb.WriteString("- `kind` is one of `idle`, `loading`, `loaded`, `failed`\n")
		sb.WriteString("- `loading_scope` is `new_query` (results and resources loading) or `new_page` (results only)\n")
		sb.WriteString("- `settled: false` means the wait ran out; call `kotoba_view_state(wait_ms: 2000)` to keep waiting\n")
		sb.WriteString("- `page.search` is the search the server answered, which may carry a converted query\n")
		sb.WriteString("- Without jq, pass `compact: true` to trim long arrays and sample texts\n")

		sb.WriteString("\n## Resources\n")
		sb.WriteString("- `kotoba://view-state` - full view state (high context cost)\n")
		sb.WriteString("- `kotoba://page/{page}` - an already loaded page of the current query, no fetch\n")
		sb.WriteString("- `kotoba://cache/stats` - cache statistics\n")

		sb.WriteString("\n## jq Quick Reference (token-optimized)\n")
		sb.WriteString("- `.page.article_results[] | {title, source_name}` - headline list\n")
		sb.WriteString("- `.page.article_results[].main_sample_text.segments | map(.text) | add` - sample sentences as plain text\n")
		sb.WriteString("- `[.page.article_results[].main_sample_text.segments[] | select(.is_query_match) | .text] | unique` - matched forms\n")
		sb.WriteString("- `.resources.resource_link_sets[] | {resource_name, links: [.links[].resource_url]}` - dictionary links\n")
		sb.WriteString("- `{total: .page.total_results, next: .page.has_next_page}` - paging info\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for searching and reading results efficiently",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
