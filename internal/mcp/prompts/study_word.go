package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleStudyWord walks through studying a word from its use in articles.
func HandleStudyWord(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		word := ""
		level := "intermediate"
		if args := req.Params.Arguments; args != nil {
			word = strings.TrimSpace(args["word"])
			if v := strings.TrimSpace(args["level"]); v != "" {
				level = v
			}
		}

		var sb strings.Builder

		sb.WriteString("# Study a Word in Context\n\n")
		if word != "" {
			sb.WriteString(fmt.Sprintf("**Word**: %s\n", word))
		} else {
			sb.WriteString("**Word**: ask the learner which word to study before searching.\n")
		}
		sb.WriteString(fmt.Sprintf("**Learner level**: %s\n\n", level))

		sb.WriteString("## Workflow\n\n")
		sb.WriteString("1. **Search**: ")
		if word != "" {
			sb.WriteString(fmt.Sprintf("`kotoba_search(query: %q, jq: \"{total: .page.total_results, titles: [.page.article_results[].title]}\")`\n", word))
		} else {
			sb.WriteString("`kotoba_search(query: <word>, jq: \"{total: .page.total_results, titles: [.page.article_results[].title]}\")`\n")
		}
		sb.WriteString("2. **Collect examples**: `kotoba_view_state(jq: \".page.article_results[] | {title, sample: (.main_sample_text.segments | map(.text) | add)}\")`\n")
		sb.WriteString("3. **Dictionary links**: `kotoba_view_state(jq: \".resources.resource_link_sets\")`\n")
		sb.WriteString("4. **More examples if needed**: repeat step 1 with `page: 2`; resource links are kept\n\n")

		sb.WriteString("## Output\n")
		sb.WriteString("- Pick 3-5 sample sentences suited to the learner level and explain the word's meaning in each\n")
		sb.WriteString("- Note differences in form or usage across the matched segments (`is_query_match: true`)\n")
		sb.WriteString("- Cite each article by title and source name\n")
		sb.WriteString(fmt.Sprintf("- If the search returns `redirect_start`, the word was empty or over %d characters; ask for a shorter form\n", cfg.MaxQueryLength))
		sb.WriteString("- If the search failed, say so and offer to retry; do not invent examples\n")

		return &sdkmcp.GetPromptResult{
			Description: "Study a Japanese word through its use in news articles",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
