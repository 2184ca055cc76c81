package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "kotoba_usage_guide",
		Description: "RECOMMENDED: How to search, page, and project results with jq without pulling whole view states into context.",
	}, HandleUsageGuide(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "study_word",
		Description: "Study a Japanese word through example sentences from news articles and dictionary links.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "word",
				Description: "The word or phrase to study (kanji, kana, or romaji)",
				Required:    false,
			},
			{
				Name:        "level",
				Description: "Learner level, e.g. beginner, intermediate, advanced (default: intermediate)",
				Required:    false,
			},
		},
	}, HandleStudyWord(cfg))
}
