package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/kotoba-mcp/internal/mcp/tools"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

// Resource URI scheme: kotoba://
// Supported URIs:
//   kotoba://view-state
//   kotoba://cache/stats
//   kotoba://page/{page}  (page of the current query from the page cache)

const resourceScheme = "kotoba://"

// registerResources registers resources and their handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         resourceScheme + "view-state",
		Name:        "View State",
		Description: "The full current view state. High context cost - kotoba_view_state with a jq expression returns only what you need.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceViewState)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         resourceScheme + "cache/stats",
		Name:        "Cache Statistics",
		Description: "Response cache and page cache statistics.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.2,
		},
	}, s.handleResourceCacheStats)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: resourceScheme + "page/{page}",
		Name:        "Cached Result Page",
		Description: "A previously loaded result page of the current query, served from the page cache without fetching.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourcePage)
}

func (s *Server) handleResourceViewState(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return toResourceResult(req.Params.URI, s.deps.Orchestrator.CurrentViewState())
}

func (s *Server) handleResourceCacheStats(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	_, stats, err := tools.ToolCacheStats(s.deps)(ctx, nil, tools.CacheStatsInput{})
	if err != nil {
		return nil, err
	}
	return toResourceResult(req.Params.URI, stats)
}

func (s *Server) handleResourcePage(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	requested := s.deps.Orchestrator.Requested()
	if requested.IsEmpty() || s.deps.PageCache == nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	var pageNum int
	if _, err := fmt.Sscanf(params["page"], "%d", &pageNum); err != nil || pageNum < 1 {
		return nil, tools.ErrInvalidInput(fmt.Sprintf("invalid page number: %q", params["page"]))
	}

	page, ok := s.deps.PageCache.Page(types.Search{Query: requested.Query, PageNum: pageNum})
	if !ok {
		return nil, tools.ErrNotFound("cached page", params["page"])
	}
	return toResourceResult(req.Params.URI, page)
}

// Helper functions

// parseResourceURI extracts parameters from a kotoba:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected " + resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	params := make(map[string]string)

	switch parts[0] {
	case "page":
		if len(parts) < 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("page URI requires a page number")
		}
		params["page"] = parts[1]
	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}

	return params, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
