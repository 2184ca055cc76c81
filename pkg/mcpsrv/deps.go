package mcpsrv

import (
	"github.com/usestring/kotoba-mcp/internal/apifetch"
	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/config"
	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/internal/query"
	"github.com/usestring/kotoba-mcp/internal/search"
	"github.com/usestring/kotoba-mcp/pkg/client"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Client        *client.Client
	Config        *config.Config
	Fetcher       *apifetch.Fetcher
	Orchestrator  *search.Orchestrator
	ResponseCache *cache.ResponseCache
	PageCache     *cache.PageCache
	Location      *location.Parser
	Query         *query.Engine
}
