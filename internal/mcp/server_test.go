package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/config"
	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/internal/mcp/tools"
	"github.com/usestring/kotoba-mcp/internal/query"
	"github.com/usestring/kotoba-mcp/internal/search"
	"github.com/usestring/kotoba-mcp/internal/storage"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

type pageAPI struct{}

func (pageAPI) SearchPage(ctx context.Context, q types.Search) (*types.SearchResultPage, error) {
	return &types.SearchResultPage{Search: q, TotalResults: 1}, nil
}

func (pageAPI) ResourceLinks(ctx context.Context, query string) (*types.SearchResources, error) {
	return &types.SearchResources{Query: query}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	pc, err := cache.NewPageCache(4)
	require.NoError(t, err)
	o := search.New(pageAPI{}, search.WithPageCache(pc), search.WithLoadingDelay(time.Hour))
	t.Cleanup(o.Close)

	deps := &tools.Deps{
		Config:        config.Load(),
		Orchestrator:  o,
		ResponseCache: cache.NewResponseCache(storage.NewMemoryStore(1 << 20)),
		PageCache:     pc,
		Location:      location.NewParser(100),
		Query:         query.NewEngine(),
		CacheBackend:  config.CacheBackendMemory,
	}
	s, err := NewServer(deps, WithBuiltinTools(), WithBuiltinPrompts())
	require.NoError(t, err)
	return s
}

func readReq(uri string) *sdkmcp.ReadResourceRequest {
	return &sdkmcp.ReadResourceRequest{Params: &sdkmcp.ReadResourceParams{URI: uri}}
}

func settle(t *testing.T, s *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.deps.Orchestrator.Settle(ctx)
	require.NoError(t, err)
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)

	_, err = NewServer(&tools.Deps{})
	require.Error(t, err)
}

func TestResourceViewState(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleResourceViewState(context.Background(), readReq("kotoba://view-state"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, tools.MimeJSON, res.Contents[0].MIMEType)

	var st types.ViewState
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &st))
	assert.Equal(t, types.ViewIdle, st.Kind)
}

func TestResourceCacheStats(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleResourceCacheStats(context.Background(), readReq("kotoba://cache/stats"))
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"backend": "memory"`)
}

func TestResourcePage(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleResourcePage(context.Background(), readReq("kotoba://page/1"))
	require.Error(t, err, "no query yet")

	s.deps.Orchestrator.SubmitSearch(types.Search{Query: "猫", PageNum: 1})
	settle(t, s)

	res, err := s.handleResourcePage(context.Background(), readReq("kotoba://page/1"))
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"query": "猫"`)

	_, err = s.handleResourcePage(context.Background(), readReq("kotoba://page/2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")

	_, err = s.handleResourcePage(context.Background(), readReq("kotoba://page/zero"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_INPUT")
}

func TestParseResourceURI(t *testing.T) {
	params, err := parseResourceURI("kotoba://page/3")
	require.NoError(t, err)
	assert.Equal(t, "3", params["page"])

	for _, uri := range []string{"http://page/3", "kotoba://page/", "kotoba://unknown/1"} {
		_, err := parseResourceURI(uri)
		assert.Error(t, err, uri)
	}
}
