package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/config"
	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/internal/query"
	"github.com/usestring/kotoba-mcp/internal/search"
	"github.com/usestring/kotoba-mcp/internal/storage"
	"github.com/usestring/kotoba-mcp/pkg/client"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

type stubAPI struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (s *stubAPI) SearchPage(ctx context.Context, q types.Search) (*types.SearchResultPage, error) {
	s.mu.Lock()
	s.calls++
	err, block := s.err, s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &types.SearchResultPage{
		Search:       q,
		TotalResults: 25,
		HasNextPage:  q.PageNum < 3,
		ArticleResults: []types.ArticleSearchResult{
			{ArticleID: 1, Title: fmt.Sprintf("%s p%d", q.Query, q.PageNum), SourceName: "NHK"},
		},
	}, nil
}

func (s *stubAPI) ResourceLinks(ctx context.Context, query string) (*types.SearchResources, error) {
	return &types.SearchResources{Query: query}, nil
}

func newTestDeps(t *testing.T, api search.API) *Deps {
	t.Helper()
	cfg := config.Load()
	cfg.SettleTimeout = 2 * time.Second

	pc, err := cache.NewPageCache(8)
	require.NoError(t, err)
	o := search.New(api, search.WithPageCache(pc), search.WithLoadingDelay(time.Hour))
	t.Cleanup(o.Close)

	return &Deps{
		Config:        cfg,
		Orchestrator:  o,
		ResponseCache: cache.NewResponseCache(storage.NewMemoryStore(1 << 20)),
		PageCache:     pc,
		Location:      location.NewParser(10),
		Query:         query.NewEngine(),
		CacheBackend:  config.CacheBackendMemory,
	}
}

func TestToolSearch_Loads(t *testing.T) {
	d := newTestDeps(t, &stubAPI{})

	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: " 力士 ", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, "loading", out.Submit)
	assert.False(t, out.RedirectStart)
	assert.Equal(t, "loaded", out.View.Kind)
	assert.True(t, out.View.Settled)
	assert.Equal(t, "p=2&q=%E5%8A%9B%E5%A3%AB", out.View.Location)
	assert.Contains(t, out.View.Hint, "page=3")

	state := out.View.State.(map[string]any)
	assert.Equal(t, "loaded", state["kind"])
}

func TestBuildViewOutput_Compact(t *testing.T) {
	d := newTestDeps(t, &stubAPI{})

	s := types.Search{Query: "力士", PageNum: 1}
	st := types.ViewState{
		Kind:   types.ViewLoaded,
		Search: &s,
		Page: &types.SearchResultPage{
			Search:         s,
			ArticleResults: make([]types.ArticleSearchResult, 5),
		},
	}

	out, err := d.buildViewOutput(st, true, "", true)
	require.NoError(t, err)
	page := out.State.(map[string]any)["page"].(map[string]any)
	results := page["article_results"].([]any)
	require.Len(t, results, 4)
	assert.Equal(t, "... (2 more items)", results[3])

	out, err = d.buildViewOutput(st, true, "", false)
	require.NoError(t, err)
	page = out.State.(map[string]any)["page"].(map[string]any)
	assert.Len(t, page["article_results"], 5)
}

func TestToolSearch_Location(t *testing.T) {
	d := newTestDeps(t, &stubAPI{})

	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{
		Location: "?q=OB&p=3",
		JQ:       ".page.article_results[].title",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"OB p3"}, out.View.Values)
	assert.Nil(t, out.View.State)
	assert.Empty(t, out.View.Hint, "last page has no next-page hint")
}

func TestToolSearch_RedirectStart(t *testing.T) {
	api := &stubAPI{}
	d := newTestDeps(t, api)

	for _, input := range []SearchInput{
		{Query: "　"},
		{Query: "あいうえおかきくけこさ"},
		{Location: "?p=2"},
	} {
		_, out, err := ToolSearch(d)(context.Background(), nil, input)
		require.NoError(t, err)
		assert.True(t, out.RedirectStart)
		assert.Equal(t, "redirect_start", out.Submit)
		assert.Equal(t, "idle", out.View.Kind)
	}
	assert.Zero(t, api.calls)
}

func TestToolSearch_InvalidJQ(t *testing.T) {
	d := newTestDeps(t, &stubAPI{})

	_, _, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "OB", JQ: ".page["})

	var coded *CodedError
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, ErrCodeInvalidInput, coded.Code)
}

func TestToolSearch_Failure(t *testing.T) {
	d := newTestDeps(t, &stubAPI{err: &client.APIError{StatusCode: 500, Message: "index offline"}})

	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "OB"})
	require.NoError(t, err)
	assert.Equal(t, "failed", out.View.Kind)
	assert.Contains(t, out.View.Hint, "index offline")
}

func TestToolSearch_NotSettled(t *testing.T) {
	api := &stubAPI{block: make(chan struct{})}
	defer close(api.block)
	d := newTestDeps(t, api)

	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "OB", WaitMs: 10})
	require.NoError(t, err)
	assert.Equal(t, "loading", out.View.Kind)
	assert.False(t, out.View.Settled)
	assert.Contains(t, out.View.Hint, "kotoba_view_state")
}

func TestToolViewStateAndReset(t *testing.T) {
	d := newTestDeps(t, &stubAPI{})

	_, _, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "OB"})
	require.NoError(t, err)

	_, view, err := ToolViewState(d)(context.Background(), nil, ViewStateInput{JQ: ".search.query"})
	require.NoError(t, err)
	assert.Equal(t, []any{"OB"}, view.Values)

	_, reset, err := ToolReset(d)(context.Background(), nil, ResetInput{})
	require.NoError(t, err)
	assert.Equal(t, "idle", reset.Kind)
	assert.Empty(t, reset.Location)
}

func TestToolCacheStats(t *testing.T) {
	d := newTestDeps(t, &stubAPI{})
	d.ResponseCache.PutWithExpiry("http://example.test/api/search?q=OB", []byte(`{}`), 1<<62)

	_, _, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "OB"})
	require.NoError(t, err)

	_, out, err := ToolCacheStats(d)(context.Background(), nil, CacheStatsInput{IncludeKeys: true})
	require.NoError(t, err)
	assert.Equal(t, "memory", out.Backend)
	assert.Equal(t, 1, out.ResponseCache.Keys)
	assert.Equal(t, []string{"http://example.test/api/search?q=OB"}, out.Keys)
	assert.Equal(t, 1, out.PageCacheItems)
}

func TestWrapAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", &client.APIError{StatusCode: 404, Message: "no such page"}, ErrCodeNotFound},
		{"server", fmt.Errorf("fetching: %w", &client.APIError{StatusCode: 502, Message: "bad gateway"}), ErrCodeAPIError},
		{"deadline", fmt.Errorf("fetching: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"other", errors.New("connection refused"), ErrCodeAPIError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var coded *CodedError
			require.ErrorAs(t, WrapAPIError(tt.err), &coded)
			assert.Equal(t, tt.code, coded.Code)
		})
	}
	assert.NoError(t, WrapAPIError(nil))
}
