package apifetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/metrics"
	"github.com/usestring/kotoba-mcp/internal/storage"
	"github.com/usestring/kotoba-mcp/pkg/client"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

const searchBody = `{
	"convertedQuery": "りきし",
	"totalResults": 21,
	"pageNum": 2,
	"hasNextPage": true,
	"maxPageReached": false,
	"articleResults": [{
		"articleId": 7,
		"title": "初場所",
		"sourceName": "NHK",
		"sourceUrl": "https://example.jp/a/7",
		"publicationDatetime": "2024-01-14T18:00:00Z",
		"lastUpdatedDatetime": null,
		"instanceCount": 2,
		"tags": ["sumo"],
		"mainSampleText": {"segments": [{"text": "りきし", "isQueryMatch": true}, {"text": "です", "isQueryMatch": false}]},
		"moreSampleTexts": [{"segments": [{"text": "また", "isQueryMatch": false}]}]
	}]
}`

const resourcesBody = `{
	"convertedQuery": "りきし",
	"resourceLinkSets": [{
		"resourceName": "Jisho",
		"links": [{"linkText": "力士", "resourceUrl": "https://jisho.example/力士"}]
	}]
}`

type testServer struct {
	*httptest.Server
	searchHits    atomic.Int32
	resourcesHits atomic.Int32
	lastQuery     atomic.Value
}

func newTestServer(t *testing.T, search, resources string) *testServer {
	t.Helper()
	ts := &testServer{}
	mux := http.NewServeMux()
	mux.HandleFunc(client.SearchPath, func(w http.ResponseWriter, r *http.Request) {
		ts.searchHits.Add(1)
		ts.lastQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(search))
	})
	mux.HandleFunc(client.ResourceLinksPath, func(w http.ResponseWriter, r *http.Request) {
		ts.resourcesHits.Add(1)
		ts.lastQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resources))
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newFetcher(t *testing.T, ts *testServer, rc *cache.ResponseCache, opts ...Option) *Fetcher {
	t.Helper()
	c := client.New(client.WithBaseURL(ts.URL))
	f, err := New(c, rc, opts...)
	require.NoError(t, err)
	return f
}

func TestSearchPage_DecodesResponse(t *testing.T) {
	ts := newTestServer(t, searchBody, resourcesBody)
	f := newFetcher(t, ts, nil)

	page, err := f.SearchPage(context.Background(), types.Search{Query: "rikishi", PageNum: 2})
	require.NoError(t, err)

	assert.Equal(t, types.Search{Query: "りきし", PageNum: 2}, page.Search)
	assert.Equal(t, 21, page.TotalResults)
	assert.True(t, page.HasNextPage)
	require.Len(t, page.ArticleResults, 1)

	a := page.ArticleResults[0]
	assert.Equal(t, int64(7), a.ArticleID)
	assert.Nil(t, a.LastUpdatedDatetime)
	assert.Equal(t, "りきしです", a.MainSampleText.String())
	assert.True(t, a.MainSampleText.Segments[0].IsQueryMatch)
	require.Len(t, a.MoreSampleTexts, 1)
	assert.Equal(t, "p=2&q=rikishi", ts.lastQuery.Load())
}

func TestResourceLinks_DecodesResponse(t *testing.T) {
	ts := newTestServer(t, searchBody, resourcesBody)
	f := newFetcher(t, ts, nil)

	res, err := f.ResourceLinks(context.Background(), "rikishi")
	require.NoError(t, err)

	assert.Equal(t, "りきし", res.Query)
	require.Len(t, res.ResourceLinkSets, 1)
	assert.Equal(t, "Jisho", res.ResourceLinkSets[0].ResourceName)
	assert.Equal(t, []types.ResourceLink{{LinkText: "力士", ResourceURL: "https://jisho.example/力士"}}, res.ResourceLinkSets[0].Links)
}

func TestSearchPage_UsesResponseCache(t *testing.T) {
	ts := newTestServer(t, searchBody, resourcesBody)
	rc := cache.NewResponseCache(storage.NewMemoryStore(1 << 20))
	f := newFetcher(t, ts, rc)

	s := types.Search{Query: "rikishi", PageNum: 2}
	first, err := f.SearchPage(context.Background(), s)
	require.NoError(t, err)
	second, err := f.SearchPage(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), ts.searchHits.Load())
	assert.Equal(t, 1, rc.Len())
}

func TestSearchPage_IgnoresInvalidCachedBody(t *testing.T) {
	ts := newTestServer(t, searchBody, resourcesBody)
	rc := cache.NewResponseCache(storage.NewMemoryStore(1 << 20))
	f := newFetcher(t, ts, rc)

	s := types.Search{Query: "rikishi", PageNum: 2}
	key := f.client.URL(client.SearchPath, url.Values{"q": {"rikishi"}, "p": {"2"}})
	rc.PutWithExpiry(key, []byte(`{"unexpected": true}`), 1<<62)

	page, err := f.SearchPage(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 21, page.TotalResults)
	assert.Equal(t, int32(1), ts.searchHits.Load())
}

func TestSearchPage_SchemaViolationIsError(t *testing.T) {
	ts := newTestServer(t, `{"convertedQuery": "x"}`, resourcesBody)
	rc := cache.NewResponseCache(storage.NewMemoryStore(1 << 20))
	f := newFetcher(t, ts, rc)

	_, err := f.SearchPage(context.Background(), types.Search{Query: "x", PageNum: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "totalResults")
	assert.Zero(t, rc.Len(), "invalid responses must not be cached")
}

func TestSearchPage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"errorCode": "UPSTREAM", "errorMessage": "index offline"}`))
	}))
	defer srv.Close()

	f, err := New(client.New(client.WithBaseURL(srv.URL)), nil)
	require.NoError(t, err)

	_, err = f.SearchPage(context.Background(), types.Search{Query: "x", PageNum: 1})
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "UPSTREAM", apiErr.Code)
}

func TestKanaConvertType(t *testing.T) {
	ts := newTestServer(t, searchBody, resourcesBody)
	f := newFetcher(t, ts, nil, WithKanaConvertType("hira"))

	_, err := f.ResourceLinks(context.Background(), "rikishi")
	require.NoError(t, err)
	assert.Equal(t, "conv=hira&q=rikishi", ts.lastQuery.Load())
}

func TestFetchMetrics(t *testing.T) {
	ts := newTestServer(t, searchBody, resourcesBody)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	rc := cache.NewResponseCache(storage.NewMemoryStore(1<<20), cache.WithMetrics(m))
	f := newFetcher(t, ts, rc, WithMetrics(m))

	for range 3 {
		_, err := f.ResourceLinks(context.Background(), "rikishi")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), ts.resourcesHits.Load())
	assert.Equal(t, int64(2), rc.Stats().Hits)

	n, err := testutil.GatherAndCount(reg, "kotoba_api_fetches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "expected ok and cached series")
}
