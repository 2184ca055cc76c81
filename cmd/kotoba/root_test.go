package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/kotoba-mcp/pkg/client"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

const searchBody = `{
	"convertedQuery": "力士",
	"totalResults": 12,
	"pageNum": 2,
	"hasNextPage": false,
	"maxPageReached": false,
	"articleResults": [{
		"articleId": 9,
		"title": "新横綱",
		"sourceName": "NHK",
		"sourceUrl": "https://example.jp/a/9",
		"publicationDatetime": "2024-03-01T09:00:00Z",
		"lastUpdatedDatetime": null,
		"instanceCount": 1,
		"tags": [],
		"mainSampleText": {"segments": [{"text": "力士", "isQueryMatch": true}]},
		"moreSampleTexts": []
	}]
}`

func newAPI(t *testing.T, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(client.SearchPath, func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"errorCode": "INTERNAL", "errorMessage": "boom"}`))
			return
		}
		_, _ = w.Write([]byte(searchBody))
	})
	mux.HandleFunc(client.ResourceLinksPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"convertedQuery": "力士", "resourceLinkSets": []}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOADING_DELAY_MS", "0")
	t.Setenv("CACHE_BACKEND", "memory")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "kotoba "))
}

func TestSearch_PrintsSettledView(t *testing.T) {
	api := newAPI(t, http.StatusOK)

	out, err := execute(t, "--api", api.URL, "search", "力士", "--page", "2")
	require.NoError(t, err)

	var got searchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "loading", got.Submit)
	assert.Equal(t, types.ViewLoaded, got.View.Kind)
	assert.Equal(t, "p=2&q=%E5%8A%9B%E5%A3%AB", got.Location)
	require.NotNil(t, got.View.Page)
	assert.Equal(t, 12, got.View.Page.TotalResults)
}

func TestSearch_JQ(t *testing.T) {
	api := newAPI(t, http.StatusOK)

	out, err := execute(t, "--api", api.URL, "search", "--location", "?q=力士&p=2", "--jq", ".page.article_results[].title")
	require.NoError(t, err)
	assert.Equal(t, "\"新横綱\"\n", out)
}

func TestSearch_InvalidJQ(t *testing.T) {
	_, err := execute(t, "--api", "http://127.0.0.1:1", "search", "力士", "--jq", ".[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid jq expression")
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := execute(t, "--api", "http://127.0.0.1:1", "search", "　")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}

func TestSearch_APIFailure(t *testing.T) {
	api := newAPI(t, http.StatusInternalServerError)

	out, err := execute(t, "--api", api.URL, "search", "力士")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
	assert.Contains(t, out, `"kind": "failed"`)
}

func TestLocation(t *testing.T) {
	out, err := execute(t, "location", "?q=ＡＢＣ&p=x")
	require.NoError(t, err)
	assert.Contains(t, out, `"query": "ABC"`)
	assert.Contains(t, out, `"page_num": 1`)
	assert.Contains(t, out, `"redirect_start": false`)

	out, err = execute(t, "location", "?p=2")
	require.NoError(t, err)
	assert.Contains(t, out, `"redirect_start": true`)
	assert.Contains(t, out, `"reason": "empty query"`)
}

func TestCacheStats_SQLitePersists(t *testing.T) {
	api := newAPI(t, http.StatusOK)
	t.Setenv("CACHE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	_, err := execute(t, "--api", api.URL, "--cache", "sqlite", "search", "力士")
	require.NoError(t, err)

	out, err := execute(t, "--cache", "sqlite", "cache", "stats", "--keys")
	require.NoError(t, err)
	assert.Contains(t, out, `"backend": "sqlite"`)
	assert.Contains(t, out, `"keys": 2`)
	assert.Contains(t, out, client.SearchPath)
}
