// Package apifetch fetches search API resources through the response cache.
package apifetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/metrics"
	"github.com/usestring/kotoba-mcp/internal/schema"
	"github.com/usestring/kotoba-mcp/pkg/client"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointSearch        = "search"
	EndpointResourceLinks = "resource-links"
)

// Fetcher resolves searches and resource links, checking the response cache
// before the network. Concurrent fetches of the same URL share one request.
type Fetcher struct {
	client          *client.Client
	cache           *cache.ResponseCache
	metrics         *metrics.Metrics
	kanaConvertType string

	searchSchema    *schema.Validator
	resourcesSchema *schema.Validator

	group singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithKanaConvertType sends conv=<t> with every request when t is non-empty.
func WithKanaConvertType(t string) Option {
	return func(f *Fetcher) {
		f.kanaConvertType = t
	}
}

// WithMetrics records fetch outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// New creates a Fetcher. rc may be nil to disable response caching.
func New(c *client.Client, rc *cache.ResponseCache, opts ...Option) (*Fetcher, error) {
	searchSchema, err := schema.NewValidatorFor(EndpointSearch, &client.SearchResponse{})
	if err != nil {
		return nil, err
	}
	resourcesSchema, err := schema.NewValidatorFor(EndpointResourceLinks, &client.ResourceLinksResponse{})
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		client:          c,
		cache:           rc,
		searchSchema:    searchSchema,
		resourcesSchema: resourcesSchema,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// SearchPage fetches one page of results for s.
func (f *Fetcher) SearchPage(ctx context.Context, s types.Search) (*types.SearchResultPage, error) {
	q := f.params(s.Query)
	q.Set("p", strconv.Itoa(s.PageNum))

	body, err := f.fetchJSON(ctx, EndpointSearch, client.SearchPath, q, f.searchSchema)
	if err != nil {
		return nil, fmt.Errorf("fetching search page %d for %q: %w", s.PageNum, s.Query, err)
	}

	var resp client.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return toResultPage(&resp), nil
}

// ResourceLinks fetches the external resource links for query.
func (f *Fetcher) ResourceLinks(ctx context.Context, query string) (*types.SearchResources, error) {
	body, err := f.fetchJSON(ctx, EndpointResourceLinks, client.ResourceLinksPath, f.params(query), f.resourcesSchema)
	if err != nil {
		return nil, fmt.Errorf("fetching resource links for %q: %w", query, err)
	}

	var resp client.ResourceLinksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding resource links response: %w", err)
	}
	return toResources(&resp), nil
}

func (f *Fetcher) params(query string) url.Values {
	q := url.Values{"q": {query}}
	if f.kanaConvertType != "" {
		q.Set("conv", f.kanaConvertType)
	}
	return q
}

// fetchJSON returns a validated response body for path and query, from the
// cache when possible.
func (f *Fetcher) fetchJSON(ctx context.Context, endpoint, path string, q url.Values, v *schema.Validator) (json.RawMessage, error) {
	key := f.client.URL(path, q)

	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			if err := v.Validate(cached); err == nil {
				f.metrics.Fetch(endpoint, "cached")
				return cached, nil
			}
			slog.Debug("ignoring cached response that no longer validates",
				slog.String("endpoint", endpoint),
				slog.String("key", key),
			)
		}
	}

	result, err, shared := f.group.Do(key, func() (any, error) {
		resp, err := f.client.Fetch(ctx, path, q)
		if err != nil {
			f.metrics.Fetch(endpoint, "error")
			return nil, err
		}
		if err := v.Validate(resp.Body); err != nil {
			f.metrics.Fetch(endpoint, "error")
			return nil, err
		}
		f.metrics.Fetch(endpoint, "ok")

		body := json.RawMessage(resp.Body)
		if f.cache != nil {
			f.cache.Put(key, body, resp.Header)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("shared in-flight request",
			slog.String("endpoint", endpoint),
			slog.String("key", key),
		)
	}
	return result.(json.RawMessage), nil
}
