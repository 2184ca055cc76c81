package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/kotoba-mcp/pkg/types"
)

// PageCache provides thread-safe LRU caching of decoded result pages keyed by
// the search that requested them, and of resources keyed by query.
type PageCache struct {
	pages     *lru.Cache[types.Search, *types.SearchResultPage]
	resources *lru.Cache[string, *types.SearchResources]
}

// NewPageCache creates a page cache holding at most maxItems pages and
// maxItems resource sets.
func NewPageCache(maxItems int) (*PageCache, error) {
	pages, err := lru.New[types.Search, *types.SearchResultPage](maxItems)
	if err != nil {
		return nil, err
	}
	resources, err := lru.New[string, *types.SearchResources](maxItems)
	if err != nil {
		return nil, err
	}
	return &PageCache{pages: pages, resources: resources}, nil
}

// Page retrieves the page fetched for search.
func (c *PageCache) Page(search types.Search) (*types.SearchResultPage, bool) {
	return c.pages.Get(search)
}

// PutPage adds or updates the page fetched for search.
func (c *PageCache) PutPage(search types.Search, page *types.SearchResultPage) {
	c.pages.Add(search, page)
}

// Resources retrieves the resources fetched for query.
func (c *PageCache) Resources(query string) (*types.SearchResources, bool) {
	return c.resources.Get(query)
}

// PutResources adds or updates the resources fetched for query.
func (c *PageCache) PutResources(query string, res *types.SearchResources) {
	c.resources.Add(query, res)
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	return c.pages.Len()
}

// Purge empties both caches.
func (c *PageCache) Purge() {
	c.pages.Purge()
	c.resources.Purge()
}
