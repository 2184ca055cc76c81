package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/usestring/kotoba-mcp/pkg/types"
)

// fakeAPI serves canned results. Calls for a gated key block until the gate
// is released, which lets tests choose the order responses arrive in.
type fakeAPI struct {
	mu       sync.Mutex
	calls    map[string]int
	gates    map[string]chan struct{}
	failNext map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:    make(map[string]int),
		gates:    make(map[string]chan struct{}),
		failNext: make(map[string]error),
	}
}

func pageKey(s types.Search) string {
	return fmt.Sprintf("page:%s:%d", s.Query, s.PageNum)
}

func resourcesKey(query string) string {
	return "resources:" + query
}

// hold gates key and returns a function that releases it.
func (f *fakeAPI) hold(key string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[key] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// fail makes the next call for key return err.
func (f *fakeAPI) fail(key string, err error) {
	f.mu.Lock()
	f.failNext[key] = err
	f.mu.Unlock()
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// countPrefix sums calls whose key starts with prefix.
func (f *fakeAPI) countPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, v := range f.calls {
		if strings.HasPrefix(k, prefix) {
			n += v
		}
	}
	return n
}

func (f *fakeAPI) enter(ctx context.Context, key string) error {
	f.mu.Lock()
	f.calls[key]++
	gate := f.gates[key]
	delete(f.gates, key)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failNext[key]; ok {
		delete(f.failNext, key)
		return err
	}
	return nil
}

func (f *fakeAPI) SearchPage(ctx context.Context, s types.Search) (*types.SearchResultPage, error) {
	if err := f.enter(ctx, pageKey(s)); err != nil {
		return nil, err
	}
	return &types.SearchResultPage{
		Search:       s,
		TotalResults: 42,
		HasNextPage:  s.PageNum < 3,
		ArticleResults: []types.ArticleSearchResult{
			{ArticleID: int64(s.PageNum), Title: s.Query},
		},
	}, nil
}

func (f *fakeAPI) ResourceLinks(ctx context.Context, query string) (*types.SearchResources, error) {
	if err := f.enter(ctx, resourcesKey(query)); err != nil {
		return nil, err
	}
	return &types.SearchResources{
		Query: query,
		ResourceLinkSets: []types.ResourceLinkSet{
			{ResourceName: "Jisho", Links: []types.ResourceLink{{LinkText: query, ResourceURL: "https://jisho.example/" + query}}},
		},
	}, nil
}
