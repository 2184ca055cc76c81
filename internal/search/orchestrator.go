// Package search reconciles a stream of requested searches against
// asynchronous API responses and exposes the resulting view state.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/metrics"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

// DefaultLoadingDelay is how long a fetch may run before placeholders are shown.
const DefaultLoadingDelay = 100 * time.Millisecond

// API fetches search results and resource links.
type API interface {
	SearchPage(ctx context.Context, s types.Search) (*types.SearchResultPage, error)
	ResourceLinks(ctx context.Context, query string) (*types.SearchResources, error)
}

// SubmitResult reports what SubmitSearch did with a search.
type SubmitResult int

const (
	// SubmitRedirectStart means the query was empty and the caller should
	// return to its start view. No state changed.
	SubmitRedirectStart SubmitResult = iota
	// SubmitNoop means the search was already authoritative.
	SubmitNoop
	// SubmitLoaded means the search was served from the page cache.
	SubmitLoaded
	// SubmitLoading means a fetch was issued.
	SubmitLoading
)

func (r SubmitResult) String() string {
	switch r {
	case SubmitRedirectStart:
		return "redirect_start"
	case SubmitNoop:
		return "noop"
	case SubmitLoaded:
		return "loaded"
	case SubmitLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Orchestrator owns the search view state.
//
// Every fetch carries the Search it was issued for. When it completes, the
// result is applied only if that Search is still the requested one, so
// responses may arrive in any order. Superseded responses are dropped on
// arrival rather than aborted.
type Orchestrator struct {
	api          API
	pages        *cache.PageCache
	metrics      *metrics.Metrics
	loadingDelay time.Duration
	fetchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	requested types.Search // zero when idle
	state     types.ViewState
	// resourcesFor is the requested query state.Resources were fetched for.
	resourcesFor string
	delayTimer   *time.Timer
	delaySeq     uint64
	changed      chan struct{}

	listeners    map[uint64]func(types.ViewState)
	nextListener uint64

	notifyMu sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPageCache serves repeated searches from pc without fetching.
func WithPageCache(pc *cache.PageCache) Option {
	return func(o *Orchestrator) {
		o.pages = pc
	}
}

// WithLoadingDelay sets how long a fetch runs before ShowPlaceholders is set.
// A non-positive delay shows placeholders immediately.
func WithLoadingDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.loadingDelay = d
	}
}

// WithFetchTimeout bounds each fetch. Zero means no timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.fetchTimeout = d
	}
}

// WithMetrics records transitions and stale responses to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New creates an Orchestrator in the Idle state.
func New(api API, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		api:          api,
		loadingDelay: DefaultLoadingDelay,
		ctx:          ctx,
		cancel:       cancel,
		state:        types.ViewState{Kind: types.ViewIdle},
		changed:      make(chan struct{}),
		listeners:    make(map[uint64]func(types.ViewState)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitSearch makes s the requested search and starts whatever fetches it
// needs. It never blocks on the network; failures surface as a Failed state.
func (o *Orchestrator) SubmitSearch(s types.Search) SubmitResult {
	if s.IsEmpty() {
		return SubmitRedirectStart
	}
	if s.PageNum < 1 {
		s.PageNum = types.DefaultPageNum
	}

	o.mu.Lock()
	if o.closed || (s == o.requested && o.state.Kind != types.ViewFailed) {
		o.mu.Unlock()
		return SubmitNoop
	}

	o.stopDelayLocked()
	o.requested = s

	resourcesLoaded := o.state.Resources != nil && o.resourcesFor == s.Query && o.state.Kind != types.ViewFailed
	if !resourcesLoaded && o.pages != nil {
		if res, ok := o.pages.Resources(s.Query); ok {
			o.state.Resources = res
			o.resourcesFor = s.Query
			resourcesLoaded = true
		}
	}

	if resourcesLoaded && o.pages != nil {
		if page, ok := o.pages.Page(s); ok {
			o.setLoadedLocked(s, page)
			o.commitLocked()
			o.mu.Unlock()
			o.notify()

			slog.Debug("search served from page cache",
				slog.String("query", s.Query),
				slog.Int("page", s.PageNum),
			)
			return SubmitLoaded
		}
	}

	// Only resources already on hand make this a page change.
	scope := types.LoadingNewPage
	var res *types.SearchResources
	if resourcesLoaded {
		res = o.state.Resources
	} else {
		scope = types.LoadingNewQuery
		o.resourcesFor = ""
	}
	o.state = types.ViewState{
		Kind:             types.ViewLoading,
		Search:           &s,
		LoadingScope:     scope,
		ShowPlaceholders: o.loadingDelay <= 0,
		Resources:        res,
	}
	if o.loadingDelay > 0 {
		o.startDelayLocked(s)
	}

	reqID := uuid.NewString()
	o.wg.Add(1)
	go o.fetch(reqID, s, scope == types.LoadingNewQuery)

	o.commitLocked()
	o.mu.Unlock()
	o.notify()

	slog.Debug("search submitted",
		slog.String("request_id", reqID),
		slog.String("query", s.Query),
		slog.Int("page", s.PageNum),
		slog.String("scope", string(scope)),
	)
	return SubmitLoading
}

// fetchResult is the outcome of one issued fetch, tagged with the search it
// was issued for.
type fetchResult struct {
	reqID string
	token types.Search
	page  *types.SearchResultPage
	res   *types.SearchResources
	err   error
}

func (o *Orchestrator) fetch(reqID string, token types.Search, withResources bool) {
	defer o.wg.Done()

	ctx := o.ctx
	if o.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.fetchTimeout)
		defer cancel()
	}

	r := fetchResult{reqID: reqID, token: token}
	if !withResources {
		r.page, r.err = o.api.SearchPage(ctx, token)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			page, err := o.api.SearchPage(gctx, token)
			r.page = page
			return err
		})
		g.Go(func() error {
			res, err := o.api.ResourceLinks(gctx, token.Query)
			r.res = res
			return err
		})
		r.err = g.Wait()
	}

	o.resolve(r)
}

// resolve applies a completed fetch if it is still relevant.
func (o *Orchestrator) resolve(r fetchResult) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	current := r.token == o.requested
	changed := false

	// Resources belong to a query, so they still apply when only the page
	// number has moved on.
	if r.res != nil {
		if o.pages != nil {
			o.pages.PutResources(r.token.Query, r.res)
		}
		if o.requested.Query == r.token.Query && o.state.Kind != types.ViewFailed {
			o.state.Resources = r.res
			o.resourcesFor = r.token.Query
			if o.state.Kind == types.ViewLoading {
				o.state.LoadingScope = types.LoadingNewPage
			}
			changed = true
		}
	}

	switch {
	case r.err != nil && current && o.state.Kind == types.ViewLoading:
		o.stopDelayLocked()
		o.state = types.ViewState{
			Kind:   types.ViewFailed,
			Search: &r.token,
			Error:  r.err.Error(),
		}
		o.resourcesFor = ""
		changed = true
		slog.Warn("search failed",
			slog.String("request_id", r.reqID),
			slog.String("query", r.token.Query),
			slog.Int("page", r.token.PageNum),
			slog.String("error", r.err.Error()),
		)
	case r.err != nil:
		o.metrics.StaleResponse("error")
		slog.Debug("dropping failure for superseded search",
			slog.String("request_id", r.reqID),
			slog.String("error", r.err.Error()),
		)
	case r.page == nil:
	case current:
		if o.pages != nil {
			o.pages.PutPage(r.token, r.page)
		}
		o.setLoadedLocked(r.token, r.page)
		changed = true
	default:
		if o.pages != nil {
			o.pages.PutPage(r.token, r.page)
		}
		o.metrics.StaleResponse("ok")
		slog.Debug("dropping response for superseded search",
			slog.String("request_id", r.reqID),
			slog.String("query", r.token.Query),
			slog.Int("page", r.token.PageNum),
		)
	}

	if !changed {
		o.mu.Unlock()
		return
	}
	o.commitLocked()
	o.mu.Unlock()
	o.notify()
}

// setLoadedLocked moves to Loaded for s. Resources fetched for another query
// are dropped.
func (o *Orchestrator) setLoadedLocked(s types.Search, page *types.SearchResultPage) {
	o.stopDelayLocked()
	res := o.state.Resources
	if o.resourcesFor != s.Query {
		res = nil
	}
	o.state = types.ViewState{
		Kind:      types.ViewLoaded,
		Search:    &s,
		Page:      page,
		Resources: res,
	}
}

func (o *Orchestrator) startDelayLocked(s types.Search) {
	o.delaySeq++
	seq := o.delaySeq
	o.delayTimer = time.AfterFunc(o.loadingDelay, func() {
		o.showPlaceholders(s, seq)
	})
}

func (o *Orchestrator) stopDelayLocked() {
	o.delaySeq++
	if o.delayTimer != nil {
		o.delayTimer.Stop()
		o.delayTimer = nil
	}
}

func (o *Orchestrator) showPlaceholders(s types.Search, seq uint64) {
	o.mu.Lock()
	if o.closed || seq != o.delaySeq || s != o.requested ||
		o.state.Kind != types.ViewLoading || o.state.ShowPlaceholders {
		o.mu.Unlock()
		return
	}
	o.delayTimer = nil
	o.state.ShowPlaceholders = true
	o.commitLocked()
	o.mu.Unlock()
	o.notify()
}

// CurrentViewState returns a snapshot of the view state.
func (o *Orchestrator) CurrentViewState() types.ViewState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Requested returns the authoritative search, or the zero Search when idle.
func (o *Orchestrator) Requested() types.Search {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requested
}

// Reset returns to Idle. Responses still in flight are discarded on arrival.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.stopDelayLocked()
	o.requested = types.Search{}
	o.state = types.ViewState{Kind: types.ViewIdle}
	o.resourcesFor = ""
	o.commitLocked()
	o.mu.Unlock()
	o.notify()
}

// Settle blocks until the view state is no longer Loading, the Orchestrator
// is closed, or ctx is done. It returns the latest snapshot in every case.
func (o *Orchestrator) Settle(ctx context.Context) (types.ViewState, error) {
	for {
		o.mu.Lock()
		st := o.snapshotLocked()
		ch := o.changed
		closed := o.closed
		o.mu.Unlock()

		if st.Kind != types.ViewLoading || closed {
			return st, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Subscribe registers fn to be called with the latest view state after each
// transition. Calls are serialized. fn must not call back into the
// Orchestrator synchronously.
func (o *Orchestrator) Subscribe(fn func(types.ViewState)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

// Close cancels in-flight fetches and waits for them to finish. The
// Orchestrator ignores all further submissions.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.stopDelayLocked()
	o.broadcastLocked()
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
}

// commitLocked publishes a transition.
func (o *Orchestrator) commitLocked() {
	o.broadcastLocked()
	o.metrics.Transition(string(o.state.Kind))
}

// broadcastLocked wakes Settle waiters.
func (o *Orchestrator) broadcastLocked() {
	close(o.changed)
	o.changed = make(chan struct{})
}

func (o *Orchestrator) snapshotLocked() types.ViewState {
	st := o.state
	if st.Search != nil {
		s := *st.Search
		st.Search = &s
	}
	return st
}

// notify delivers the latest snapshot to listeners.
func (o *Orchestrator) notify() {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if len(o.listeners) == 0 {
		o.mu.Unlock()
		return
	}
	st := o.snapshotLocked()
	fns := make([]func(types.ViewState), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
