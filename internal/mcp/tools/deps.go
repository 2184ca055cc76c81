package tools

import (
	"context"
	"errors"
	"time"

	"github.com/usestring/kotoba-mcp/internal/cache"
	"github.com/usestring/kotoba-mcp/internal/config"
	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/internal/query"
	"github.com/usestring/kotoba-mcp/internal/search"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config        *config.Config
	Orchestrator  *search.Orchestrator
	ResponseCache *cache.ResponseCache
	PageCache     *cache.PageCache
	Location      *location.Parser
	Query         *query.Engine
	CacheBackend  string
}

// Settle waits up to wait for the orchestrator to leave Loading and returns
// the view state. settled is false when the wait ran out first. A
// non-positive wait returns the current state without waiting.
func (d *Deps) Settle(ctx context.Context, wait time.Duration) (st types.ViewState, settled bool, err error) {
	if wait <= 0 {
		st = d.Orchestrator.CurrentViewState()
		return st, st.Kind != types.ViewLoading, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	st, err = d.Orchestrator.Settle(waitCtx)
	switch {
	case err == nil:
		return st, st.Kind != types.ViewLoading, nil
	case ctx.Err() != nil:
		// The caller went away, not just the wait.
		return st, false, WrapAPIError(ctx.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return st, false, nil
	default:
		return st, false, err
	}
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
