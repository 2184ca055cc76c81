package tools

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/internal/search"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

// SearchInput is the input for kotoba_search.
type SearchInput struct {
	Query    string `json:"query,omitempty" jsonschema:"Japanese word or phrase to search for. Full-width ASCII and half-width katakana are normalized."`
	Page     int    `json:"page,omitempty" jsonschema:"Result page number (default: 1)"`
	Location string `json:"location,omitempty" jsonschema:"Location query string such as '?q=力士&p=2'. Overrides query and page when set."`
	JQ       string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the view state, e.g. '.page.article_results[].title'"`
	WaitMs   int    `json:"wait_ms,omitempty" jsonschema:"How long to wait for results in ms (default: server setting). Negative returns immediately."`
	Compact  bool   `json:"compact,omitempty" jsonschema:"Trim arrays to 3 items and long strings. Ignored when jq is set."`
}

// SearchOutput is the output for kotoba_search.
type SearchOutput struct {
	Submit        string     `json:"submit"`
	RedirectStart bool       `json:"redirect_start,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	View          ViewOutput `json:"view"`
}

// ToolSearch submits a search and waits for it to settle.
func ToolSearch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
		if input.JQ != "" {
			if err := d.Query.ValidateExpression(input.JQ); err != nil {
				return nil, SearchOutput{}, ErrInvalidInput(err.Error())
			}
		}

		var s types.Search
		var err error
		if input.Location != "" {
			s, err = d.Location.Parse(input.Location)
		} else {
			s, err = d.Location.NewSearch(input.Query, input.Page)
		}
		if location.IsRedirectToStart(err) {
			st := d.Orchestrator.CurrentViewState()
			view, verr := d.buildViewOutput(st, st.Kind != types.ViewLoading, input.JQ, input.Compact)
			if verr != nil {
				return nil, SearchOutput{}, verr
			}
			return nil, SearchOutput{
				Submit:        search.SubmitRedirectStart.String(),
				RedirectStart: true,
				Reason:        err.Error(),
				View:          view,
			}, nil
		}
		if err != nil {
			return nil, SearchOutput{}, ErrInvalidInput(err.Error())
		}

		result := d.Orchestrator.SubmitSearch(s)

		wait := d.Config.SettleTimeout
		if input.WaitMs != 0 {
			wait = time.Duration(input.WaitMs) * time.Millisecond
		}
		st, settled, err := d.Settle(ctx, wait)
		if err != nil {
			return nil, SearchOutput{}, err
		}

		view, err := d.buildViewOutput(st, settled, input.JQ, input.Compact)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		return nil, SearchOutput{
			Submit: result.String(),
			View:   view,
		}, nil
	}
}
