// Package tools contains MCP tool implementations for the kotoba search client.
package tools

import (
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/kotoba-mcp/internal/location"
	"github.com/usestring/kotoba-mcp/pkg/jsoncompact"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

// MIME type constant.
const MimeJSON = "application/json"

// MakeJSONToolResult creates a CallToolResult with JSON text content.
func MakeJSONToolResult(v any) (*sdkmcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: string(b)},
		},
	}, nil
}

// ViewOutput is a view state as returned by tools. State holds the full view
// state unless a jq expression was given, in which case Values holds the
// projection.
type ViewOutput struct {
	Kind     string   `json:"kind"`
	Settled  bool     `json:"settled"`
	Location string   `json:"location,omitempty"`
	State    any      `json:"state,omitempty"`
	Values   []any    `json:"values,omitzero"`
	Errors   []string `json:"errors,omitzero"`
	Hint     string   `json:"hint,omitempty"`
}

// buildViewOutput renders st, applying expr when it is non-empty. With compact
// and no expr, long arrays and strings in the state are trimmed.
func (d *Deps) buildViewOutput(st types.ViewState, settled bool, expr string, compact bool) (ViewOutput, error) {
	out := ViewOutput{
		Kind:    string(st.Kind),
		Settled: settled,
		Hint:    viewHint(st, settled),
	}
	if st.Search != nil {
		out.Location = location.Encode(*st.Search)
	}

	if expr == "" {
		state, err := types.ToAny(st)
		if err != nil {
			return ViewOutput{}, fmt.Errorf("converting view state: %w", err)
		}
		if compact {
			state = jsoncompact.Value(state, nil)
		}
		out.State = state
		return out, nil
	}

	result, err := d.Query.Project(st, expr, 0)
	if err != nil {
		return ViewOutput{}, ErrInvalidInput(err.Error())
	}
	out.Values = result.Values
	out.Errors = result.Errors
	return out, nil
}

func viewHint(st types.ViewState, settled bool) string {
	switch st.Kind {
	case types.ViewIdle:
		return "Nothing searched yet. Call kotoba_search with a query."
	case types.ViewLoading:
		if !settled {
			return "Still loading. Call kotoba_view_state to check again."
		}
	case types.ViewFailed:
		return fmt.Sprintf("Search failed: %s. Resubmit the same search with kotoba_search to retry.", st.Error)
	case types.ViewLoaded:
		if st.Page == nil {
			return ""
		}
		if len(st.Page.ArticleResults) == 0 {
			return "No articles matched. Try a shorter query or another spelling."
		}
		if st.Page.HasNextPage && st.Search != nil {
			return fmt.Sprintf("%d results in total. Use kotoba_search with page=%d for more.", st.Page.TotalResults, st.Search.PageNum+1)
		}
	}
	return ""
}
