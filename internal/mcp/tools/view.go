package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ViewStateInput is the input for kotoba_view_state.
type ViewStateInput struct {
	JQ      string `json:"jq,omitempty" jsonschema:"Optional jq expression applied to the view state"`
	WaitMs  int    `json:"wait_ms,omitempty" jsonschema:"Wait up to this many ms for a loading search to settle (default: 0)"`
	Compact bool   `json:"compact,omitempty" jsonschema:"Trim arrays to 3 items and long strings. Ignored when jq is set."`
}

// ToolViewState returns the current view state.
func ToolViewState(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ViewStateInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ViewStateInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
		if input.JQ != "" {
			if err := d.Query.ValidateExpression(input.JQ); err != nil {
				return nil, ViewOutput{}, ErrInvalidInput(err.Error())
			}
		}

		st, settled, err := d.Settle(ctx, msToDuration(input.WaitMs))
		if err != nil {
			return nil, ViewOutput{}, err
		}
		out, err := d.buildViewOutput(st, settled, input.JQ, input.Compact)
		if err != nil {
			return nil, ViewOutput{}, err
		}
		return nil, out, nil
	}
}

// ResetInput is the input for kotoba_reset.
type ResetInput struct{}

// ToolReset returns the orchestrator to Idle.
func ToolReset(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResetInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResetInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
		d.Orchestrator.Reset()
		out, err := d.buildViewOutput(d.Orchestrator.CurrentViewState(), true, "", false)
		if err != nil {
			return nil, ViewOutput{}, err
		}
		return nil, out, nil
	}
}
