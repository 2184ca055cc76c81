// Package query projects JSON documents such as view states with jq.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/itchyny/gojq"

	"github.com/usestring/kotoba-mcp/pkg/types"
)

const compiledCacheSize = 64

// Engine executes jq expressions. Compiled expressions are cached.
type Engine struct {
	compiled *lru.Cache[string, *gojq.Code]
}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	c, _ := lru.New[string, *gojq.Code](compiledCacheSize)
	return &Engine{compiled: c}
}

// Result contains the values produced by a jq expression.
type Result struct {
	Values   []any    `json:"values"`
	Errors   []string `json:"errors,omitempty"` // runtime errors such as type mismatches
	RawCount int      `json:"raw_count"`        // count before deduplication
}

// Query executes a jq expression against JSON data.
func (e *Engine) Query(data []byte, expression string, deduplicate bool, maxResults int) (*Result, error) {
	code, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}

	return run(code, input, "query", deduplicate, maxResults), nil
}

// Project executes a jq expression against v as it would be serialized to
// JSON. Values are not deduplicated.
func (e *Engine) Project(v any, expression string, maxResults int) (*Result, error) {
	code, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	input, err := types.ToAny(v)
	if err != nil {
		return nil, fmt.Errorf("converting %T for jq: %w", v, err)
	}

	return run(code, input, "projection", false, maxResults), nil
}

// ValidateExpression checks if a jq expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	_, err := e.compile(expression)
	return err
}

func (e *Engine) compile(expression string) (*gojq.Code, error) {
	if code, ok := e.compiled.Get(expression); ok {
		return code, nil
	}

	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	e.compiled.Add(expression, code)
	return code, nil
}

func run(code *gojq.Code, input any, label string, deduplicate bool, maxResults int) *Result {
	result := &Result{
		Values: make([]any, 0),
	}

	seen := make(map[string]bool)
	iter := code.Run(input)

	for {
		if maxResults > 0 && len(result.Values) >= maxResults {
			break
		}

		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			result.Errors = append(result.Errors, formatJQError(label, err))
			continue
		}

		// Skip nil values
		if v == nil {
			continue
		}

		result.RawCount++

		if deduplicate {
			key := valueKey(v)
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		result.Values = append(result.Values, v)
	}

	return result
}

// formatJQError adds a hint for common runtime errors.
//
// Runtime jq errors like "cannot iterate over: null" are plain errors in gojq,
// so hints are chosen by message text. They only decorate output.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the field may be empty in this state, e.g. no page while loading)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}

	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// valueKey creates a string key for deduplication.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
