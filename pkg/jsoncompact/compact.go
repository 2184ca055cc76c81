// Package jsoncompact shrinks decoded JSON values for display by trimming long
// arrays and strings.
package jsoncompact

import (
	"fmt"
	"unicode/utf8"
)

// Options controls compaction.
type Options struct {
	MaxArrayItems int // keep the first N items of each array (0 = no limit)
	MaxStringLen  int // keep the first N characters of each string (0 = no limit)
}

// Default values for compaction options.
const (
	DefaultMaxArrayItems = 3
	DefaultMaxStringLen  = 200
)

// DefaultOptions returns the default compaction settings.
func DefaultOptions() *Options {
	return &Options{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
	}
}

// Value returns a compacted copy of v, a value as produced by json.Unmarshal
// into any. Trimmed arrays end with a "... (N more items)" marker and trimmed
// strings with "... (N more chars)". Lengths count runes, so multi-byte text
// is never cut mid-character. A nil opts uses DefaultOptions.
func Value(v any, opts *Options) any {
	if opts == nil {
		opts = DefaultOptions()
	}
	return compact(v, opts)
}

func compact(v any, opts *Options) any {
	switch val := v.(type) {
	case []any:
		return compactArray(val, opts)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = compact(item, opts)
		}
		return out
	case string:
		return compactString(val, opts.MaxStringLen)
	default:
		return v
	}
}

func compactString(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := utf8.RuneCountInString(s)
	if n <= limit {
		return s
	}

	cut := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	return s[:cut] + fmt.Sprintf("... (%d more chars)", n-limit)
}

func compactArray(arr []any, opts *Options) []any {
	keep := len(arr)
	if opts.MaxArrayItems > 0 && keep > opts.MaxArrayItems {
		keep = opts.MaxArrayItems
	}

	out := make([]any, keep, keep+1)
	for i := range keep {
		out[i] = compact(arr[i], opts)
	}
	if keep < len(arr) {
		out = append(out, fmt.Sprintf("... (%d more items)", len(arr)-keep))
	}
	return out
}
