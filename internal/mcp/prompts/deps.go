// Package prompts contains MCP prompt implementations for the kotoba search client.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	MaxQueryLength  int
	KanaConvertType string
}
