// Package contenttype classifies HTTP response content types.
package contenttype

import (
	"mime"
	"strings"
	"unicode/utf8"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON    Category = "json"
	HTML    Category = "html"
	Text    Category = "text"
	Binary  Category = "binary"
	Unknown Category = "unknown"
)

// Classify returns the broad content category for a content-type header value.
// Parameters (charset etc.) are ignored. Empty values are Unknown.
func Classify(contentType string) Category {
	if strings.TrimSpace(contentType) == "" {
		return Unknown
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	// application/json, application/problem+json, text/json
	case strings.Contains(mediaType, "json"):
		return JSON
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return HTML
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.Contains(mediaType, "octet-stream"),
		strings.Contains(mediaType, "pdf"),
		strings.Contains(mediaType, "zip"):
		return Binary
	}
	return Unknown
}

// MayBeJSON reports whether a response with this content type and body could
// carry a JSON payload. Servers that omit or mislabel the type as text are
// given the benefit of the doubt; HTML pages (proxy or login interstitials)
// and binary bodies are not.
func MayBeJSON(contentType string, body []byte) bool {
	switch Classify(contentType) {
	case JSON, Text:
		return true
	case HTML, Binary:
		return false
	}
	return utf8.Valid(body)
}
