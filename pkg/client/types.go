package client

import (
	"fmt"
	"net/http"
	"time"
)

// Response is a raw API response. Body is the undecoded JSON payload.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// SearchResponse is the payload of GET /api/search.
type SearchResponse struct {
	ConvertedQuery string          `json:"convertedQuery"`
	TotalResults   int             `json:"totalResults"`
	PageNum        int             `json:"pageNum"`
	HasNextPage    bool            `json:"hasNextPage"`
	MaxPageReached bool            `json:"maxPageReached"`
	ArticleResults []ArticleResult `json:"articleResults"`
}

// ArticleResult is one article in a SearchResponse.
// Fields ending in Datetime are ISO-8601 on the wire.
type ArticleResult struct {
	ArticleID           int64        `json:"articleId"`
	Title               string       `json:"title"`
	SourceName          string       `json:"sourceName"`
	SourceURL           string       `json:"sourceUrl"`
	PublicationDatetime time.Time    `json:"publicationDatetime"`
	LastUpdatedDatetime *time.Time   `json:"lastUpdatedDatetime,omitempty" jsonschema:"nullable"`
	InstanceCount       int          `json:"instanceCount"`
	Tags                []string     `json:"tags,omitempty" jsonschema:"nullable"`
	MainSampleText      SampleText   `json:"mainSampleText"`
	MoreSampleTexts     []SampleText `json:"moreSampleTexts,omitempty" jsonschema:"nullable"`
}

// SampleText is a span of article text broken into segments.
type SampleText struct {
	Segments []SampleTextSegment `json:"segments"`
}

// SampleTextSegment is a run of text flagged as matching the query or not.
type SampleTextSegment struct {
	Text         string `json:"text"`
	IsQueryMatch bool   `json:"isQueryMatch"`
}

// ResourceLinksResponse is the payload of GET /api/resource-links.
type ResourceLinksResponse struct {
	ConvertedQuery   string            `json:"convertedQuery"`
	ResourceLinkSets []ResourceLinkSet `json:"resourceLinkSets"`
}

// ResourceLinkSet groups the links for one external resource.
type ResourceLinkSet struct {
	ResourceName string         `json:"resourceName"`
	Links        []ResourceLink `json:"links"`
}

// ResourceLink is a single external link.
type ResourceLink struct {
	LinkText    string `json:"linkText"`
	ResourceURL string `json:"resourceUrl"`
}

// APIError represents an error response from the search API.
type APIError struct {
	StatusCode int
	Code       string // application error code, if the payload carried one
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("search API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("search API error %d: %s", e.StatusCode, e.Message)
}

// errorResponse is the JSON structure for API errors.
type errorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	Error        string `json:"error"`
}

func (r errorResponse) toAPIError(status int) *APIError {
	msg := r.ErrorMessage
	if msg == "" {
		msg = r.Error
	}
	if msg == "" {
		msg = r.ErrorCode
	}
	return &APIError{StatusCode: status, Code: r.ErrorCode, Message: msg}
}
