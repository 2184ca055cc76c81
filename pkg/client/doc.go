// Package client provides a Go SDK for the Japanese contextual search API.
//
// The API serves two endpoints: a paged article search and a set of external
// dictionary/reference links for a query. This SDK returns raw responses
// (status, headers, body) so callers can cache bodies keyed by their
// canonical URL and honor the server's Date and Cache-Control headers.
//
// # Quick Start
//
//	c := client.New(client.WithBaseURL("https://search.example.jp"))
//	q := url.Values{"q": {"力士"}, "p": {"2"}}
//	resp, err := c.Fetch(ctx, client.SearchPath, q)
//
// Decode the body into [SearchResponse] or [ResourceLinksResponse]:
//
//	var sr client.SearchResponse
//	err = json.Unmarshal(resp.Body, &sr)
//
// # Errors
//
// Non-2xx responses and application-level error payloads
// ({"errorCode": "..."}) are returned as *[APIError].
//
// # Cache Keys
//
// [Client.URL] encodes query parameters in sorted order, so it is safe to use
// as a cache key for a request.
package client
