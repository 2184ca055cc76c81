package types

import "time"

// DefaultPageNum is the page number used when none is requested.
const DefaultPageNum = 1

// Search identifies a user's search intent. It is comparable; two searches
// are equal iff both query and page number are equal.
type Search struct {
	Query   string `json:"query"`
	PageNum int    `json:"page_num"`
}

// IsEmpty reports whether the search has no query text.
func (s Search) IsEmpty() bool {
	return s.Query == ""
}

// SearchResultPage is one resolved page of article results.
type SearchResultPage struct {
	Search         Search                `json:"search"` // as served; the query may be server-converted
	TotalResults   int                   `json:"total_results"`
	HasNextPage    bool                  `json:"has_next_page"`
	MaxPageReached bool                  `json:"max_page_reached"`
	ArticleResults []ArticleSearchResult `json:"article_results"`
}

// ArticleSearchResult is one matched article.
type ArticleSearchResult struct {
	ArticleID           int64        `json:"article_id"`
	Title               string       `json:"title"`
	SourceName          string       `json:"source_name"`
	SourceURL           string       `json:"source_url"`
	PublicationDatetime time.Time    `json:"publication_datetime"`
	LastUpdatedDatetime *time.Time   `json:"last_updated_datetime,omitempty"`
	InstanceCount       int          `json:"instance_count"`
	Tags                []string     `json:"tags,omitempty"`
	MainSampleText      SampleText   `json:"main_sample_text"`
	MoreSampleTexts     []SampleText `json:"more_sample_texts,omitempty"`
}

// SampleText is a span of article text split into query-match segments.
type SampleText struct {
	Segments []TextSegment `json:"segments"`
}

// String joins the segment texts.
func (t SampleText) String() string {
	n := 0
	for _, seg := range t.Segments {
		n += len(seg.Text)
	}
	b := make([]byte, 0, n)
	for _, seg := range t.Segments {
		b = append(b, seg.Text...)
	}
	return string(b)
}

// TextSegment is a run of sample text that either matches the query or not.
type TextSegment struct {
	Text         string `json:"text"`
	IsQueryMatch bool   `json:"is_query_match"`
}

// SearchResources holds external dictionary/reference links for a query.
type SearchResources struct {
	Query            string            `json:"query"` // converted query
	ResourceLinkSets []ResourceLinkSet `json:"resource_link_sets"`
}

// ResourceLinkSet groups links to a single external resource.
type ResourceLinkSet struct {
	ResourceName string         `json:"resource_name"`
	Links        []ResourceLink `json:"links"`
}

// ResourceLink is a single external link.
type ResourceLink struct {
	LinkText    string `json:"link_text"`
	ResourceURL string `json:"resource_url"`
}
