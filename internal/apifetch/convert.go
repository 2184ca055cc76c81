package apifetch

import (
	"github.com/usestring/kotoba-mcp/pkg/client"
	"github.com/usestring/kotoba-mcp/pkg/types"
)

// toResultPage converts a wire search response into a domain result page.
func toResultPage(resp *client.SearchResponse) *types.SearchResultPage {
	page := &types.SearchResultPage{
		Search: types.Search{
			Query:   resp.ConvertedQuery,
			PageNum: resp.PageNum,
		},
		TotalResults:   resp.TotalResults,
		HasNextPage:    resp.HasNextPage,
		MaxPageReached: resp.MaxPageReached,
		ArticleResults: make([]types.ArticleSearchResult, 0, len(resp.ArticleResults)),
	}
	if page.Search.PageNum < 1 {
		page.Search.PageNum = types.DefaultPageNum
	}

	for _, a := range resp.ArticleResults {
		result := types.ArticleSearchResult{
			ArticleID:           a.ArticleID,
			Title:               a.Title,
			SourceName:          a.SourceName,
			SourceURL:           a.SourceURL,
			PublicationDatetime: a.PublicationDatetime,
			LastUpdatedDatetime: a.LastUpdatedDatetime,
			InstanceCount:       a.InstanceCount,
			Tags:                a.Tags,
			MainSampleText:      toSampleText(a.MainSampleText),
		}
		if len(a.MoreSampleTexts) > 0 {
			result.MoreSampleTexts = make([]types.SampleText, 0, len(a.MoreSampleTexts))
			for _, st := range a.MoreSampleTexts {
				result.MoreSampleTexts = append(result.MoreSampleTexts, toSampleText(st))
			}
		}
		page.ArticleResults = append(page.ArticleResults, result)
	}

	return page
}

func toSampleText(st client.SampleText) types.SampleText {
	out := types.SampleText{Segments: make([]types.TextSegment, 0, len(st.Segments))}
	for _, seg := range st.Segments {
		out.Segments = append(out.Segments, types.TextSegment{
			Text:         seg.Text,
			IsQueryMatch: seg.IsQueryMatch,
		})
	}
	return out
}

// toResources converts a wire resource links response into domain resources.
func toResources(resp *client.ResourceLinksResponse) *types.SearchResources {
	res := &types.SearchResources{
		Query:            resp.ConvertedQuery,
		ResourceLinkSets: make([]types.ResourceLinkSet, 0, len(resp.ResourceLinkSets)),
	}
	for _, set := range resp.ResourceLinkSets {
		links := make([]types.ResourceLink, 0, len(set.Links))
		for _, l := range set.Links {
			links = append(links, types.ResourceLink{LinkText: l.LinkText, ResourceURL: l.ResourceURL})
		}
		res.ResourceLinkSets = append(res.ResourceLinkSets, types.ResourceLinkSet{
			ResourceName: set.ResourceName,
			Links:        links,
		})
	}
	return res
}
