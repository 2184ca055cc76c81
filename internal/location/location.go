// Package location turns navigation locations into searches and back.
//
// A location carries the query in "q" and the 1-based page number in "p".
// Queries are normalized before use so that equivalent inputs (full-width
// Latin letters, half-width katakana, surrounding ideographic spaces) map to
// the same Search and therefore the same cache entries.
package location

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/usestring/kotoba-mcp/pkg/types"
)

// DefaultMaxQueryLength is the longest accepted query, in runes.
const DefaultMaxQueryLength = 100

// Location parameter names.
const (
	ParamQuery = "q"
	ParamPage  = "p"
)

var (
	// ErrEmptyQuery means there is nothing to search for.
	ErrEmptyQuery = errors.New("empty query")
	// ErrQueryTooLong means the query exceeds the maximum length.
	ErrQueryTooLong = errors.New("query too long")
)

// IsRedirectToStart reports whether err means the caller should show the
// start view instead of a search.
func IsRedirectToStart(err error) bool {
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrQueryTooLong)
}

// Parser builds searches with a fixed maximum query length.
type Parser struct {
	maxQueryLength int
}

// NewParser creates a Parser. A maxQueryLength <= 0 uses DefaultMaxQueryLength.
func NewParser(maxQueryLength int) *Parser {
	if maxQueryLength <= 0 {
		maxQueryLength = DefaultMaxQueryLength
	}
	return &Parser{maxQueryLength: maxQueryLength}
}

// Parse reads a search from a location query string such as "?q=力士&p=2".
// A missing or invalid page number becomes 1.
func (p *Parser) Parse(rawQuery string) (types.Search, error) {
	// ParseQuery keeps every pair it could decode even when it reports an error.
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	return p.NewSearch(values.Get(ParamQuery), parsePage(values.Get(ParamPage)))
}

// NewSearch normalizes query and validates it. A pageNum < 1 becomes 1.
//
// The returned error is ErrEmptyQuery or ErrQueryTooLong; the returned Search
// still carries the normalized query so callers can log it.
func (p *Parser) NewSearch(query string, pageNum int) (types.Search, error) {
	if pageNum < 1 {
		pageNum = types.DefaultPageNum
	}
	s := types.Search{Query: NormalizeQuery(query), PageNum: pageNum}

	if s.Query == "" {
		return s, ErrEmptyQuery
	}
	if utf8.RuneCountInString(s.Query) > p.maxQueryLength {
		return s, ErrQueryTooLong
	}
	return s, nil
}

// Encode returns the location query string for s. The page is omitted when
// it is the first page.
func Encode(s types.Search) string {
	v := url.Values{}
	v.Set(ParamQuery, s.Query)
	if s.PageNum > types.DefaultPageNum {
		v.Set(ParamPage, strconv.Itoa(s.PageNum))
	}
	return v.Encode()
}

// NormalizeQuery trims ASCII and ideographic whitespace and folds character
// widths: full-width ASCII becomes half-width and half-width katakana becomes
// full-width.
func NormalizeQuery(query string) string {
	folded := width.Fold.String(query)
	return strings.TrimSpace(folded)
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return types.DefaultPageNum
	}
	return n
}
