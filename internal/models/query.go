package models

import "strings"

// Defaults applied to optional search request fields.
const (
	DefaultTopK     = 5
	DefaultMinScore = 0.7
)

// SearchRequest is the search request as received from a caller. Optional fields are pointers so an
// explicit zero can be told apart from an omitted value.
type SearchRequest struct {
	Query      string   `json:"query"`
	TopK       *int     `json:"top_k,omitempty"`
	FilterType *string  `json:"filter_type,omitempty"`
	MinScore   *float64 `json:"min_score,omitempty"`
}

// SearchQuery is a validated search with all defaults resolved.
type SearchQuery struct {
	Query      string
	TopK       int
	FilterType string // empty means no type filter
	MinScore   float64
}

// Resolve validates the request and fills omitted fields from defaultTopK and defaultMinScore.
func (r *SearchRequest) Resolve(defaultTopK int, defaultMinScore float64) (*SearchQuery, error) {
	if strings.TrimSpace(r.Query) == "" {
		return nil, &InvalidQueryError{Field: "query", Message: "cannot be empty"}
	}
	q := &SearchQuery{
		Query:    r.Query,
		TopK:     defaultTopK,
		MinScore: defaultMinScore,
	}
	if r.TopK != nil {
		if *r.TopK < 1 {
			return nil, &InvalidQueryError{Field: "top_k", Message: "must be at least 1"}
		}
		q.TopK = *r.TopK
	}
	if r.MinScore != nil {
		q.MinScore = *r.MinScore
	}
	if r.FilterType != nil {
		q.FilterType = *r.FilterType
	}
	return q, nil
}
