package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/smallbiznis/catalog/internal/catalog/filter"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/db/pagination"
)

type Service interface {
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Facets(ctx context.Context, req FacetRequest) (*FacetResult, error)
}

const (
	SortByUID  = "uid"
	SortByName = "name"
)

type ListRequest struct {
	Name       string
	SortBy     string
	Pagination pagination.Pagination
	Filters    filter.Set
}

type ListResponse struct {
	Products []productdomain.Response `json:"products"`
	Count    int64                    `json:"count"`
}

type FacetRequest struct {
	Name    string
	Filters filter.Set
	// ExcludeSelf computes each property's facet without that property's own filter.
	ExcludeSelf bool
}

// Facet is either an EnumFacet or a RangeFacet.
type Facet interface {
	isFacet()
}

// EnumFacet counts matched products per value_uid.
type EnumFacet map[string]int64

// RangeFacet bounds the matched int values; both are nil when nothing matched.
type RangeFacet struct {
	MinValue *int64 `json:"min_value"`
	MaxValue *int64 `json:"max_value"`
}

func (EnumFacet) isFacet()  {}
func (RangeFacet) isFacet() {}

func (f EnumFacet) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]int64(f))
}

// FacetResult serializes flat: {"count": N, "<property_uid>": facet, ...}.
type FacetResult struct {
	Count      int64
	Properties map[string]Facet
}

const countKey = "count"

func (r FacetResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Properties)+1)
	for uid, facet := range r.Properties {
		out[uid] = facet
	}
	out[countKey] = r.Count
	return json.Marshal(out)
}

var (
	ErrInvalidSort = errors.New("invalid_sort")
)

// FacetCache memoizes facet results by normalized request key.
type FacetCache interface {
	Get(key string) (*FacetResult, bool)
	Set(key string, result *FacetResult)
	Purge()
}
