package domain

import (
	"context"

	"github.com/smallbiznis/catalog/internal/catalog/filter"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/db/option"
	"gorm.io/gorm"
)

// Scope is the matched product set: a name filter plus, once any property
// filter applied, a subquery selecting the surviving product uids. The
// subquery is composed in SQL and never materialized in memory.
type Scope struct {
	Name    string
	Matched *gorm.DB
	// Unsatisfiable is set when a filter names a property missing from the schema.
	Unsatisfiable bool
}

// Empty reports whether the filters can match no product at all.
func (s Scope) Empty() bool {
	return s.Unsatisfiable
}

type Repository interface {
	// MatchProperty builds a subquery selecting the distinct product uids with
	// an assignment on propertyUID satisfying pred. When within is non-nil only
	// the uids it selects are considered.
	MatchProperty(ctx context.Context, db *gorm.DB, propertyUID string, pred filter.Predicate, within *gorm.DB) (*gorm.DB, error)
	ListProducts(ctx context.Context, db *gorm.DB, scope Scope, opts ...option.QueryOption) ([]productdomain.Product, error)
	CountProducts(ctx context.Context, db *gorm.DB, scope Scope) (int64, error)
	CountValues(ctx context.Context, db *gorm.DB, propertyUID string, scope Scope) (EnumFacet, error)
	IntRange(ctx context.Context, db *gorm.DB, propertyUID string, scope Scope) (RangeFacet, error)
}
