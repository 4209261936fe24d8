package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/catalog/internal/catalog/domain"
	"github.com/smallbiznis/catalog/internal/catalog/filter"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/db/option"
	"gorm.io/gorm"
)

// joinCurrentValue keeps only enumerated assignments whose value is still
// part of the property's value set.
const joinCurrentValue = "JOIN property_values pv ON pv.property_uid = pp.property_uid AND pv.value_uid = pp.value_uid"

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) MatchProperty(ctx context.Context, db *gorm.DB, propertyUID string, pred filter.Predicate, within *gorm.DB) (*gorm.DB, error) {
	stmt := db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).
		Table("product_properties pp").
		Distinct("pp.product_uid").
		Where("pp.property_uid = ?", propertyUID)

	switch p := pred.(type) {
	case filter.SetPredicate:
		stmt = stmt.Joins(joinCurrentValue).Where("pp.value_uid IN ?", p.Values)
	case filter.RangePredicate:
		if p.From != nil {
			stmt = stmt.Where("pp.int_value >= ?", *p.From)
		}
		if p.To != nil {
			stmt = stmt.Where("pp.int_value <= ?", *p.To)
		}
	default:
		return nil, fmt.Errorf("unsupported predicate %T", pred)
	}

	if within != nil {
		stmt = stmt.Where("pp.product_uid IN (?)", within)
	}
	return stmt, nil
}

func (r *repo) ListProducts(ctx context.Context, db *gorm.DB, scope domain.Scope, opts ...option.QueryOption) ([]productdomain.Product, error) {
	stmt := r.scoped(db.WithContext(ctx).Model(&productdomain.Product{}), scope).
		Select("uid", "name", "created_at")
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var items []productdomain.Product
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountProducts(ctx context.Context, db *gorm.DB, scope domain.Scope) (int64, error) {
	var count int64
	err := r.scoped(db.WithContext(ctx).Model(&productdomain.Product{}), scope).Count(&count).Error
	return count, err
}

func (r *repo) CountValues(ctx context.Context, db *gorm.DB, propertyUID string, scope domain.Scope) (domain.EnumFacet, error) {
	var rows []struct {
		ValueUID string
		Total    int64
	}
	err := db.WithContext(ctx).
		Table("product_properties pp").
		Joins(joinCurrentValue).
		Select("pp.value_uid AS value_uid, COUNT(DISTINCT pp.product_uid) AS total").
		Where("pp.property_uid = ?", propertyUID).
		Where("pp.product_uid IN (?)", r.matched(ctx, db, scope)).
		Group("pp.value_uid").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(domain.EnumFacet, len(rows))
	for _, row := range rows {
		out[row.ValueUID] = row.Total
	}
	return out, nil
}

func (r *repo) IntRange(ctx context.Context, db *gorm.DB, propertyUID string, scope domain.Scope) (domain.RangeFacet, error) {
	var out domain.RangeFacet
	err := db.WithContext(ctx).
		Table("product_properties pp").
		Select("MIN(pp.int_value) AS min_value, MAX(pp.int_value) AS max_value").
		Where("pp.property_uid = ? AND pp.int_value IS NOT NULL", propertyUID).
		Where("pp.product_uid IN (?)", r.matched(ctx, db, scope)).
		Scan(&out).Error
	if err != nil {
		return domain.RangeFacet{}, err
	}
	return out, nil
}

// matched is the uid subquery for scope, embedded into aggregate statements.
func (r *repo) matched(ctx context.Context, db *gorm.DB, scope domain.Scope) *gorm.DB {
	base := db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).Model(&productdomain.Product{})
	return r.scoped(base, scope).Select("uid")
}

func (r *repo) scoped(stmt *gorm.DB, scope domain.Scope) *gorm.DB {
	if name := strings.TrimSpace(scope.Name); name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if scope.Matched != nil {
		stmt = stmt.Where("uid IN (?)", scope.Matched)
	}
	return stmt
}
