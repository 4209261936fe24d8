package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/smallbiznis/catalog/internal/catalog/domain"
	"github.com/smallbiznis/catalog/internal/catalog/filter"
	obsmetrics "github.com/smallbiznis/catalog/internal/observability/metrics"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	propertydomain "github.com/smallbiznis/catalog/internal/property/domain"
	"github.com/smallbiznis/catalog/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sortColumns = map[string]bool{
	domain.SortByUID:  true,
	domain.SortByName: true,
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Repo         domain.Repository
	ProductRepo  productdomain.Repository
	PropertyRepo propertydomain.Repository
	Cache        domain.FacetCache   `optional:"true"`
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	repo         domain.Repository
	productRepo  productdomain.Repository
	propertyRepo propertydomain.Repository
	cache        domain.FacetCache
	metrics      *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("catalog.service"),
		repo:         p.Repo,
		productRepo:  p.ProductRepo,
		propertyRepo: p.PropertyRepo,
		cache:        p.Cache,
		metrics:      p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	sortBy := strings.ToLower(strings.TrimSpace(req.SortBy))
	if sortBy == "" {
		sortBy = domain.SortByUID
	}
	if !sortColumns[sortBy] {
		return nil, domain.ErrInvalidSort
	}
	page := req.Pagination.Normalize()

	resp := &domain.ListResponse{Products: []productdomain.Response{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope, err := s.narrow(ctx, tx, req.Name, req.Filters)
		if err != nil {
			return err
		}
		if scope.Empty() {
			return nil
		}

		count, err := s.repo.CountProducts(ctx, tx, scope)
		if err != nil {
			return err
		}
		resp.Count = count
		if int64(page.Offset()) >= count {
			return nil
		}

		items, err := s.repo.ListProducts(ctx, tx, scope,
			option.WithSortBy(option.WithQuerySortBy(sortBy, "", sortColumns).WithTieBreaker(domain.SortByUID)),
			option.WithPaging(page.Offset(), page.Limit()),
		)
		if err != nil {
			return err
		}

		uids := lo.Map(items, func(p productdomain.Product, _ int) string { return p.UID })
		attrs, err := s.productRepo.Expand(ctx, tx, uids)
		if err != nil {
			return err
		}
		for _, item := range items {
			properties := attrs[item.UID]
			if properties == nil {
				properties = []productdomain.Attribute{}
			}
			resp.Products = append(resp.Products, productdomain.Response{
				UID:        item.UID,
				Name:       item.Name,
				Properties: properties,
			})
		}
		return nil
	})
	if err != nil {
		s.log.Error("list catalog failed", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordCatalogQuery(ctx, sortBy, len(req.Filters) > 0)
	return resp, nil
}

func (s *Service) Facets(ctx context.Context, req domain.FacetRequest) (*domain.FacetResult, error) {
	key := facetKey(req)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.RecordFacetRequest(ctx, true)
			return cached, nil
		}
	}

	result := &domain.FacetResult{Properties: map[string]domain.Facet{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		properties, err := s.propertyRepo.FindAll(ctx, tx)
		if err != nil {
			return err
		}

		scope, err := s.narrow(ctx, tx, req.Name, req.Filters)
		if err != nil {
			return err
		}
		if !scope.Empty() {
			if result.Count, err = s.repo.CountProducts(ctx, tx, scope); err != nil {
				return err
			}
		}

		for _, property := range properties {
			propertyScope := scope
			if _, filtered := req.Filters[property.UID]; filtered && req.ExcludeSelf {
				propertyScope, err = s.narrow(ctx, tx, req.Name, req.Filters.Without(property.UID))
				if err != nil {
					return err
				}
			}

			facet, err := s.facet(ctx, tx, property, propertyScope)
			if err != nil {
				return err
			}
			if facet != nil {
				result.Properties[property.UID] = facet
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("compute facets failed", zap.Error(err))
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	s.metrics.RecordFacetRequest(ctx, false)
	return result, nil
}

func (s *Service) facet(ctx context.Context, tx *gorm.DB, property propertydomain.Property, scope domain.Scope) (domain.Facet, error) {
	switch property.Kind {
	case propertydomain.KindEnumerated:
		if scope.Empty() {
			return domain.EnumFacet{}, nil
		}
		return s.repo.CountValues(ctx, tx, property.UID, scope)
	case propertydomain.KindInteger:
		if scope.Empty() {
			return domain.RangeFacet{}, nil
		}
		return s.repo.IntRange(ctx, tx, property.UID, scope)
	default:
		s.log.Warn("skipping facet for unsupported kind",
			zap.String("property_uid", property.UID),
			zap.String("kind", string(property.Kind)),
		)
		return nil, nil
	}
}

// narrow intersects the products matching each filter, one property at a
// time in uid order. Each step nests the previous one as a subquery so the
// candidate set stays in the database.
func (s *Service) narrow(ctx context.Context, tx *gorm.DB, name string, filters filter.Set) (domain.Scope, error) {
	scope := domain.Scope{Name: strings.TrimSpace(name)}
	if len(filters) == 0 {
		return scope, nil
	}

	uids := filters.UIDs()
	known, err := s.propertyRepo.FindByUIDs(ctx, tx, uids)
	if err != nil {
		return scope, err
	}
	if len(known) != len(uids) {
		scope.Unsatisfiable = true
		return scope, nil
	}

	var matched *gorm.DB
	for _, uid := range uids {
		matched, err = s.repo.MatchProperty(ctx, tx, uid, filters[uid], matched)
		if err != nil {
			return scope, err
		}
	}
	scope.Matched = matched
	return scope, nil
}

func facetKey(req domain.FacetRequest) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(req.Name)))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(req.ExcludeSelf))
	b.WriteByte('|')
	b.WriteString(req.Filters.Key())
	return b.String()
}
