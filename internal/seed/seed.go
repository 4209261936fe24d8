package seed

import (
	"context"
	"errors"
	"strings"

	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	propertydomain "github.com/smallbiznis/catalog/internal/property/domain"
	"github.com/smallbiznis/catalog/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Properties  propertydomain.Service
	Products    productdomain.Service
	ProductRepo productdomain.Repository
	Limiter     *ratelimit.CatalogLimiter `optional:"true"`
}

type Seeder struct {
	db          *gorm.DB
	log         *zap.Logger
	properties  propertydomain.Service
	products    productdomain.Service
	productRepo productdomain.Repository
	limiter     *ratelimit.CatalogLimiter
}

// Summary reports what a seeding run did.
type Summary struct {
	Skipped           bool
	PropertiesCreated int
	ProductsCreated   int
	ProductsFailed    int
	AttributesSkipped int
}

func New(p Params) *Seeder {
	return &Seeder{
		db:          p.DB,
		log:         p.Log.Named("seed"),
		properties:  p.Properties,
		products:    p.Products,
		productRepo: p.ProductRepo,
		limiter:     p.Limiter,
	}
}

// RunFile loads path and seeds it if the store has no products. With rate
// limiting enabled only one replica seeds at a time.
func (s *Seeder) RunFile(ctx context.Context, path string) error {
	token, ok, err := s.limiter.TryLockSeed(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Info("seed skipped, lock held by another instance")
		return nil
	}
	defer func() {
		if err := s.limiter.ReleaseSeed(context.WithoutCancel(ctx), token); err != nil {
			s.log.Warn("release seed lock failed", zap.Error(err))
		}
	}()

	dataset, err := LoadDataset(path)
	if err != nil {
		return err
	}
	summary, err := s.IfEmpty(ctx, dataset)
	if err != nil {
		return err
	}
	if !summary.Skipped {
		s.log.Info("seed loaded",
			zap.String("file", path),
			zap.Int("properties", summary.PropertiesCreated),
			zap.Int("products", summary.ProductsCreated),
			zap.Int("products_failed", summary.ProductsFailed),
			zap.Int("attributes_skipped", summary.AttributesSkipped),
		)
	}
	return nil
}

// IfEmpty loads dataset unless at least one product already exists.
func (s *Seeder) IfEmpty(ctx context.Context, dataset *Dataset) (Summary, error) {
	count, err := s.productRepo.Count(ctx, s.db.WithContext(ctx))
	if err != nil {
		return Summary{}, err
	}
	if count > 0 {
		s.log.Info("seed skipped, products already present", zap.Int64("products", count))
		return Summary{Skipped: true}, nil
	}

	var summary Summary
	for _, prop := range dataset.Properties {
		req := propertydomain.CreateRequest{
			UID:  prop.UID,
			Name: prop.Name,
			Kind: prop.Type,
		}
		for _, v := range prop.Values {
			req.Values = append(req.Values, propertydomain.ValueInput{ValueUID: v.UID(), Label: v.Value})
		}
		if _, err := s.properties.Create(ctx, req); err != nil {
			if errors.Is(err, propertydomain.ErrDuplicateKey) {
				s.log.Info("seed property exists", zap.String("property_uid", prop.UID))
				continue
			}
			return summary, err
		}
		summary.PropertiesCreated++
	}

	known, err := s.knownProperties(ctx)
	if err != nil {
		return summary, err
	}

	for _, prod := range dataset.Products {
		req := productdomain.CreateRequest{UID: prod.UID, Name: prod.Name}
		for _, attr := range prod.Properties {
			uid := strings.TrimSpace(attr.UID)
			if _, ok := known[uid]; !ok {
				s.log.Warn("seed attribute skipped, unknown property",
					zap.String("product_uid", prod.UID),
					zap.String("property_uid", uid),
				)
				summary.AttributesSkipped++
				continue
			}
			req.Properties = append(req.Properties, productdomain.AttributeInput{
				UID:      uid,
				ValueUID: attr.ValueUID,
				Value:    attr.Value,
			})
		}

		if _, err := s.products.Create(ctx, req); err != nil {
			s.log.Warn("seed product skipped",
				zap.String("product_uid", prod.UID),
				zap.Error(err),
			)
			summary.ProductsFailed++
			continue
		}
		summary.ProductsCreated++
	}
	return summary, nil
}

func (s *Seeder) knownProperties(ctx context.Context) (map[string]struct{}, error) {
	items, err := s.properties.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item.UID] = struct{}{}
	}
	return out, nil
}
