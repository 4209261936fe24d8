package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/catalog/internal/clock"
	obsmetrics "github.com/smallbiznis/catalog/internal/observability/metrics"
	"github.com/smallbiznis/catalog/internal/product/domain"
	propertydomain "github.com/smallbiznis/catalog/internal/property/domain"
	"github.com/smallbiznis/catalog/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	PropertyRepo propertydomain.Repository
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	repo         domain.Repository
	propertyRepo propertydomain.Repository
	genID        *snowflake.Node
	clock        clock.Clock
	metrics      *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("product.service"),
		repo:         p.Repo,
		propertyRepo: p.PropertyRepo,
		genID:        p.GenID,
		clock:        p.Clock,
		metrics:      p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, uid string) (*domain.Response, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, domain.ErrNotFound
	}

	var resp *domain.Response
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		resp, err = s.load(ctx, tx, uid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		return nil, domain.ErrInvalidUID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var resp *domain.Response
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByUID(ctx, tx, uid)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateKey
		}

		rows, err := s.buildAttributes(ctx, tx, uid, req.Properties)
		if err != nil {
			return err
		}

		product := &domain.Product{
			UID:       uid,
			Name:      name,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.Create(ctx, tx, product); err != nil {
			return err
		}
		if err := s.repo.CreateAttributes(ctx, tx, rows); err != nil {
			return err
		}

		resp, err = s.load(ctx, tx, uid)
		return err
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateKey
		}
		return nil, err
	}

	s.metrics.RecordWrite(ctx, "product", "create")
	s.log.Info("product created",
		zap.String("uid", uid),
		zap.Int("attributes", len(req.Properties)),
	)
	return resp, nil
}

// buildAttributes validates every input against the schema before anything
// is written, so a bad attribute aborts the whole create.
func (s *Service) buildAttributes(ctx context.Context, tx *gorm.DB, productUID string, inputs []domain.AttributeInput) ([]domain.ProductProperty, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	propertyUIDs := lo.Uniq(lo.Map(inputs, func(in domain.AttributeInput, _ int) string {
		return strings.TrimSpace(in.UID)
	}))
	properties, err := s.propertyRepo.FindByUIDs(ctx, tx, propertyUIDs)
	if err != nil {
		return nil, err
	}
	kinds := lo.SliceToMap(properties, func(p propertydomain.Property) (string, propertydomain.Kind) {
		return p.UID, p.Kind
	})

	enumerated := lo.FilterMap(properties, func(p propertydomain.Property, _ int) (string, bool) {
		return p.UID, p.Kind == propertydomain.KindEnumerated
	})
	values, err := s.propertyRepo.FindValues(ctx, tx, enumerated)
	if err != nil {
		return nil, err
	}
	legal := make(map[string]map[string]struct{}, len(enumerated))
	for _, v := range values {
		if legal[v.PropertyUID] == nil {
			legal[v.PropertyUID] = make(map[string]struct{})
		}
		legal[v.PropertyUID][v.ValueUID] = struct{}{}
	}

	rows := make([]domain.ProductProperty, 0, len(inputs))
	for _, in := range inputs {
		propertyUID := strings.TrimSpace(in.UID)
		kind, ok := kinds[propertyUID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProperty, propertyUID)
		}

		row := domain.ProductProperty{
			ID:          s.genID.Generate().Int64(),
			ProductUID:  productUID,
			PropertyUID: propertyUID,
		}
		switch kind {
		case propertydomain.KindInteger:
			if in.Value == nil {
				return nil, fmt.Errorf("%w: property %q requires value", domain.ErrMissingValue, propertyUID)
			}
			v := *in.Value
			row.IntValue = &v
		case propertydomain.KindEnumerated:
			if in.ValueUID == nil || strings.TrimSpace(*in.ValueUID) == "" {
				return nil, fmt.Errorf("%w: property %q requires value_uid", domain.ErrMissingValue, propertyUID)
			}
			valueUID := strings.TrimSpace(*in.ValueUID)
			if _, ok := legal[propertyUID][valueUID]; !ok {
				return nil, fmt.Errorf("%w: %q is not a value of %q", domain.ErrInvalidValue, valueUID, propertyUID)
			}
			row.ValueUID = &valueUID
		default:
			return nil, fmt.Errorf("%w: %q has unsupported kind %q", domain.ErrUnknownProperty, propertyUID, kind)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Service) Delete(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return domain.ErrNotFound
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByUID(ctx, tx, uid)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		if _, err := s.repo.DeleteAttributes(ctx, tx, uid); err != nil {
			return err
		}
		affected, err := s.repo.Delete(ctx, tx, uid)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("delete product failed", zap.String("uid", uid), zap.Error(err))
		}
		return err
	}

	s.metrics.RecordWrite(ctx, "product", "delete")
	return nil
}

func (s *Service) load(ctx context.Context, tx *gorm.DB, uid string) (*domain.Response, error) {
	item, err := s.repo.FindByUID(ctx, tx, uid)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	attrs, err := s.repo.Expand(ctx, tx, []string{uid})
	if err != nil {
		return nil, err
	}

	return &domain.Response{
		UID:        item.UID,
		Name:       item.Name,
		Properties: nonNil(attrs[uid]),
	}, nil
}

func nonNil(attrs []domain.Attribute) []domain.Attribute {
	if attrs == nil {
		return []domain.Attribute{}
	}
	return attrs
}
