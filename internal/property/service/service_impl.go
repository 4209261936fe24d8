package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalog/internal/clock"
	obsmetrics "github.com/smallbiznis/catalog/internal/observability/metrics"
	"github.com/smallbiznis/catalog/internal/property/domain"
	"github.com/smallbiznis/catalog/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("property.service"),
		repo:    p.Repo,
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, uid string) (*domain.Response, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, domain.ErrNotFound
	}

	var resp *domain.Response
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByUID(ctx, tx, uid)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		values, err := s.repo.FindValues(ctx, tx, []string{uid})
		if err != nil {
			return err
		}
		r := toResponse(*item, values)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	var resp []domain.Response
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.repo.FindAll(ctx, tx)
		if err != nil {
			return err
		}

		uids := make([]string, 0, len(items))
		for _, item := range items {
			if item.Kind == domain.KindEnumerated {
				uids = append(uids, item.UID)
			}
		}
		values, err := s.repo.FindValues(ctx, tx, uids)
		if err != nil {
			return err
		}
		byProperty := make(map[string][]domain.PropertyValue, len(uids))
		for _, v := range values {
			byProperty[v.PropertyUID] = append(byProperty[v.PropertyUID], v)
		}

		resp = make([]domain.Response, 0, len(items))
		for _, item := range items {
			resp = append(resp, toResponse(item, byProperty[item.UID]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", domain.ErrInvalidSchema)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidSchema)
	}
	kind := domain.Kind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: type must be %q or %q", domain.ErrInvalidSchema, domain.KindEnumerated, domain.KindInteger)
	}

	property := &domain.Property{
		UID:       uid,
		Name:      name,
		Kind:      kind,
		CreatedAt: s.clock.Now(),
	}

	var values []domain.PropertyValue
	if kind == domain.KindEnumerated {
		var err error
		values, err = s.buildValues(uid, req.Values)
		if err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByUID(ctx, tx, uid)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateKey
		}

		if err := s.repo.Create(ctx, tx, property); err != nil {
			return err
		}
		return s.repo.CreateValues(ctx, tx, values)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateKey
		}
		return nil, err
	}

	s.metrics.RecordWrite(ctx, "property", "create")
	s.log.Info("property created",
		zap.String("uid", uid),
		zap.String("kind", string(kind)),
		zap.Int("values", len(values)),
	)

	resp := toResponse(*property, values)
	return &resp, nil
}

func (s *Service) buildValues(propertyUID string, inputs []domain.ValueInput) ([]domain.PropertyValue, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: list property requires at least one value", domain.ErrInvalidSchema)
	}

	seen := make(map[string]struct{}, len(inputs))
	values := make([]domain.PropertyValue, 0, len(inputs))
	for _, in := range inputs {
		valueUID := strings.TrimSpace(in.ValueUID)
		if valueUID == "" {
			return nil, fmt.Errorf("%w: value_uid is required", domain.ErrInvalidSchema)
		}
		if _, dup := seen[valueUID]; dup {
			return nil, fmt.Errorf("%w: duplicate value_uid %q", domain.ErrInvalidSchema, valueUID)
		}
		seen[valueUID] = struct{}{}

		values = append(values, domain.PropertyValue{
			ID:          s.genID.Generate().Int64(),
			PropertyUID: propertyUID,
			ValueUID:    valueUID,
			Label:       strings.TrimSpace(in.Label),
		})
	}
	return values, nil
}

// Delete removes the property and its values. Product assignments that
// reference it are left in place and ignored by read paths.
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

		if _, err := s.repo.DeleteValues(ctx, tx, uid); err != nil {
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
			s.log.Error("delete property failed", zap.String("uid", uid), zap.Error(err))
		}
		return err
	}

	s.metrics.RecordWrite(ctx, "property", "delete")
	return nil
}

func toResponse(p domain.Property, values []domain.PropertyValue) domain.Response {
	resp := domain.Response{
		UID:  p.UID,
		Name: p.Name,
		Kind: p.Kind,
	}
	if p.Kind != domain.KindEnumerated {
		return resp
	}

	resp.Values = make([]domain.ValueResponse, 0, len(values))
	for _, v := range values {
		resp.Values = append(resp.Values, domain.ValueResponse{
			ValueUID: v.ValueUID,
			Label:    v.Label,
		})
	}
	return resp
}
