package repository

import (
	"context"

	"github.com/smallbiznis/catalog/internal/property/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, property *domain.Property) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO properties (uid, name, kind, created_at) VALUES (?, ?, ?, ?)`,
		property.UID,
		property.Name,
		property.Kind,
		property.CreatedAt,
	).Error
}

func (r *repo) CreateValues(ctx context.Context, db *gorm.DB, values []domain.PropertyValue) error {
	if len(values) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&values).Error
}

func (r *repo) FindByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.Property, error) {
	var p domain.Property
	err := db.WithContext(ctx).Raw(
		`SELECT uid, name, kind, created_at FROM properties WHERE uid = ?`,
		uid,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.UID == "" {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByUIDs(ctx context.Context, db *gorm.DB, uids []string) ([]domain.Property, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	var items []domain.Property
	err := db.WithContext(ctx).Raw(
		`SELECT uid, name, kind, created_at FROM properties WHERE uid IN ? ORDER BY uid ASC`,
		uids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]domain.Property, error) {
	var items []domain.Property
	err := db.WithContext(ctx).Raw(
		`SELECT uid, name, kind, created_at FROM properties ORDER BY uid ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindValues returns the values of every listed property ordered by property, then insertion.
func (r *repo) FindValues(ctx context.Context, db *gorm.DB, propertyUIDs []string) ([]domain.PropertyValue, error) {
	if len(propertyUIDs) == 0 {
		return nil, nil
	}
	var items []domain.PropertyValue
	err := db.WithContext(ctx).Raw(
		`SELECT id, property_uid, value_uid, label FROM property_values
		 WHERE property_uid IN ? ORDER BY property_uid ASC, id ASC`,
		propertyUIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, uid string) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM properties WHERE uid = ?`, uid)
	return res.RowsAffected, res.Error
}

func (r *repo) DeleteValues(ctx context.Context, db *gorm.DB, propertyUID string) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM property_values WHERE property_uid = ?`, propertyUID)
	return res.RowsAffected, res.Error
}
