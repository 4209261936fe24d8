package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	CreateAttributes(ctx context.Context, db *gorm.DB, rows []ProductProperty) error
	FindByUID(ctx context.Context, db *gorm.DB, uid string) (*Product, error)
	FindAttributes(ctx context.Context, db *gorm.DB, productUID string) ([]ProductProperty, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, uid string) (int64, error)
	DeleteAttributes(ctx context.Context, db *gorm.DB, productUID string) (int64, error)
	// Expand resolves the attributes of every listed product in one query.
	Expand(ctx context.Context, db *gorm.DB, productUIDs []string) (map[string][]Attribute, error)
}
