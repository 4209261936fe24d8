package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, property *Property) error
	CreateValues(ctx context.Context, db *gorm.DB, values []PropertyValue) error
	FindByUID(ctx context.Context, db *gorm.DB, uid string) (*Property, error)
	FindByUIDs(ctx context.Context, db *gorm.DB, uids []string) ([]Property, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Property, error)
	FindValues(ctx context.Context, db *gorm.DB, propertyUIDs []string) ([]PropertyValue, error)
	Delete(ctx context.Context, db *gorm.DB, uid string) (int64, error)
	DeleteValues(ctx context.Context, db *gorm.DB, propertyUID string) (int64, error)
}
