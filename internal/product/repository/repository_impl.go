package repository

import (
	"context"

	"github.com/smallbiznis/catalog/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (uid, name, created_at) VALUES (?, ?, ?)`,
		product.UID,
		product.Name,
		product.CreatedAt,
	).Error
}

func (r *repo) CreateAttributes(ctx context.Context, db *gorm.DB, rows []domain.ProductProperty) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

func (r *repo) FindByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT uid, name, created_at FROM products WHERE uid = ?`,
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

func (r *repo) FindAttributes(ctx context.Context, db *gorm.DB, productUID string) ([]domain.ProductProperty, error) {
	var items []domain.ProductProperty
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_uid, property_uid, int_value, value_uid
		 FROM product_properties WHERE product_uid = ? ORDER BY id ASC`,
		productUID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error
	return count, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, uid string) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM products WHERE uid = ?`, uid)
	return res.RowsAffected, res.Error
}

func (r *repo) DeleteAttributes(ctx context.Context, db *gorm.DB, productUID string) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM product_properties WHERE product_uid = ?`, productUID)
	return res.RowsAffected, res.Error
}

func (r *repo) Expand(ctx context.Context, db *gorm.DB, productUIDs []string) (map[string][]domain.Attribute, error) {
	out := make(map[string][]domain.Attribute, len(productUIDs))
	if len(productUIDs) == 0 {
		return out, nil
	}

	var rows []domain.AttributeRow
	err := db.WithContext(ctx).Raw(
		`SELECT pp.id, pp.product_uid, pp.property_uid, p.name AS property_name, p.kind AS property_kind,
		        pp.int_value, pp.value_uid, pv.label AS value_label
		 FROM product_properties pp
		 JOIN properties p ON p.uid = pp.property_uid
		 LEFT JOIN property_values pv ON pv.property_uid = pp.property_uid AND pv.value_uid = pp.value_uid
		 WHERE pp.product_uid IN ?
		 ORDER BY pp.product_uid ASC, pp.id ASC`,
		productUIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		attr, ok := row.Resolve()
		if !ok {
			continue
		}
		out[row.ProductUID] = append(out[row.ProductUID], attr)
	}
	return out, nil
}
