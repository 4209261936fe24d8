package domain

import (
	"time"

	propertydomain "github.com/smallbiznis/catalog/internal/property/domain"
)

type Product struct {
	UID        string            `json:"uid" gorm:"column:uid;primaryKey;type:varchar(191)"`
	Name       string            `json:"name" gorm:"type:text;not null;index:ix_products_name"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null"`
	Properties []ProductProperty `json:"-" gorm:"foreignKey:ProductUID;references:UID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string { return "products" }

// ProductProperty assigns one property value to a product. Exactly one of
// IntValue and ValueUID is set, matching the property kind at write time.
// PropertyUID has no foreign key, so deleting a property leaves its
// assignments behind.
type ProductProperty struct {
	ID          int64   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ProductUID  string  `json:"product_uid" gorm:"type:varchar(191);not null;index:ix_product_properties_product"`
	PropertyUID string  `json:"property_uid" gorm:"type:varchar(191);not null;index:ix_product_properties_property_value,priority:1;index:ix_product_properties_property_int,priority:1"`
	IntValue    *int64  `json:"int_value,omitempty" gorm:"index:ix_product_properties_property_int,priority:2"`
	ValueUID    *string `json:"value_uid,omitempty" gorm:"type:varchar(191);index:ix_product_properties_property_value,priority:2"`
}

func (ProductProperty) TableName() string { return "product_properties" }

// AttributeRow is an assignment joined with its property and, for
// enumerated properties, the matching value label.
type AttributeRow struct {
	ID           int64
	ProductUID   string
	PropertyUID  string
	PropertyName string
	PropertyKind propertydomain.Kind
	IntValue     *int64
	ValueUID     *string
	ValueLabel   *string
}

// Resolve converts the row to its display form. Rows whose payload does not
// match the property kind, or whose value no longer exists, are dropped.
func (r AttributeRow) Resolve() (Attribute, bool) {
	attr := Attribute{
		UID:  r.PropertyUID,
		Name: r.PropertyName,
	}
	switch r.PropertyKind {
	case propertydomain.KindEnumerated:
		if r.ValueUID == nil || r.ValueLabel == nil {
			return Attribute{}, false
		}
		valueUID := *r.ValueUID
		attr.ValueUID = &valueUID
		attr.Value = *r.ValueLabel
	case propertydomain.KindInteger:
		if r.IntValue == nil {
			return Attribute{}, false
		}
		attr.Value = *r.IntValue
	default:
		return Attribute{}, false
	}
	return attr, true
}
