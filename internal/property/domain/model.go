package domain

import "time"

// Kind is the value shape every assignment of a property must carry.
type Kind string

const (
	KindEnumerated Kind = "list"
	KindInteger    Kind = "int"
)

func (k Kind) Valid() bool {
	return k == KindEnumerated || k == KindInteger
}

type Property struct {
	UID       string          `json:"uid" gorm:"column:uid;primaryKey;type:varchar(191)"`
	Name      string          `json:"name" gorm:"type:text;not null"`
	Kind      Kind            `json:"kind" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null"`
	Values    []PropertyValue `json:"-" gorm:"foreignKey:PropertyUID;references:UID;constraint:OnDelete:CASCADE"`
}

func (Property) TableName() string { return "properties" }

type PropertyValue struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	PropertyUID string `json:"property_uid" gorm:"type:varchar(191);not null;uniqueIndex:ux_property_values_property_value,priority:1"`
	ValueUID    string `json:"value_uid" gorm:"type:varchar(191);not null;uniqueIndex:ux_property_values_property_value,priority:2"`
	Label       string `json:"label" gorm:"type:text;not null"`
}

func (PropertyValue) TableName() string { return "property_values" }
