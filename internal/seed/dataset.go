package seed

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Dataset struct {
	Properties []PropertySeed `mapstructure:"properties" validate:"dive"`
	Products   []ProductSeed  `mapstructure:"products" validate:"dive"`
}

type PropertySeed struct {
	UID    string      `mapstructure:"uid" validate:"required"`
	Name   string      `mapstructure:"name" validate:"required"`
	Type   string      `mapstructure:"type" validate:"required,caseinsensitiveoneof=list int"`
	Values []ValueSeed `mapstructure:"values" validate:"dive"`
}

// ValueSeed accepts the older "uid" key as an alias for "value_uid".
type ValueSeed struct {
	ValueUID  string `mapstructure:"value_uid" validate:"required_without=LegacyUID"`
	LegacyUID string `mapstructure:"uid"`
	Value     string `mapstructure:"value" validate:"required"`
}

func (v ValueSeed) UID() string {
	if uid := strings.TrimSpace(v.ValueUID); uid != "" {
		return uid
	}
	return strings.TrimSpace(v.LegacyUID)
}

type ProductSeed struct {
	UID        string          `mapstructure:"uid" validate:"required"`
	Name       string          `mapstructure:"name" validate:"required"`
	Properties []AttributeSeed `mapstructure:"properties" validate:"dive"`
}

type AttributeSeed struct {
	UID      string  `mapstructure:"uid" validate:"required"`
	ValueUID *string `mapstructure:"value_uid"`
	Value    *int64  `mapstructure:"value"`
}

// LoadDataset reads a json or yaml dataset, picking the format from the extension.
func LoadDataset(path string) (*Dataset, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read seed dataset %s: %w", path, err)
	}

	var ds Dataset
	if err := v.Unmarshal(&ds); err != nil {
		return nil, fmt.Errorf("decode seed dataset %s: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (d *Dataset) Validate() error {
	if err := newValidator().Struct(d); err != nil {
		return fmt.Errorf("invalid seed dataset: %w", err)
	}
	return nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("caseinsensitiveoneof", caseInsensitiveOneOf)
	return validate
}

func caseInsensitiveOneOf(fl validator.FieldLevel) bool {
	val := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	for _, candidate := range strings.Fields(strings.ToLower(fl.Param())) {
		if val == candidate {
			return true
		}
	}
	return false
}
