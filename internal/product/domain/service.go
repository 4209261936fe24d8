package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, uid string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Delete(ctx context.Context, uid string) error
}

type CreateRequest struct {
	UID        string           `json:"uid"`
	Name       string           `json:"name"`
	Properties []AttributeInput `json:"properties"`
}

// AttributeInput carries ValueUID for list properties and Value for int properties.
type AttributeInput struct {
	UID      string  `json:"uid"`
	ValueUID *string `json:"value_uid,omitempty"`
	Value    *int64  `json:"value,omitempty"`
}

type Response struct {
	UID        string      `json:"uid"`
	Name       string      `json:"name"`
	Properties []Attribute `json:"properties"`
}

// Attribute is a resolved assignment. Value is the label for list
// properties and the integer for int properties.
type Attribute struct {
	UID      string  `json:"uid"`
	Name     string  `json:"name"`
	ValueUID *string `json:"value_uid,omitempty"`
	Value    any     `json:"value"`
}

var (
	ErrInvalidUID      = errors.New("invalid_uid")
	ErrInvalidName     = errors.New("invalid_name")
	ErrDuplicateKey    = errors.New("duplicate_key")
	ErrNotFound        = errors.New("not_found")
	ErrUnknownProperty = errors.New("unknown_property")
	ErrMissingValue    = errors.New("missing_value")
	ErrInvalidValue    = errors.New("invalid_value")
)
