package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, uid string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Delete(ctx context.Context, uid string) error
}

type CreateRequest struct {
	UID    string       `json:"uid"`
	Name   string       `json:"name"`
	Kind   string       `json:"type"`
	Values []ValueInput `json:"values"`
}

type ValueInput struct {
	ValueUID string `json:"value_uid"`
	Label    string `json:"value"`
}

type Response struct {
	UID    string          `json:"uid"`
	Name   string          `json:"name"`
	Kind   Kind            `json:"type"`
	Values []ValueResponse `json:"values,omitempty"`
}

type ValueResponse struct {
	ValueUID string `json:"value_uid"`
	Label    string `json:"value"`
}

var (
	ErrInvalidSchema = errors.New("invalid_schema")
	ErrDuplicateKey  = errors.New("duplicate_key")
	ErrNotFound      = errors.New("not_found")
)
