package domain

import (
	"context"
	"errors"

	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type CreateLocationRequest struct {
	Name   string
	Status string
}

type UpdateLocationRequest struct {
	ID     string
	Name   string
	Status string
}

type ListLocationRequest struct {
	pagination.Range
	Keyword string
	Status  string
}

type ListLocationResponse struct {
	pagination.RangePage
	Locations []LocationRow `json:"locations"`
}

type Service interface {
	Create(context.Context, CreateLocationRequest) (Location, error)
	Get(ctx context.Context, id string) (LocationRow, error)
	List(context.Context, ListLocationRequest) (ListLocationResponse, error)
	Update(context.Context, UpdateLocationRequest) (Location, error)
	SetStatus(ctx context.Context, id string, status referencedomain.Status) (Location, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
