package domain

import (
	"context"
	"errors"

	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type CreateNonrentableRequest struct {
	SectionID string
	Name      string
	Status    string
}

type UpdateNonrentableRequest struct {
	ID        string
	SectionID string
	Name      string
	Status    string
}

type ListNonrentableRequest struct {
	pagination.Range
	Status    string
	SectionID string
}

type ListNonrentableResponse struct {
	pagination.RangePage
	Nonrentables []NonrentableRow `json:"nonrentables"`
}

type Service interface {
	Create(context.Context, CreateNonrentableRequest) (Nonrentable, error)
	Get(ctx context.Context, id string) (NonrentableRow, error)
	List(context.Context, ListNonrentableRequest) (ListNonrentableResponse, error)
	Update(context.Context, UpdateNonrentableRequest) (Nonrentable, error)
	SetStatus(ctx context.Context, id string, status referencedomain.Status) (Nonrentable, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidSection      = errors.New("invalid_section")
	ErrNotFound            = errors.New("not_found")
)
