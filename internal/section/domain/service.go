package domain

import (
	"context"
	"errors"

	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type CreateSectionRequest struct {
	LocationID string
	Name       string
	Status     string
}

type UpdateSectionRequest struct {
	ID         string
	LocationID string
	Name       string
	Status     string
}

type ListSectionRequest struct {
	pagination.Range
	Keyword    string
	Status     string
	LocationID string
}

type ListSectionResponse struct {
	pagination.RangePage
	Sections []SectionRow `json:"sections"`
}

type Service interface {
	Create(context.Context, CreateSectionRequest) (Section, error)
	Get(ctx context.Context, id string) (SectionRow, error)
	List(context.Context, ListSectionRequest) (ListSectionResponse, error)
	Update(context.Context, UpdateSectionRequest) (Section, error)
	SetStatus(ctx context.Context, id string, status referencedomain.Status) (Section, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidLocation     = errors.New("invalid_location")
	ErrNotFound            = errors.New("not_found")
)
