package domain

import (
	"context"
	"errors"

	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type CreateRenterRequest struct {
	Name    string
	StallID string
}

// UpdateRenterRequest replaces the renter's name and stall. An empty StallID
// vacates the renter's current stall.
type UpdateRenterRequest struct {
	ID      string
	Name    string
	StallID string
}

type ListRenterRequest struct {
	pagination.Range
	ID        string
	Keyword   string
	Status    string
	SectionID string
}

type ListRenterResponse struct {
	pagination.RangePage
	Renters []RenterRow `json:"renters"`
}

type Service interface {
	Create(context.Context, CreateRenterRequest) (RenterRow, error)
	Get(ctx context.Context, id string) (RenterRow, error)
	List(context.Context, ListRenterRequest) (ListRenterResponse, error)
	Update(context.Context, UpdateRenterRequest) (RenterRow, error)
	SetStatus(ctx context.Context, id string, status referencedomain.Status) (Renter, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidStall        = errors.New("invalid_stall")
	ErrInvalidSection      = errors.New("invalid_section")
	ErrStallOccupied       = errors.New("stall_occupied")
	ErrNotFound            = errors.New("not_found")
)
