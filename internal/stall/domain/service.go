package domain

import (
	"context"
	"errors"

	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type CreateStallRequest struct {
	SectionID              string
	RenterID               string
	Name                   string
	Rent                   string
	RentType               string
	OccupancyFee           string
	OccupancyRenewalPeriod string
}

// UpdateStallRequest replaces the editable fields. An empty RenterID vacates the stall.
type UpdateStallRequest struct {
	ID                     string
	SectionID              string
	RenterID               string
	Name                   string
	Rent                   string
	RentType               string
	OccupancyFee           string
	OccupancyRenewalPeriod string
}

type ListStallRequest struct {
	pagination.Range
	SectionID string
	RenterID  string
	Status    string
}

type ListStallResponse struct {
	pagination.RangePage
	Stalls []StallRow `json:"stalls"`
}

type Service interface {
	Create(context.Context, CreateStallRequest) (Stall, error)
	Get(ctx context.Context, id string) (StallRow, error)
	List(context.Context, ListStallRequest) (ListStallResponse, error)
	Update(context.Context, UpdateStallRequest) (Stall, error)
	SetStatus(ctx context.Context, id string, status referencedomain.Status) (Stall, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidSection      = errors.New("invalid_section")
	ErrInvalidRenter       = errors.New("invalid_renter")
	ErrInvalidRent         = errors.New("invalid_rent")
	ErrInvalidOccupancyFee = errors.New("invalid_occupancy_fee")
	ErrRenterOccupied      = errors.New("renter_already_assigned")
	ErrNotFound            = errors.New("not_found")
)
