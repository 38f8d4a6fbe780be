package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type CreateAccountRequest struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	GrantAccess bool
}

type UpdateAccountRequest struct {
	ID         string
	FirstName  string
	MiddleName string
	LastName   string
	Email      string
}

type ListAccountRequest struct {
	pagination.Range
	ID      string
	Keyword string
	Status  string
}

type ListAccountResponse struct {
	pagination.RangePage
	Accounts []AccountRow `json:"accounts"`
}

type Service interface {
	Create(context.Context, CreateAccountRequest) (AccountRow, error)
	Get(ctx context.Context, id string) (AccountRow, error)
	List(context.Context, ListAccountRequest) (ListAccountResponse, error)
	Update(context.Context, UpdateAccountRequest) (AccountRow, error)
	SetStatus(ctx context.Context, id string, status referencedomain.Status) (AccountRow, error)
	GrantAccess(ctx context.Context, id string) (AccountRow, error)
	RevokeAccess(ctx context.Context, id string) (AccountRow, error)
	// Lookup resolves an account by id for request authorization. It returns
	// ErrNotFound for unknown ids.
	Lookup(ctx context.Context, orgID, id snowflake.ID) (AccountRow, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidFirstName    = errors.New("invalid_firstname")
	ErrInvalidLastName     = errors.New("invalid_lastname")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrEmailTaken          = errors.New("email_taken")
	ErrNotFound            = errors.New("not_found")
)
