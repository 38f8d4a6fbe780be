package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleSuperAdmin = "superadmin"
	RoleMember     = "member"
)

// Actor is a resolved caller with its role in one organization.
type Actor struct {
	AccountID snowflake.ID
	OrgID     snowflake.ID
	Email     string
	Role      string
}

type Service interface {
	// ResolveActor maps an account to its role. Accounts without a role get
	// ErrForbidden.
	ResolveActor(ctx context.Context, orgID, accountID snowflake.ID) (Actor, error)
	Authorize(ctx context.Context, actor Actor, object, action string) error
}

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)
