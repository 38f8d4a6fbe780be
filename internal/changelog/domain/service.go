package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type RecordRequest struct {
	New      Values
	Original Values
	Ref      EntityRef
	// ActorID overrides the account carried by the context.
	ActorID *snowflake.ID
}

type RecordResult struct {
	Diffs      []FieldDiff
	Dispatched bool
}

type ListChangeLogRequest struct {
	pagination.Pagination
	EntityKind string
	EntityID   string
}

type ListChangeLogResponse struct {
	pagination.PageInfo
	ChangeLogs []ChangeLog `json:"change_logs"`
}

// Service records field-level changes. A failed write is never returned to
// the caller of RecordChanges; it ends up in the error log.
type Service interface {
	RecordChanges(ctx context.Context, req RecordRequest) (RecordResult, error)
	List(ctx context.Context, req ListChangeLogRequest) (ListChangeLogResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEntityKind   = errors.New("invalid_entity_kind")
	ErrInvalidEntityID     = errors.New("invalid_entity_id")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)
