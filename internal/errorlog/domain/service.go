package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type ListErrorLogRequest struct {
	pagination.Pagination
	Transaction string
	Table       string
}

type ListErrorLogResponse struct {
	pagination.PageInfo
	ErrorLogs []ErrorLog `json:"error_logs"`
}

// Service is the error-log sink. Record never blocks the caller on the
// insert; Write does and reports the outcome.
type Service interface {
	Record(ctx context.Context, entry Entry)
	Write(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListErrorLogRequest) (ListErrorLogResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidTransaction  = errors.New("invalid_transaction")
)
