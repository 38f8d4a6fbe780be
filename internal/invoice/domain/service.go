package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type GenerateRequest struct {
	Period    Period
	Confirmed bool
}

type GenerateResult struct {
	Period  string          `json:"period"`
	Count   int             `json:"count"`
	Skipped int             `json:"skipped"`
	Amount  decimal.Decimal `json:"amount"`
}

// Generator creates one rent invoice per occupied active stall for a period.
type Generator interface {
	Generate(context.Context, GenerateRequest) (GenerateResult, error)
}

type CreateInvoiceRequest struct {
	RenterID    string
	Type        string
	InvoiceDate string
	DueDate     string
	Amount      string
}

type UpdateInvoiceRequest struct {
	ID string
	CreateInvoiceRequest
}

type ListInvoiceRequest struct {
	pagination.Range
	RenterID string
}

type ListInvoiceResponse struct {
	pagination.RangePage
	Invoices []InvoiceRow `json:"invoices"`
}

type ListGenerationRequest struct {
	pagination.Range
}

type ListGenerationResponse struct {
	pagination.RangePage
	Generations []GenerationRecord `json:"generations"`
}

// Statement lists every invoice of one renter, newest first.
type Statement struct {
	Renter      RenterSummary   `json:"renter"`
	Invoices    []InvoiceRow    `json:"invoices"`
	Total       decimal.Decimal `json:"total"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (InvoiceRow, error)
	Get(ctx context.Context, id string) (InvoiceRow, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	Update(context.Context, UpdateInvoiceRequest) (InvoiceRow, error)
	ListGenerations(context.Context, ListGenerationRequest) (ListGenerationResponse, error)
	Statement(ctx context.Context, renterID string) (Statement, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidRenter       = errors.New("invalid_renter")
	ErrInvalidType         = errors.New("invalid_type")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidInvoiceDate  = errors.New("invalid_invoice_date")
	ErrInvalidDueDate      = errors.New("invalid_due_date")
	ErrNotFound            = errors.New("not_found")

	ErrConfirmationRequired = errors.New("confirmation_required")
	ErrAlreadyGenerated     = errors.New("already_generated")
	ErrNoBillableUnits      = errors.New("no_billable_units")
	ErrGenerationInProgress = errors.New("generation_in_progress")
	// ErrPersistence wraps storage failures during generation. It is retriable.
	ErrPersistence = errors.New("persistence_failed")
)
