package pdf

import (
	"context"
	"io"

	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
)

// Provider renders invoices and renter statements as PDF documents.
type Provider interface {
	RenderInvoice(ctx context.Context, invoice invoicedomain.InvoiceRow) (io.Reader, error)
	RenderStatement(ctx context.Context, statement invoicedomain.Statement) (io.Reader, error)
}
